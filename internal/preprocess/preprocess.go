// Package preprocess converts raw upload bytes into the tensor layout the
// classifier was trained on.
package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode is returned when upload bytes are not a decodable image.
var ErrDecode = errors.New("preprocess: cannot decode image")

// Decode parses raw bytes into an image. Supported formats: JPEG, PNG, GIF,
// WebP, BMP, TIFF.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// Normalize converts an image into a flat float32 tensor of shape
// [1, size, size, 3] (NHWC with a leading batch dimension of 1).
//
// The image is resized directly to size x size with Lanczos3 resampling
// (no aspect-ratio preservation, matching training), alpha is dropped, and
// each channel value is mapped from [0, 255] to [-1, 1] with
// v' = v/127.5 - 1.0. This affine transform must match the training-time
// rescaling exactly; a different constant degrades accuracy silently.
func Normalize(img image.Image, size int) []float32 {
	resized := resize.Resize(uint(size), uint(size), img, resize.Lanczos3)

	bounds := resized.Bounds()
	data := make([]float32, size*size*3)

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			// RGBA returns 16-bit channels; shift down to 8-bit.
			data[i] = float32(r>>8)/127.5 - 1.0
			data[i+1] = float32(g>>8)/127.5 - 1.0
			data[i+2] = float32(b>>8)/127.5 - 1.0
			i += 3
		}
	}
	return data
}
