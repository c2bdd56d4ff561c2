// Package model loads the exported classifier and runs forward passes over
// it. The ONNX graph ships with a JSON manifest; the manifest goes through a
// schema-compatibility transform before decoding so files written by newer
// export tooling still load here.
package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	// ErrNotFound means the model or manifest file does not exist.
	ErrNotFound = errors.New("model: file not found")
	// ErrNotLoaded means inference was requested before the service
	// finished loading, or after loading failed.
	ErrNotLoaded = errors.New("model: not loaded")
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Safe to call multiple
// times; only the first call has any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// Handle is an immutable loaded model: weights plus pre-allocated I/O
// tensors, usable for forward passes only. The underlying tensors are shared
// across calls and are not reentrant, so Infer serializes through a single
// execution slot.
type Handle struct {
	mu       sync.Mutex
	session  *ort.AdvancedSession
	input    *ort.Tensor[float32]
	output   *ort.Tensor[float32]
	manifest Manifest
	closed   bool
}

// Options adjusts model loading.
type Options struct {
	// ORTLibraryPath points at the ONNX Runtime shared library. Empty means
	// "libonnxruntime.so next to the model file".
	ORTLibraryPath string
}

// Load reads the manifest, initializes the runtime and builds an inference
// session. It is one-time and blocking; callers must not accept requests
// until it returns. A missing model or manifest file is ErrNotFound, any
// other failure is a load error.
func Load(modelPath, manifestPath string, opts Options) (*Handle, error) {
	if _, err := os.Stat(modelPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: model %s", ErrNotFound, modelPath)
		}
		return nil, fmt.Errorf("model: stat %s: %w", modelPath, err)
	}

	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	libPath := opts.ORTLibraryPath
	if libPath == "" {
		libPath = filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	}
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("model: initializing ONNX runtime: %w", err)
	}

	// Pin the batch dimension to 1; the service runs single-image passes.
	inShape := fixedBatchShape(manifest.Input.Shape)
	outShape := fixedBatchShape(manifest.Output.Shape)

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(inShape...))
	if err != nil {
		return nil, fmt.Errorf("model: creating input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(outShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("model: creating output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{manifest.Input.Name}, []string{manifest.Output.Name},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("model: creating session from %s: %w", modelPath, err)
	}

	return &Handle{
		session:  session,
		input:    inputTensor,
		output:   outputTensor,
		manifest: manifest,
	}, nil
}

func fixedBatchShape(shape []int64) []int64 {
	fixed := make([]int64, len(shape))
	copy(fixed, shape)
	if len(fixed) > 0 && fixed[0] < 1 {
		fixed[0] = 1
	}
	return fixed
}

// Manifest returns the decoded model manifest.
func (h *Handle) Manifest() Manifest { return h.manifest }

// Infer runs exactly one forward pass and returns a copy of the output
// vector. No parameter updates, no randomness: identical input yields an
// identical output vector on every call. Safe for concurrent use.
func (h *Handle) Infer(data []float32) ([]float32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrNotLoaded
	}
	if want := len(h.input.GetData()); len(data) != want {
		return nil, fmt.Errorf("model: input has %d values, want %d", len(data), want)
	}

	copy(h.input.GetData(), data)
	if err := h.session.Run(); err != nil {
		return nil, fmt.Errorf("model: inference failed: %w", err)
	}

	src := h.output.GetData()
	out := make([]float32, len(src))
	copy(out, src)
	return out, nil
}

// Close releases session and tensor resources. The process-wide runtime
// environment stays up; it is shared with any other session in the process.
func (h *Handle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	if h.session != nil {
		h.session.Destroy()
	}
	if h.input != nil {
		h.input.Destroy()
	}
	if h.output != nil {
		h.output.Destroy()
	}
}
