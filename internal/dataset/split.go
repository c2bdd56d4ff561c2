// Package dataset splits a labeled image directory into train/val/test
// subsets by copying files, preserving the per-class directory layout the
// label builder and the training pipeline both depend on.
package dataset

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

// imageExtensions lists the file types included in a split; everything else
// in a class directory is ignored.
var imageExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".webp": true,
	".bmp":  true,
	".tiff": true,
}

// Options configures a split run.
type Options struct {
	SourceDir  string
	OutputDir  string
	TrainRatio float64
	ValRatio   float64
	Seed       int64
}

// ClassSummary reports how one class was partitioned.
type ClassSummary struct {
	Class string
	Train int
	Val   int
	Test  int
}

func (c ClassSummary) Total() int { return c.Train + c.Val + c.Test }

// Split copies every class directory under SourceDir into
// OutputDir/{train,val,test}/<class>/. Files are shuffled with the given
// seed, so identical inputs and seed produce identical partitions. The test
// share is whatever remains after the train and val ratios.
func Split(opts Options) ([]ClassSummary, error) {
	if opts.TrainRatio < 0 || opts.ValRatio < 0 || opts.TrainRatio+opts.ValRatio > 1 {
		return nil, fmt.Errorf("dataset: invalid ratios train=%.2f val=%.2f", opts.TrainRatio, opts.ValRatio)
	}

	entries, err := os.ReadDir(opts.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("dataset: reading source dir: %w", err)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	var summaries []ClassSummary

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		summary, err := splitClass(opts, rng, entry.Name())
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	if len(summaries) == 0 {
		return nil, fmt.Errorf("dataset: no class directories in %s", opts.SourceDir)
	}
	return summaries, nil
}

func splitClass(opts Options, rng *rand.Rand, class string) (ClassSummary, error) {
	classDir := filepath.Join(opts.SourceDir, class)
	entries, err := os.ReadDir(classDir)
	if err != nil {
		return ClassSummary{}, fmt.Errorf("dataset: reading class %s: %w", class, err)
	}

	// ReadDir returns names sorted, so the shuffle below is reproducible.
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, e.Name())
		}
	}
	rng.Shuffle(len(files), func(i, j int) {
		files[i], files[j] = files[j], files[i]
	})

	total := len(files)
	trainEnd := int(float64(total) * opts.TrainRatio)
	valEnd := trainEnd + int(float64(total)*opts.ValRatio)

	splits := map[string][]string{
		"train": files[:trainEnd],
		"val":   files[trainEnd:valEnd],
		"test":  files[valEnd:],
	}

	for name, subset := range splits {
		targetDir := filepath.Join(opts.OutputDir, name, class)
		if err := os.MkdirAll(targetDir, 0o755); err != nil {
			return ClassSummary{}, fmt.Errorf("dataset: creating %s: %w", targetDir, err)
		}
		for _, f := range subset {
			if err := copyFile(filepath.Join(classDir, f), filepath.Join(targetDir, f)); err != nil {
				return ClassSummary{}, err
			}
		}
	}

	return ClassSummary{
		Class: class,
		Train: len(splits["train"]),
		Val:   len(splits["val"]),
		Test:  len(splits["test"]),
	}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("dataset: opening %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("dataset: stat %s: %w", src, err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("dataset: creating %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("dataset: copying %s: %w", src, err)
	}
	return out.Close()
}
