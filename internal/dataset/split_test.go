package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, classes map[string]int) string {
	t.Helper()
	src := t.TempDir()
	for class, n := range classes {
		dir := filepath.Join(src, class)
		require.NoError(t, os.Mkdir(dir, 0o755))
		for i := 0; i < n; i++ {
			name := fmt.Sprintf("img_%03d.jpg", i)
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
		}
	}
	return src
}

func listFiles(t *testing.T, dir string) []string {
	t.Helper()
	var names []string
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestSplitRatios(t *testing.T) {
	src := writeSource(t, map[string]int{"gir": 100, "sahiwal": 40})
	out := t.TempDir()

	summaries, err := Split(Options{
		SourceDir: src, OutputDir: out,
		TrainRatio: 0.70, ValRatio: 0.15, Seed: 42,
	})
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byClass := map[string]ClassSummary{}
	for _, s := range summaries {
		byClass[s.Class] = s
	}
	assert.Equal(t, 70, byClass["gir"].Train)
	assert.Equal(t, 15, byClass["gir"].Val)
	assert.Equal(t, 15, byClass["gir"].Test)
	assert.Equal(t, 100, byClass["gir"].Total())
	assert.Equal(t, 40, byClass["sahiwal"].Total())

	assert.Len(t, listFiles(t, filepath.Join(out, "train", "gir")), 70)
	assert.Len(t, listFiles(t, filepath.Join(out, "val", "gir")), 15)
	assert.Len(t, listFiles(t, filepath.Join(out, "test", "gir")), 15)
}

func TestSplitPartitionsWithoutOverlap(t *testing.T) {
	src := writeSource(t, map[string]int{"kankrej": 20})
	out := t.TempDir()

	_, err := Split(Options{
		SourceDir: src, OutputDir: out,
		TrainRatio: 0.70, ValRatio: 0.15, Seed: 42,
	})
	require.NoError(t, err)

	seen := map[string]string{}
	for _, subset := range []string{"train", "val", "test"} {
		for _, name := range listFiles(t, filepath.Join(out, subset, "kankrej")) {
			prev, dup := seen[name]
			require.False(t, dup, "%s appears in both %s and %s", name, prev, subset)
			seen[name] = subset
		}
	}
	assert.Len(t, seen, 20)
}

func TestSplitDeterministicUnderSeed(t *testing.T) {
	src := writeSource(t, map[string]int{"ongole": 30})

	outA := t.TempDir()
	outB := t.TempDir()
	for _, out := range []string{outA, outB} {
		_, err := Split(Options{
			SourceDir: src, OutputDir: out,
			TrainRatio: 0.70, ValRatio: 0.15, Seed: 42,
		})
		require.NoError(t, err)
	}

	for _, subset := range []string{"train", "val", "test"} {
		assert.Equal(t,
			listFiles(t, filepath.Join(outA, subset, "ongole")),
			listFiles(t, filepath.Join(outB, subset, "ongole")),
			"subset %s differs between runs", subset)
	}
}

func TestSplitSkipsNonImageFiles(t *testing.T) {
	src := writeSource(t, map[string]int{"gir": 4})
	require.NoError(t, os.WriteFile(filepath.Join(src, "gir", "notes.txt"), []byte("x"), 0o644))
	out := t.TempDir()

	summaries, err := Split(Options{
		SourceDir: src, OutputDir: out,
		TrainRatio: 0.5, ValRatio: 0.25, Seed: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, summaries[0].Total())
}

func TestSplitSkipsHiddenDirs(t *testing.T) {
	src := writeSource(t, map[string]int{"gir": 2})
	require.NoError(t, os.Mkdir(filepath.Join(src, ".cache"), 0o755))
	out := t.TempDir()

	summaries, err := Split(Options{
		SourceDir: src, OutputDir: out,
		TrainRatio: 0.5, ValRatio: 0.25, Seed: 1,
	})
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestSplitInvalidRatios(t *testing.T) {
	_, err := Split(Options{SourceDir: t.TempDir(), OutputDir: t.TempDir(), TrainRatio: 0.9, ValRatio: 0.5})
	assert.Error(t, err)
}

func TestSplitEmptySource(t *testing.T) {
	_, err := Split(Options{SourceDir: t.TempDir(), OutputDir: t.TempDir(), TrainRatio: 0.7, ValRatio: 0.15})
	assert.Error(t, err)
}
