package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaks/cattle-api/internal/labels"
)

var breeds = labels.Set{"gir", "hallikar", "kankrej", "ongole", "red_sindhi", "sahiwal", "tharparkar"}

func TestTopKOrdering(t *testing.T) {
	probs := []float32{0.05, 0.40, 0.10, 0.02, 0.25, 0.03, 0.15}

	got := TopK(probs, breeds, 5)
	require.Len(t, got, 5)

	assert.Equal(t, "hallikar", got[0].Breed)
	assert.Equal(t, 40.0, got[0].Confidence)
	assert.Equal(t, "red_sindhi", got[1].Breed)
	assert.Equal(t, "tharparkar", got[2].Breed)
	assert.Equal(t, "kankrej", got[3].Breed)
	assert.Equal(t, "gir", got[4].Breed)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Confidence, got[i].Confidence)
	}
}

func TestTopKTiesBreakByIndex(t *testing.T) {
	probs := []float32{0.25, 0.25, 0.25, 0.25, 0, 0, 0}

	got := TopK(probs, breeds, 4)
	require.Len(t, got, 4)
	assert.Equal(t, "gir", got[0].Breed)
	assert.Equal(t, "hallikar", got[1].Breed)
	assert.Equal(t, "kankrej", got[2].Breed)
	assert.Equal(t, "ongole", got[3].Breed)
}

func TestTopKFewerClassesThanK(t *testing.T) {
	set := labels.Set{"gir", "sahiwal"}
	probs := []float32{0.3, 0.7}

	got := TopK(probs, set, 5)
	require.Len(t, got, 2)
	assert.Equal(t, "sahiwal", got[0].Breed)
	assert.Equal(t, "gir", got[1].Breed)
}

func TestTopKRounding(t *testing.T) {
	set := labels.Set{"gir", "sahiwal"}
	probs := []float32{0.123456, 0.876544}

	got := TopK(probs, set, 2)
	assert.Equal(t, 87.65, got[0].Confidence)
	assert.Equal(t, 12.35, got[1].Confidence)
}

func TestTopKDistributionSumsToHundred(t *testing.T) {
	probs := []float32{0.05, 0.40, 0.10, 0.02, 0.25, 0.03, 0.15}

	got := TopK(probs, breeds, len(breeds))
	var sum float64
	for _, p := range got {
		sum += p.Confidence
	}
	assert.InDelta(t, 100.0, sum, 0.05)
}

func TestTopKZeroK(t *testing.T) {
	assert.Nil(t, TopK([]float32{0.5, 0.5}, labels.Set{"a", "b"}, 0))
}

func TestTopKExtraLogits(t *testing.T) {
	// Output vector longer than the label set: trailing positions have no
	// label and must not be ranked.
	set := labels.Set{"gir", "sahiwal"}
	probs := []float32{0.1, 0.2, 0.9}

	got := TopK(probs, set, 5)
	require.Len(t, got, 2)
	assert.Equal(t, "sahiwal", got[0].Breed)
}
