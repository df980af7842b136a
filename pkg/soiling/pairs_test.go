package soiling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairSampler(t *testing.T) {
	clean := []string{"c1", "c2", "c3"}
	dirty := []string{"d1", "d2"}

	s, err := NewPairSampler(clean, dirty, 42)
	require.NoError(t, err)
	first := s.Take(200)

	labels := map[int]int{}
	for _, p := range first {
		labels[p.Label]++
		assert.Contains(t, clean, p.A)
		switch p.Label {
		case PairSimilar:
			assert.Contains(t, clean, p.B)
			assert.NotEqual(t, p.A, p.B)
		case PairDissimilar:
			assert.Contains(t, dirty, p.B)
		default:
			t.Fatalf("unexpected label %d", p.Label)
		}
	}
	assert.Greater(t, labels[PairSimilar], 50)
	assert.Greater(t, labels[PairDissimilar], 50)

	s.Reset()
	assert.Equal(t, first, s.Take(200))

	again, err := NewPairSampler(clean, dirty, 42)
	require.NoError(t, err)
	assert.Equal(t, first[:20], again.Take(20))
}

func TestNewPairSampler_Errors(t *testing.T) {
	_, err := NewPairSampler([]string{"c1"}, []string{"d1"}, 1)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = NewPairSampler([]string{"c1", "c2"}, nil, 1)
	assert.ErrorIs(t, err, ErrInsufficientData)
}
