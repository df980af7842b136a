package soiling

import (
	"fmt"
	"math/rand/v2"
)

// Pair labels follow the contrastive convention of the encoder trainer.
const (
	PairSimilar    = 0 // clean / clean
	PairDissimilar = 1 // clean / dirty
)

// TrainingPair is one sample for metric-learning training.
type TrainingPair struct {
	A, B  string
	Label int
}

// PairSampler yields an endless, reproducible sequence of training pairs:
// with probability 1/2 two distinct clean images (label 0), otherwise a
// clean and a dirty image (label 1). Reset restarts the sequence.
type PairSampler struct {
	clean []string
	dirty []string
	seed  uint64
	rng   *rand.Rand
}

// NewPairSampler needs at least two clean images and one dirty image.
func NewPairSampler(clean, dirty []string, seed uint64) (*PairSampler, error) {
	if len(clean) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 clean images, got %d", ErrInsufficientData, len(clean))
	}
	if len(dirty) < 1 {
		return nil, fmt.Errorf("%w: need at least 1 dirty image", ErrInsufficientData)
	}
	s := &PairSampler{clean: clean, dirty: dirty, seed: seed}
	s.Reset()
	return s, nil
}

// Reset rewinds the sampler to the start of its sequence.
func (s *PairSampler) Reset() {
	s.rng = rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15))
}

// Next returns the next pair.
func (s *PairSampler) Next() TrainingPair {
	if s.rng.Float64() < 0.5 {
		i := s.rng.IntN(len(s.clean))
		j := s.rng.IntN(len(s.clean) - 1)
		if j >= i {
			j++
		}
		return TrainingPair{A: s.clean[i], B: s.clean[j], Label: PairSimilar}
	}
	return TrainingPair{
		A:     s.clean[s.rng.IntN(len(s.clean))],
		B:     s.dirty[s.rng.IntN(len(s.dirty))],
		Label: PairDissimilar,
	}
}

// Take returns the next n pairs.
func (s *PairSampler) Take(n int) []TrainingPair {
	out := make([]TrainingPair, n)
	for i := range out {
		out[i] = s.Next()
	}
	return out
}
