package game

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// Sequencer produces the infinite stream of pieces a playout consumes.
// Reset restarts the stream from its first piece.
type Sequencer interface {
	Next() Kind
	Reset()
}

type randomSequencer struct {
	seed uint64
	rng  *rand.Rand
}

// NewRandomSequencer draws every piece uniformly from a source seeded by seed.
func NewRandomSequencer(seed uint64) Sequencer {
	return &randomSequencer{seed: seed, rng: rand.New(rand.NewSource(seed))}
}

func (s *randomSequencer) Next() Kind {
	return Kind(s.rng.Intn(NumKinds))
}

func (s *randomSequencer) Reset() {
	s.rng.Seed(s.seed)
}

type bagSequencer struct {
	seed uint64
	rng  *rand.Rand
	bag  [NumKinds]Kind
	next int
}

// NewBagSequencer deals shuffled bags holding each of the seven kinds once.
func NewBagSequencer(seed uint64) Sequencer {
	s := &bagSequencer{seed: seed, rng: rand.New(rand.NewSource(seed))}
	s.next = NumKinds
	return s
}

func (s *bagSequencer) Next() Kind {
	if s.next == NumKinds {
		for i := range s.bag {
			s.bag[i] = Kind(i)
		}
		s.rng.Shuffle(NumKinds, func(i, j int) {
			s.bag[i], s.bag[j] = s.bag[j], s.bag[i]
		})
		s.next = 0
	}
	k := s.bag[s.next]
	s.next++
	return k
}

func (s *bagSequencer) Reset() {
	s.rng.Seed(s.seed)
	s.next = NumKinds
}

type fixedSequencer struct {
	kinds []Kind
	next  int
}

// NewFixedSequencer cycles through kinds in order.
func NewFixedSequencer(kinds ...Kind) Sequencer {
	if len(kinds) == 0 {
		panic("fixed sequencer needs at least one piece")
	}
	return &fixedSequencer{kinds: append([]Kind(nil), kinds...)}
}

func (s *fixedSequencer) Next() Kind {
	k := s.kinds[s.next]
	s.next = (s.next + 1) % len(s.kinds)
	return k
}

func (s *fixedSequencer) Reset() {
	s.next = 0
}

const (
	RandomSequence = "random"
	BagSequence    = "bag"
)

// NewSequencer returns the sequencer registered under name.
func NewSequencer(name string, seed uint64) (Sequencer, error) {
	switch name {
	case RandomSequence, "":
		return NewRandomSequencer(seed), nil
	case BagSequence:
		return NewBagSequencer(seed), nil
	default:
		return nil, fmt.Errorf("unknown sequencer %q", name)
	}
}
