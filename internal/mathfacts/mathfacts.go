// Package mathfacts generates multiplication facts and the wrong-answer
// options shown next to them.
package mathfacts

import (
	"math/rand/v2"

	constants "github.com/CodeAndHammer/stelfalo/internal/constants"
	models "github.com/CodeAndHammer/stelfalo/internal/models"
)

// Generate draws both factors uniformly from [minFactor, maxFactor]
// inclusive. A degenerate range collapses to minFactor.
func Generate(rng *rand.Rand, minFactor, maxFactor int) models.Problem {
	if maxFactor < minFactor {
		maxFactor = minFactor
	}
	span := maxFactor - minFactor + 1
	a := minFactor + rng.IntN(span)
	b := minFactor + rng.IntN(span)
	return models.Problem{A: a, B: b, Answer: a * b}
}

// Distractors returns count distinct positive integers near answer, none
// equal to it. Random offsets in [-5, 5] are tried first; after
// DistractorRetryCap rejected draws the remainder is filled
// deterministically with answer+1, answer+2, ... so the call always
// terminates, even when the pool of valid nearby values is tiny.
func Distractors(rng *rand.Rand, answer, count int) []int {
	chosen := make([]int, 0, count)
	used := map[int]bool{answer: true}

	tries := 0
	for len(chosen) < count && tries < constants.DistractorRetryCap {
		tries++
		offset := rng.IntN(2*constants.DistractorOffsetRange+1) - constants.DistractorOffsetRange
		fake := answer + offset
		if fake <= 0 || used[fake] {
			continue
		}
		used[fake] = true
		chosen = append(chosen, fake)
	}

	for next := answer + 1; len(chosen) < count; next++ {
		if used[next] {
			continue
		}
		used[next] = true
		chosen = append(chosen, next)
	}

	return chosen
}

// Options returns the answer plus count-1 distractors, shuffled.
func Options(rng *rand.Rand, p models.Problem, count int) []int {
	opts := append([]int{p.Answer}, Distractors(rng, p.Answer, count-1)...)
	rng.Shuffle(len(opts), func(i, j int) {
		opts[i], opts[j] = opts[j], opts[i]
	})
	return opts
}

// NewRand seeds a generator for gameplay use. Tests pass their own seeded
// source instead.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
