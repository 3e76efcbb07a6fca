package minigame

import (
	"math/rand/v2"

	constants "github.com/CodeAndHammer/stelfalo/internal/constants"
	mathfacts "github.com/CodeAndHammer/stelfalo/internal/mathfacts"
)

// Monster is the factor-hunt battle: the monster shows a product and the
// player picks two factors that hit it.
type Monster struct {
	Value int `json:"value"`
}

func NewMonster(rng *rand.Rand) Monster {
	p := mathfacts.Generate(rng, constants.MonsterFactorMin, constants.MonsterFactorMax)
	return Monster{Value: p.Answer}
}

// Attack reports whether a*b defeats the monster.
func (m Monster) Attack(a, b int) bool {
	return a*b == m.Value
}
