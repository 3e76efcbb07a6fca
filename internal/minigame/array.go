package minigame

import (
	"math/rand/v2"

	"github.com/samber/lo"

	constants "github.com/CodeAndHammer/stelfalo/internal/constants"
)

// ArrayVerdict grades an array-garden submission.
type ArrayVerdict string

const (
	ArrayEmpty      ArrayVerdict = "empty"
	ArrayPerfect    ArrayVerdict = "perfect"
	ArrayRightShape ArrayVerdict = "right_shape"
	ArrayWrong      ArrayVerdict = "wrong"
)

// ArrayTask asks the player to fill a rows x cols rectangle on the 10x10
// grid. Cells are numbered row-major 0..99.
type ArrayTask struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

func NewArrayTask(rng *rand.Rand) ArrayTask {
	span := constants.ArrayTargetMax - constants.ArrayTargetMin + 1
	return ArrayTask{
		Rows: constants.ArrayTargetMin + rng.IntN(span),
		Cols: constants.ArrayTargetMin + rng.IntN(span),
	}
}

// Check grades the selected cells: perfect when the distinct rows, distinct
// columns and total count form exactly the target rectangle; right_shape
// when the dimensions match but cells are missing or doubled up elsewhere.
func (t ArrayTask) Check(selected []int) ArrayVerdict {
	if len(selected) == 0 {
		return ArrayEmpty
	}

	rows := lo.Uniq(lo.Map(selected, func(i int, _ int) int { return i / constants.ArrayGridSize }))
	cols := lo.Uniq(lo.Map(selected, func(i int, _ int) int { return i % constants.ArrayGridSize }))

	if len(rows) == t.Rows && len(cols) == t.Cols {
		if len(selected) == len(rows)*len(cols) {
			return ArrayPerfect
		}
		return ArrayRightShape
	}
	return ArrayWrong
}
