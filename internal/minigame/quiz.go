// Package minigame holds the server-side logic of the menu's smaller
// games: the multiple-choice quiz, the timed attack, the monster battle
// and the array garden. Rendering and sound stay in the client.
package minigame

import (
	"math/rand/v2"

	constants "github.com/CodeAndHammer/stelfalo/internal/constants"
	mathfacts "github.com/CodeAndHammer/stelfalo/internal/mathfacts"
	models "github.com/CodeAndHammer/stelfalo/internal/models"
)

// Question is one multiple-choice round handed to the client. The answer
// is withheld; the client sends back the picked value.
type Question struct {
	A       int   `json:"a"`
	B       int   `json:"b"`
	Options []int `json:"options"`
}

// Quiz is a fixed-length multiple-choice session.
type Quiz struct {
	rng     *rand.Rand
	min     int
	max     int
	total   int
	current int
	score   int
	problem models.Problem
}

func NewQuiz(rng *rand.Rand, minFactor, maxFactor int) *Quiz {
	return &Quiz{
		rng:   rng,
		min:   minFactor,
		max:   maxFactor,
		total: constants.QuizQuestions,
	}
}

// Next advances to the following question. done reports that the quiz is
// over and no question was produced.
func (q *Quiz) Next() (Question, bool) {
	if q.current >= q.total {
		return Question{}, true
	}
	q.current++
	q.problem = mathfacts.Generate(q.rng, q.min, q.max)
	return Question{
		A:       q.problem.A,
		B:       q.problem.B,
		Options: mathfacts.Options(q.rng, q.problem, constants.QuizOptionCount),
	}, false
}

// Answer scores the current question and returns whether the pick was
// correct along with the right answer for the feedback line.
func (q *Quiz) Answer(value int) (bool, int) {
	correct := value == q.problem.Answer
	if correct {
		q.score++
	}
	return correct, q.problem.Answer
}

// Progress returns the 1-based question number and the total.
func (q *Quiz) Progress() (int, int) { return q.current, q.total }

// Score returns the running score.
func (q *Quiz) Score() int { return q.score }

// Excellent reports whether the final score earns the top verdict.
func (q *Quiz) Excellent() bool { return q.score >= constants.QuizExcellentAt }
