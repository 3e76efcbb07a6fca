package minigame

import (
	"math/rand/v2"
	"sync"
	"time"

	constants "github.com/CodeAndHammer/stelfalo/internal/constants"
	events "github.com/CodeAndHammer/stelfalo/internal/events"
	mathfacts "github.com/CodeAndHammer/stelfalo/internal/mathfacts"
	models "github.com/CodeAndHammer/stelfalo/internal/models"
)

// TimeAttack is the 60-second race: +10 per correct pick, -5 per wrong
// pick floored at zero. The countdown runs on its own goroutine and must
// be stopped on navigation away, or the ticker leaks.
type TimeAttack struct {
	mu      sync.Mutex
	rng     *rand.Rand
	events  *events.Recorder
	problem models.Problem

	timeLeft int
	score    int
	done     bool
	stop     chan struct{}
	stopOnce sync.Once
}

// StartTimeAttack begins the countdown immediately.
func StartTimeAttack(rng *rand.Rand, rec *events.Recorder) *TimeAttack {
	t := &TimeAttack{
		rng:      rng,
		events:   rec,
		timeLeft: constants.TimeAttackSeconds,
		stop:     make(chan struct{}),
	}
	go t.countdown()
	return t
}

func (t *TimeAttack) countdown() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			t.timeLeft--
			if t.timeLeft <= 0 {
				t.done = true
				t.events.GameEnded(t.score)
				t.mu.Unlock()
				return
			}
			t.mu.Unlock()
		}
	}
}

// Next produces the following question.
func (t *TimeAttack) Next() Question {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.problem = mathfacts.Generate(t.rng, 2, 9)
	return Question{
		A:       t.problem.A,
		B:       t.problem.B,
		Options: mathfacts.Options(t.rng, t.problem, constants.QuizOptionCount),
	}
}

// Answer scores a pick against the current question.
func (t *TimeAttack) Answer(value int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return false
	}
	if value == t.problem.Answer {
		t.score += constants.TimeAttackReward
		return true
	}
	t.score -= constants.TimeAttackPenalty
	if t.score < 0 {
		t.score = 0
	}
	return false
}

// Stop cancels the countdown goroutine. Safe to call more than once and
// after the countdown has already finished.
func (t *TimeAttack) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
	t.mu.Lock()
	t.done = true
	t.mu.Unlock()
}

// State returns the remaining seconds, the score, and whether time is up.
func (t *TimeAttack) State() (int, int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timeLeft, t.score, t.done
}
