// Package events carries the feedback events the game core emits for the
// presentation layer. The core never touches rendering or audio; it records
// events here and the HTTP adapter drains them into each response.
package events

import "sync"

const (
	TypeHit            = "hit"
	TypeMiss           = "miss"
	TypeLifeLost       = "lifeLost"
	TypeGameEnded      = "gameEnded"
	TypeBalanceChanged = "balanceChanged"
)

// Event is one feedback signal. Value carries the event's payload: the hit
// reward, remaining lives, final score, or new balance; it is unused for miss.
type Event struct {
	Type  string `json:"type"`
	Value int    `json:"value,omitempty"`
}

// Recorder accumulates events between drains. Safe for concurrent use; the
// ticker-driven simulator writes from its own goroutine.
type Recorder struct {
	mu      sync.Mutex
	pending []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Hit(amount int)         { r.record(Event{Type: TypeHit, Value: amount}) }
func (r *Recorder) Miss()                  { r.record(Event{Type: TypeMiss}) }
func (r *Recorder) LifeLost(remaining int) { r.record(Event{Type: TypeLifeLost, Value: remaining}) }
func (r *Recorder) GameEnded(final int)    { r.record(Event{Type: TypeGameEnded, Value: final}) }
func (r *Recorder) BalanceChanged(bal int) { r.record(Event{Type: TypeBalanceChanged, Value: bal}) }

func (r *Recorder) record(e Event) {
	r.mu.Lock()
	r.pending = append(r.pending, e)
	r.mu.Unlock()
}

// Drain returns all events recorded since the previous drain, in order.
func (r *Recorder) Drain() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.pending
	r.pending = nil
	return out
}
