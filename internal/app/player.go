package app

import (
	"math/rand/v2"
	"sync"
	"time"

	events "github.com/CodeAndHammer/stelfalo/internal/events"
	ledger "github.com/CodeAndHammer/stelfalo/internal/ledger"
	mathfacts "github.com/CodeAndHammer/stelfalo/internal/mathfacts"
	minigame "github.com/CodeAndHammer/stelfalo/internal/minigame"
	models "github.com/CodeAndHammer/stelfalo/internal/models"
	sim "github.com/CodeAndHammer/stelfalo/internal/sim"
	util "github.com/CodeAndHammer/stelfalo/internal/util"
)

// PlayerSession is everything one browser session owns: its account
// binding and ledger, the active mini-game state, and the event queue the
// next response will drain. Mu guards the game pointers (Sim, Runner,
// RunID and the mini-game fields); the simulator, time attack and
// recorder carry their own locks because timer goroutines touch them.
type PlayerSession struct {
	ID  string
	Mu  sync.Mutex
	Rng *rand.Rand

	Events  *events.Recorder
	Session *models.Session
	Ledger  *ledger.Ledger

	Sim    *sim.Simulator
	Runner *sim.Runner
	RunID  string

	Quiz       *minigame.Quiz
	TimeAttack *minigame.TimeAttack
	Monster    *minigame.Monster
	ArrayTask  *minigame.ArrayTask

	LastAccessTime time.Time
}

// NewPlayerSession builds a session and silently restores the last login;
// when that leaves it in guest mode, the legacy guest balance applies.
func (a *App) NewPlayerSession(id string) *PlayerSession {
	rec := events.NewRecorder()
	sess := &models.Session{Scope: id}
	led := ledger.New(sess, a.Accounts, a.Store, rec)

	if !a.Accounts.RestoreLast(sess) {
		led.RestoreGuest()
	}

	// The simulator gets its own rand source: a server-paced run draws
	// from a timer goroutine while handlers draw from Rng.
	ps := &PlayerSession{
		ID:             id,
		Rng:            mathfacts.NewRand(uint64(time.Now().UnixNano())),
		Events:         rec,
		Session:        sess,
		Ledger:         led,
		Sim:            sim.New(sim.DefaultConfig(), mathfacts.NewRand(uint64(time.Now().UnixNano())+1), rec),
		LastAccessTime: time.Now(),
	}

	a.SessionMutex.Lock()
	a.Sessions[id] = ps
	a.SessionMutex.Unlock()
	return ps
}

// Teardown cancels anything with its own timer or goroutine. Called on
// session eviction and on navigation back to the menu.
func (ps *PlayerSession) Teardown() {
	ps.Mu.Lock()
	runner := ps.Runner
	attack := ps.TimeAttack
	simulator := ps.Sim
	runID := ps.RunID
	ps.Runner = nil
	ps.TimeAttack = nil
	ps.Mu.Unlock()

	if runner != nil {
		runner.Stop()
	} else if simulator != nil {
		// A client-paced run has no runner to stop for it.
		simulator.Stop(runID)
	}
	if attack != nil {
		attack.Stop()
	}
}

// GetSession returns the live session, creating one when the ID is new.
func (a *App) GetSession(id string) *PlayerSession {
	a.SessionMutex.RLock()
	ps, exists := a.Sessions[id]
	a.SessionMutex.RUnlock()
	if exists {
		a.SessionMutex.Lock()
		ps.LastAccessTime = time.Now()
		a.SessionMutex.Unlock()
		return ps
	}
	util.LogInfo("Creating player session: %s", id)
	return a.NewPlayerSession(id)
}

// CleanupStaleSessions evicts sessions idle past the TTL, tearing down
// their timers so an abandoned time-attack countdown cannot leak.
func (a *App) CleanupStaleSessions() {
	cutoff := time.Now().Add(-a.SessionTTL)

	a.SessionMutex.Lock()
	var evicted []*PlayerSession
	for id, ps := range a.Sessions {
		if ps.LastAccessTime.Before(cutoff) {
			delete(a.Sessions, id)
			evicted = append(evicted, ps)
		}
	}
	a.SessionMutex.Unlock()

	for _, ps := range evicted {
		ps.Teardown()
	}
	if len(evicted) > 0 {
		util.LogInfo("Cleaned up %d stale sessions", len(evicted))
	}
}

// StartCleanupRoutines runs the periodic session and limiter sweeps.
func (a *App) StartCleanupRoutines() {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			a.CleanupStaleSessions()
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			a.CleanupStaleLimiters()
		}
	}()

	util.LogInfo("Started cleanup routines for sessions and rate limiters")
}
