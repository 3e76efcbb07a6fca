// Package sim owns the falling-stars play session: spawn timing, per-tick
// integration, miss and hit detection, score and lives. It emits feedback
// events and exposes snapshots; rendering is somebody else's job.
package sim

import (
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"

	constants "github.com/CodeAndHammer/stelfalo/internal/constants"
	events "github.com/CodeAndHammer/stelfalo/internal/events"
	mathfacts "github.com/CodeAndHammer/stelfalo/internal/mathfacts"
	models "github.com/CodeAndHammer/stelfalo/internal/models"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseEnded:
		return "ended"
	default:
		return "idle"
	}
}

// FallingStar is one live problem on its way down. Owned exclusively by the
// simulator; it disappears on miss or on being solved.
type FallingStar struct {
	Problem models.Problem `json:"problem"`
	X       float64        `json:"x"`
	Y       float64        `json:"y"`
	Speed   float64        `json:"speed"`
}

type Config struct {
	FieldWidth      float64
	FieldHeight     float64
	SpawnIntervalMs float64
	SpawnMargin     float64
	SpeedMin        float64
	SpeedMax        float64
	SpeedDamping    float64
	StartLives      int
	HitReward       int
	FactorMin       int
	FactorMax       int
}

func DefaultConfig() Config {
	return Config{
		FieldWidth:      constants.DefaultFieldWidth,
		FieldHeight:     constants.DefaultFieldHeight,
		SpawnIntervalMs: constants.SpawnIntervalMs,
		SpawnMargin:     constants.SpawnMargin,
		SpeedMin:        constants.FallSpeedMin,
		SpeedMax:        constants.FallSpeedMax,
		SpeedDamping:    constants.FallSpeedDamping,
		StartLives:      constants.StartLives,
		HitReward:       constants.HitReward,
		FactorMin:       2,
		FactorMax:       9,
	}
}

// Snapshot is the observable tick state handed to the rendering layer.
type Snapshot struct {
	Phase string        `json:"phase"`
	RunID string        `json:"runId"`
	Score int           `json:"score"`
	Lives int           `json:"lives"`
	Stars []FallingStar `json:"stars"`
}

// Simulator is safe for concurrent use: ticks may arrive from a scheduler
// goroutine while answers arrive from request handlers.
type Simulator struct {
	mu     sync.Mutex
	cfg    Config
	rng    *rand.Rand
	events *events.Recorder

	phase      Phase
	runID      string
	stars      []FallingStar
	score      int
	lives      int
	spawnAccum float64
}

func New(cfg Config, rng *rand.Rand, rec *events.Recorder) *Simulator {
	return &Simulator{
		cfg:    cfg,
		rng:    rng,
		events: rec,
		phase:  PhaseIdle,
	}
}

// Start resets the session and returns the run ID that every subsequent
// Tick, Submit and Stop for this run must present. A Start while a previous
// run is live supersedes it: ticks still in flight for the old run ID land
// as no-ops.
func (s *Simulator) Start() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.phase = PhaseRunning
	s.runID = uuid.NewString()
	s.stars = nil
	s.score = 0
	s.lives = s.cfg.StartLives
	s.spawnAccum = 0
	return s.runID
}

// Tick advances the simulation by dtMs elapsed milliseconds. Returns true
// while the run is still live, so a scheduler knows whether to re-arm.
func (s *Simulator) Tick(runID string, dtMs float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseRunning || runID != s.runID || dtMs <= 0 {
		return false
	}

	s.spawnAccum += dtMs
	if s.spawnAccum > s.cfg.SpawnIntervalMs {
		s.spawn()
		s.spawnAccum = 0
	}

	// Speeds are units per nominal 16ms frame; normalize by real elapsed
	// time so a dropped frame does not slow the fall.
	step := dtMs / constants.FrameMs
	kept := s.stars[:0]
	for _, star := range s.stars {
		star.Y += star.Speed * step
		if star.Y <= s.cfg.FieldHeight {
			kept = append(kept, star)
			continue
		}
		s.lives--
		s.events.LifeLost(s.lives)
		// Re-check after every removal: the run ends the moment lives
		// hit zero, later crossings in the same tick are not charged.
		if s.lives <= 0 {
			s.phase = PhaseEnded
			s.events.GameEnded(s.score)
			break
		}
	}
	if s.phase == PhaseRunning {
		s.stars = kept
	} else {
		s.stars = nil
	}

	return s.phase == PhaseRunning
}

func (s *Simulator) spawn() {
	p := mathfacts.Generate(s.rng, s.cfg.FactorMin, s.cfg.FactorMax)
	s.stars = append(s.stars, FallingStar{
		Problem: p,
		X:       s.cfg.SpawnMargin + s.rng.Float64()*(s.cfg.FieldWidth-2*s.cfg.SpawnMargin),
		Y:       constants.SpawnStartY,
		Speed:   (s.cfg.SpeedMin + s.rng.Float64()*(s.cfg.SpeedMax-s.cfg.SpeedMin)) * s.cfg.SpeedDamping,
	})
}

// Submit checks a candidate answer against the live stars. The earliest
// spawned star with a matching product wins the tie-break. Returns true and
// the reward on a hit; false on a miss (no state change).
func (s *Simulator) Submit(runID string, answer int) (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseRunning || runID != s.runID {
		return false, 0
	}

	for i, star := range s.stars {
		if star.Problem.Answer == answer {
			s.stars = append(s.stars[:i], s.stars[i+1:]...)
			s.score += s.cfg.HitReward
			s.events.Hit(s.cfg.HitReward)
			return true, s.cfg.HitReward
		}
	}

	s.events.Miss()
	return false, 0
}

// Stop ends the run without further scoring, e.g. on navigating away.
func (s *Simulator) Stop(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseRunning || runID != s.runID {
		return
	}
	s.phase = PhaseEnded
	s.stars = nil
	s.events.GameEnded(s.score)
}

func (s *Simulator) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	stars := make([]FallingStar, len(s.stars))
	copy(stars, s.stars)
	return Snapshot{
		Phase: s.phase.String(),
		RunID: s.runID,
		Score: s.score,
		Lives: s.lives,
		Stars: stars,
	}
}

func (s *Simulator) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}
