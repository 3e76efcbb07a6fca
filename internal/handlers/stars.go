package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	app "github.com/CodeAndHammer/stelfalo/internal/app"
	constants "github.com/CodeAndHammer/stelfalo/internal/constants"
	mathfacts "github.com/CodeAndHammer/stelfalo/internal/mathfacts"
	session "github.com/CodeAndHammer/stelfalo/internal/session"
	sim "github.com/CodeAndHammer/stelfalo/internal/sim"
	util "github.com/CodeAndHammer/stelfalo/internal/util"
)

type starsStartRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Auto   bool    `json:"auto"`
}

// StarsStartHandler begins a falling-stars run. The client reports its
// play-field size; auto switches to server-paced ticking, otherwise the
// client drives ticks from its animation frames.
func StarsStartHandler(a *app.App, c *gin.Context) {
	ps := session.Player(a, c)

	var req starsStartRequest
	_ = c.ShouldBindJSON(&req) // defaults are fine for an empty body

	cfg := sim.DefaultConfig()
	if req.Width > 2*cfg.SpawnMargin {
		cfg.FieldWidth = req.Width
	}
	if req.Height > 0 {
		cfg.FieldHeight = req.Height
	}

	ps.Mu.Lock()
	if ps.Runner != nil {
		ps.Runner.Stop()
		ps.Runner = nil
	}
	ps.Sim = sim.New(cfg, mathfacts.NewRand(uint64(time.Now().UnixNano())), ps.Events)
	if req.Auto {
		ps.Runner = sim.NewRunner(ps.Sim, sim.NewTickerScheduler(a.TickInterval))
		ps.RunID = ps.Runner.Start()
	} else {
		ps.RunID = ps.Sim.Start()
	}
	runID := ps.RunID
	simulator := ps.Sim
	ps.Mu.Unlock()

	util.LogInfo("Session %s started falling stars (run %s, auto=%v)", ps.ID, runID, req.Auto)
	respond(c, ps, http.StatusOK, gin.H{"state": simulator.Snapshot()})
}

type starsTickRequest struct {
	RunID     string  `json:"runId"`
	ElapsedMs float64 `json:"elapsedMs"`
}

// StarsTickHandler advances a client-paced run by the reported elapsed
// time. A stale run ID is a no-op, not an error worth disturbing the
// client over: the answer carries the authoritative snapshot either way.
func StarsTickHandler(a *app.App, c *gin.Context) {
	ps := session.Player(a, c)

	var req starsTickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, ps, http.StatusBadRequest, gin.H{"error": constants.ErrorCodeInvalidInput})
		return
	}

	ps.Mu.Lock()
	simulator := ps.Sim
	ps.Mu.Unlock()

	live := simulator.Tick(req.RunID, req.ElapsedMs)
	respond(c, ps, http.StatusOK, gin.H{
		"live":  live,
		"state": simulator.Snapshot(),
	})
}

type starsAnswerRequest struct {
	RunID  string `json:"runId"`
	Answer int    `json:"answer"`
}

// StarsAnswerHandler checks a typed answer against the live stars. A hit
// feeds the ledger; the earliest spawned star wins ties.
func StarsAnswerHandler(a *app.App, c *gin.Context) {
	ps := session.Player(a, c)

	var req starsAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, ps, http.StatusBadRequest, gin.H{"error": constants.ErrorCodeInvalidInput})
		return
	}

	ps.Mu.Lock()
	simulator := ps.Sim
	ps.Mu.Unlock()

	hit, reward := simulator.Submit(req.RunID, req.Answer)
	if hit {
		ps.Ledger.Credit(reward)
	}
	respond(c, ps, http.StatusOK, gin.H{
		"hit":   hit,
		"state": simulator.Snapshot(),
	})
}

type starsStopRequest struct {
	RunID string `json:"runId"`
}

// StarsStopHandler ends the run without further scoring.
func StarsStopHandler(a *app.App, c *gin.Context) {
	ps := session.Player(a, c)

	var req starsStopRequest
	_ = c.ShouldBindJSON(&req)

	ps.Mu.Lock()
	runner := ps.Runner
	ps.Runner = nil
	runID := ps.RunID
	simulator := ps.Sim
	ps.Mu.Unlock()

	if runner != nil {
		runner.Stop()
	} else {
		if req.RunID != "" {
			runID = req.RunID
		}
		simulator.Stop(runID)
	}
	respond(c, ps, http.StatusOK, gin.H{"state": simulator.Snapshot()})
}

// StarsStateHandler is the poll endpoint for server-paced runs.
func StarsStateHandler(a *app.App, c *gin.Context) {
	ps := session.Player(a, c)

	ps.Mu.Lock()
	simulator := ps.Sim
	ps.Mu.Unlock()

	respond(c, ps, http.StatusOK, gin.H{"state": simulator.Snapshot()})
}
