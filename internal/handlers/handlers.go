// Package handlers is the HTTP adapter between the game core and the
// single-page client. Handlers mutate core state, then hand back a JSON
// snapshot plus the feedback events drained since the previous response;
// the page turns those into rendering, sound and speech.
package handlers

import (
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	accounts "github.com/CodeAndHammer/stelfalo/internal/accounts"
	app "github.com/CodeAndHammer/stelfalo/internal/app"
	session "github.com/CodeAndHammer/stelfalo/internal/session"
	util "github.com/CodeAndHammer/stelfalo/internal/util"
)

// respond attaches the per-session event queue and live balance to every
// payload so the client never needs a second round trip for feedback.
func respond(c *gin.Context, ps *app.PlayerSession, status int, payload gin.H) {
	payload["events"] = ps.Events.Drain()
	payload["balance"] = ps.Ledger.Read()
	c.JSON(status, payload)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, accounts.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, accounts.ErrDuplicateUser):
		return http.StatusConflict
	case errors.Is(err, accounts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, accounts.ErrBadCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// HomeHandler hands the page its bootstrap state: resolved language and
// strings, the bound account if any, and the live balance.
func HomeHandler(a *app.App, c *gin.Context) {
	ps := session.Player(a, c)
	lang := a.Locales.Resolve(c.Query("lang"), c.GetHeader("Accept-Language"))

	user := gin.H{"guest": true}
	if !ps.Session.Guest() {
		user = gin.H{
			"guest":    false,
			"username": ps.Session.Current.Username,
			"avatar":   ps.Session.Current.Avatar,
		}
	}

	respond(c, ps, http.StatusOK, gin.H{
		"lang":    lang,
		"strings": a.Locales.Table(lang),
		"user":    user,
	})
}

// I18nHandler serves the translation table for the resolved language.
func I18nHandler(a *app.App, c *gin.Context) {
	lang := a.Locales.Resolve(c.Query("lang"), c.GetHeader("Accept-Language"))
	c.JSON(http.StatusOK, gin.H{
		"lang":      lang,
		"languages": a.Locales.Languages(),
		"strings":   a.Locales.Table(lang),
	})
}

// MenuHandler is navigation back to the menu: any running game for this
// session is torn down, timers included.
func MenuHandler(a *app.App, c *gin.Context) {
	ps := session.Player(a, c)
	ps.Teardown()
	util.LogInfo("Session %s returned to menu", ps.ID)
	respond(c, ps, http.StatusOK, gin.H{"ok": true})
}

func HealthzHandler(a *app.App, c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	a.SessionMutex.RLock()
	sessionCount := len(a.Sessions)
	a.SessionMutex.RUnlock()

	a.LimiterMutex.RLock()
	limiterCount := len(a.LimiterMap)
	a.LimiterMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"env":             map[bool]string{true: "production", false: "development"}[a.IsProduction],
		"accounts":        a.Accounts.Count(),
		"active_sessions": sessionCount,
		"active_limiters": limiterCount,
		"memory_alloc_mb": m.Alloc / 1024 / 1024,
		"memory_sys_mb":   m.Sys / 1024 / 1024,
		"memory_gc_count": m.NumGC,
		"uptime":          util.FormatUptime(time.Since(a.StartTime)),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
}
