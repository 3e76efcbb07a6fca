// Package session ties the browser cookie to a player session.
package session

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	app "github.com/CodeAndHammer/stelfalo/internal/app"
	constants "github.com/CodeAndHammer/stelfalo/internal/constants"
	util "github.com/CodeAndHammer/stelfalo/internal/util"
)

// GetOrCreate returns the session ID from the cookie, minting a new one
// when absent or obviously bogus.
func GetOrCreate(a *app.App, c *gin.Context) string {
	sessionID, err := c.Cookie(constants.SessionCookieName)
	if err != nil || len(sessionID) < 10 {
		sessionID = uuid.NewString()
		c.SetSameSite(http.SameSiteStrictMode)
		secure := a.IsProduction
		c.SetCookie(constants.SessionCookieName, sessionID, int(a.CookieMaxAge.Seconds()), "/", "", secure, true)
		util.LogInfo("Created new session: %s", sessionID)
	}
	return sessionID
}

// Player resolves the request to its live player session.
func Player(a *app.App, c *gin.Context) *app.PlayerSession {
	return a.GetSession(GetOrCreate(a, c))
}
