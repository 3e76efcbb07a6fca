package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	app "github.com/CodeAndHammer/stelfalo/internal/app"
	constants "github.com/CodeAndHammer/stelfalo/internal/constants"
	models "github.com/CodeAndHammer/stelfalo/internal/models"
	session "github.com/CodeAndHammer/stelfalo/internal/session"
	util "github.com/CodeAndHammer/stelfalo/internal/util"
)

// accountView strips the password before an account crosses the wire.
func accountView(acct models.Account) gin.H {
	return gin.H{
		"username": acct.Username,
		"avatar":   acct.Avatar,
		"balance":  acct.Balance,
	}
}

type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

func SignupHandler(a *app.App, c *gin.Context) {
	ps := session.Player(a, c)

	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, ps, http.StatusBadRequest, gin.H{"error": constants.ErrorCodeInvalidInput})
		return
	}

	acct, err := a.Accounts.Signup(ps.Session, req.Username, req.Password, req.Avatar)
	if err != nil {
		respond(c, ps, errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	respond(c, ps, http.StatusOK, gin.H{"account": accountView(acct)})
}

type loginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Automatic bool   `json:"automatic"`
}

// LoginHandler binds an account. Automatic logins get the same error
// result but flag the client to skip its error prompt and stay in guest
// mode.
func LoginHandler(a *app.App, c *gin.Context) {
	ps := session.Player(a, c)

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, ps, http.StatusBadRequest, gin.H{"error": constants.ErrorCodeInvalidInput})
		return
	}

	acct, err := a.Accounts.Login(ps.Session, req.Username, req.Password, req.Automatic)
	if err != nil {
		respond(c, ps, errorStatus(err), gin.H{
			"error":  err.Error(),
			"silent": req.Automatic,
		})
		return
	}
	respond(c, ps, http.StatusOK, gin.H{"account": accountView(acct)})
}

func LogoutHandler(a *app.App, c *gin.Context) {
	ps := session.Player(a, c)
	a.Accounts.Logout(ps.Session)
	respond(c, ps, http.StatusOK, gin.H{"ok": true})
}

func BalanceHandler(a *app.App, c *gin.Context) {
	ps := session.Player(a, c)
	respond(c, ps, http.StatusOK, gin.H{})
}

type creditRequest struct {
	Amount int `json:"amount"`
}

// CreditHandler applies a reward delta directly; the quiz page uses it for
// its own gem awards.
func CreditHandler(a *app.App, c *gin.Context) {
	ps := session.Player(a, c)

	var req creditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, ps, http.StatusBadRequest, gin.H{"error": constants.ErrorCodeInvalidInput})
		return
	}

	newBalance := ps.Ledger.Credit(req.Amount)
	util.LogInfo("Session %s credited %d, balance now %d", ps.ID, req.Amount, newBalance)
	respond(c, ps, http.StatusOK, gin.H{})
}
