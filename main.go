package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"

	app "github.com/CodeAndHammer/stelfalo/internal/app"
	constants "github.com/CodeAndHammer/stelfalo/internal/constants"
	handlers "github.com/CodeAndHammer/stelfalo/internal/handlers"
	util "github.com/CodeAndHammer/stelfalo/internal/util"
)

func main() {
	_ = godotenv.Load()

	isProduction := os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production"
	util.LogInfo("Starting Stelfalo in %s mode", map[bool]string{true: "production", false: "development"}[isProduction])

	cfg := app.Config{
		IsProduction:   isProduction,
		CookieMaxAge:   util.GetEnvDuration("COOKIE_MAX_AGE", 2*time.Hour),
		StaticCacheAge: util.GetEnvDuration("STATIC_CACHE_AGE", 5*time.Minute),
		RateLimitRPS:   util.GetEnvInt("RATE_LIMIT_RPS", 10),
		RateLimitBurst: util.GetEnvInt("RATE_LIMIT_BURST", 30),
		RateLimiterTTL: util.GetEnvDuration("RATE_LIMITER_TTL", 1*time.Hour),
		SessionTTL:     util.GetEnvDuration("SESSION_TTL", 3*time.Hour),
		StoreDriver:    util.GetEnvStr("STORE_DRIVER", "file"),
		StorePath:      util.GetEnvStr("STORE_PATH", "data/state.json"),
		LocalesPath:    util.GetEnvStr("LOCALES_PATH", "data/locales.json"),
		TickInterval:   util.GetEnvDuration("TICK_INTERVAL", 16*time.Millisecond),
	}

	a, err := app.New(cfg)
	if err != nil {
		util.LogFatal("Failed to initialize application: %v", err)
	}

	router := gin.Default()

	router.Use(requestIDMiddleware())
	router.Use(securityHeadersMiddleware())
	router.Use(csrfMiddleware(a))
	router.Use(validateCSRFMiddleware())
	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedExtensions([]string{".svg", ".ico", ".png", ".jpg", ".jpeg", ".gif"})))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		util.LogWarn("Failed to set trusted proxies: %v", err)
	}

	router.Use(func(c *gin.Context) {
		applyCacheHeaders(a, c)
	})

	if util.DirExists("static") {
		router.Static("/static", "./static")
	}

	router.GET(constants.RouteHome, wrap(a, handlers.HomeHandler))
	router.GET(constants.RouteI18n, wrap(a, handlers.I18nHandler))
	router.GET(constants.RouteHealthz, wrap(a, handlers.HealthzHandler))
	router.POST(constants.RouteMenu, wrap(a, handlers.MenuHandler))

	limited := rateLimitMiddleware(a)

	router.POST(constants.RouteStarsStart, limited, wrap(a, handlers.StarsStartHandler))
	router.POST(constants.RouteStarsTick, wrap(a, handlers.StarsTickHandler))
	router.POST(constants.RouteStarsAnswer, wrap(a, handlers.StarsAnswerHandler))
	router.POST(constants.RouteStarsStop, wrap(a, handlers.StarsStopHandler))
	router.GET(constants.RouteStarsState, wrap(a, handlers.StarsStateHandler))

	router.POST(constants.RouteQuizStart, limited, wrap(a, handlers.QuizStartHandler))
	router.POST(constants.RouteQuizAnswer, wrap(a, handlers.QuizAnswerHandler))
	router.POST(constants.RouteTimeStart, limited, wrap(a, handlers.TimeStartHandler))
	router.POST(constants.RouteTimeAnswer, wrap(a, handlers.TimeAnswerHandler))
	router.POST(constants.RouteTimeStop, wrap(a, handlers.TimeStopHandler))
	router.POST(constants.RouteMonsterNew, limited, wrap(a, handlers.MonsterNewHandler))
	router.POST(constants.RouteMonsterHit, wrap(a, handlers.MonsterAttackHandler))
	router.POST(constants.RouteArrayNew, limited, wrap(a, handlers.ArrayNewHandler))
	router.POST(constants.RouteArrayCheck, wrap(a, handlers.ArrayCheckHandler))

	router.POST(constants.RouteSignup, limited, wrap(a, handlers.SignupHandler))
	router.POST(constants.RouteLogin, limited, wrap(a, handlers.LoginHandler))
	router.POST(constants.RouteLogout, wrap(a, handlers.LogoutHandler))
	router.GET(constants.RouteBalance, wrap(a, handlers.BalanceHandler))
	router.POST(constants.RouteCredit, limited, wrap(a, handlers.CreditHandler))

	a.StartCleanupRoutines()
	startServer(a, router)
}

func wrap(a *app.App, h func(*app.App, *gin.Context)) gin.HandlerFunc {
	return func(c *gin.Context) {
		h(a, c)
	}
}

func applyCacheHeaders(a *app.App, c *gin.Context) {
	if a.IsProduction && strings.HasPrefix(c.Request.URL.Path, "/static/") {
		cachecontrol.New(cachecontrol.Config{
			Public: true,
			MaxAge: cachecontrol.Duration(a.StaticCacheAge),
		})(c)
		c.Header("Vary", "Accept-Encoding")
		return
	}
	cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	})(c)
}

func startServer(a *app.App, router *gin.Engine) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		util.LogInfo("Shutdown signal received, shutting down server gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			util.LogWarn("HTTP server Shutdown: %v", err)
		}
		if err := a.Store.Close(); err != nil {
			util.LogWarn("Store close: %v", err)
		}
		close(idleConnsClosed)
	}()

	util.LogInfo("Server starting on http://localhost:%s", port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		util.LogFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	util.LogInfo("Server shutdown complete")
}
