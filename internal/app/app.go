// Package app holds the explicit application state: configuration, the
// durable store, the account registry, the locale bundle and the live
// player sessions. Everything that used to be ambient globals in the
// original page lives here and is passed around by reference.
package app

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	accounts "github.com/CodeAndHammer/stelfalo/internal/accounts"
	i18n "github.com/CodeAndHammer/stelfalo/internal/i18n"
	store "github.com/CodeAndHammer/stelfalo/internal/store"
	util "github.com/CodeAndHammer/stelfalo/internal/util"
)

type Config struct {
	IsProduction   bool
	CookieMaxAge   time.Duration
	StaticCacheAge time.Duration
	RateLimitRPS   int
	RateLimitBurst int
	RateLimiterTTL time.Duration
	SessionTTL     time.Duration
	StoreDriver    string
	StorePath      string
	LocalesPath    string
	TickInterval   time.Duration
}

type RateLimiterEntry struct {
	Limiter    *rate.Limiter
	LastAccess time.Time
}

type App struct {
	Config

	Store    store.KV
	Accounts *accounts.Store
	Locales  *i18n.Bundle

	StartTime time.Time

	Sessions     map[string]*PlayerSession
	SessionMutex sync.RWMutex

	LimiterMap   map[string]*RateLimiterEntry
	LimiterMutex sync.RWMutex
}

// New opens the durable store, loads accounts and locales, and returns the
// assembled application state. A store that cannot be opened degrades to
// memory-only operation instead of refusing to start; missing locales are
// fatal because the UI is unusable without them.
func New(cfg Config) (*App, error) {
	kv := openStore(cfg)

	locales, err := i18n.Load(cfg.LocalesPath)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:     cfg,
		Store:      kv,
		Accounts:   accounts.Load(kv),
		Locales:    locales,
		StartTime:  time.Now(),
		Sessions:   make(map[string]*PlayerSession),
		LimiterMap: make(map[string]*RateLimiterEntry),
	}, nil
}

func openStore(cfg Config) store.KV {
	switch cfg.StoreDriver {
	case "sqlite":
		kv, err := store.OpenSQLiteStore(cfg.StorePath)
		if err != nil {
			util.LogWarn("Failed to open sqlite store at %s, falling back to memory: %v", cfg.StorePath, err)
			return store.NewMemStore()
		}
		util.LogInfo("Using sqlite store at %s", cfg.StorePath)
		return kv
	case "memory":
		util.LogInfo("Using in-memory store (no durability)")
		return store.NewMemStore()
	default:
		kv, err := store.OpenFileStore(cfg.StorePath)
		if err != nil {
			util.LogWarn("Failed to open file store at %s, falling back to memory: %v", cfg.StorePath, err)
			return store.NewMemStore()
		}
		util.LogInfo("Using file store at %s", cfg.StorePath)
		return kv
	}
}

// GetLimiter returns the per-client rate limiter, creating it on first use.
func (a *App) GetLimiter(key string) *rate.Limiter {
	a.LimiterMutex.RLock()
	entry, ok := a.LimiterMap[key]
	a.LimiterMutex.RUnlock()
	if ok {
		a.LimiterMutex.Lock()
		if entry, ok = a.LimiterMap[key]; ok {
			entry.LastAccess = time.Now()
		}
		a.LimiterMutex.Unlock()
		return entry.Limiter
	}

	a.LimiterMutex.Lock()
	defer a.LimiterMutex.Unlock()
	if entry, ok = a.LimiterMap[key]; ok {
		entry.LastAccess = time.Now()
		return entry.Limiter
	}

	rps := a.RateLimitRPS
	if rps <= 0 {
		rps = 1
	}
	lim := rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), a.RateLimitBurst)
	a.LimiterMap[key] = &RateLimiterEntry{
		Limiter:    lim,
		LastAccess: time.Now(),
	}
	return lim
}

// CleanupStaleLimiters drops limiters idle past the TTL.
func (a *App) CleanupStaleLimiters() {
	a.LimiterMutex.Lock()
	defer a.LimiterMutex.Unlock()

	cutoff := time.Now().Add(-a.RateLimiterTTL)
	removed := 0
	for key, entry := range a.LimiterMap {
		if entry.LastAccess.Before(cutoff) {
			delete(a.LimiterMap, key)
			removed++
		}
	}
	if removed > 0 {
		util.LogInfo("Cleaned up %d stale rate limiters", removed)
	}
}
