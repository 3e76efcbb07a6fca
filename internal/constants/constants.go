package constants

const (
	// Falling-stars tuning. Speeds are field units per nominal 16ms frame.
	SpawnIntervalMs  = 2000.0
	SpawnMargin      = 30.0
	SpawnStartY      = -30.0
	FrameMs          = 16.0
	FallSpeedMin     = 1.0
	FallSpeedMax     = 2.5
	FallSpeedDamping = 0.4
	StartLives       = 3
	HitReward        = 10
)

const (
	DefaultFieldWidth  = 800.0
	DefaultFieldHeight = 500.0
)

const (
	QuizQuestions   = 10
	QuizOptionCount = 4
	QuizExcellentAt = 8

	TimeAttackSeconds = 60
	TimeAttackReward  = 10
	TimeAttackPenalty = 5

	MonsterFactorMin = 2
	MonsterFactorMax = 9

	ArrayGridSize  = 10
	ArrayTargetMin = 2
	ArrayTargetMax = 5
)

const (
	DistractorOffsetRange = 5
	DistractorRetryCap    = 64
)

const (
	SessionCookieName = "session_id"
)

// Durable key-value store keys.
const (
	StoreKeyAccounts  = "accounts"
	StoreKeyLastLogin = "last_logged_in_username"
	StoreKeyGuestGems = "guest_balance"
)

const (
	RouteHome        = "/"
	RouteHealthz     = "/healthz"
	RouteI18n        = "/i18n"
	RouteMenu        = "/menu"
	RouteStarsStart  = "/stars/start"
	RouteStarsTick   = "/stars/tick"
	RouteStarsAnswer = "/stars/answer"
	RouteStarsStop   = "/stars/stop"
	RouteStarsState  = "/stars/state"
	RouteQuizStart   = "/quiz/start"
	RouteQuizAnswer  = "/quiz/answer"
	RouteTimeStart   = "/time/start"
	RouteTimeAnswer  = "/time/answer"
	RouteTimeStop    = "/time/stop"
	RouteMonsterNew  = "/monster/new"
	RouteMonsterHit  = "/monster/attack"
	RouteArrayNew    = "/array/new"
	RouteArrayCheck  = "/array/check"
	RouteSignup      = "/signup"
	RouteLogin       = "/login"
	RouteLogout      = "/logout"
	RouteBalance     = "/balance"
	RouteCredit      = "/credit"
)

const (
	ErrorCodeInvalidInput   = "invalid_input"
	ErrorCodeDuplicateUser  = "duplicate_user"
	ErrorCodeNotFound       = "not_found"
	ErrorCodeBadCredentials = "bad_credentials"
	ErrorCodePersistence    = "persistence_failure"
	ErrorCodeNotRunning     = "not_running"
	ErrorCodeStaleRun       = "stale_run"
	ErrorCodeNoQuiz         = "no_active_quiz"
)

type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
)
