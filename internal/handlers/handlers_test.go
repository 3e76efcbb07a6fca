package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	app "github.com/CodeAndHammer/stelfalo/internal/app"
)

func testApp(t *testing.T) *app.App {
	t.Helper()

	locales := filepath.Join(t.TempDir(), "locales.json")
	data := `{"zh-Hant": {"title": "乘法遊樂園"}, "en": {"title": "Multiplication Playground"}}`
	if err := os.WriteFile(locales, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := app.New(app.Config{
		CookieMaxAge: time.Hour,
		SessionTTL:   time.Hour,
		StoreDriver:  "memory",
		LocalesPath:  locales,
		TickInterval: 16 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("app.New failed: %v", err)
	}
	return a
}

func testRouter(a *app.App) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	wrap := func(h func(*app.App, *gin.Context)) gin.HandlerFunc {
		return func(c *gin.Context) { h(a, c) }
	}

	router.GET("/", wrap(HomeHandler))
	router.GET("/i18n", wrap(I18nHandler))
	router.GET("/healthz", wrap(HealthzHandler))
	router.POST("/menu", wrap(MenuHandler))
	router.POST("/stars/start", wrap(StarsStartHandler))
	router.POST("/stars/tick", wrap(StarsTickHandler))
	router.POST("/stars/answer", wrap(StarsAnswerHandler))
	router.POST("/stars/stop", wrap(StarsStopHandler))
	router.GET("/stars/state", wrap(StarsStateHandler))
	router.POST("/quiz/start", wrap(QuizStartHandler))
	router.POST("/quiz/answer", wrap(QuizAnswerHandler))
	router.POST("/signup", wrap(SignupHandler))
	router.POST("/login", wrap(LoginHandler))
	router.POST("/logout", wrap(LogoutHandler))
	router.GET("/balance", wrap(BalanceHandler))
	router.POST("/credit", wrap(CreditHandler))
	return router
}

// client keeps the session cookie across requests.
type client struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
}

func (cl *client) do(method, path string, body any) (int, map[string]any) {
	cl.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			cl.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cl.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	cl.router.ServeHTTP(w, req)

	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		cl.cookies = append(cl.cookies, cookies...)
	}

	out := map[string]any{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			cl.t.Fatalf("bad JSON from %s %s: %v", method, path, err)
		}
	}
	return w.Code, out
}

// status posts without recording cookies, so once the session cookie is
// established it is safe to call from multiple goroutines.
func (cl *client) status(path string, body any) int {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			cl.t.Error(err)
			return 0
		}
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cl.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	cl.router.ServeHTTP(w, req)
	return w.Code
}

func TestHomeBootstrapsGuestSession(t *testing.T) {
	cl := &client{t: t, router: testRouter(testApp(t))}

	code, body := cl.do(http.MethodGet, "/?lang=en", nil)
	if code != http.StatusOK {
		t.Fatalf("home status = %d", code)
	}
	if body["lang"] != "en" {
		t.Errorf("lang = %v, want en", body["lang"])
	}
	user := body["user"].(map[string]any)
	if user["guest"] != true {
		t.Errorf("fresh session user = %v, want guest", user)
	}
	if body["balance"].(float64) != 0 {
		t.Errorf("fresh balance = %v, want 0", body["balance"])
	}
}

func TestStarsFlowFeedsLedger(t *testing.T) {
	cl := &client{t: t, router: testRouter(testApp(t))}
	cl.do(http.MethodGet, "/", nil)

	code, body := cl.do(http.MethodPost, "/stars/start", map[string]any{"width": 800, "height": 500})
	if code != http.StatusOK {
		t.Fatalf("start status = %d", code)
	}
	state := body["state"].(map[string]any)
	runID := state["runId"].(string)
	if state["phase"] != "running" || runID == "" {
		t.Fatalf("start state = %v", state)
	}

	_, body = cl.do(http.MethodPost, "/stars/tick", map[string]any{"runId": runID, "elapsedMs": 2100})
	state = body["state"].(map[string]any)
	stars := state["stars"].([]any)
	if len(stars) != 1 {
		t.Fatalf("stars after 2100ms = %d, want 1", len(stars))
	}
	answer := stars[0].(map[string]any)["problem"].(map[string]any)["answer"].(float64)

	_, body = cl.do(http.MethodPost, "/stars/answer", map[string]any{"runId": runID, "answer": int(answer)})
	if body["hit"] != true {
		t.Fatalf("answer response = %v, want hit", body)
	}
	state = body["state"].(map[string]any)
	if state["score"].(float64) != 10 || len(state["stars"].([]any)) != 0 {
		t.Errorf("state after hit = %v", state)
	}
	if body["balance"].(float64) != 10 {
		t.Errorf("balance after hit = %v, want 10", body["balance"])
	}

	types := map[string]bool{}
	for _, e := range body["events"].([]any) {
		types[e.(map[string]any)["type"].(string)] = true
	}
	if !types["hit"] || !types["balanceChanged"] {
		t.Errorf("events after hit = %v, want hit and balanceChanged", types)
	}

	// Stale run ID after restart is a quiet no-op.
	_, body = cl.do(http.MethodPost, "/stars/start", nil)
	_, body = cl.do(http.MethodPost, "/stars/tick", map[string]any{"runId": runID, "elapsedMs": 2100})
	if body["live"] != false {
		t.Errorf("stale tick live = %v, want false", body["live"])
	}
}

func TestAuthFlow(t *testing.T) {
	cl := &client{t: t, router: testRouter(testApp(t))}
	cl.do(http.MethodGet, "/", nil)

	code, body := cl.do(http.MethodPost, "/signup", map[string]any{
		"username": "ann", "password": "pw", "avatar": "Felix",
	})
	if code != http.StatusOK {
		t.Fatalf("signup status = %d: %v", code, body)
	}
	acct := body["account"].(map[string]any)
	if acct["username"] != "ann" || acct["avatar"] != "Felix" {
		t.Errorf("signup account = %v", acct)
	}
	if _, leaked := acct["password"]; leaked {
		t.Error("signup response leaked the password")
	}

	if code, _ := cl.do(http.MethodPost, "/signup", map[string]any{
		"username": "ann", "password": "x",
	}); code != http.StatusConflict {
		t.Errorf("duplicate signup status = %d, want 409", code)
	}

	cl.do(http.MethodPost, "/logout", nil)
	_, body = cl.do(http.MethodGet, "/balance", nil)
	if body["balance"].(float64) != 0 {
		t.Errorf("balance after logout = %v, want 0", body["balance"])
	}

	if code, _ := cl.do(http.MethodPost, "/login", map[string]any{
		"username": "ann", "password": "wrong",
	}); code != http.StatusUnauthorized {
		t.Errorf("bad-credentials login status = %d, want 401", code)
	}
	if code, _ := cl.do(http.MethodPost, "/login", map[string]any{
		"username": "nobody", "password": "pw",
	}); code != http.StatusNotFound {
		t.Errorf("unknown-user login status = %d, want 404", code)
	}

	code, body = cl.do(http.MethodPost, "/login", map[string]any{
		"username": "ann", "password": "pw",
	})
	if code != http.StatusOK {
		t.Fatalf("login status = %d: %v", code, body)
	}

	_, body = cl.do(http.MethodPost, "/credit", map[string]any{"amount": 25})
	if body["balance"].(float64) != 25 {
		t.Errorf("balance after credit = %v, want 25", body["balance"])
	}
}

func TestQuizFlow(t *testing.T) {
	cl := &client{t: t, router: testRouter(testApp(t))}
	cl.do(http.MethodGet, "/", nil)

	code, body := cl.do(http.MethodPost, "/quiz/start", map[string]any{"min": 2, "max": 9})
	if code != http.StatusOK {
		t.Fatalf("quiz start status = %d", code)
	}

	for i := 0; i < 10; i++ {
		question := body["question"].(map[string]any)
		answer := int(question["a"].(float64) * question["b"].(float64))
		_, body = cl.do(http.MethodPost, "/quiz/answer", map[string]any{"value": answer})
		if body["correct"] != true {
			t.Fatalf("question %d scored wrong: %v", i+1, body)
		}
	}

	if body["finished"] != true {
		t.Fatalf("quiz not finished after 10 answers: %v", body)
	}
	if body["score"].(float64) != 10 || body["excellent"] != true {
		t.Errorf("final quiz verdict = %v", body)
	}

	// Answering with no quiz running is a conflict.
	if code, _ := cl.do(http.MethodPost, "/quiz/answer", map[string]any{"value": 1}); code != http.StatusConflict {
		t.Errorf("answer without quiz status = %d, want 409", code)
	}
}

func TestMenuTeardownStopsRun(t *testing.T) {
	cl := &client{t: t, router: testRouter(testApp(t))}
	cl.do(http.MethodGet, "/", nil)

	_, body := cl.do(http.MethodPost, "/stars/start", map[string]any{"auto": true})
	state := body["state"].(map[string]any)
	if state["phase"] != "running" {
		t.Fatalf("auto start state = %v", state)
	}

	cl.do(http.MethodPost, "/menu", nil)
	_, body = cl.do(http.MethodGet, "/stars/state", nil)
	state = body["state"].(map[string]any)
	if state["phase"] != "ended" {
		t.Errorf("phase after menu teardown = %v, want ended", state["phase"])
	}

	// A client-paced run has no runner; the teardown must still end it.
	_, body = cl.do(http.MethodPost, "/stars/start", nil)
	state = body["state"].(map[string]any)
	if state["phase"] != "running" {
		t.Fatalf("client-paced start state = %v", state)
	}

	cl.do(http.MethodPost, "/menu", nil)
	_, body = cl.do(http.MethodGet, "/stars/state", nil)
	state = body["state"].(map[string]any)
	if state["phase"] != "ended" {
		t.Errorf("client-paced phase after menu teardown = %v, want ended", state["phase"])
	}
}

func TestSessionsDoNotShareLoginOrGems(t *testing.T) {
	router := testRouter(testApp(t))

	first := &client{t: t, router: router}
	first.do(http.MethodGet, "/", nil)
	if code, _ := first.do(http.MethodPost, "/signup", map[string]any{
		"username": "ann", "password": "pw",
	}); code != http.StatusOK {
		t.Fatalf("signup status = %d", code)
	}
	first.do(http.MethodPost, "/credit", map[string]any{"amount": 25})

	// A second browser gets its own guest session, not ann's account.
	second := &client{t: t, router: router}
	_, body := second.do(http.MethodGet, "/", nil)
	if body["user"].(map[string]any)["guest"] != true {
		t.Fatal("fresh session inherited another browser's login")
	}
	if body["balance"].(float64) != 0 {
		t.Fatalf("fresh session balance = %v, want 0", body["balance"])
	}

	_, body = second.do(http.MethodPost, "/credit", map[string]any{"amount": 7})
	if body["balance"].(float64) != 7 {
		t.Errorf("guest balance = %v, want 7", body["balance"])
	}

	_, body = first.do(http.MethodGet, "/balance", nil)
	if body["balance"].(float64) != 25 {
		t.Errorf("first session balance = %v, want 25 untouched", body["balance"])
	}
}

func TestConcurrentStarsRequests(t *testing.T) {
	cl := &client{t: t, router: testRouter(testApp(t))}
	cl.do(http.MethodGet, "/", nil)
	_, body := cl.do(http.MethodPost, "/stars/start", nil)
	runID := body["state"].(map[string]any)["runId"].(string)

	// Restarts race in-flight ticks and answers; stale run IDs land as
	// no-ops and every request must come back clean.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			if code := cl.status("/stars/start", nil); code != http.StatusOK {
				t.Errorf("concurrent start status = %d", code)
			}
		}()
		go func() {
			defer wg.Done()
			if code := cl.status("/stars/tick", map[string]any{"runId": runID, "elapsedMs": 16}); code != http.StatusOK {
				t.Errorf("concurrent tick status = %d", code)
			}
		}()
		go func() {
			defer wg.Done()
			if code := cl.status("/stars/answer", map[string]any{"runId": runID, "answer": 12}); code != http.StatusOK {
				t.Errorf("concurrent answer status = %d", code)
			}
		}()
	}
	wg.Wait()
}

func TestConcurrentQuizAnswers(t *testing.T) {
	cl := &client{t: t, router: testRouter(testApp(t))}
	cl.do(http.MethodGet, "/", nil)
	if code, _ := cl.do(http.MethodPost, "/quiz/start", nil); code != http.StatusOK {
		t.Fatalf("quiz start status = %d", code)
	}

	// Six wrong answers cannot finish a ten-question quiz, so every
	// request must succeed no matter how they interleave.
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if code := cl.status("/quiz/answer", map[string]any{"value": -1}); code != http.StatusOK {
				t.Errorf("concurrent quiz answer status = %d", code)
			}
		}()
	}
	wg.Wait()
}
