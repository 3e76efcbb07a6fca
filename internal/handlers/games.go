package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	app "github.com/CodeAndHammer/stelfalo/internal/app"
	constants "github.com/CodeAndHammer/stelfalo/internal/constants"
	mathfacts "github.com/CodeAndHammer/stelfalo/internal/mathfacts"
	minigame "github.com/CodeAndHammer/stelfalo/internal/minigame"
	session "github.com/CodeAndHammer/stelfalo/internal/session"
)

type quizStartRequest struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func QuizStartHandler(a *app.App, c *gin.Context) {
	ps := session.Player(a, c)

	req := quizStartRequest{Min: 2, Max: 9}
	_ = c.ShouldBindJSON(&req)
	if req.Min < 1 || req.Max < req.Min {
		respond(c, ps, http.StatusBadRequest, gin.H{"error": constants.ErrorCodeInvalidInput})
		return
	}

	ps.Mu.Lock()
	ps.Quiz = minigame.NewQuiz(ps.Rng, req.Min, req.Max)
	question, _ := ps.Quiz.Next()
	current, total := ps.Quiz.Progress()
	ps.Mu.Unlock()

	respond(c, ps, http.StatusOK, gin.H{
		"question": question,
		"current":  current,
		"total":    total,
	})
}

type answerRequest struct {
	Value int `json:"value"`
}

func QuizAnswerHandler(a *app.App, c *gin.Context) {
	ps := session.Player(a, c)

	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, ps, http.StatusBadRequest, gin.H{"error": constants.ErrorCodeInvalidInput})
		return
	}

	// Quiz carries no lock of its own, so every operation on it stays
	// under the session mutex.
	ps.Mu.Lock()
	quiz := ps.Quiz
	if quiz == nil {
		ps.Mu.Unlock()
		respond(c, ps, http.StatusConflict, gin.H{"error": constants.ErrorCodeNoQuiz})
		return
	}

	correct, answer := quiz.Answer(req.Value)
	question, done := quiz.Next()
	current, total := quiz.Progress()

	payload := gin.H{
		"correct": correct,
		"answer":  answer,
		"current": current,
		"total":   total,
	}
	if done {
		payload["finished"] = true
		payload["score"] = quiz.Score()
		payload["excellent"] = quiz.Excellent()
		ps.Quiz = nil
	} else {
		payload["question"] = question
	}
	ps.Mu.Unlock()
	respond(c, ps, http.StatusOK, payload)
}

func TimeStartHandler(a *app.App, c *gin.Context) {
	ps := session.Player(a, c)

	ps.Mu.Lock()
	if ps.TimeAttack != nil {
		ps.TimeAttack.Stop()
	}
	// The time attack draws from its questions under its own lock, so it
	// gets its own rand source instead of sharing ps.Rng.
	ps.TimeAttack = minigame.StartTimeAttack(mathfacts.NewRand(uint64(time.Now().UnixNano())), ps.Events)
	question := ps.TimeAttack.Next()
	timeLeft, score, _ := ps.TimeAttack.State()
	ps.Mu.Unlock()

	respond(c, ps, http.StatusOK, gin.H{
		"question": question,
		"timeLeft": timeLeft,
		"score":    score,
	})
}

func TimeAnswerHandler(a *app.App, c *gin.Context) {
	ps := session.Player(a, c)

	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, ps, http.StatusBadRequest, gin.H{"error": constants.ErrorCodeInvalidInput})
		return
	}

	ps.Mu.Lock()
	attack := ps.TimeAttack
	ps.Mu.Unlock()
	if attack == nil {
		respond(c, ps, http.StatusConflict, gin.H{"error": constants.ErrorCodeNotRunning})
		return
	}

	correct := attack.Answer(req.Value)
	timeLeft, score, done := attack.State()
	payload := gin.H{
		"correct":  correct,
		"timeLeft": timeLeft,
		"score":    score,
		"finished": done,
	}
	if !done {
		payload["question"] = attack.Next()
	}
	respond(c, ps, http.StatusOK, payload)
}

func TimeStopHandler(a *app.App, c *gin.Context) {
	ps := session.Player(a, c)

	ps.Mu.Lock()
	attack := ps.TimeAttack
	ps.TimeAttack = nil
	ps.Mu.Unlock()
	if attack == nil {
		respond(c, ps, http.StatusConflict, gin.H{"error": constants.ErrorCodeNotRunning})
		return
	}

	attack.Stop()
	_, score, _ := attack.State()
	respond(c, ps, http.StatusOK, gin.H{"score": score})
}

func MonsterNewHandler(a *app.App, c *gin.Context) {
	ps := session.Player(a, c)

	ps.Mu.Lock()
	monster := minigame.NewMonster(ps.Rng)
	ps.Monster = &monster
	ps.Mu.Unlock()

	respond(c, ps, http.StatusOK, gin.H{"monster": monster})
}

type monsterAttackRequest struct {
	A int `json:"a"`
	B int `json:"b"`
}

func MonsterAttackHandler(a *app.App, c *gin.Context) {
	ps := session.Player(a, c)

	var req monsterAttackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, ps, http.StatusBadRequest, gin.H{"error": constants.ErrorCodeInvalidInput})
		return
	}

	ps.Mu.Lock()
	monster := ps.Monster
	ps.Mu.Unlock()
	if monster == nil {
		respond(c, ps, http.StatusConflict, gin.H{"error": constants.ErrorCodeNotRunning})
		return
	}

	respond(c, ps, http.StatusOK, gin.H{
		"defeated": monster.Attack(req.A, req.B),
		"monster":  monster,
	})
}

func ArrayNewHandler(a *app.App, c *gin.Context) {
	ps := session.Player(a, c)

	ps.Mu.Lock()
	task := minigame.NewArrayTask(ps.Rng)
	ps.ArrayTask = &task
	ps.Mu.Unlock()

	respond(c, ps, http.StatusOK, gin.H{"task": task})
}

type arrayCheckRequest struct {
	Cells []int `json:"cells"`
}

func ArrayCheckHandler(a *app.App, c *gin.Context) {
	ps := session.Player(a, c)

	var req arrayCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, ps, http.StatusBadRequest, gin.H{"error": constants.ErrorCodeInvalidInput})
		return
	}

	ps.Mu.Lock()
	task := ps.ArrayTask
	ps.Mu.Unlock()
	if task == nil {
		respond(c, ps, http.StatusConflict, gin.H{"error": constants.ErrorCodeNotRunning})
		return
	}

	respond(c, ps, http.StatusOK, gin.H{
		"verdict": task.Check(req.Cells),
		"task":    task,
	})
}
