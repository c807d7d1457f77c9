package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/deeply-app/deeply/internal/model"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type pomodoroLogRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  int       `json:"duration"`
	TimerType string    `json:"timer_type"`
	Completed bool      `json:"completed"`
}

func (s *Server) handleCreatePomodoroLog(c echo.Context) error {
	var req pomodoroLogRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}
	if req.TimerType != model.TimerWork && req.TimerType != model.TimerBreak {
		return jsonError(c, http.StatusBadRequest, "timer_type must be work or break")
	}
	if req.Duration <= 0 {
		return jsonError(c, http.StatusBadRequest, "duration must be positive")
	}

	l := model.PomodoroLog{
		ID:        uuid.New().String(),
		PersonID:  currentPerson(c).ID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Duration:  req.Duration,
		TimerType: req.TimerType,
		Completed: req.Completed,
	}
	if err := s.db.CreatePomodoroLog(c.Request().Context(), l); err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, l)
}

func (s *Server) handleListPomodoroLogs(c echo.Context) error {
	logs, err := s.db.ListPomodoroLogs(c.Request().Context(), currentPerson(c).ID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, logs)
}

type dayStat struct {
	Label   string `json:"label"` // DD/MM
	Seconds int    `json:"seconds"`
}

type pomodoroStats struct {
	Days          []dayStat `json:"days"`
	TotalSeconds  int       `json:"total_seconds"`
	CompletedRuns int       `json:"completed_runs"`
}

// handlePomodoroStats returns the caller's recent work time as a
// zero-filled series, oldest day first. The period query selects the
// window: "week" (default, 7 days) or "month" (30 days).
func (s *Server) handlePomodoroStats(c echo.Context) error {
	days := 7
	switch c.QueryParam("period") {
	case "", "week":
	case "month":
		days = 30
	default:
		return jsonError(c, http.StatusBadRequest, "period must be week or month")
	}

	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, -(days - 1))

	logs, err := s.db.WorkLogsSince(c.Request().Context(), currentPerson(c).ID, start)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	perDay := make(map[string]int, days)
	stats := pomodoroStats{}
	for _, l := range logs {
		perDay[l.StartTime.Format("02/01")] += l.Duration
		stats.TotalSeconds += l.Duration
		if l.Completed {
			stats.CompletedRuns++
		}
	}

	for i := 0; i < days; i++ {
		label := start.AddDate(0, 0, i).Format("02/01")
		stats.Days = append(stats.Days, dayStat{Label: label, Seconds: perDay[label]})
	}

	return c.JSON(http.StatusOK, stats)
}

type rankingEntry struct {
	Name    string `json:"name"`
	Seconds int    `json:"seconds"`
	You     bool   `json:"you"`
}

// handlePomodoroRanking returns the all-time work leaderboard. Other
// people appear as numbered placeholders; only the caller's own row
// carries a real name.
func (s *Server) handlePomodoroRanking(c echo.Context) error {
	totals, err := s.db.WorkRanking(c.Request().Context())
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}

	caller := currentPerson(c)
	out := make([]rankingEntry, 0, len(totals))
	for i, t := range totals {
		entry := rankingEntry{Seconds: t.Seconds}
		if t.PersonID == caller.ID {
			entry.Name = t.Name
			entry.You = true
		} else {
			entry.Name = fmt.Sprintf("User %d", i+1)
		}
		out = append(out, entry)
	}
	return c.JSON(http.StatusOK, out)
}
