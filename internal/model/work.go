package model

import "time"

// Pomodoro timer types.
const (
	TimerWork  = "work"
	TimerBreak = "break"
)

// PomodoroLog is one finished (or abandoned) timer run.
type PomodoroLog struct {
	ID        string    `json:"id"`
	PersonID  string    `json:"user_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  int       `json:"duration"` // seconds
	TimerType string    `json:"timer_type"`
	Completed bool      `json:"completed"`
}

// TodoList is a personal, ordered list of todo tasks.
type TodoList struct {
	ID          string    `json:"id"`
	PersonID    string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Ord         int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`

	Tasks []TodoTask `json:"tasks,omitempty"`
}

// TodoTask belongs to exactly one TodoList.
type TodoTask struct {
	ID          string    `json:"id"`
	ListID      string    `json:"list_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	Completed   bool      `json:"completed"`
	Ord         int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
}
