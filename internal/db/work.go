package db

import (
	"context"
	"time"

	"github.com/deeply-app/deeply/internal/model"
)

// CreatePomodoroLog inserts one timer log entry.
func (s Queries) CreatePomodoroLog(ctx context.Context, l model.PomodoroLog) error {
	completed := 0
	if l.Completed {
		completed = 1
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO pomodoro_logs (id, person_id, start_time, end_time, duration, timer_type, completed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		l.ID, l.PersonID, encodeTime(l.StartTime), encodeTime(l.EndTime),
		l.Duration, l.TimerType, completed)
	return err
}

// ListPomodoroLogs returns a person's log entries newest first.
func (s Queries) ListPomodoroLogs(ctx context.Context, personID string) ([]model.PomodoroLog, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, person_id, start_time, end_time, duration, timer_type, completed
		FROM pomodoro_logs WHERE person_id = $1
		ORDER BY start_time DESC`, personID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.PomodoroLog{}
	for rows.Next() {
		var l model.PomodoroLog
		var start, end string
		var completed int
		if err := rows.Scan(&l.ID, &l.PersonID, &start, &end, &l.Duration,
			&l.TimerType, &completed); err != nil {
			return nil, err
		}
		l.StartTime = decodeTime(start)
		l.EndTime = decodeTime(end)
		l.Completed = completed != 0
		out = append(out, l)
	}
	return out, rows.Err()
}

// WorkLogsSince returns a person's work-timer entries starting at or after
// the given instant, oldest first. Backs the gamification chart.
func (s Queries) WorkLogsSince(ctx context.Context, personID string, since time.Time) ([]model.PomodoroLog, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, person_id, start_time, end_time, duration, timer_type, completed
		FROM pomodoro_logs
		WHERE person_id = $1 AND timer_type = $2 AND start_time >= $3
		ORDER BY start_time`, personID, model.TimerWork, encodeTime(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.PomodoroLog{}
	for rows.Next() {
		var l model.PomodoroLog
		var start, end string
		var completed int
		if err := rows.Scan(&l.ID, &l.PersonID, &start, &end, &l.Duration,
			&l.TimerType, &completed); err != nil {
			return nil, err
		}
		l.StartTime = decodeTime(start)
		l.EndTime = decodeTime(end)
		l.Completed = completed != 0
		out = append(out, l)
	}
	return out, rows.Err()
}

// WorkTotal is one person's all-time work-timer seconds.
type WorkTotal struct {
	PersonID string
	Name     string
	Seconds  int
}

// WorkRanking returns total work seconds per person, highest first.
func (s Queries) WorkRanking(ctx context.Context) ([]WorkTotal, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT l.person_id, p.name, SUM(l.duration)
		FROM pomodoro_logs l
		JOIN persons p ON p.id = l.person_id
		WHERE l.timer_type = $1
		GROUP BY l.person_id, p.name
		ORDER BY SUM(l.duration) DESC`, model.TimerWork)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []WorkTotal{}
	for rows.Next() {
		var w WorkTotal
		if err := rows.Scan(&w.PersonID, &w.Name, &w.Seconds); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// CreateTodoList inserts a personal todo list.
func (s Queries) CreateTodoList(ctx context.Context, l model.TodoList) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO todo_lists (id, person_id, name, description, ord, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.PersonID, l.Name, l.Description, l.Ord, encodeTime(l.CreatedAt))
	return err
}

// GetTodoList returns a list with its tasks if it belongs to the person.
func (s Queries) GetTodoList(ctx context.Context, id, personID string) (model.TodoList, error) {
	var l model.TodoList
	var created string
	err := s.q.QueryRowContext(ctx, `
		SELECT id, person_id, name, description, ord, created_at
		FROM todo_lists WHERE id = $1 AND person_id = $2`, id, personID).
		Scan(&l.ID, &l.PersonID, &l.Name, &l.Description, &l.Ord, &created)
	if err != nil {
		return model.TodoList{}, notFound(err)
	}
	l.CreatedAt = decodeTime(created)
	l.Tasks, err = s.listTodoTasks(ctx, id)
	return l, err
}

// ListTodoLists returns a person's lists in display order, tasks included.
func (s Queries) ListTodoLists(ctx context.Context, personID string) ([]model.TodoList, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, person_id, name, description, ord, created_at
		FROM todo_lists WHERE person_id = $1 ORDER BY ord, created_at`, personID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.TodoList{}
	for rows.Next() {
		var l model.TodoList
		var created string
		if err := rows.Scan(&l.ID, &l.PersonID, &l.Name, &l.Description, &l.Ord, &created); err != nil {
			return nil, err
		}
		l.CreatedAt = decodeTime(created)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Tasks, err = s.listTodoTasks(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateTodoList updates list metadata and display order.
func (s Queries) UpdateTodoList(ctx context.Context, l model.TodoList) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE todo_lists SET name = $1, description = $2, ord = $3
		WHERE id = $4 AND person_id = $5`,
		l.Name, l.Description, l.Ord, l.ID, l.PersonID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTodoList removes a list and its tasks.
func (s Queries) DeleteTodoList(ctx context.Context, id, personID string) error {
	res, err := s.q.ExecContext(ctx,
		`DELETE FROM todo_lists WHERE id = $1 AND person_id = $2`, id, personID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateTodoTask inserts a task.
func (s Queries) CreateTodoTask(ctx context.Context, t model.TodoTask) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO todo_tasks (id, list_id, title, description, priority, completed, ord, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.ListID, t.Title, t.Description, t.Priority, boolInt(t.Completed),
		t.Ord, encodeTime(t.CreatedAt))
	return err
}

// GetTodoTask returns a task.
func (s Queries) GetTodoTask(ctx context.Context, id string) (model.TodoTask, error) {
	var t model.TodoTask
	var completed int
	var created string
	err := s.q.QueryRowContext(ctx, `
		SELECT id, list_id, title, description, priority, completed, ord, created_at
		FROM todo_tasks WHERE id = $1`, id).
		Scan(&t.ID, &t.ListID, &t.Title, &t.Description, &t.Priority, &completed,
			&t.Ord, &created)
	if err != nil {
		return model.TodoTask{}, notFound(err)
	}
	t.Completed = completed != 0
	t.CreatedAt = decodeTime(created)
	return t, nil
}

// UpdateTodoTask overwrites a task, including its list and order.
func (s Queries) UpdateTodoTask(ctx context.Context, t model.TodoTask) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE todo_tasks SET list_id = $1, title = $2, description = $3,
			priority = $4, completed = $5, ord = $6
		WHERE id = $7`,
		t.ListID, t.Title, t.Description, t.Priority, boolInt(t.Completed), t.Ord, t.ID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTodoTask removes a task.
func (s Queries) DeleteTodoTask(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM todo_tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s Queries) listTodoTasks(ctx context.Context, listID string) ([]model.TodoTask, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, list_id, title, description, priority, completed, ord, created_at
		FROM todo_tasks WHERE list_id = $1 ORDER BY ord, created_at`, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.TodoTask{}
	for rows.Next() {
		var t model.TodoTask
		var completed int
		var created string
		if err := rows.Scan(&t.ID, &t.ListID, &t.Title, &t.Description, &t.Priority,
			&completed, &t.Ord, &created); err != nil {
			return nil, err
		}
		t.Completed = completed != 0
		t.CreatedAt = decodeTime(created)
		out = append(out, t)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
