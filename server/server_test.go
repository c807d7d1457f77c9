package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/deeply-app/deeply/internal/config"
	"github.com/deeply-app/deeply/internal/model"
	"github.com/deeply-app/deeply/internal/porting"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DSN = filepath.Join(dir, "test.db")
	cfg.UploadsDir = filepath.Join(dir, "uploads")
	cfg.LogFile = ""
	cfg.LogConsole = false

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedLogin creates an account plus a live session and returns its cookie.
func seedLogin(t *testing.T, s *Server, admin bool) (model.Person, *http.Cookie) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2-long"), bcrypt.MinCost)
	p := model.Person{
		ID: uuid.New().String(), Name: "Tester-" + uuid.New().String(),
		Email: uuid.New().String() + "@x.com", PasswordHash: string(hash),
		Admin: admin, CreatedAt: now,
	}
	if err := s.db.CreatePerson(ctx, p); err != nil {
		t.Fatalf("seed person: %v", err)
	}

	token := uuid.New().String()
	sess := model.Session{
		ID: uuid.New().String(), PersonID: p.ID, Token: token,
		ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}
	if err := s.db.CreateSession(ctx, sess); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	return p, &http.Cookie{Name: SessionCookie, Value: token}
}

func doJSON(t *testing.T, s *Server, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(echoHeaderContentType, "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

const echoHeaderContentType = "Content-Type"

func TestLoginFlow(t *testing.T) {
	s := newTestServer(t)
	p, _ := seedLogin(t, s, false)

	rec := doJSON(t, s, http.MethodPost, "/api/login",
		map[string]string{"email": p.Email, "password": "wrong-password"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/login",
		map[string]string{"email": p.Email, "password": "hunter2-long"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: got %d: %s", rec.Code, rec.Body)
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatal("no session cookie set")
	}

	rec = doJSON(t, s, http.MethodGet, "/api/me", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: got %d", rec.Code)
	}
	var me model.Person
	json.Unmarshal(rec.Body.Bytes(), &me)
	if me.ID != p.ID {
		t.Errorf("me returned %s, want %s", me.ID, p.ID)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/projects", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	bogus := &http.Cookie{Name: SessionCookie, Value: "no-such-token"}
	rec = doJSON(t, s, http.MethodGet, "/api/projects", nil, bogus)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bogus token, got %d", rec.Code)
	}
}

func TestProjectLifecycle(t *testing.T) {
	s := newTestServer(t)
	_, cookie := seedLogin(t, s, false)

	rec := doJSON(t, s, http.MethodPost, "/api/projects",
		map[string]any{"name": "Launch", "phases": []string{"Design", "Build"}}, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d: %s", rec.Code, rec.Body)
	}
	var p model.Project
	json.Unmarshal(rec.Body.Bytes(), &p)
	if len(p.Phases) != 2 || p.Phases[0].Name != "Design" {
		t.Fatalf("unexpected project: %+v", p)
	}

	// The creator sees it without admin rights
	rec = doJSON(t, s, http.MethodGet, "/api/projects", nil, cookie)
	var list []model.Project
	json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list) != 1 {
		t.Fatalf("expected 1 visible project, got %d", len(list))
	}

	// Another user sees nothing
	_, other := seedLogin(t, s, false)
	rec = doJSON(t, s, http.MethodGet, "/api/projects/"+p.ID, nil, other)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("outsider read: got %d", rec.Code)
	}

	// Phase swap works while the board is empty
	rec = doJSON(t, s, http.MethodPut, "/api/projects/"+p.ID+"/phases",
		map[string]any{"phases": []string{"Todo", "Doing", "Done"}}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("phase swap: got %d: %s", rec.Code, rec.Body)
	}
}

func TestPhaseSwapLockedByCards(t *testing.T) {
	s := newTestServer(t)
	_, cookie := seedLogin(t, s, false)

	rec := doJSON(t, s, http.MethodPost, "/api/projects",
		map[string]any{"name": "Busy", "phases": []string{"Todo"}}, cookie)
	var p model.Project
	json.Unmarshal(rec.Body.Bytes(), &p)

	rec = doJSON(t, s, http.MethodPost, "/api/cards", map[string]any{
		"project_id": p.ID, "phase_id": p.Phases[0].ID, "title": "Blocker",
	}, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create card: got %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, s, http.MethodPut, "/api/projects/"+p.ID+"/phases",
		map[string]any{"phases": []string{"Other"}}, cookie)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 while cards exist, got %d", rec.Code)
	}
}

func TestImportExportEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, cookie := seedLogin(t, s, false)

	rec := doJSON(t, s, http.MethodPost, "/api/projects",
		map[string]any{"name": "Sync", "phases": []string{"Design", "Build"}}, cookie)
	var p model.Project
	json.Unmarshal(rec.Body.Bytes(), &p)

	// Build a workbook with one good and one bad row
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	header := make([]any, len(porting.Columns))
	for i, c := range porting.Columns {
		header[i] = c
	}
	wb.SetSheetRow(sheet, "A1", &header)
	wb.SetSheetRow(sheet, "A2", &[]any{"Design", "Logo", "", "", "", "", "", "", "", 10})
	wb.SetSheetRow(sheet, "A3", &[]any{"Nope", "Ghost", "", "", "", "", "", "", "", 0})

	var fileBuf bytes.Buffer
	wb.Write(&fileBuf)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "cards.xlsx")
	part.Write(fileBuf.Bytes())
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/projects/"+p.ID+"/import", &body)
	req.Header.Set(echoHeaderContentType, mw.FormDataContentType())
	req.AddCookie(cookie)
	imp := httptest.NewRecorder()
	s.Router().ServeHTTP(imp, req)

	if imp.Code != http.StatusOK {
		t.Fatalf("import: got %d: %s", imp.Code, imp.Body)
	}
	var result porting.Result
	json.Unmarshal(imp.Body.Bytes(), &result)
	if !result.Success || result.Created != 1 || result.WarningCount != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	// Diagnostics download is one-shot
	rec = doJSON(t, s, http.MethodGet, "/api/import/errors", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("errors download: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Phase not found: Nope") {
		t.Errorf("unexpected report: %q", rec.Body.String())
	}
	rec = doJSON(t, s, http.MethodGet, "/api/import/errors", nil, cookie)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second download should 404, got %d", rec.Code)
	}

	// Export carries the imported card
	rec = doJSON(t, s, http.MethodGet, "/api/projects/"+p.ID+"/export", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: got %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "project_"+p.ID) {
		t.Errorf("unexpected disposition: %q", cd)
	}

	out, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("export not a workbook: %v", err)
	}
	defer out.Close()
	rows, _ := out.GetRows("Cards")
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	if rows[1][0] != "Design" || rows[1][1] != "Logo" {
		t.Errorf("unexpected export row: %v", rows[1])
	}
}

func TestImportRejectsWrongExtension(t *testing.T) {
	s := newTestServer(t)
	_, cookie := seedLogin(t, s, false)

	rec := doJSON(t, s, http.MethodPost, "/api/projects",
		map[string]any{"name": "CSV"}, cookie)
	var p model.Project
	json.Unmarshal(rec.Body.Bytes(), &p)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "cards.csv")
	part.Write([]byte("a,b,c"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/projects/"+p.ID+"/import", &body)
	req.Header.Set(echoHeaderContentType, mw.FormDataContentType())
	req.AddCookie(cookie)
	rec2 := httptest.NewRecorder()
	s.Router().ServeHTTP(rec2, req)

	if rec2.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for .csv, got %d", rec2.Code)
	}
	var result porting.Result
	json.Unmarshal(rec2.Body.Bytes(), &result)
	if result.Success || result.Error == "" {
		t.Errorf("rejection body should carry success=false and an error, got %s", rec2.Body)
	}
}

func TestKudosLimit(t *testing.T) {
	s := newTestServer(t)
	_, cookie := seedLogin(t, s, false)
	receiver, _ := seedLogin(t, s, false)

	for i := 0; i < model.MonthlyKudosLimit; i++ {
		rec := doJSON(t, s, http.MethodPost, "/api/kudos",
			map[string]string{"receiver_id": receiver.ID, "message": "great work"}, cookie)
		if rec.Code != http.StatusCreated {
			t.Fatalf("kudo %d: got %d: %s", i, rec.Code, rec.Body)
		}
	}

	rec := doJSON(t, s, http.MethodPost, "/api/kudos",
		map[string]string{"receiver_id": receiver.ID, "message": "one too many"}, cookie)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 past the limit, got %d", rec.Code)
	}
}

func TestAdminOnlyTeamCreation(t *testing.T) {
	s := newTestServer(t)
	_, member := seedLogin(t, s, false)
	_, admin := seedLogin(t, s, true)

	newPerson := map[string]any{
		"name": "New", "email": "new@x.com", "password": "longenough",
	}

	rec := doJSON(t, s, http.MethodPost, "/api/team", newPerson, member)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member create: got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/team", newPerson, admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin create: got %d: %s", rec.Code, rec.Body)
	}
}

func TestChannelMembership(t *testing.T) {
	s := newTestServer(t)
	_, owner := seedLogin(t, s, false)
	_, outsider := seedLogin(t, s, false)

	rec := doJSON(t, s, http.MethodPost, "/api/channels",
		map[string]any{"name": "secret", "is_private": true}, owner)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create channel: got %d: %s", rec.Code, rec.Body)
	}
	var ch model.Channel
	json.Unmarshal(rec.Body.Bytes(), &ch)

	rec = doJSON(t, s, http.MethodPost, "/api/channels/"+ch.ID+"/messages",
		map[string]string{"content": "hello"}, owner)
	if rec.Code != http.StatusCreated {
		t.Fatalf("owner post: got %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/channels/"+ch.ID+"/messages", nil, outsider)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("outsider read of private channel: got %d", rec.Code)
	}
}

func TestPomodoroStatsPeriods(t *testing.T) {
	s := newTestServer(t)
	_, cookie := seedLogin(t, s, false)

	rec := doJSON(t, s, http.MethodPost, "/api/pomodoro/logs",
		map[string]any{"timer_type": "work", "duration": 1500,
			"start_time": time.Now(), "end_time": time.Now(), "completed": true}, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("log: got %d: %s", rec.Code, rec.Body)
	}

	var stats struct {
		Days         []struct{ Label string } `json:"days"`
		TotalSeconds int                      `json:"total_seconds"`
	}

	rec = doJSON(t, s, http.MethodGet, "/api/pomodoro/stats", nil, cookie)
	json.Unmarshal(rec.Body.Bytes(), &stats)
	if len(stats.Days) != 7 || stats.TotalSeconds != 1500 {
		t.Fatalf("default week window: got %d days, %d seconds", len(stats.Days), stats.TotalSeconds)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/pomodoro/stats?period=month", nil, cookie)
	json.Unmarshal(rec.Body.Bytes(), &stats)
	if len(stats.Days) != 30 || stats.TotalSeconds != 1500 {
		t.Fatalf("month window: got %d days, %d seconds", len(stats.Days), stats.TotalSeconds)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/pomodoro/stats?period=year", nil, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown period should 400, got %d", rec.Code)
	}
}

func TestChangePassword(t *testing.T) {
	s := newTestServer(t)
	p, cookie := seedLogin(t, s, false)

	rec := doJSON(t, s, http.MethodPut, "/api/profile/password",
		map[string]string{"current_password": "wrong", "new_password": "fresh-secret"}, cookie)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("wrong current password: got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPut, "/api/profile/password",
		map[string]string{"current_password": "hunter2-long", "new_password": "short"}, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short new password: got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPut, "/api/profile/password",
		map[string]string{"current_password": "hunter2-long", "new_password": "fresh-secret"}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("change: got %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/login",
		map[string]string{"email": p.Email, "password": "hunter2-long"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("old password should be dead, got %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodPost, "/api/login",
		map[string]string{"email": p.Email, "password": "fresh-secret"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("new password login: got %d: %s", rec.Code, rec.Body)
	}
}

func TestTodoTaskMove(t *testing.T) {
	s := newTestServer(t)
	_, cookie := seedLogin(t, s, false)
	_, other := seedLogin(t, s, false)

	var inbox, later, theirs model.TodoList
	rec := doJSON(t, s, http.MethodPost, "/api/todo/lists", map[string]string{"name": "Inbox"}, cookie)
	json.Unmarshal(rec.Body.Bytes(), &inbox)
	rec = doJSON(t, s, http.MethodPost, "/api/todo/lists", map[string]string{"name": "Later"}, cookie)
	json.Unmarshal(rec.Body.Bytes(), &later)
	rec = doJSON(t, s, http.MethodPost, "/api/todo/lists", map[string]string{"name": "Theirs"}, other)
	json.Unmarshal(rec.Body.Bytes(), &theirs)

	rec = doJSON(t, s, http.MethodPost, "/api/todo/lists/"+inbox.ID+"/tasks",
		map[string]string{"title": "Write brief"}, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: got %d: %s", rec.Code, rec.Body)
	}
	var task model.TodoTask
	json.Unmarshal(rec.Body.Bytes(), &task)

	// Moving onto someone else's list is refused
	rec = doJSON(t, s, http.MethodPut, "/api/todo/tasks/"+task.ID,
		map[string]string{"title": "Write brief", "list_id": theirs.ID}, cookie)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("move to foreign list: got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPut, "/api/todo/tasks/"+task.ID,
		map[string]string{"title": "Write brief", "list_id": later.ID}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("move: got %d: %s", rec.Code, rec.Body)
	}
	var moved model.TodoTask
	json.Unmarshal(rec.Body.Bytes(), &moved)
	if moved.ListID != later.ID {
		t.Errorf("task did not move: %+v", moved)
	}
}
