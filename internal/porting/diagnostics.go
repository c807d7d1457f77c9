package porting

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Diagnostic is one row-level import problem.
type Diagnostic struct {
	Row     int
	Fatal   bool // true for rejections, false for warnings
	Message string
}

// String renders the diagnostics-report line for this entry.
func (d Diagnostic) String() string {
	if d.Fatal {
		return fmt.Sprintf("Error in row %d: %s", d.Row, d.Message)
	}
	if d.Row > 0 {
		return fmt.Sprintf("Warning: row %d: %s", d.Row, d.Message)
	}
	return fmt.Sprintf("Warning: %s", d.Message)
}

func warning(row int, format string, args ...any) Diagnostic {
	return Diagnostic{Row: row, Message: fmt.Sprintf(format, args...)}
}

func rejection(row int, format string, args ...any) Diagnostic {
	return Diagnostic{Row: row, Fatal: true, Message: fmt.Sprintf(format, args...)}
}

// Report renders the full diagnostics report.
func Report(diags []Diagnostic) string {
	var b strings.Builder
	for _, d := range diags {
		b.WriteString(d.String())
		b.WriteString("\n")
	}
	return b.String()
}

// ReportStore keeps at most one pending diagnostics report per session,
// written to a temp file and handed out exactly once.
type ReportStore struct {
	dir string

	mu    sync.Mutex
	files map[string]string // session token -> file path
}

// NewReportStore creates a store writing reports under dir (the OS temp
// directory when empty).
func NewReportStore(dir string) *ReportStore {
	if dir == "" {
		dir = os.TempDir()
	}
	return &ReportStore{dir: dir, files: make(map[string]string)}
}

// Put writes the report for a session, replacing any pending one.
func (s *ReportStore) Put(session string, diags []Diagnostic) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(s.dir, "import_errors_*.txt")
	if err != nil {
		return err
	}
	_, werr := f.WriteString(Report(diags))
	cerr := f.Close()
	if werr != nil {
		os.Remove(f.Name())
		return werr
	}
	if cerr != nil {
		os.Remove(f.Name())
		return cerr
	}

	s.mu.Lock()
	old, had := s.files[session]
	s.files[session] = f.Name()
	s.mu.Unlock()

	if had {
		os.Remove(old) // stale report from an earlier import
	}
	return nil
}

// Take returns the pending report for a session and deletes it. The second
// call for the same import returns ok=false.
func (s *ReportStore) Take(session string) (string, bool) {
	s.mu.Lock()
	path, ok := s.files[session]
	delete(s.files, session)
	s.mu.Unlock()
	if !ok {
		return "", false
	}

	data, err := os.ReadFile(path)
	// Removal must not fail the download, and a file already gone is fine.
	os.Remove(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Drop discards a session's pending report, if any.
func (s *ReportStore) Drop(session string) {
	s.mu.Lock()
	path, ok := s.files[session]
	delete(s.files, session)
	s.mu.Unlock()
	if ok {
		os.Remove(path)
	}
}
