package porting

import (
	"strings"
	"testing"
)

func TestDiagnosticStrings(t *testing.T) {
	d := rejection(4, "Phase not found: %s", "Nope")
	if d.String() != "Error in row 4: Phase not found: Nope" {
		t.Errorf("got %q", d.String())
	}

	w := warning(7, "user not found: %s", "x@y.com")
	if w.String() != "Warning: row 7: user not found: x@y.com" {
		t.Errorf("got %q", w.String())
	}
}

func TestReport(t *testing.T) {
	report := Report([]Diagnostic{
		rejection(2, "missing card title"),
		warning(3, "tag not found: urgent"),
	})

	lines := strings.Split(strings.TrimRight(report, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), report)
	}
	if lines[0] != "Error in row 2: missing card title" {
		t.Errorf("got %q", lines[0])
	}
}

func TestReportStoreOneShot(t *testing.T) {
	store := NewReportStore(t.TempDir())

	diags := []Diagnostic{warning(2, "user not found: a@x.com")}
	if err := store.Put("session-1", diags); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	report, ok := store.Take("session-1")
	if !ok {
		t.Fatal("expected a pending report")
	}
	if !strings.Contains(report, "user not found: a@x.com") {
		t.Errorf("unexpected report: %q", report)
	}

	if _, ok := store.Take("session-1"); ok {
		t.Error("second Take should find nothing")
	}
}

func TestReportStoreReplacesStale(t *testing.T) {
	store := NewReportStore(t.TempDir())

	store.Put("s", []Diagnostic{warning(2, "first")})
	store.Put("s", []Diagnostic{warning(3, "second")})

	report, ok := store.Take("s")
	if !ok {
		t.Fatal("expected a pending report")
	}
	if strings.Contains(report, "first") || !strings.Contains(report, "second") {
		t.Errorf("stale report survived: %q", report)
	}
}

func TestReportStoreUnknownSession(t *testing.T) {
	store := NewReportStore(t.TempDir())
	if _, ok := store.Take("nobody"); ok {
		t.Error("unknown session should have no report")
	}
}
