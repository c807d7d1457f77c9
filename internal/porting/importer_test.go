package porting

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/deeply-app/deeply/internal/db"
	"github.com/deeply-app/deeply/internal/model"
)

func testDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

// seedProject creates the Launch project with Design/Backlog/Done phases,
// one known user and one known tag.
func seedProject(t *testing.T, d *db.DB) model.Project {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	p := model.Project{ID: uuid.New().String(), Name: "Launch", CreatedAt: now}
	for i, name := range []string{"Design", "Backlog", "Done"} {
		p.Phases = append(p.Phases, model.Phase{
			ID: uuid.New().String(), ProjectID: p.ID, Name: name, Ord: i, CreatedAt: now,
		})
	}
	if err := d.CreateProject(ctx, p); err != nil {
		t.Fatalf("seed project: %v", err)
	}

	person := model.Person{
		ID: uuid.New().String(), Name: "Ana", Email: "ana@x.com",
		PasswordHash: "x", CreatedAt: now,
	}
	if err := d.CreatePerson(ctx, person); err != nil {
		t.Fatalf("seed person: %v", err)
	}

	tag := model.Tag{ID: uuid.New().String(), Name: "urgent", Color: "#f00", CreatedAt: now}
	if err := d.CreateTag(ctx, tag); err != nil {
		t.Fatalf("seed tag: %v", err)
	}

	return p
}

// workbook builds an in-memory xlsx with the export header plus the given rows.
func workbook(t *testing.T, rows [][]any) *bytes.Reader {
	t.Helper()

	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := wb.SetSheetRow(sheet, "A1", &header); err != nil {
		t.Fatalf("header: %v", err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
	}

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestImportCreatesUpdatesRejects(t *testing.T) {
	d := testDB(t)
	p := seedProject(t, d)
	ctx := context.Background()
	im := &Importer{DB: d}

	// First import: two created, one rejected on a bad phase
	r := workbook(t, [][]any{
		{"Design", "Logo", "new logo", "2d", "2024-03-01", "2024-03-10", "ana@x.com", "urgent", "kickoff note", 10},
		{"Backlog", "Pricing page", "", "", "", "", "", "", "", 0},
		{"Nope", "Ghost card", "", "", "", "", "", "", "", 0},
	})
	result, diags, err := im.Import(ctx, p.ID, "cards.xlsx", r)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !result.Success || result.Created != 2 || result.Updated != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.WarningCount != 1 || !result.HasWarnings {
		t.Fatalf("expected 1 diagnostic, got %+v", result)
	}
	if !strings.Contains(Report(diags), "Phase not found: Nope") {
		t.Errorf("missing rejection, got %q", Report(diags))
	}

	cards, err := d.ListCards(ctx, p.ID)
	if err != nil {
		t.Fatalf("list cards: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}

	// Second import moves Logo and leaves Pricing page alone
	r = workbook(t, [][]any{
		{"Done", "Logo", "approved logo", "2d", "2024-03-01", "2024-03-10", "ana@x.com", "urgent", "kickoff note", 100},
	})
	result, _, err = im.Import(ctx, p.ID, "cards.xlsx", r)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if result.Created != 0 || result.Updated != 1 {
		t.Fatalf("expected pure update, got %+v", result)
	}

	cards, _ = d.ListCards(ctx, p.ID)
	if len(cards) != 2 {
		t.Fatalf("update must not duplicate, got %d cards", len(cards))
	}

	logos, _ := d.FindCardsByTitle(ctx, p.ID, "Logo")
	if len(logos) != 1 {
		t.Fatalf("expected one Logo card, got %d", len(logos))
	}
	logo := logos[0]
	if logo.Percent != 100 || logo.Description != "approved logo" {
		t.Errorf("update lost fields: %+v", logo)
	}
	if logo.Comments != "kickoff note" {
		t.Errorf("re-imported comment should not duplicate, got %q", logo.Comments)
	}
	done, _ := d.GetPhaseByName(ctx, p.ID, "Done")
	if logo.PhaseID != done.ID {
		t.Errorf("card did not move to Done")
	}
	if len(logo.Assignees) != 1 || logo.Assignees[0].Email != "ana@x.com" {
		t.Errorf("assignee lost: %+v", logo.Assignees)
	}
	if len(logo.Tags) != 1 || logo.Tags[0].Name != "urgent" {
		t.Errorf("tag lost: %+v", logo.Tags)
	}
}

func TestImportNativeDateCells(t *testing.T) {
	d := testDB(t)
	p := seedProject(t, d)
	ctx := context.Background()
	im := &Importer{DB: d}

	// Date cells written as real date values, not strings
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, time.October, 3, 0, 0, 0, 0, time.UTC)
	r := workbook(t, [][]any{
		{"Design", "Roadmap", "", "", start, due, "", "", "", 0},
	})
	result, diags, err := im.Import(ctx, p.ID, "cards.xlsx", r)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Created != 1 || len(diags) != 0 {
		t.Fatalf("native dates must parse cleanly, got %+v %v", result, diags)
	}

	cards, _ := d.ListCards(ctx, p.ID)
	if cards[0].StartDate == nil || !cards[0].StartDate.Equal(start) {
		t.Errorf("start date lost: %v", cards[0].StartDate)
	}
	if cards[0].Deadline == nil || !cards[0].Deadline.Equal(due) {
		t.Errorf("due date lost: %v", cards[0].Deadline)
	}
}

func TestImportSameTitleTwiceInOneFile(t *testing.T) {
	d := testDB(t)
	p := seedProject(t, d)
	ctx := context.Background()
	im := &Importer{DB: d}

	// The later row must see the card the earlier row just created
	r := workbook(t, [][]any{
		{"Backlog", "Roadmap", "first pass", "", "", "", "", "", "", 10},
		{"Nope", "Filler", "", "", "", "", "", "", "", 0},
		{"Done", "Roadmap", "second pass", "", "", "", "", "", "", 50},
	})
	result, diags, err := im.Import(ctx, p.ID, "cards.xlsx", r)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Created != 1 || result.Updated != 1 {
		t.Fatalf("expected create then update, got %+v", result)
	}
	if !strings.Contains(Report(diags), "Phase not found: Nope") {
		t.Errorf("missing rejection: %q", Report(diags))
	}

	cards, _ := d.FindCardsByTitle(ctx, p.ID, "Roadmap")
	if len(cards) != 1 {
		t.Fatalf("same title in one file must not duplicate, got %d cards", len(cards))
	}
	done, _ := d.GetPhaseByName(ctx, p.ID, "Done")
	if cards[0].PhaseID != done.ID || cards[0].Percent != 50 || cards[0].Description != "second pass" {
		t.Errorf("later row should win: %+v", cards[0])
	}
}

func TestImportSoftReferenceWarnings(t *testing.T) {
	d := testDB(t)
	p := seedProject(t, d)
	im := &Importer{DB: d}

	r := workbook(t, [][]any{
		{"Design", "Hero", "", "", "", "", "ghost@x.com", "missing-tag", "", 0},
	})
	result, diags, err := im.Import(context.Background(), p.ID, "cards.xlsx", r)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("soft misses must not reject the row: %+v", result)
	}

	report := Report(diags)
	if !strings.Contains(report, "user not found: ghost@x.com") {
		t.Errorf("missing user warning: %q", report)
	}
	if !strings.Contains(report, "tag not found: missing-tag") {
		t.Errorf("missing tag warning: %q", report)
	}

	cards, _ := d.ListCards(context.Background(), p.ID)
	if len(cards[0].Assignees) != 0 || len(cards[0].Tags) != 0 {
		t.Errorf("unresolved references should be dropped: %+v", cards[0])
	}
}

func TestImportRowIsolation(t *testing.T) {
	d := testDB(t)
	p := seedProject(t, d)
	im := &Importer{DB: d}

	// Middle row has no title, neighbours must still land
	r := workbook(t, [][]any{
		{"Design", "First", "", "", "", "", "", "", "", 0},
		{"Design", "", "orphan description", "", "", "", "", "", "", 0},
		{"Design", "Third", "", "", "", "", "", "", "", 0},
	})
	result, diags, err := im.Import(context.Background(), p.ID, "cards.xlsx", r)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Created != 2 {
		t.Fatalf("expected 2 created, got %+v", result)
	}
	if !strings.Contains(Report(diags), "missing card title") {
		t.Errorf("missing rejection: %q", Report(diags))
	}
}

func TestImportBadExtension(t *testing.T) {
	d := testDB(t)
	p := seedProject(t, d)
	im := &Importer{DB: d}

	_, _, err := im.Import(context.Background(), p.ID, "cards.csv", strings.NewReader("x"))
	if err == nil || !strings.Contains(err.Error(), "unsupported file type") {
		t.Fatalf("expected extension error, got %v", err)
	}
}

func TestImportUnknownProject(t *testing.T) {
	d := testDB(t)
	seedProject(t, d)
	im := &Importer{DB: d}

	r := workbook(t, nil)
	_, _, err := im.Import(context.Background(), "missing-project", "cards.xlsx", r)
	if err == nil {
		t.Fatal("expected error for unknown project")
	}
}

func TestImportAmbiguousTitleUpdatesOldest(t *testing.T) {
	d := testDB(t)
	p := seedProject(t, d)
	ctx := context.Background()

	design, _ := d.GetPhaseByName(ctx, p.ID, "Design")
	older := model.Card{
		ID: uuid.New().String(), ProjectID: p.ID, PhaseID: design.ID,
		Title: "Twin", CreatedAt: time.Now().Add(-time.Hour),
	}
	newer := model.Card{
		ID: uuid.New().String(), ProjectID: p.ID, PhaseID: design.ID,
		Title: "Twin", CreatedAt: time.Now(),
	}
	if err := d.CreateCard(ctx, older); err != nil {
		t.Fatal(err)
	}
	if err := d.CreateCard(ctx, newer); err != nil {
		t.Fatal(err)
	}

	im := &Importer{DB: d}
	r := workbook(t, [][]any{
		{"Done", "Twin", "resolved", "", "", "", "", "", "", 100},
	})
	result, diags, err := im.Import(ctx, p.ID, "cards.xlsx", r)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Updated != 1 {
		t.Fatalf("expected update, got %+v", result)
	}
	if !strings.Contains(Report(diags), "updating the oldest") {
		t.Errorf("ambiguity should be reported, got %q", Report(diags))
	}

	got, _ := d.GetCard(ctx, older.ID)
	if got.Percent != 100 {
		t.Errorf("oldest card should be the one updated: %+v", got)
	}
	untouched, _ := d.GetCard(ctx, newer.ID)
	if untouched.Percent != 0 {
		t.Errorf("newer twin must stay untouched: %+v", untouched)
	}
}

func TestExportRoundTrip(t *testing.T) {
	d := testDB(t)
	p := seedProject(t, d)
	ctx := context.Background()
	im := &Importer{DB: d}

	r := workbook(t, [][]any{
		{"Design", "Logo", "new logo", "2d", "2024-03-01", "2024-03-10", "ana@x.com", "urgent", "note", 10},
		{"Backlog", "Pricing page", "", "", "", "", "", "", "", 0},
	})
	if _, _, err := im.Import(ctx, p.ID, "cards.xlsx", r); err != nil {
		t.Fatalf("import: %v", err)
	}

	wb, err := Export(ctx, d.Queries, p.ID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer wb.Close()

	rows, err := wb.GetRows(sheetName)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	for i, want := range Columns {
		if rows[0][i] != want {
			t.Fatalf("header mismatch at %d: %q", i, rows[0][i])
		}
	}

	// Re-import the export: pure idempotent update
	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		t.Fatalf("write export: %v", err)
	}
	result, diags, err := im.Import(ctx, p.ID, "export.xlsx", bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if result.Created != 0 || result.Updated != 2 || len(diags) != 0 {
		t.Fatalf("re-import of an export should be clean: %+v %v", result, diags)
	}
}
