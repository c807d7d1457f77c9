package porting

import (
	"testing"
	"time"

	"github.com/deeply-app/deeply/internal/model"
)

func TestParseDateFormats(t *testing.T) {
	want := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	for _, input := range []string{"2024-03-15", "15/03/2024", "15-03-2024"} {
		got, ok := ParseDate(input)
		if !ok {
			t.Fatalf("ParseDate(%q) failed", input)
		}
		if got == nil || !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestParseDateSerial(t *testing.T) {
	// 45000 days past 1899-12-30 is 2023-03-15
	got, ok := ParseDate("45000")
	if !ok || got == nil {
		t.Fatalf("ParseDate(45000) failed")
	}
	want := time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseDate(45000) = %v, want %v", got, want)
	}
}

func TestParseDateEmpty(t *testing.T) {
	got, ok := ParseDate("")
	if !ok {
		t.Fatal("empty date should be valid")
	}
	if got != nil {
		t.Errorf("empty date should be nil, got %v", got)
	}
}

func TestParseDateGarbage(t *testing.T) {
	for _, input := range []string{"not-a-date", "-5", "999999", "13/13/2024"} {
		if _, ok := ParseDate(input); ok {
			t.Errorf("ParseDate(%q) should fail", input)
		}
	}
}

func TestSplitJoinList(t *testing.T) {
	got := SplitList(" a@x.com ; b@x.com ;; ")
	if len(got) != 2 || got[0] != "a@x.com" || got[1] != "b@x.com" {
		t.Errorf("SplitList returned %v", got)
	}

	if JoinList(got) != "a@x.com;b@x.com" {
		t.Errorf("JoinList returned %q", JoinList(got))
	}

	if len(SplitList("")) != 0 {
		t.Errorf("SplitList of empty string should be empty")
	}
}

func TestDecodeRowShortAndBadCells(t *testing.T) {
	// Only phase + title; every trailing cell missing
	r := DecodeRow(2, []string{"Doing", "Ship it"})
	if r.Phase != "Doing" || r.Title != "Ship it" {
		t.Fatalf("unexpected row: %+v", r)
	}
	if len(r.Warnings) != 0 {
		t.Errorf("missing cells should not warn, got %v", r.Warnings)
	}
	if r.StartDate != nil || r.Deadline != nil || r.Percent != 0 {
		t.Errorf("zero values expected, got %+v", r)
	}

	// Bad date and bad percentage both warn, never reject
	r = DecodeRow(3, []string{"Doing", "Ship it", "", "", "soon", "", "", "", "", "many"})
	if len(r.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %v", r.Warnings)
	}
	if r.StartDate != nil {
		t.Errorf("bad start date should stay nil")
	}
}

func TestDecodeRowPercentage(t *testing.T) {
	cases := map[string]int{"": 0, "40": 40, "75.5": 75, "150": 100, "-10": 0, "60%": 60}
	for input, want := range cases {
		r := DecodeRow(2, []string{"Doing", "x", "", "", "", "", "", "", "", input})
		if r.Percent != want {
			t.Errorf("percentage %q: got %d, want %d", input, r.Percent, want)
		}
	}
}

func TestEncodeRowRoundTrip(t *testing.T) {
	start := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
	card := model.Card{
		Title:       "Write docs",
		Description: "API reference",
		Estimate:    "3d",
		StartDate:   &start,
		Percent:     40,
		Comments:    "first pass",
		Tags:        []model.Tag{{Name: "docs"}, {Name: "api"}},
		Assignees:   []model.Person{{Email: "a@x.com"}},
	}

	cells := EncodeRow(card, "Doing")
	if len(cells) != len(Columns) {
		t.Fatalf("expected %d cells, got %d", len(Columns), len(cells))
	}
	if cells[0] != "Doing" || cells[1] != "Write docs" {
		t.Errorf("unexpected cells: %v", cells)
	}
	if cells[4] != "2024-01-02" || cells[5] != "" {
		t.Errorf("unexpected dates: %v %v", cells[4], cells[5])
	}
	if cells[6] != "a@x.com" || cells[7] != "docs;api" {
		t.Errorf("unexpected lists: %v %v", cells[6], cells[7])
	}

	asString := make([]string, len(cells))
	for i, v := range cells {
		if s, ok := v.(string); ok {
			asString[i] = s
		} else {
			asString[i] = "40"
		}
	}
	back := DecodeRow(2, asString)
	if back.Title != card.Title || back.Percent != 40 || len(back.Tags) != 2 {
		t.Errorf("round trip lost data: %+v", back)
	}
}

func TestColumnWidthBounds(t *testing.T) {
	if w := columnWidth(3); w != minColumnWidth {
		t.Errorf("short content: got %v", w)
	}
	if w := columnWidth(500); w != maxColumnWidth {
		t.Errorf("long content should cap at %v, got %v", maxColumnWidth, w)
	}
	if w := columnWidth(20); w != 22 {
		t.Errorf("expected content+2, got %v", w)
	}
}

func TestMergeComments(t *testing.T) {
	if got := mergeComments("", "new"); got != "new" {
		t.Errorf("got %q", got)
	}
	if got := mergeComments("old", ""); got != "old" {
		t.Errorf("got %q", got)
	}
	if got := mergeComments("old", "old"); got != "old" {
		t.Errorf("re-import should not duplicate, got %q", got)
	}
	if got := mergeComments("old", "new"); got != "old\nnew" {
		t.Errorf("got %q", got)
	}
}
