package porting

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/deeply-app/deeply/internal/model"
)

// Columns is the fixed export schema, in order.
var Columns = []string{
	"Phase", "Card Title", "Description", "Time Estimate",
	"Start Date", "Due Date", "Users", "Tags", "Comments", "Percentage",
}

const (
	// ListSeparator joins multi-valued cells (assignee emails, tag names).
	ListSeparator = ";"

	dateLayout = "2006-01-02"

	// Column widths grow with content up to this cap.
	maxColumnWidth = 60.0
	minColumnWidth = 10.0
)

// Row is one spreadsheet row in normalized form. Warnings collects
// non-fatal normalization problems (bad dates, bad percentages); the
// affected field is left at its zero value.
type Row struct {
	Number      int // 1-based row number in the sheet
	Phase       string
	Title       string
	Description string
	Estimate    string
	StartDate   *time.Time
	Deadline    *time.Time
	Users       []string
	Tags        []string
	Comments    string
	Percent     int
	Warnings    []string
}

// DecodeRow normalizes one raw sheet row. Missing trailing cells are
// treated as empty. Decoding never fails; problems become Warnings.
func DecodeRow(number int, cells []string) Row {
	at := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}

	r := Row{
		Number:      number,
		Phase:       at(0),
		Title:       at(1),
		Description: at(2),
		Estimate:    at(3),
		Users:       SplitList(at(6)),
		Tags:        SplitList(at(7)),
		Comments:    at(8),
	}

	var ok bool
	if r.StartDate, ok = ParseDate(at(4)); !ok {
		r.Warnings = append(r.Warnings, fmt.Sprintf("unparseable start date %q", at(4)))
	}
	if r.Deadline, ok = ParseDate(at(5)); !ok {
		r.Warnings = append(r.Warnings, fmt.Sprintf("unparseable due date %q", at(5)))
	}
	if r.Percent, ok = parsePercent(at(9)); !ok {
		r.Warnings = append(r.Warnings, fmt.Sprintf("unparseable percentage %q", at(9)))
	}

	return r
}

// EncodeRow maps a card plus its phase name onto the export schema.
func EncodeRow(c model.Card, phaseName string) []any {
	return []any{
		phaseName,
		c.Title,
		c.Description,
		c.Estimate,
		formatDate(c.StartDate),
		formatDate(c.Deadline),
		JoinList(c.AssigneeEmails()),
		JoinList(c.TagNames()),
		c.Comments,
		c.Percent,
	}
}

// ParseDate accepts ISO (YYYY-MM-DD), DD/MM/YYYY, DD-MM-YYYY, or an Excel
// serial (days since 1899-12-30, possibly fractional). Empty input is a
// valid nil date. Unparseable non-empty input returns (nil, false).
func ParseDate(s string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}

	for _, layout := range []string{dateLayout, "02/01/2006", "02-01-2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, true
		}
	}

	// Cells formatted as dates surface as epoch-offset serials.
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial <= 0 || serial > 200000 {
			return nil, false
		}
		epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
		t := epoch.AddDate(0, 0, int(serial))
		return &t, true
	}

	return nil, false
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

// SplitList splits a delimited cell into trimmed tokens; empty input
// yields an empty list.
func SplitList(s string) []string {
	out := []string{}
	for _, token := range strings.Split(s, ListSeparator) {
		token = strings.TrimSpace(token)
		if token != "" {
			out = append(out, token)
		}
	}
	return out
}

// JoinList is the inverse of SplitList.
func JoinList(items []string) string {
	return strings.Join(items, ListSeparator)
}

func parsePercent(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, false
	}
	p := int(f)
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return p, true
}

// columnWidth sizes a column to its longest cell, capped so one huge
// description cannot produce a degenerate sheet.
func columnWidth(longest int) float64 {
	w := float64(longest) + 2
	if w < minColumnWidth {
		w = minColumnWidth
	}
	if w > maxColumnWidth {
		w = maxColumnWidth
	}
	return w
}
