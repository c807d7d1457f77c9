package porting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/deeply-app/deeply/internal/db"
	"github.com/deeply-app/deeply/internal/logger"
)

// Fatal import errors: nothing is read past them and nothing is persisted.
var (
	ErrBadExtension = errors.New("unsupported file type, expected .xlsx")
	ErrUnreadable   = errors.New("workbook could not be read")
)

// Result is the JSON body of an import response.
type Result struct {
	Success      bool   `json:"success"`
	HasWarnings  bool   `json:"has_warnings"`
	WarningCount int    `json:"warning_count"`
	Error        string `json:"error,omitempty"`

	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Importer drives a whole-workbook import for one project.
type Importer struct {
	DB *db.DB
}

// Import reads the workbook and applies it row by row. Row-level problems
// become diagnostics and the loop continues; only file-level problems
// (extension, unreadable workbook, unknown project) return an error, and
// then nothing has been committed.
//
// All surviving rows commit together in one transaction. Each row runs
// under a savepoint so a failed row leaves no partial writes behind.
func (im *Importer) Import(ctx context.Context, projectID, filename string, r io.Reader) (Result, []Diagnostic, error) {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != ".xlsx" {
		return Result{}, nil, fmt.Errorf("%w, got %q", ErrBadExtension, ext)
	}

	if _, err := im.DB.GetProject(ctx, projectID); err != nil {
		return Result{}, nil, err
	}

	wb, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer wb.Close()

	sheet := wb.GetSheetName(0)
	// Raw values keep native date cells as epoch serials instead of
	// whatever short format the cell style would render them with.
	rows, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return Result{}, nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	tx, err := im.DB.Begin(ctx)
	if err != nil {
		return Result{}, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	var result Result
	var diags []Diagnostic

	for i, cells := range rows {
		if i == 0 || blankRow(cells) {
			continue // header, padding
		}
		rowNum := i + 1

		rowDiags, outcome, err := importRow(ctx, tx, projectID, rowNum, cells)
		diags = append(diags, rowDiags...)
		if err != nil {
			diags = append(diags, rejection(rowNum, "%v", err))
			continue
		}
		switch outcome {
		case rowCreated:
			result.Created++
		case rowUpdated:
			result.Updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return Result{}, nil, err
	}
	committed = true

	result.Success = true
	result.WarningCount = len(diags)
	result.HasWarnings = len(diags) > 0

	logger.Info("Project import finished",
		logger.F("project", projectID),
		logger.F("created", result.Created),
		logger.F("updated", result.Updated),
		logger.F("diagnostics", len(diags)))

	return result, diags, nil
}

type rowOutcome int

const (
	rowRejected rowOutcome = iota
	rowCreated
	rowUpdated
)

// importRow validates and reconciles one data row under a savepoint,
// containing any failure (error or panic) to this row alone.
func importRow(ctx context.Context, tx *db.Tx, projectID string, rowNum int, cells []string) (diags []Diagnostic, outcome rowOutcome, err error) {
	if _, err := tx.ExecContext(ctx, "SAVEPOINT import_row"); err != nil {
		return nil, rowRejected, err
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("row processing failed: %v", p)
		}
		if err != nil {
			tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT import_row")
		}
		tx.ExecContext(ctx, "RELEASE SAVEPOINT import_row")
	}()

	row := DecodeRow(rowNum, cells)
	for _, w := range row.Warnings {
		diags = append(diags, warning(rowNum, "%s", w))
	}

	refs, refDiags, err := ValidateRow(ctx, tx.Queries, projectID, row)
	diags = append(diags, refDiags...)
	if err != nil {
		return diags, rowRejected, err
	}
	if rejected(refDiags) {
		return diags, rowRejected, nil
	}

	created, recDiags, err := ReconcileRow(ctx, tx.Queries, projectID, row, refs)
	diags = append(diags, recDiags...)
	if err != nil {
		return diags, rowRejected, err
	}
	if created {
		return diags, rowCreated, nil
	}
	return diags, rowUpdated, nil
}

func rejected(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Fatal {
			return true
		}
	}
	return false
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
