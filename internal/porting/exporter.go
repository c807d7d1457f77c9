package porting

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/deeply-app/deeply/internal/model"
)

const sheetName = "Cards"

// Export builds a workbook holding every card of the project, one row per
// card, grouped by phase in column order. The export is single-pass and
// stateless: the whole workbook is assembled in memory and the caller
// streams it out.
func Export(ctx context.Context, store Store, projectID string) (*excelize.File, error) {
	phases, err := store.ListPhases(ctx, projectID)
	if err != nil {
		return nil, err
	}
	cards, err := store.ListCards(ctx, projectID)
	if err != nil {
		return nil, err
	}

	byPhase := make(map[string][]model.Card, len(phases))
	for _, c := range cards {
		byPhase[c.PhaseID] = append(byPhase[c.PhaseID], c)
	}

	wb := excelize.NewFile()
	if err := wb.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	header := make([]any, len(Columns))
	widths := make([]int, len(Columns))
	for i, col := range Columns {
		header[i] = col
		widths[i] = len(col)
	}
	if err := wb.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, err
	}

	rowNum := 2
	for _, phase := range phases {
		for _, card := range byPhase[phase.ID] {
			cells := EncodeRow(card, phase.Name)
			cell, err := excelize.CoordinatesToCellName(1, rowNum)
			if err != nil {
				return nil, err
			}
			if err := wb.SetSheetRow(sheetName, cell, &cells); err != nil {
				return nil, err
			}
			for i, v := range cells {
				if n := len(fmt.Sprint(v)); n > widths[i] {
					widths[i] = n
				}
			}
			rowNum++
		}
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := wb.SetColWidth(sheetName, col, col, columnWidth(w)); err != nil {
			return nil, err
		}
	}

	return wb, nil
}
