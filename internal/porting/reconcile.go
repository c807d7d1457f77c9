package porting

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deeply-app/deeply/internal/model"
)

// ReconcileRow applies one validated row onto the project: it updates the
// card whose (project, title) matches, or creates a new one.
//
// Updates overwrite every field except comments, which are merged so that
// collaborative notes survive a re-import. When several existing cards
// share the title (possible after manual edits), the oldest is updated and
// the ambiguity is reported rather than guessed away silently.
func ReconcileRow(ctx context.Context, store Store, projectID string, row Row, refs Refs) (created bool, diags []Diagnostic, err error) {
	title := strings.TrimSpace(row.Title)

	matches, err := store.FindCardsByTitle(ctx, projectID, title)
	if err != nil {
		return false, nil, err
	}

	if len(matches) == 0 {
		card := model.Card{
			ID:          uuid.New().String(),
			ProjectID:   projectID,
			PhaseID:     refs.Phase.ID,
			Title:       title,
			Description: row.Description,
			Estimate:    row.Estimate,
			StartDate:   row.StartDate,
			Deadline:    row.Deadline,
			Percent:     row.Percent,
			Comments:    row.Comments,
			Tags:        refs.Tags,
			Assignees:   refs.Assignees,
			CreatedAt:   time.Now(),
		}
		if err := store.CreateCard(ctx, card); err != nil {
			return false, nil, err
		}
		return true, nil, nil
	}

	if len(matches) > 1 {
		diags = append(diags, warning(row.Number,
			"%d cards titled %q in this project; updating the oldest", len(matches), title))
	}

	card := matches[0]
	card.PhaseID = refs.Phase.ID
	card.Description = row.Description
	card.Estimate = row.Estimate
	card.StartDate = row.StartDate
	card.Deadline = row.Deadline
	card.Percent = row.Percent
	card.Comments = mergeComments(card.Comments, row.Comments)
	card.Tags = refs.Tags
	card.Assignees = refs.Assignees

	if err := store.UpdateCard(ctx, card); err != nil {
		return false, nil, err
	}
	return false, diags, nil
}

// mergeComments appends incoming comments to what is already on the card,
// skipping the append when the text is already present (the common case on
// an unchanged re-import).
func mergeComments(existing, incoming string) string {
	incoming = strings.TrimSpace(incoming)
	if incoming == "" {
		return existing
	}
	if existing == "" {
		return incoming
	}
	if strings.Contains(existing, incoming) {
		return existing
	}
	return existing + "\n" + incoming
}
