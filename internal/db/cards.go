package db

import (
	"context"
	"database/sql"

	"github.com/deeply-app/deeply/internal/model"
)

const cardCols = `id, project_id, phase_id, title, description, estimate,
	start_date, deadline, percent, comments, created_at`

func scanCard(row interface{ Scan(...any) error }) (model.Card, error) {
	var c model.Card
	var start, deadline sql.NullString
	var created string
	err := row.Scan(&c.ID, &c.ProjectID, &c.PhaseID, &c.Title, &c.Description,
		&c.Estimate, &start, &deadline, &c.Percent, &c.Comments, &created)
	if err != nil {
		return model.Card{}, notFound(err)
	}
	c.StartDate = decodeDate(start)
	c.Deadline = decodeDate(deadline)
	c.CreatedAt = decodeTime(created)
	return c, nil
}

// CreateCard inserts a card and its tag/assignee links.
func (s Queries) CreateCard(ctx context.Context, c model.Card) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO cards (id, project_id, phase_id, title, description, estimate,
			start_date, deadline, percent, comments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.ProjectID, c.PhaseID, c.Title, c.Description, c.Estimate,
		encodeDate(c.StartDate), encodeDate(c.Deadline), c.Percent, c.Comments,
		encodeTime(c.CreatedAt))
	if err != nil {
		return err
	}
	if err := s.SetCardTags(ctx, c.ID, tagIDs(c.Tags)); err != nil {
		return err
	}
	return s.SetCardAssignees(ctx, c.ID, personIDs(c.Assignees))
}

// UpdateCard overwrites every mutable card field and replaces both link sets.
func (s Queries) UpdateCard(ctx context.Context, c model.Card) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE cards SET phase_id = $1, title = $2, description = $3, estimate = $4,
			start_date = $5, deadline = $6, percent = $7, comments = $8
		WHERE id = $9`,
		c.PhaseID, c.Title, c.Description, c.Estimate,
		encodeDate(c.StartDate), encodeDate(c.Deadline), c.Percent, c.Comments, c.ID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	if err := s.SetCardTags(ctx, c.ID, tagIDs(c.Tags)); err != nil {
		return err
	}
	return s.SetCardAssignees(ctx, c.ID, personIDs(c.Assignees))
}

// GetCard returns a card with tags and assignees attached.
func (s Queries) GetCard(ctx context.Context, id string) (model.Card, error) {
	c, err := scanCard(s.q.QueryRowContext(ctx,
		`SELECT `+cardCols+` FROM cards WHERE id = $1`, id))
	if err != nil {
		return model.Card{}, err
	}
	if err := s.loadCardLinks(ctx, &c); err != nil {
		return model.Card{}, err
	}
	return c, nil
}

// ListCards returns a project's cards, or every card when projectID is empty.
func (s Queries) ListCards(ctx context.Context, projectID string) ([]model.Card, error) {
	query := `SELECT ` + cardCols + ` FROM cards ORDER BY created_at, id`
	args := []any{}
	if projectID != "" {
		query = `SELECT ` + cardCols + ` FROM cards WHERE project_id = $1 ORDER BY created_at, id`
		args = append(args, projectID)
	}
	return s.listCards(ctx, query, args...)
}

// ListCardsAssignedTo returns the cards a person is assigned to.
func (s Queries) ListCardsAssignedTo(ctx context.Context, personID string) ([]model.Card, error) {
	return s.listCards(ctx, `
		SELECT `+cardCols+` FROM cards
		WHERE id IN (SELECT card_id FROM card_assignees WHERE person_id = $1)
		ORDER BY deadline IS NULL, deadline, created_at`, personID)
}

// FindCardsByTitle returns cards matching the reconciliation key
// (project, title), oldest first so ties resolve deterministically.
func (s Queries) FindCardsByTitle(ctx context.Context, projectID, title string) ([]model.Card, error) {
	return s.listCards(ctx, `
		SELECT `+cardCols+` FROM cards
		WHERE project_id = $1 AND title = $2
		ORDER BY created_at, id`, projectID, title)
}

func (s Queries) listCards(ctx context.Context, query string, args ...any) ([]model.Card, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := s.loadCardLinks(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// CountCards counts the cards in a project, backing the structural lock.
func (s Queries) CountCards(ctx context.Context, projectID string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cards WHERE project_id = $1`, projectID).Scan(&n)
	return n, err
}

// DeleteCard removes a card; its link rows cascade.
func (s Queries) DeleteCard(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCardTags replaces a card's tag set.
func (s Queries) SetCardTags(ctx context.Context, cardID string, ids []string) error {
	if _, err := s.q.ExecContext(ctx,
		`DELETE FROM card_tags WHERE card_id = $1`, cardID); err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := s.q.ExecContext(ctx, `
			INSERT INTO card_tags (card_id, tag_id) VALUES ($1, $2)
			ON CONFLICT (card_id, tag_id) DO NOTHING`, cardID, id); err != nil {
			return err
		}
	}
	return nil
}

// SetCardAssignees replaces a card's assignee set.
func (s Queries) SetCardAssignees(ctx context.Context, cardID string, ids []string) error {
	if _, err := s.q.ExecContext(ctx,
		`DELETE FROM card_assignees WHERE card_id = $1`, cardID); err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := s.q.ExecContext(ctx, `
			INSERT INTO card_assignees (card_id, person_id) VALUES ($1, $2)
			ON CONFLICT (card_id, person_id) DO NOTHING`, cardID, id); err != nil {
			return err
		}
	}
	return nil
}

func (s Queries) loadCardLinks(ctx context.Context, c *model.Card) error {
	tags, err := s.listTags(ctx, `
		SELECT t.id, t.name, t.color, t.created_at FROM tags t
		JOIN card_tags ct ON ct.tag_id = t.id
		WHERE ct.card_id = $1 ORDER BY t.name`, c.ID)
	if err != nil {
		return err
	}
	c.Tags = tags

	rows, err := s.q.QueryContext(ctx, `
		SELECT `+personCols+` FROM persons
		WHERE id IN (SELECT person_id FROM card_assignees WHERE card_id = $1)
		ORDER BY name`, c.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	c.Assignees = []model.Person{}
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return err
		}
		p.PasswordHash = ""
		c.Assignees = append(c.Assignees, p)
	}
	return rows.Err()
}

func tagIDs(tags []model.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.ID)
	}
	return out
}

func personIDs(persons []model.Person) []string {
	out := make([]string, 0, len(persons))
	for _, p := range persons {
		out = append(out, p.ID)
	}
	return out
}
