package db

import (
	"context"

	"github.com/deeply-app/deeply/internal/model"
)

// CreateTag inserts a tag.
func (s Queries) CreateTag(ctx context.Context, t model.Tag) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO tags (id, name, color, created_at)
		VALUES ($1, $2, $3, $4)`,
		t.ID, t.Name, t.Color, encodeTime(t.CreatedAt))
	return err
}

// GetTag returns a tag by id.
func (s Queries) GetTag(ctx context.Context, id string) (model.Tag, error) {
	var t model.Tag
	var created string
	err := s.q.QueryRowContext(ctx,
		`SELECT id, name, color, created_at FROM tags WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Color, &created)
	if err != nil {
		return model.Tag{}, notFound(err)
	}
	t.CreatedAt = decodeTime(created)
	return t, nil
}

// GetTagByName resolves a tag by exact name.
func (s Queries) GetTagByName(ctx context.Context, name string) (model.Tag, error) {
	var t model.Tag
	var created string
	err := s.q.QueryRowContext(ctx,
		`SELECT id, name, color, created_at FROM tags WHERE name = $1`, name).
		Scan(&t.ID, &t.Name, &t.Color, &created)
	if err != nil {
		return model.Tag{}, notFound(err)
	}
	t.CreatedAt = decodeTime(created)
	return t, nil
}

// ListTags returns all tags ordered by name.
func (s Queries) ListTags(ctx context.Context) ([]model.Tag, error) {
	return s.listTags(ctx,
		`SELECT id, name, color, created_at FROM tags ORDER BY name`)
}

func (s Queries) listTags(ctx context.Context, query string, args ...any) ([]model.Tag, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		var created string
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &created); err != nil {
			return nil, err
		}
		t.CreatedAt = decodeTime(created)
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateTag renames or recolors a tag.
func (s Queries) UpdateTag(ctx context.Context, t model.Tag) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE tags SET name = $1, color = $2 WHERE id = $3`, t.Name, t.Color, t.ID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTag removes a tag; card links cascade.
func (s Queries) DeleteTag(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
