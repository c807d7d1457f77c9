package db

import (
	"context"

	"github.com/deeply-app/deeply/internal/model"
)

// CreateProject inserts a project together with its phases.
func (s Queries) CreateProject(ctx context.Context, p model.Project) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, created_at)
		VALUES ($1, $2, $3, $4)`,
		p.ID, p.Name, p.Description, encodeTime(p.CreatedAt))
	if err != nil {
		return err
	}
	for _, ph := range p.Phases {
		if err := s.CreatePhase(ctx, ph); err != nil {
			return err
		}
	}
	return nil
}

// GetProject returns a project with its phases in column order.
func (s Queries) GetProject(ctx context.Context, id string) (model.Project, error) {
	var p model.Project
	var created string
	err := s.q.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM projects WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Description, &created)
	if err != nil {
		return model.Project{}, notFound(err)
	}
	p.CreatedAt = decodeTime(created)
	p.Phases, err = s.ListPhases(ctx, id)
	return p, err
}

// ListProjects returns all projects, phases included, ordered by name.
func (s Queries) ListProjects(ctx context.Context) ([]model.Project, error) {
	return s.listProjects(ctx,
		`SELECT id, name, description, created_at FROM projects ORDER BY name`)
}

// ListProjectsFor returns the projects a person has been granted, or all of
// them for admins.
func (s Queries) ListProjectsFor(ctx context.Context, p model.Person) ([]model.Project, error) {
	if p.Admin {
		return s.ListProjects(ctx)
	}
	return s.listProjects(ctx, `
		SELECT p.id, p.name, p.description, p.created_at
		FROM projects p
		JOIN project_access a ON a.project_id = p.id
		WHERE a.person_id = $1
		ORDER BY p.name`, p.ID)
}

func (s Queries) listProjects(ctx context.Context, query string, args ...any) ([]model.Project, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Project
	for rows.Next() {
		var p model.Project
		var created string
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &created); err != nil {
			return nil, err
		}
		p.CreatedAt = decodeTime(created)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Phases, err = s.ListPhases(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateProject renames a project and updates its description.
func (s Queries) UpdateProject(ctx context.Context, p model.Project) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE projects SET name = $1, description = $2 WHERE id = $3`,
		p.Name, p.Description, p.ID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplacePhases swaps a project's phase list for a new one. The structural
// lock applies: the swap is refused while the project holds any card.
func (s Queries) ReplacePhases(ctx context.Context, projectID string, phases []model.Phase) error {
	n, err := s.CountCards(ctx, projectID)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrPhaseLocked
	}
	if _, err := s.q.ExecContext(ctx,
		`DELETE FROM phases WHERE project_id = $1`, projectID); err != nil {
		return err
	}
	for _, ph := range phases {
		if err := s.CreatePhase(ctx, ph); err != nil {
			return err
		}
	}
	return nil
}

// DeleteProject removes a project; phases and cards cascade.
func (s Queries) DeleteProject(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreatePhase inserts one phase.
func (s Queries) CreatePhase(ctx context.Context, ph model.Phase) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO phases (id, project_id, name, ord, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		ph.ID, ph.ProjectID, ph.Name, ph.Ord, encodeTime(ph.CreatedAt))
	return err
}

// ListPhases returns a project's phases in column order.
func (s Queries) ListPhases(ctx context.Context, projectID string) ([]model.Phase, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, project_id, name, ord, created_at
		FROM phases WHERE project_id = $1 ORDER BY ord`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Phase
	for rows.Next() {
		var ph model.Phase
		var created string
		if err := rows.Scan(&ph.ID, &ph.ProjectID, &ph.Name, &ph.Ord, &created); err != nil {
			return nil, err
		}
		ph.CreatedAt = decodeTime(created)
		out = append(out, ph)
	}
	return out, rows.Err()
}

// GetPhaseByName resolves a phase by exact name within a project.
func (s Queries) GetPhaseByName(ctx context.Context, projectID, name string) (model.Phase, error) {
	var ph model.Phase
	var created string
	err := s.q.QueryRowContext(ctx, `
		SELECT id, project_id, name, ord, created_at
		FROM phases WHERE project_id = $1 AND name = $2`, projectID, name).
		Scan(&ph.ID, &ph.ProjectID, &ph.Name, &ph.Ord, &created)
	if err != nil {
		return model.Phase{}, notFound(err)
	}
	ph.CreatedAt = decodeTime(created)
	return ph, nil
}
