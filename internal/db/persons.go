package db

import (
	"context"
	"time"

	"github.com/deeply-app/deeply/internal/model"
)

const personCols = `id, name, email, description, password_hash, admin,
	country, city, phone, language, timezone, role, department, created_at`

func scanPerson(row interface{ Scan(...any) error }) (model.Person, error) {
	var p model.Person
	var admin int
	var created string
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Description, &p.PasswordHash, &admin,
		&p.Country, &p.City, &p.Phone, &p.Language, &p.Timezone, &p.Role, &p.Department, &created)
	if err != nil {
		return model.Person{}, notFound(err)
	}
	p.Admin = admin != 0
	p.CreatedAt = decodeTime(created)
	return p, nil
}

// CreatePerson inserts a new person.
func (s Queries) CreatePerson(ctx context.Context, p model.Person) error {
	admin := 0
	if p.Admin {
		admin = 1
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO persons (id, name, email, description, password_hash, admin,
			country, city, phone, language, timezone, role, department, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.Name, p.Email, p.Description, p.PasswordHash, admin,
		p.Country, p.City, p.Phone, p.Language, p.Timezone, p.Role, p.Department,
		encodeTime(p.CreatedAt))
	return err
}

// GetPerson returns a person by id.
func (s Queries) GetPerson(ctx context.Context, id string) (model.Person, error) {
	return scanPerson(s.q.QueryRowContext(ctx,
		`SELECT `+personCols+` FROM persons WHERE id = $1`, id))
}

// GetPersonByEmail returns a person by login email.
func (s Queries) GetPersonByEmail(ctx context.Context, email string) (model.Person, error) {
	return scanPerson(s.q.QueryRowContext(ctx,
		`SELECT `+personCols+` FROM persons WHERE email = $1`, email))
}

// ListPersons returns every person ordered by name.
func (s Queries) ListPersons(ctx context.Context) ([]model.Person, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+personCols+` FROM persons ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdatePerson overwrites a person's mutable fields.
func (s Queries) UpdatePerson(ctx context.Context, p model.Person) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE persons SET name = $1, description = $2, country = $3, city = $4,
			phone = $5, language = $6, timezone = $7, role = $8, department = $9
		WHERE id = $10`,
		p.Name, p.Description, p.Country, p.City, p.Phone, p.Language,
		p.Timezone, p.Role, p.Department, p.ID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPassword replaces a person's password hash.
func (s Queries) SetPassword(ctx context.Context, personID, hash string) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE persons SET password_hash = $1 WHERE id = $2`, hash, personID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePerson removes a person; card assignments and memberships cascade.
func (s Queries) DeletePerson(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM persons WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GrantProject gives a person access to a project.
func (s Queries) GrantProject(ctx context.Context, projectID, personID string) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO project_access (project_id, person_id) VALUES ($1, $2)
		ON CONFLICT (project_id, person_id) DO NOTHING`,
		projectID, personID)
	return err
}

// RevokeProject removes a person's access to a project.
func (s Queries) RevokeProject(ctx context.Context, projectID, personID string) error {
	_, err := s.q.ExecContext(ctx,
		`DELETE FROM project_access WHERE project_id = $1 AND person_id = $2`,
		projectID, personID)
	return err
}

// HasProjectAccess reports whether the person may see the project.
// Admins bypass the grant table.
func (s Queries) HasProjectAccess(ctx context.Context, projectID string, p model.Person) (bool, error) {
	if p.Admin {
		return true, nil
	}
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM project_access WHERE project_id = $1 AND person_id = $2`,
		projectID, p.ID).Scan(&n)
	return n > 0, err
}

// CreateSession inserts a login session.
func (s Queries) CreateSession(ctx context.Context, sess model.Session) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO sessions (id, person_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		sess.ID, sess.PersonID, sess.Token, encodeTime(sess.ExpiresAt), encodeTime(sess.CreatedAt))
	return err
}

// GetSession resolves a session token.
func (s Queries) GetSession(ctx context.Context, token string) (model.Session, error) {
	var sess model.Session
	var expires, created string
	err := s.q.QueryRowContext(ctx, `
		SELECT id, person_id, token, expires_at, created_at
		FROM sessions WHERE token = $1`, token).
		Scan(&sess.ID, &sess.PersonID, &sess.Token, &expires, &created)
	if err != nil {
		return model.Session{}, notFound(err)
	}
	sess.ExpiresAt = decodeTime(expires)
	sess.CreatedAt = decodeTime(created)
	return sess, nil
}

// DeleteSession removes a session (logout).
func (s Queries) DeleteSession(ctx context.Context, token string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

// PurgeExpiredSessions removes sessions past their expiry.
func (s Queries) PurgeExpiredSessions(ctx context.Context, now time.Time) error {
	_, err := s.q.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < $1`, encodeTime(now))
	return err
}
