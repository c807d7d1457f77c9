package porting

import (
	"context"
	"errors"

	"github.com/deeply-app/deeply/internal/db"
	"github.com/deeply-app/deeply/internal/model"
)

// Store is the slice of the persistence layer the import/export pipeline
// needs. Both db.Queries and an open db.Tx satisfy it, which is what lets
// the importer run the whole row loop inside one transaction.
type Store interface {
	GetPhaseByName(ctx context.Context, projectID, name string) (model.Phase, error)
	GetPersonByEmail(ctx context.Context, email string) (model.Person, error)
	GetTagByName(ctx context.Context, name string) (model.Tag, error)
	FindCardsByTitle(ctx context.Context, projectID, title string) ([]model.Card, error)
	CreateCard(ctx context.Context, c model.Card) error
	UpdateCard(ctx context.Context, c model.Card) error
	ListPhases(ctx context.Context, projectID string) ([]model.Phase, error)
	ListCards(ctx context.Context, projectID string) ([]model.Card, error)
}

// Refs is the resolved-reference bundle for one validated row.
type Refs struct {
	Phase     model.Phase
	Assignees []model.Person
	Tags      []model.Tag
}

// ValidateRow resolves a row's textual references within a project.
//
// The phase name is a hard reference: no match rejects the row. Assignee
// emails and tag names are soft: misses are reported as warnings and the
// reference is dropped from the bundle.
func ValidateRow(ctx context.Context, store Store, projectID string, row Row) (Refs, []Diagnostic, error) {
	var refs Refs
	var diags []Diagnostic

	if row.Title == "" {
		return Refs{}, []Diagnostic{rejection(row.Number, "missing card title")}, nil
	}

	phase, err := store.GetPhaseByName(ctx, projectID, row.Phase)
	if errors.Is(err, db.ErrNotFound) {
		return Refs{}, []Diagnostic{rejection(row.Number, "Phase not found: %s", row.Phase)}, nil
	}
	if err != nil {
		return Refs{}, nil, err
	}
	refs.Phase = phase

	for _, email := range row.Users {
		p, err := store.GetPersonByEmail(ctx, email)
		if errors.Is(err, db.ErrNotFound) {
			diags = append(diags, warning(row.Number, "user not found: %s", email))
			continue
		}
		if err != nil {
			return Refs{}, nil, err
		}
		refs.Assignees = append(refs.Assignees, p)
	}

	for _, name := range row.Tags {
		t, err := store.GetTagByName(ctx, name)
		if errors.Is(err, db.ErrNotFound) {
			diags = append(diags, warning(row.Number, "tag not found: %s", name))
			continue
		}
		if err != nil {
			return Refs{}, nil, err
		}
		refs.Tags = append(refs.Tags, t)
	}

	return refs, diags, nil
}
