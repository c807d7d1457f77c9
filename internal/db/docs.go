package db

import (
	"context"
	"time"

	"github.com/deeply-app/deeply/internal/model"
)

// CreateDocFolder inserts a folder.
func (s Queries) CreateDocFolder(ctx context.Context, f model.DocFolder) error {
	var parent any
	if f.ParentID != nil {
		parent = *f.ParentID
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO doc_folders (id, project_id, parent_id, name, description, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.ID, f.ProjectID, parent, f.Name, f.Description, f.CreatedBy, encodeTime(f.CreatedAt))
	return err
}

// GetDocFolder returns a folder.
func (s Queries) GetDocFolder(ctx context.Context, id string) (model.DocFolder, error) {
	var f model.DocFolder
	var created string
	err := s.q.QueryRowContext(ctx, `
		SELECT id, project_id, parent_id, name, description, created_by, created_at
		FROM doc_folders WHERE id = $1`, id).
		Scan(&f.ID, &f.ProjectID, &f.ParentID, &f.Name, &f.Description, &f.CreatedBy, &created)
	if err != nil {
		return model.DocFolder{}, notFound(err)
	}
	f.CreatedAt = decodeTime(created)
	return f, nil
}

// GetRootFolder returns a project's root folder (nil parent) if present.
func (s Queries) GetRootFolder(ctx context.Context, projectID string) (model.DocFolder, error) {
	var id string
	err := s.q.QueryRowContext(ctx, `
		SELECT id FROM doc_folders
		WHERE project_id = $1 AND parent_id IS NULL`, projectID).Scan(&id)
	if err != nil {
		return model.DocFolder{}, notFound(err)
	}
	return s.GetDocFolder(ctx, id)
}

// ListSubfolders returns a folder's direct children ordered by name.
func (s Queries) ListSubfolders(ctx context.Context, parentID string) ([]model.DocFolder, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, project_id, parent_id, name, description, created_by, created_at
		FROM doc_folders WHERE parent_id = $1 ORDER BY name`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.DocFolder{}
	for rows.Next() {
		var f model.DocFolder
		var created string
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.ParentID, &f.Name, &f.Description,
			&f.CreatedBy, &created); err != nil {
			return nil, err
		}
		f.CreatedAt = decodeTime(created)
		out = append(out, f)
	}
	return out, rows.Err()
}

// HasSubfolders reports whether any folder has this one as parent.
func (s Queries) HasSubfolders(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM doc_folders WHERE parent_id = $1`, id).Scan(&n)
	return n > 0, err
}

// DeleteDocFolder removes a folder; subfolders and documents cascade.
func (s Queries) DeleteDocFolder(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM doc_folders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateDocument inserts a document record.
func (s Queries) CreateDocument(ctx context.Context, d model.Document) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO documents (id, project_id, folder_id, name, description, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID, d.ProjectID, d.FolderID, d.Name, d.Description, d.CreatedBy,
		encodeTime(d.CreatedAt), encodeTime(d.UpdatedAt))
	return err
}

// GetDocument returns a document, optionally with its version history
// newest first.
func (s Queries) GetDocument(ctx context.Context, id string, withVersions bool) (model.Document, error) {
	var d model.Document
	var created, updated string
	err := s.q.QueryRowContext(ctx, `
		SELECT id, project_id, folder_id, name, description, created_by, created_at, updated_at
		FROM documents WHERE id = $1`, id).
		Scan(&d.ID, &d.ProjectID, &d.FolderID, &d.Name, &d.Description, &d.CreatedBy,
			&created, &updated)
	if err != nil {
		return model.Document{}, notFound(err)
	}
	d.CreatedAt = decodeTime(created)
	d.UpdatedAt = decodeTime(updated)
	if withVersions {
		d.Versions, err = s.ListDocumentVersions(ctx, id)
	}
	return d, err
}

// ListDocuments returns the documents directly inside a folder.
func (s Queries) ListDocuments(ctx context.Context, folderID string) ([]model.Document, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, project_id, folder_id, name, description, created_by, created_at, updated_at
		FROM documents WHERE folder_id = $1 ORDER BY name`, folderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Document{}
	for rows.Next() {
		var d model.Document
		var created, updated string
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.FolderID, &d.Name, &d.Description,
			&d.CreatedBy, &created, &updated); err != nil {
			return nil, err
		}
		d.CreatedAt = decodeTime(created)
		d.UpdatedAt = decodeTime(updated)
		out = append(out, d)
	}
	return out, rows.Err()
}

// TouchDocument bumps a document's updated_at.
func (s Queries) TouchDocument(ctx context.Context, id string, at time.Time) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE documents SET updated_at = $1 WHERE id = $2`, encodeTime(at), id)
	return err
}

// DeleteDocument removes a document; versions cascade.
func (s Queries) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateDocumentVersion inserts one version row.
func (s Queries) CreateDocumentVersion(ctx context.Context, v model.DocumentVersion) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO document_versions (id, document_id, version, file_path, file_name,
			file_size, file_type, change_note, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		v.ID, v.DocumentID, v.Version, v.FilePath, v.FileName, v.FileSize, v.FileType,
		v.ChangeNote, v.UploadedBy, encodeTime(v.CreatedAt))
	return err
}

// ListDocumentVersions returns a document's versions newest first.
func (s Queries) ListDocumentVersions(ctx context.Context, documentID string) ([]model.DocumentVersion, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, document_id, version, file_path, file_name, file_size, file_type,
			change_note, uploaded_by, created_at
		FROM document_versions WHERE document_id = $1 ORDER BY version DESC`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.DocumentVersion{}
	for rows.Next() {
		var v model.DocumentVersion
		var created string
		if err := rows.Scan(&v.ID, &v.DocumentID, &v.Version, &v.FilePath, &v.FileName,
			&v.FileSize, &v.FileType, &v.ChangeNote, &v.UploadedBy, &created); err != nil {
			return nil, err
		}
		v.CreatedAt = decodeTime(created)
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetDocumentVersion returns one specific version of a document.
func (s Queries) GetDocumentVersion(ctx context.Context, documentID, versionID string) (model.DocumentVersion, error) {
	var v model.DocumentVersion
	var created string
	err := s.q.QueryRowContext(ctx, `
		SELECT id, document_id, version, file_path, file_name, file_size, file_type,
			change_note, uploaded_by, created_at
		FROM document_versions WHERE id = $1 AND document_id = $2`, versionID, documentID).
		Scan(&v.ID, &v.DocumentID, &v.Version, &v.FilePath, &v.FileName, &v.FileSize,
			&v.FileType, &v.ChangeNote, &v.UploadedBy, &created)
	if err != nil {
		return model.DocumentVersion{}, notFound(err)
	}
	v.CreatedAt = decodeTime(created)
	return v, nil
}

// NextVersionNumber returns 1 + the highest stored version for a document.
func (s Queries) NextVersionNumber(ctx context.Context, documentID string) (int, error) {
	var maxVersion int
	err := s.q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM document_versions WHERE document_id = $1`,
		documentID).Scan(&maxVersion)
	return maxVersion + 1, err
}
