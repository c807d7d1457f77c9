package model

import "time"

// DocFolder is a node in a project's document tree. The root folder has a
// nil parent and cannot be deleted.
type DocFolder struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	ParentID    *string   `json:"parent_id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Document is a named file with a linear version history.
type Document struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	FolderID    string    `json:"folder_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Versions []DocumentVersion `json:"versions,omitempty"`
}

// DocumentVersion is one stored revision of a document. Version numbers
// start at 1 and only grow.
type DocumentVersion struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id"`
	Version     int       `json:"version_number"`
	FilePath    string    `json:"-"`
	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size"`
	FileType    string    `json:"file_type"`
	ChangeNote  string    `json:"change_description"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}
