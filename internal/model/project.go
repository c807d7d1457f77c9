package model

import "time"

// Project is a board: a globally unique name plus an ordered list of phases.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Phases      []Phase   `json:"phases,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Phase is one board column. Ord is 0-based and defines column order.
// Phase names are unique within a project.
type Phase struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	Ord       int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

// Tag can be attached to any number of cards.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultTagColor matches the board's accent color.
const DefaultTagColor = "#1a73e8"
