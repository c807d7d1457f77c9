package model

import "time"

// Card is a work item on the board. The id is an opaque string chosen by
// the client (board script) or generated on import.
//
// Title serves as the import reconciliation key but is not enforced
// unique at the schema or CRUD level: plain card creation can mint
// duplicate titles, and the importer resolves them by updating the
// oldest match and reporting the ambiguity.
type Card struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	PhaseID     string     `json:"phase_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Estimate    string     `json:"tempo"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Percent     int        `json:"percentage"`
	Comments    string     `json:"comments,omitempty"`
	Tags        []Tag      `json:"tags"`
	Assignees   []Person   `json:"users"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsOverdue returns true if the card has a deadline in the past and is not done.
func (c *Card) IsOverdue() bool {
	if c.Deadline == nil || c.Percent >= 100 {
		return false
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return c.Deadline.Before(today)
}

// AssigneeEmails returns the emails of everyone assigned to the card.
func (c *Card) AssigneeEmails() []string {
	out := make([]string, 0, len(c.Assignees))
	for _, p := range c.Assignees {
		out = append(out, p.Email)
	}
	return out
}

// TagNames returns the names of the card's tags.
func (c *Card) TagNames() []string {
	out := make([]string, 0, len(c.Tags))
	for _, t := range c.Tags {
		out = append(out, t.Name)
	}
	return out
}
