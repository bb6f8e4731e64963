// Package agent defines the Agent domain entity and launch request types.
package agent

import "time"

// Status represents the current state of a cloud agent.
type Status string

const (
	StatusCreating Status = "CREATING"
	StatusRunning  Status = "RUNNING"
	StatusFinished Status = "FINISHED"
	StatusError    Status = "ERROR"
	StatusExpired  Status = "EXPIRED"
)

// Valid reports whether s is one of the five known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusCreating, StatusRunning, StatusFinished, StatusError, StatusExpired:
		return true
	}
	return false
}

// Source identifies the repository and ref an agent works from.
// Immutable after creation.
type Source struct {
	Repository string `json:"repository"`
	Ref        string `json:"ref"`
}

// Target describes where the agent delivers its work. PrURL is set only
// once the agent finishes and a pull request exists.
type Target struct {
	URL          string `json:"url"`
	BranchName   string `json:"branchName,omitempty"`
	PrURL        string `json:"prUrl,omitempty"`
	AutoCreatePr bool   `json:"autoCreatePr"`
}

// Agent represents one long-running remote coding task.
type Agent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Source    Source    `json:"source"`
	Target    Target    `json:"target"`
	CreatedAt time.Time `json:"createdAt"`
	Summary   string    `json:"summary,omitempty"`
}

// Page is one page of agents. Simulation indicates which backend produced
// the result; it is stamped by the service layer, never by a backend.
type Page struct {
	Agents     []Agent `json:"agents"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	Total      int     `json:"total"`
	TotalPages int     `json:"totalPages"`
	NextCursor string  `json:"nextCursor,omitempty"`
	Simulation bool    `json:"simulation"`
}
