// Package legal defines the legal-research collaborator ports.
package legal

import "context"

// Act is one statute hit from the acts index.
type Act struct {
	Title     string `json:"title"`
	Publisher string `json:"publisher"`
	Year      int    `json:"year"`
	Pos       int    `json:"pos"`
	InForce   bool   `json:"in_force"`
}

// Ruling is one court-ruling hit.
type Ruling struct {
	ID        string `json:"id"`
	CaseSign  string `json:"case_sign"`
	CourtType string `json:"court_type"`
	Summary   string `json:"summary"`
	URL       string `json:"url,omitempty"`
}

// ActsProvider searches the national register of legal acts.
type ActsProvider interface {
	SearchActs(ctx context.Context, keyword string, year int, inForce bool) ([]Act, error)
	ActContent(ctx context.Context, publisher string, year, pos int) (string, error)
}

// RulingsProvider searches the court-ruling corpus.
type RulingsProvider interface {
	SearchRulings(ctx context.Context, query, courtType string) ([]Ruling, error)
	JudgmentText(ctx context.Context, judgmentID string) (string, error)
}
