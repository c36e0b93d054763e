// Package models defines the domain models shared by the API surfaces.
package models

import "time"

// Discussion is one persisted text record, attributed to a subject.
type Discussion struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ScoredDiscussion is a search hit.
type ScoredDiscussion struct {
	Discussion
	Similarity float64 `json:"similarity"`
}
