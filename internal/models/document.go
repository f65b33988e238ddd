// Package models defines core data structures for study documents, knowledge graphs, and podcasts.
package models

import "time"

// DefaultOwner is used when a request does not carry an owner identity.
const DefaultOwner = "local"

// DocumentContent is a study document's extracted text. It is read-only input to generation.
type DocumentContent struct {
	ID          string    `json:"id" db:"id"`
	OwnerID     string    `json:"owner_id" db:"owner_id"`
	Title       string    `json:"title" db:"title"`
	Content     string    `json:"content" db:"content"`
	PageCount   int       `json:"page_count" db:"page_count"`
	Language    string    `json:"language,omitempty" db:"language"`
	ExtractedAt time.Time `json:"extracted_at" db:"extracted_at"`
}

// DocumentInput is the input for creating a document.
type DocumentInput struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title,omitempty"`
	Content   string `json:"content"`
	PageCount int    `json:"page_count,omitempty"`
	Language  string `json:"language,omitempty"`
}
