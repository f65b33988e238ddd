// Package storage persists study documents and generated podcasts.
package storage

import (
	"context"
	"time"

	"github.com/hyperjump/studycast/internal/models"
)

// DocumentProvider resolves document ids to content for an owner.
// Every requested id must exist and belong to ownerID.
type DocumentProvider interface {
	GetDocuments(ctx context.Context, ownerID string, ids []string) ([]models.DocumentContent, error)
}

// DocumentStore manages study documents.
type DocumentStore interface {
	DocumentProvider
	// SaveDocument inserts doc or replaces the existing document with the same id and owner.
	SaveDocument(ctx context.Context, doc *models.DocumentContent) error
	GetDocument(ctx context.Context, ownerID, id string) (*models.DocumentContent, error)
	ListDocuments(ctx context.Context, ownerID string, offset, limit int) ([]*models.DocumentContent, error)
	DeleteDocument(ctx context.Context, ownerID, id string) error
	CountDocuments(ctx context.Context) (int64, error)
}

// PodcastStore persists podcast records. Segments, chapters and questions are
// only ever written as a complete batch by SavePodcast.
type PodcastStore interface {
	// CreatePodcast inserts the header row of a new record, usually in generating state.
	CreatePodcast(ctx context.Context, p *models.IntelligentPodcast) error
	// GetPodcast loads a full record. An empty ownerID skips the ownership check.
	GetPodcast(ctx context.Context, ownerID, id string) (*models.IntelligentPodcast, error)
	// SavePodcast replaces the record and all of its children in one transaction.
	SavePodcast(ctx context.Context, p *models.IntelligentPodcast) error
	UpdateStatus(ctx context.Context, id string, status models.Status, progress int, message string) error
	// UpdateProgress touches a record only while it is still generating.
	UpdateProgress(ctx context.Context, id string, progress int) error
	// ListStale returns ids of generating records not updated since before.
	ListStale(ctx context.Context, before time.Time) ([]string, error)
	ListPodcasts(ctx context.Context, ownerID string, offset, limit int) ([]*models.IntelligentPodcast, error)
	CountPodcasts(ctx context.Context) (map[models.Status]int64, error)
}

// Storage is the full persistence surface of the service.
type Storage interface {
	DocumentStore
	PodcastStore
	Close() error
}
