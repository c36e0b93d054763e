package repository

import (
	"context"
	"errors"

	"github.com/Frontier-tech-consulting/composio-integration-frameworks/pkg/models"
)

// ErrNotFound is returned when a discussion id is unknown.
var ErrNotFound = errors.New("repository: discussion not found")

// DiscussionStore is an interface for storing and retrieving discussions.
type DiscussionStore interface {
	// Save saves a discussion to the store.
	Save(ctx context.Context, d *models.Discussion) error
	// Get retrieves a discussion by its ID.
	Get(ctx context.Context, id string) (*models.Discussion, error)
	// Search returns the topK discussions closest to embedding. An empty
	// subject searches across all subjects.
	Search(
		ctx context.Context, subject string, embedding []float32, topK int,
	) ([]*models.ScoredDiscussion, error)
	// Delete removes a discussion.
	Delete(ctx context.Context, id string) error
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
