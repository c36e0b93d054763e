package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/repository"
	"github.com/Frontier-tech-consulting/composio-integration-frameworks/pkg/models"
)

// DefaultTopK is used by Search when the caller passes a non-positive topK.
const DefaultTopK = 5

var (
	ErrDiscussionNotFound = errors.New("discussion not found")
	ErrDiscussionAccess   = errors.New("discussion belongs to another subject")
	ErrEmptyContent       = errors.New("discussion content is empty")
)

// DiscussionService stores text records per subject and finds them again by
// meaning. It is the result sink used by the workflow engine.
type DiscussionService struct {
	store    repository.DiscussionStore
	mlClient MLClient
	topK     int
	now      func() time.Time
}

// NewDiscussionService creates a new DiscussionService.
func NewDiscussionService(
	store repository.DiscussionStore, mlClient MLClient, topK int,
) *DiscussionService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &DiscussionService{
		store:    store,
		mlClient: mlClient,
		topK:     topK,
		now:      time.Now,
	}
}

// Append records text for subject, discarding the created record.
func (s *DiscussionService) Append(ctx context.Context, subject, text string) error {
	_, err := s.Remember(ctx, subject, text)
	return err
}

// Remember embeds content and stores it as a new discussion.
func (s *DiscussionService) Remember(
	ctx context.Context, subject, content string,
) (*models.Discussion, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	embedding, err := s.mlClient.GetEmbedding(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("embed discussion: %w", err)
	}

	d := &models.Discussion{
		ID:        uuid.New().String(),
		Subject:   subject,
		Content:   content,
		Embedding: embedding,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Search returns the discussions of subject closest in meaning to query.
// An empty subject searches every subject.
func (s *DiscussionService) Search(
	ctx context.Context, subject, query string, topK int,
) ([]*models.ScoredDiscussion, error) {
	if topK <= 0 {
		topK = s.topK
	}
	embedding, err := s.mlClient.GetEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.store.Search(ctx, subject, embedding, topK)
}

// Get fetches a discussion, enforcing ownership when subject is set.
func (s *DiscussionService) Get(
	ctx context.Context, subject, id string,
) (*models.Discussion, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDiscussionNotFound, id)
	}
	d, err := s.store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrDiscussionNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if subject != "" && d.Subject != subject {
		return nil, fmt.Errorf("%w: %s", ErrDiscussionAccess, id)
	}
	return d, nil
}

// Delete removes a discussion. With a non-empty subject only that subject's
// own discussions may be deleted.
func (s *DiscussionService) Delete(ctx context.Context, subject, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrDiscussionNotFound, id)
	}
	if subject != "" {
		if _, err := s.Get(ctx, subject, id); err != nil {
			return err
		}
	}
	err := s.store.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrDiscussionNotFound, id)
	}
	return err
}

// Ping checks the backing store.
func (s *DiscussionService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
