package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/Frontier-tech-consulting/composio-integration-frameworks/pkg/models"
)

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS discussions (
	id         UUID PRIMARY KEY,
	subject    TEXT NOT NULL,
	content    TEXT NOT NULL,
	embedding  VECTOR,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS discussions_subject_idx ON discussions (subject);
`

// PostgresDiscussionStore is a PostgreSQL implementation of DiscussionStore
// backed by the pgvector extension.
type PostgresDiscussionStore struct {
	db *pgxpool.Pool
}

var _ DiscussionStore = (*PostgresDiscussionStore)(nil)

// NewPostgresDiscussionStore creates a new PostgresDiscussionStore.
func NewPostgresDiscussionStore(db *pgxpool.Pool) *PostgresDiscussionStore {
	return &PostgresDiscussionStore{db: db}
}

// Migrate creates the discussions table and its extension if missing.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("repository: migrate: %w", err)
	}
	return nil
}

// Save saves a discussion to the store.
func (s *PostgresDiscussionStore) Save(ctx context.Context, d *models.Discussion) error {
	_, err := s.db.Exec(ctx,
		"INSERT INTO discussions (id, subject, content, embedding, created_at) VALUES ($1, $2, $3, $4, $5)",
		d.ID, d.Subject, d.Content, pgvector.NewVector(d.Embedding), d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: save discussion %s: %w", d.ID, err)
	}
	return nil
}

// Get retrieves a discussion by its ID.
func (s *PostgresDiscussionStore) Get(ctx context.Context, id string) (*models.Discussion, error) {
	var d models.Discussion
	err := s.db.QueryRow(ctx,
		"SELECT id::text, subject, content, created_at FROM discussions WHERE id = $1", id,
	).Scan(&d.ID, &d.Subject, &d.Content, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("repository: get discussion %s: %w", id, err)
	}
	return &d, nil
}

// Search orders discussions by cosine distance to embedding.
func (s *PostgresDiscussionStore) Search(
	ctx context.Context, subject string, embedding []float32, topK int,
) ([]*models.ScoredDiscussion, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id::text, subject, content, created_at, 1 - (embedding <=> $1) AS similarity
		FROM discussions
		WHERE ($2::text = '' OR subject = $2::text)
		ORDER BY embedding <=> $1
		LIMIT $3`,
		pgvector.NewVector(embedding), subject, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: search discussions: %w", err)
	}
	defer rows.Close()

	var hits []*models.ScoredDiscussion
	for rows.Next() {
		var hit models.ScoredDiscussion
		err := rows.Scan(&hit.ID, &hit.Subject, &hit.Content, &hit.CreatedAt, &hit.Similarity)
		if err != nil {
			return nil, fmt.Errorf("repository: scan discussion: %w", err)
		}
		hits = append(hits, &hit)
	}
	return hits, rows.Err()
}

// Delete removes a discussion.
func (s *PostgresDiscussionStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM discussions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("repository: delete discussion %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks the database connection.
func (s *PostgresDiscussionStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
