package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Frontier-tech-consulting/composio-integration-frameworks/pkg/models"
)

func newBadgerStore(t *testing.T) *BadgerDiscussionStore {
	t.Helper()
	store, err := OpenBadger("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func discussion(subject, content string, embedding ...float32) *models.Discussion {
	return &models.Discussion{
		ID:        uuid.New().String(),
		Subject:   subject,
		Content:   content,
		Embedding: embedding,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestBadgerDiscussionStore(t *testing.T) {
	ctx := context.Background()
	store := newBadgerStore(t)

	t.Run("Save and Get", func(t *testing.T) {
		d := discussion("u1", "hello", 1, 0, 0)
		require.NoError(t, store.Save(ctx, d))

		got, err := store.Get(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, d.ID, got.ID)
		assert.Equal(t, d.Subject, got.Subject)
		assert.Equal(t, d.Content, got.Content)
		assert.Equal(t, d.Embedding, got.Embedding)
		assert.True(t, d.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("Get unknown", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		d := discussion("u1", "bye", 0, 1, 0)
		require.NoError(t, store.Save(ctx, d))
		require.NoError(t, store.Delete(ctx, d.ID))
		assert.ErrorIs(t, store.Delete(ctx, d.ID), ErrNotFound)
		_, err := store.Get(ctx, d.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	assert.NoError(t, store.Ping(ctx))
}

func TestBadgerDiscussionStore_Search(t *testing.T) {
	ctx := context.Background()
	store := newBadgerStore(t)

	near := discussion("u1", "near", 1, 0.1, 0)
	far := discussion("u1", "far", 0, 0, 1)
	mid := discussion("u1", "mid", 1, 1, 0)
	other := discussion("u2", "other subject", 1, 0, 0)
	for _, d := range []*models.Discussion{near, far, mid, other} {
		require.NoError(t, store.Save(ctx, d))
	}

	hits, err := store.Search(ctx, "u1", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "near", hits[0].Content)
	assert.Equal(t, "mid", hits[1].Content)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)

	all, err := store.Search(ctx, "", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, CosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 2}))
	assert.Zero(t, CosineSimilarity(nil, nil))
}
