package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v3"
	json "github.com/goccy/go-json"

	"github.com/Frontier-tech-consulting/composio-integration-frameworks/pkg/models"
)

const discussionPrefix = "discussion/"

type (
	// BadgerDiscussionStore keeps discussions in an embedded badger
	// database and ranks them by brute-force cosine similarity. It suits
	// single-node deployments and development.
	BadgerDiscussionStore struct {
		db *badger.DB
	}

	// BadgerLogger is the logger shape accepted by OpenBadger.
	BadgerLogger interface {
		Debug(msg string, args ...any)
		Info(msg string, args ...any)
		Warn(msg string, args ...any)
		Error(msg string, args ...any)
	}

	badgerRecord struct {
		ID        string    `json:"id"`
		Subject   string    `json:"subject"`
		Content   string    `json:"content"`
		Embedding []float32 `json:"embedding"`
		CreatedAt time.Time `json:"created_at"`
	}

	badgerLogAdapter struct {
		logger BadgerLogger
	}
)

var _ DiscussionStore = (*BadgerDiscussionStore)(nil)

// OpenBadger opens (or creates) a store at path. An empty path keeps the
// data in memory.
func OpenBadger(path string, logger BadgerLogger) (*BadgerDiscussionStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	if logger != nil {
		opts = opts.WithLogger(badgerLogAdapter{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("repository: open badger at %q: %w", path, err)
	}
	return &BadgerDiscussionStore{db: db}, nil
}

// Close flushes and closes the database.
func (s *BadgerDiscussionStore) Close() error {
	return s.db.Close()
}

// Save saves a discussion to the store.
func (s *BadgerDiscussionStore) Save(_ context.Context, d *models.Discussion) error {
	payload, err := json.Marshal(badgerRecord{
		ID:        d.ID,
		Subject:   d.Subject,
		Content:   d.Content,
		Embedding: d.Embedding,
		CreatedAt: d.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("repository: encode discussion %s: %w", d.ID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(discussionKey(d.ID), payload)
	})
}

// Get retrieves a discussion by its ID.
func (s *BadgerDiscussionStore) Get(_ context.Context, id string) (*models.Discussion, error) {
	var rec badgerRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(discussionKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("repository: get discussion %s: %w", id, err)
	}
	d := rec.discussion()
	return &d, nil
}

// Search scans every discussion of subject and keeps the topK closest.
func (s *BadgerDiscussionStore) Search(
	ctx context.Context, subject string, embedding []float32, topK int,
) ([]*models.ScoredDiscussion, error) {
	var hits []*models.ScoredDiscussion
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(discussionPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec badgerRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			if subject != "" && rec.Subject != subject {
				continue
			}
			hits = append(hits, &models.ScoredDiscussion{
				Discussion: rec.discussion(),
				Similarity: CosineSimilarity(embedding, rec.Embedding),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("repository: search discussions: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Delete removes a discussion.
func (s *BadgerDiscussionStore) Delete(_ context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := discussionKey(id)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
}

// Ping reports whether the database is still open.
func (s *BadgerDiscussionStore) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("repository: badger is closed")
	}
	return nil
}

func (r badgerRecord) discussion() models.Discussion {
	return models.Discussion{
		ID:        r.ID,
		Subject:   r.Subject,
		Content:   r.Content,
		Embedding: r.Embedding,
		CreatedAt: r.CreatedAt,
	}
}

func discussionKey(id string) []byte {
	return []byte(discussionPrefix + id)
}

func (a badgerLogAdapter) Errorf(format string, args ...any) {
	a.logger.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (a badgerLogAdapter) Warningf(format string, args ...any) {
	a.logger.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (a badgerLogAdapter) Infof(format string, args ...any) {
	a.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (a badgerLogAdapter) Debugf(format string, args ...any) {
	a.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
