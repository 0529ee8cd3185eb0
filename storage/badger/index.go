package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/searcheval/core"
	"github.com/poiesic/searcheval/storage"
)

// IndexRepository persists retrieval indexes in BadgerDB. Each document and
// its vector is one positional entry; a metadata key records the entry count
// so corruption and truncation are detectable on load.
type IndexRepository struct {
	backend *Backend
	logger  *slog.Logger
}

// newIndexRepository is an internal constructor that returns the concrete type.
func newIndexRepository(backend *Backend) (*IndexRepository, error) {
	if backend == nil {
		return nil, storage.ErrBackendRequired
	}
	return &IndexRepository{
		backend: backend,
		logger:  slog.Default().With("component", "badger-index"),
	}, nil
}

// NewIndexRepository creates an index repository on an open backend.
//
// Returns storage.IndexRepository interface to enforce abstraction.
func NewIndexRepository(backend *Backend) (storage.IndexRepository, error) {
	return newIndexRepository(backend)
}

// SaveIndex stores or replaces a named index. Entries are written through a
// batch writer so large corpora are not bounded by transaction size.
func (r *IndexRepository) SaveIndex(ctx context.Context, name string, docs []core.Document, embeddings [][]float32) error {
	if name == "" {
		return storage.ErrEmptyIndexName
	}
	if len(docs) != len(embeddings) {
		return fmt.Errorf("%w: %d documents, %d embeddings", storage.ErrMisalignedIndex, len(docs), len(embeddings))
	}

	// Replace semantics: clear any previous entries first.
	if err := r.backend.DropPrefix(makeIndexEntryPrefix(name)); err != nil {
		return fmt.Errorf("clearing previous index: %w", err)
	}

	batch := r.backend.WriteBatch()
	defer batch.Cancel()

	for i, doc := range docs {
		entry := storage.IndexEntry{Document: doc, Vector: embeddings[i]}
		if err := batch.Set(makeIndexEntryKey(name, i), storage.MarshalIndexEntry(entry)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	if err := batch.Set(makeIndexMetaKey(name), storage.MarshalCount(len(docs))); err != nil {
		return fmt.Errorf("writing index metadata: %w", err)
	}
	if err := batch.Flush(); err != nil {
		return fmt.Errorf("flushing index: %w", err)
	}

	r.logger.Info("saved index", "name", name, "documents", len(docs))
	return nil
}

// LoadIndex retrieves a named index in original document order.
func (r *IndexRepository) LoadIndex(ctx context.Context, name string) ([]core.Document, [][]float32, error) {
	if name == "" {
		return nil, nil, storage.ErrEmptyIndexName
	}

	var docs []core.Document
	var embeddings [][]float32

	err := r.backend.View(func(tx *badger.Txn) error {
		item, err := tx.Get(makeIndexMetaKey(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", storage.ErrIndexNotFound, name)
		}
		if err != nil {
			return err
		}

		var count int
		if err := item.Value(func(val []byte) error {
			count, err = storage.UnmarshalCount(val)
			return err
		}); err != nil {
			return fmt.Errorf("%w: bad metadata: %w", storage.ErrCorruptIndex, err)
		}

		docs = make([]core.Document, 0, count)
		embeddings = make([][]float32, 0, count)

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeIndexEntryPrefix(name)
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var entry storage.IndexEntry
			if err := it.Item().Value(func(val []byte) error {
				entry, err = storage.UnmarshalIndexEntry(val)
				return err
			}); err != nil {
				return fmt.Errorf("%w: bad entry: %w", storage.ErrCorruptIndex, err)
			}
			docs = append(docs, entry.Document)
			embeddings = append(embeddings, entry.Vector)
		}

		if len(docs) != count {
			return fmt.Errorf("%w: metadata says %d entries, found %d", storage.ErrCorruptIndex, count, len(docs))
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	r.logger.Debug("loaded index", "name", name, "documents", len(docs))
	return docs, embeddings, nil
}

// Exists reports whether a named index has been saved.
func (r *IndexRepository) Exists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, storage.ErrEmptyIndexName
	}

	exists := false
	err := r.backend.View(func(tx *badger.Txn) error {
		_, err := tx.Get(makeIndexMetaKey(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	return exists, err
}

// DeleteIndex removes a named index. Deleting a missing index is a no-op.
func (r *IndexRepository) DeleteIndex(ctx context.Context, name string) error {
	if name == "" {
		return storage.ErrEmptyIndexName
	}

	if err := r.backend.DropPrefix(makeIndexEntryPrefix(name)); err != nil {
		return fmt.Errorf("dropping entries: %w", err)
	}
	return r.backend.Update(func(tx *badger.Txn) error {
		err := tx.Delete(makeIndexMetaKey(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// Close closes the underlying backend.
func (r *IndexRepository) Close() error {
	return r.backend.Close()
}
