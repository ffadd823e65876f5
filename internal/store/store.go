// Package store is the document store client for the posts collection.
//
// Every backend orders query results by document ID so that the ID of the
// last document in a page is a stable cursor for the next one.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/qepting91/reddit-conversations/internal/domain"
)

// MaxBatchOps is the most operations a single commit may carry.
const MaxBatchOps = 500

// DefaultCollection is the collection the scraper writes posts to.
const DefaultCollection = "posts"

var (
	// ErrNotFound is returned by Get when no document has the requested ID.
	ErrNotFound = errors.New("store: document not found")
	// ErrBatchTooLarge is returned by Commit when given more than MaxBatchOps.
	ErrBatchTooLarge = fmt.Errorf("store: batch exceeds %d operations", MaxBatchOps)
	// ErrInvalidDocument wraps schema violations found while decoding.
	ErrInvalidDocument = errors.New("store: invalid document")
)

// Filter is a server-side equality condition.
type Filter struct {
	Field string
	Value any
}

// Query selects one page of documents ordered by ID.
type Query struct {
	Filters []Filter
	// Limit caps the page size. Zero means no limit.
	Limit int
	// StartAfter is the ID of the last document of the previous page.
	StartAfter string
}

// OpKind identifies a write operation.
type OpKind int

const (
	OpUpdate OpKind = iota
	OpSet
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpUpdate:
		return "update"
	case OpSet:
		return "set"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("OpKind(%d)", int(k))
	}
}

// Op is a single pending write.
type Op struct {
	Kind   OpKind
	ID     string
	Fields map[string]any
}

// Update merges fields into an existing document.
func Update(id string, fields map[string]any) Op {
	return Op{Kind: OpUpdate, ID: id, Fields: fields}
}

// Set replaces a document, creating it if needed.
func Set(id string, fields map[string]any) Op {
	return Op{Kind: OpSet, ID: id, Fields: fields}
}

// Delete removes a document.
func Delete(id string) Op {
	return Op{Kind: OpDelete, ID: id}
}

// Reader is the read half of a document store.
type Reader interface {
	Query(ctx context.Context, q Query) ([]domain.Post, error)
	Get(ctx context.Context, id string) (domain.Post, error)
}

// Committer applies a batch of operations atomically.
type Committer interface {
	Commit(ctx context.Context, ops []Op) error
}

// Store is a document store client. Close releases the underlying
// connection and must be called once when the process is done with it.
type Store interface {
	Reader
	Committer
	Close() error
}

func checkBatch(ops []Op) error {
	if len(ops) > MaxBatchOps {
		return ErrBatchTooLarge
	}
	for _, op := range ops {
		if op.ID == "" {
			return fmt.Errorf("store: %s operation without document id", op.Kind)
		}
	}
	return nil
}

func validate(p domain.Post) (domain.Post, error) {
	if err := p.Validate(); err != nil {
		return domain.Post{}, fmt.Errorf("%w %q: %v", ErrInvalidDocument, p.ID, err)
	}
	return p, nil
}
