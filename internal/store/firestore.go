package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/qepting91/reddit-conversations/internal/domain"
)

// Firestore is the production backend.
type Firestore struct {
	client *firestore.Client
	col    *firestore.CollectionRef
}

// NewFirestore connects to projectID. credentialsFile may be empty, in which
// case application default credentials are used.
func NewFirestore(ctx context.Context, projectID, credentialsFile, collection string) (*Firestore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &Firestore{client: client, col: client.Collection(collection)}, nil
}

func (f *Firestore) Query(ctx context.Context, q Query) ([]domain.Post, error) {
	fq := f.col.Query
	for _, flt := range q.Filters {
		fq = fq.Where(flt.Field, "==", flt.Value)
	}
	fq = fq.OrderBy(firestore.DocumentID, firestore.Asc)
	if q.StartAfter != "" {
		fq = fq.StartAfter(q.StartAfter)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}

	it := fq.Documents(ctx)
	defer it.Stop()

	var out []domain.Post
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", f.col.ID, err)
		}
		p, err := fromSnapshot(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *Firestore) Get(ctx context.Context, id string) (domain.Post, error) {
	snap, err := f.col.Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return domain.Post{}, ErrNotFound
	}
	if err != nil {
		return domain.Post{}, fmt.Errorf("get %s/%s: %w", f.col.ID, id, err)
	}
	return fromSnapshot(snap)
}

// Commit writes ops in one WriteBatch, which Firestore applies atomically.
func (f *Firestore) Commit(ctx context.Context, ops []Op) error {
	if err := checkBatch(ops); err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}

	wb := f.client.Batch()
	for _, op := range ops {
		ref := f.col.Doc(op.ID)
		switch op.Kind {
		case OpUpdate:
			updates := make([]firestore.Update, 0, len(op.Fields))
			for k, v := range op.Fields {
				updates = append(updates, firestore.Update{Path: k, Value: v})
			}
			wb.Update(ref, updates)
		case OpSet:
			wb.Set(ref, op.Fields)
		case OpDelete:
			wb.Delete(ref)
		default:
			return fmt.Errorf("unsupported operation %s", op.Kind)
		}
	}
	if _, err := wb.Commit(ctx); err != nil {
		return fmt.Errorf("commit %d operations: %w", len(ops), err)
	}
	return nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

func fromSnapshot(snap *firestore.DocumentSnapshot) (domain.Post, error) {
	var p domain.Post
	if err := snap.DataTo(&p); err != nil {
		return domain.Post{}, fmt.Errorf("%w %q: %v", ErrInvalidDocument, snap.Ref.ID, err)
	}
	if p.ID == "" {
		p.ID = snap.Ref.ID
	}
	return validate(p)
}
