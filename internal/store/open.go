package store

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendFirestore = "firestore"
	BackendMongo     = "mongo"
	BackendMemory    = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend         string
	ProjectID       string
	CredentialsFile string
	MongoURI        string
	MongoDatabase   string
	Collection      string
}

// Open constructs the store client for a process. The caller owns the result
// and must Close it.
func Open(ctx context.Context, o Options) (Store, error) {
	col := o.Collection
	if col == "" {
		col = DefaultCollection
	}
	switch o.Backend {
	case BackendFirestore:
		return NewFirestore(ctx, o.ProjectID, o.CredentialsFile, col)
	case BackendMongo:
		return NewMongo(ctx, o.MongoURI, o.MongoDatabase, col)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q (use 'firestore', 'mongo', or 'memory')", o.Backend)
	}
}
