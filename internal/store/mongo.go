package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/qepting91/reddit-conversations/internal/domain"
)

// Mongo stores posts in a MongoDB collection keyed by _id.
type Mongo struct {
	client *mongo.Client
	col    *mongo.Collection
}

// NewMongo connects to uri and verifies the connection with a ping.
func NewMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &Mongo{client: client, col: client.Database(database).Collection(collection)}, nil
}

// NewMongoCollection wraps an existing collection. The caller keeps
// ownership of the client.
func NewMongoCollection(col *mongo.Collection) *Mongo {
	return &Mongo{col: col}
}

func (m *Mongo) Query(ctx context.Context, q Query) ([]domain.Post, error) {
	filter := bson.D{}
	for _, f := range q.Filters {
		filter = append(filter, bson.E{Key: mongoField(f.Field), Value: f.Value})
	}
	if q.StartAfter != "" {
		filter = append(filter, bson.E{Key: "_id", Value: bson.M{"$gt": q.StartAfter}})
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", m.col.Name(), err)
	}
	defer cur.Close(ctx)

	var out []domain.Post
	for cur.Next(ctx) {
		var p domain.Post
		if err := cur.Decode(&p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		if p, err = validate(p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", m.col.Name(), err)
	}
	return out, nil
}

func (m *Mongo) Get(ctx context.Context, id string) (domain.Post, error) {
	var p domain.Post
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Post{}, ErrNotFound
	}
	if err != nil {
		return domain.Post{}, fmt.Errorf("get %s/%s: %w", m.col.Name(), id, err)
	}
	return validate(p)
}

// Commit runs ops as one ordered bulk write inside a transaction, so either
// all of them apply or none do. Transactions need a replica set.
func (m *Mongo) Commit(ctx context.Context, ops []Op) error {
	if err := checkBatch(ops); err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(ops))
	for _, op := range ops {
		switch op.Kind {
		case OpUpdate:
			models = append(models, mongo.NewUpdateOneModel().
				SetFilter(bson.M{"_id": op.ID}).
				SetUpdate(bson.M{"$set": toBSON(op.Fields)}))
		case OpSet:
			models = append(models, mongo.NewReplaceOneModel().
				SetFilter(bson.M{"_id": op.ID}).
				SetReplacement(toBSON(op.Fields)).
				SetUpsert(true))
		case OpDelete:
			models = append(models, mongo.NewDeleteOneModel().SetFilter(bson.M{"_id": op.ID}))
		default:
			return fmt.Errorf("unsupported operation %s", op.Kind)
		}
	}

	sess, err := m.col.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return m.col.BulkWrite(sc, models, options.BulkWrite().SetOrdered(true))
	})
	if err != nil {
		return fmt.Errorf("commit %d operations: %w", len(ops), err)
	}
	return nil
}

func (m *Mongo) Close() error {
	if m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// The post ID lives in _id; "id" is only a field name in the other backends.
func mongoField(name string) string {
	if name == "id" {
		return "_id"
	}
	return name
}

func toBSON(fields map[string]any) bson.M {
	out := make(bson.M, len(fields))
	for k, v := range fields {
		if k == "id" {
			continue
		}
		out[k] = v
	}
	return out
}
