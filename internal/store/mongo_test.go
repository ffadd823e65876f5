package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoQueryAndGet(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("query decodes and validates posts", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, "db.posts", mtest.FirstBatch,
				bson.D{{Key: "_id", Value: "a"}, {Key: "title", Value: "first"}, {Key: "category", Value: "advice"}},
				bson.D{{Key: "_id", Value: "b"}, {Key: "title", Value: "second"}, {Key: "hasImage", Value: false}},
			),
			mtest.CreateCursorResponse(0, "db.posts", mtest.NextBatch),
		)

		s := NewMongoCollection(mt.Coll)
		page, err := s.Query(context.Background(), Query{Limit: 2, StartAfter: "0"})
		require.NoError(mt, err)
		require.Len(mt, page, 2)
		assert.Equal(mt, "a", page[0].ID)
		assert.Equal(mt, "advice", page[0].CategoryOrEmpty())
		require.NotNil(mt, page[1].HasImage)
		assert.False(mt, *page[1].HasImage)
	})

	mt.Run("get maps no documents to ErrNotFound", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.posts", mtest.FirstBatch))

		_, err := NewMongoCollection(mt.Coll).Get(context.Background(), "missing")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("query surfaces server errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Message: "unauthorized",
			Name:    "Unauthorized",
		}))

		_, err := NewMongoCollection(mt.Coll).Query(context.Background(), Query{Limit: 10})
		assert.ErrorContains(mt, err, "unauthorized")
	})
}

func TestMongoHelpers(t *testing.T) {
	assert.Equal(t, "_id", mongoField("id"))
	assert.Equal(t, "subreddit", mongoField("subreddit"))

	doc := toBSON(map[string]any{"id": "a", "title": "x"})
	assert.NotContains(t, doc, "id")
	assert.Equal(t, "x", doc["title"])
}
