package scan

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qepting91/reddit-conversations/internal/domain"
	"github.com/qepting91/reddit-conversations/internal/store"
)

func memoryWith(n int) *store.Memory {
	posts := make([]domain.Post, 0, n)
	for i := 0; i < n; i++ {
		sub := "jobs"
		if i%3 == 0 {
			sub = "relationships"
		}
		posts = append(posts, domain.Post{ID: fmt.Sprintf("post-%05d", i), Subreddit: sub})
	}
	return store.NewMemory(posts...)
}

func TestScannerVisitsEveryDocumentOnce(t *testing.T) {
	cases := []struct{ n, pageSize int }{
		{0, 500}, {1, 500}, {499, 500}, {500, 500}, {501, 500}, {1200, 500}, {10, 3}, {9, 3},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("n=%d page=%d", tc.n, tc.pageSize), func(t *testing.T) {
			m := memoryWith(tc.n)
			sc := New(m, WithPageSize(tc.pageSize))

			seen := make(map[string]int)
			pages := 0
			for sc.Next(context.Background()) {
				pages++
				for _, p := range sc.Page() {
					seen[p.ID]++
				}
			}
			require.NoError(t, sc.Err())

			assert.Len(t, seen, tc.n)
			for id, c := range seen {
				assert.Equal(t, 1, c, "document %s visited more than once", id)
			}
			maxPages := (tc.n + tc.pageSize - 1) / tc.pageSize
			assert.LessOrEqual(t, pages, maxPages)
			// a full final page costs one extra, empty read
			assert.LessOrEqual(t, m.QueryCount(), maxPages+1)

			gotPages, docs := sc.Stats()
			assert.Equal(t, pages, gotPages)
			assert.Equal(t, tc.n, docs)
		})
	}
}

func TestScannerEmptyCollection(t *testing.T) {
	sc := New(store.NewMemory())
	assert.False(t, sc.Next(context.Background()))
	assert.NoError(t, sc.Err())
	assert.Nil(t, sc.Page())
}

func TestScannerShortPageEndsScan(t *testing.T) {
	m := memoryWith(1200)
	sc := New(m, WithPageSize(500))

	var sizes []int
	for sc.Next(context.Background()) {
		sizes = append(sizes, len(sc.Page()))
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, []int{500, 500, 200}, sizes)
	assert.Equal(t, 3, m.QueryCount())
}

func TestScannerDoesNotPrefetch(t *testing.T) {
	m := memoryWith(20)
	sc := New(m, WithPageSize(5))

	require.True(t, sc.Next(context.Background()))
	assert.Equal(t, 1, m.QueryCount())
	require.True(t, sc.Next(context.Background()))
	assert.Equal(t, 2, m.QueryCount())
}

func TestScannerCeiling(t *testing.T) {
	m := memoryWith(10000)
	sc := New(m, WithPageSize(1000), WithLimit(6000))

	total := 0
	for sc.Next(context.Background()) {
		total += len(sc.Page())
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, 6000, total)
	assert.Equal(t, 6, m.QueryCount())
}

func TestScannerFilter(t *testing.T) {
	m := memoryWith(30)
	sc := New(m, WithPageSize(4), WithFilter("subreddit", "relationships"))

	total := 0
	for sc.Next(context.Background()) {
		for _, p := range sc.Page() {
			assert.Equal(t, "relationships", p.Subreddit)
			total++
		}
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, 10, total)
}

func TestScannerReadFailureAbortsScan(t *testing.T) {
	m := memoryWith(10)
	sc := New(m, WithPageSize(4))

	require.True(t, sc.Next(context.Background()))
	boom := errors.New("unavailable")
	m.FailQueries(boom)

	assert.False(t, sc.Next(context.Background()))
	assert.ErrorIs(t, sc.Err(), boom)

	// the scan is not restartable once it failed
	m.FailQueries(nil)
	assert.False(t, sc.Next(context.Background()))
	assert.Equal(t, 2, m.QueryCount())
}

func TestScannerRejectsNonPositivePageSize(t *testing.T) {
	sc := New(memoryWith(3), WithPageSize(0))
	assert.False(t, sc.Next(context.Background()))
	assert.ErrorContains(t, sc.Err(), "page size")
}
