package jobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qepting91/reddit-conversations/internal/batch"
	"github.com/qepting91/reddit-conversations/internal/domain"
	"github.com/qepting91/reddit-conversations/internal/ingest"
	"github.com/qepting91/reddit-conversations/internal/storage"
	"github.com/qepting91/reddit-conversations/internal/store"
)

func testDeps(st store.Store) Deps {
	return Deps{
		Store:    st,
		Log:      slog.New(slog.NewJSONHandler(io.Discard, nil)),
		PageSize: 500,
		Throttle: time.Microsecond,
	}
}

// imagePosts builds n posts cycling through every image rule. Every tenth
// post already carries image metadata.
func imagePosts(n int) []domain.Post {
	urls := []string{
		"https://example.com/photo.JPG",
		"https://example.com/article",
		"https://imgur.com/abc123",
		"https://i.redd.it/xyz",
		"https://www.reddit.com/r/jobs/comments/1/",
	}
	posts := make([]domain.Post, n)
	for i := range posts {
		p := domain.Post{
			ID:        fmt.Sprintf("p%05d", i),
			Title:     "post",
			Subreddit: "jobs",
			URL:       urls[i%len(urls)],
		}
		if i%len(urls) == 1 {
			p.Title = "my desk [IMG]"
		}
		if i%10 == 9 {
			p.HasImage = domain.Bool(false)
		}
		posts[i] = p
	}
	return posts
}

func TestBackfillImagesEndToEnd(t *testing.T) {
	st := store.NewMemory(imagePosts(1200)...)

	res, err := BackfillImages(context.Background(), testDeps(st), MutateOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, st.QueryCount(), "page fetches")
	assert.Equal(t, []int{500, 500, 80}, st.Commits())
	for _, n := range st.Commits() {
		assert.LessOrEqual(t, n, store.MaxBatchOps)
	}
	assert.Equal(t, 1200, res.Scanned)
	assert.Equal(t, 120, res.Skipped)
	assert.Equal(t, 1080, res.Committed)
	assert.Equal(t, 3, res.Batches)
	assert.NotEmpty(t, res.RunID)

	newlyTrue := 0
	for _, p := range imagePosts(1200) {
		if p.HasImage != nil {
			continue
		}
		after, err := st.Get(context.Background(), p.ID)
		require.NoError(t, err)
		require.NotNil(t, after.HasImage)
		if *after.HasImage {
			newlyTrue++
		}
	}
	types := res.Reports[0]
	assert.Equal(t, newlyTrue, types.Total())
	assert.Equal(t, 960, newlyTrue)
	for _, typ := range []string{domain.ImageDirect, domain.ImageIndicated, domain.ImageImgur, domain.ImageReddit} {
		assert.Equal(t, 240, types.Count(typ), typ)
	}
}

func TestBackfillImagesIsIdempotent(t *testing.T) {
	st := store.NewMemory(imagePosts(50)...)
	d := testDeps(st)

	_, err := BackfillImages(context.Background(), d, MutateOptions{})
	require.NoError(t, err)
	commits := len(st.Commits())

	res, err := BackfillImages(context.Background(), d, MutateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Committed)
	assert.Equal(t, 50, res.Skipped)
	assert.Len(t, st.Commits(), commits)
}

func TestBackfillImagesWritesExplicitNulls(t *testing.T) {
	st := store.NewMemory(domain.Post{ID: "a", Title: "[image] look", URL: "https://x.test/"})

	_, err := BackfillImages(context.Background(), testDeps(st), MutateOptions{})
	require.NoError(t, err)

	raw, ok := st.Raw("a")
	require.True(t, ok)
	assert.Equal(t, true, raw["hasImage"])
	assert.Contains(t, raw, "imageUrl")
	assert.Nil(t, raw["imageUrl"])
	assert.Equal(t, domain.ImageIndicated, raw["imageType"])
}

func TestDryRunWritesNothing(t *testing.T) {
	st := store.NewMemory(imagePosts(600)...)

	res, err := BackfillImages(context.Background(), testDeps(st), MutateOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Equal(t, 2, res.Batches)
	assert.Empty(t, st.Commits())

	p, err := st.Get(context.Background(), "p00000")
	require.NoError(t, err)
	assert.Nil(t, p.HasImage)
}

func TestFixCategories(t *testing.T) {
	st := store.NewMemory(
		domain.Post{ID: "1", Subreddit: "tifu", Category: domain.String("work")},
		domain.Post{ID: "2", Subreddit: "jobs", Category: domain.String("advice")},
		domain.Post{ID: "3", Subreddit: "jobs", Category: domain.String("stories")},
		domain.Post{ID: "4", Subreddit: "relationship_advice", Category: domain.String("advice")},
		domain.Post{ID: "5", Subreddit: "AntiWork", Category: domain.String("advice")},
		domain.Post{ID: "6", Subreddit: "jobs"},
	)

	res, err := FixCategories(context.Background(), testDeps(st), MutateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Committed)
	assert.Equal(t, 3, res.Skipped)

	want := map[string]string{"1": "workplace", "2": "workplace", "3": "stories", "4": "advice", "5": "workplace"}
	for id, cat := range want {
		p, err := st.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, cat, p.CategoryOrEmpty(), id)
	}
	p, err := st.Get(context.Background(), "6")
	require.NoError(t, err)
	assert.Nil(t, p.Category)

	changes := res.Reports[0]
	assert.Equal(t, 2, changes.Count("advice", "workplace"))
	assert.Equal(t, 1, changes.Count("work", "workplace"))
}

func TestFixCategoriesSubredditFilter(t *testing.T) {
	st := store.NewMemory(
		domain.Post{ID: "1", Subreddit: "tifu", Category: domain.String("work")},
		domain.Post{ID: "2", Subreddit: "jobs", Category: domain.String("work")},
	)

	res, err := FixCategories(context.Background(), testDeps(st), MutateOptions{ScanOptions: ScanOptions{Subreddit: "jobs"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Scanned)

	p, _ := st.Get(context.Background(), "1")
	assert.Equal(t, "work", p.CategoryOrEmpty())
}

func TestDelete(t *testing.T) {
	st := store.NewMemory(
		domain.Post{ID: "1", Subreddit: "jobs", IsCrosspost: true},
		domain.Post{ID: "2", Subreddit: "jobs"},
		domain.Post{ID: "3", Subreddit: "tifu", IsCrosspost: true},
	)
	d := testDeps(st)

	_, err := Delete(context.Background(), d, DeleteOptions{})
	assert.ErrorIs(t, err, ErrNoFilter)

	res, err := Delete(context.Background(), d, DeleteOptions{
		MutateOptions: MutateOptions{ScanOptions: ScanOptions{Subreddit: "jobs"}},
		Crossposts:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Committed)
	assert.Equal(t, 2, st.Len())

	_, err = Delete(context.Background(), d, DeleteOptions{Crossposts: true})
	require.NoError(t, err)
	assert.Equal(t, 1, st.Len())
	_, err = st.Get(context.Background(), "2")
	assert.NoError(t, err)
}

func TestDeleteAcrossPages(t *testing.T) {
	var posts []domain.Post
	for i := 0; i < 1100; i++ {
		posts = append(posts, domain.Post{ID: fmt.Sprintf("d%04d", i), Subreddit: "spam"})
	}
	posts = append(posts, domain.Post{ID: "keep", Subreddit: "jobs"})
	st := store.NewMemory(posts...)

	res, err := Delete(context.Background(), testDeps(st), DeleteOptions{
		MutateOptions: MutateOptions{ScanOptions: ScanOptions{Subreddit: "spam"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1100, res.Committed)
	assert.Equal(t, []int{500, 500, 100}, st.Commits())
	assert.Equal(t, 1, st.Len())
}

func TestCommitFailureStopsJob(t *testing.T) {
	st := store.NewMemory(imagePosts(20)...)
	st.FailCommits(errors.New("quota exceeded"))

	_, err := BackfillImages(context.Background(), testDeps(st), MutateOptions{})
	require.Error(t, err)

	var ce *batch.CommitError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, ce.Batch)
	assert.Equal(t, 18, ce.Ops)
}

func TestReadFailureIsReported(t *testing.T) {
	st := store.NewMemory(imagePosts(5)...)
	st.FailQueries(errors.New("unavailable"))

	res, err := Stats(context.Background(), testDeps(st), ScanOptions{})
	assert.ErrorContains(t, err, "unavailable")
	require.NotNil(t, res)
	assert.Equal(t, 0, res.Scanned)
}

func TestStats(t *testing.T) {
	st := store.NewMemory(
		domain.Post{ID: "1", Subreddit: "jobs", Category: domain.String("workplace"), Score: 5},
		domain.Post{ID: "2", Subreddit: "jobs", Category: domain.String("workplace"), Score: 150, HasImage: domain.Bool(true), ImageType: domain.String("imgur")},
		domain.Post{ID: "3", Subreddit: "tifu", Category: domain.String("stories"), HasImage: domain.Bool(false)},
		domain.Post{ID: "4", Subreddit: "tifu", IsCrosspost: true, CrosspostParentSubreddit: "funny"},
	)

	res, err := Stats(context.Background(), testDeps(st), ScanOptions{})
	require.NoError(t, err)
	require.Len(t, res.Reports, 7)

	bySub, byCat, bySubCat, missing, crossposts, images := res.Reports[0], res.Reports[1], res.Reports[2], res.Reports[3], res.Reports[4], res.Reports[5]
	assert.Equal(t, 4, bySub.Total())
	assert.Equal(t, 2, byCat.Count("workplace"))
	assert.Equal(t, 1, byCat.Count(""))
	assert.Equal(t, 2, bySubCat.Count("jobs", "workplace"))
	assert.Equal(t, 1, missing.Count("tifu"))
	assert.Equal(t, 1, crossposts.Count("funny"))
	assert.Equal(t, 1, images.Count("imgur"))
	assert.Equal(t, 1, images.Count("none"))
	assert.Equal(t, 2, images.Count("unclassified"))
}

func TestStatsSampleLimit(t *testing.T) {
	st := store.NewMemory(imagePosts(1200)...)
	d := testDeps(st)

	res, err := Stats(context.Background(), d, ScanOptions{Limit: 600})
	require.NoError(t, err)
	assert.Equal(t, 1000, res.Scanned)
	assert.Equal(t, 2, res.Pages)
}

func TestScoreBand(t *testing.T) {
	assert.Equal(t, "negative", scoreBand(-3))
	assert.Equal(t, "0+", scoreBand(0))
	assert.Equal(t, "100+", scoreBand(999))
	assert.Equal(t, "10000+", scoreBand(20000))
}

func TestVerifySync(t *testing.T) {
	cat, err := ingest.ReadCatalog(strings.NewReader(`
subreddits:
  - name: jobs
    category: workplace
  - name: tifu
    category: stories
  - name: offmychest
    category: stories
`))
	require.NoError(t, err)

	st := store.NewMemory(
		domain.Post{ID: "1", Subreddit: "jobs", Category: domain.String("workplace")},
		domain.Post{ID: "2", Subreddit: "Jobs", Category: domain.String("advice")},
		domain.Post{ID: "3", Subreddit: "tifu", Category: domain.String("stories")},
		domain.Post{ID: "4", Subreddit: "pics", Category: domain.String("stories")},
	)

	res, err := VerifySync(context.Background(), testDeps(st), cat)
	require.NoError(t, err)
	assert.False(t, res.InSync())
	assert.Equal(t, []string{"offmychest"}, res.MissingFromStore)
	assert.Equal(t, []string{"pics"}, res.NotInCatalog)
	assert.Equal(t, 1, res.Mismatched)
	assert.Equal(t, 2, res.Reports[0].Count("jobs"))
}

func TestVerifySyncInSync(t *testing.T) {
	cat, err := ingest.ReadCatalog(strings.NewReader("subreddits:\n  - name: jobs\n    category: workplace\n"))
	require.NoError(t, err)
	st := store.NewMemory(domain.Post{ID: "1", Subreddit: "jobs", Category: domain.String("workplace")})

	res, err := VerifySync(context.Background(), testDeps(st), cat)
	require.NoError(t, err)
	assert.True(t, res.InSync())
}

type stubCollector struct {
	posts  map[string][]domain.Post
	failOn string
}

func (s stubCollector) About(_ context.Context, sub string) (domain.SubredditInfo, error) {
	if sub == s.failOn {
		return domain.SubredditInfo{}, errors.New("forbidden")
	}
	return domain.SubredditInfo{Name: sub, Subscribers: 10}, nil
}

func (s stubCollector) FetchNewPosts(_ context.Context, sub string, _ int) ([]domain.Post, error) {
	return s.posts[sub], nil
}

func TestDiscoverImport(t *testing.T) {
	c := stubCollector{
		posts: map[string][]domain.Post{
			"jobs": {
				{ID: "n1", Subreddit: "jobs", Score: 50, URL: "https://i.redd.it/a.png"},
				{ID: "n2", Subreddit: "jobs", Score: 2},
				{ID: "old", Subreddit: "jobs", Score: 90},
			},
		},
		failOn: "private",
	}
	st := store.NewMemory(domain.Post{ID: "old", Subreddit: "jobs"})
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	targets := []domain.Target{
		{Subreddit: "jobs", MinScore: 10, Category: "workplace"},
		{Subreddit: "private", MinScore: 0},
	}
	res, err := Discover(context.Background(), testDeps(st), c, targets, DiscoverOptions{
		Import: true,
		Now:    func() time.Time { return now },
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "private")

	assert.Len(t, res.Subreddits, 1)
	assert.Equal(t, 3, res.Scanned)
	assert.Equal(t, 1, res.Committed)
	assert.Equal(t, 2, res.Reports[0].Count("jobs"))
	assert.Equal(t, 1, res.Reports[1].Count("imported"))
	assert.Equal(t, 1, res.Reports[1].Count("already stored"))

	p, err := st.Get(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, "workplace", p.CategoryOrEmpty())
	assert.True(t, p.ScrapedAt.Equal(now))
	require.NotNil(t, p.HasImage)
	assert.True(t, *p.HasImage)

	_, err = st.Get(context.Background(), "n2")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDiscoverWithoutImportWritesNothing(t *testing.T) {
	c := stubCollector{posts: map[string][]domain.Post{"jobs": {{ID: "n1", Score: 50}}}}
	st := store.NewMemory()

	res, err := Discover(context.Background(), testDeps(st), c, []domain.Target{{Subreddit: "jobs"}}, DiscoverOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Reports[1].Count("qualifying"))
	assert.Equal(t, 0, st.Len())
}

func TestExport(t *testing.T) {
	st := store.NewMemory(imagePosts(7)...)
	var buf bytes.Buffer

	res, err := Export(context.Background(), testDeps(st), storage.NewWriter(&buf), ScanOptions{})
	require.NoError(t, err)
	assert.Equal(t, 7, res.Scanned)
	assert.Equal(t, 7, strings.Count(buf.String(), "\n"))
}

func TestBackfillImagesReclassifiesNullHasImage(t *testing.T) {
	st := store.NewMemory()
	st.Put("a", map[string]any{"id": "a", "url": "https://i.redd.it/a.gif", "hasImage": nil})

	res, err := BackfillImages(context.Background(), testDeps(st), MutateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Committed)

	raw, _ := st.Raw("a")
	assert.Equal(t, true, raw["hasImage"])
	assert.Equal(t, domain.ImageDirect, raw["imageType"])
}
