package collector

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/qepting91/reddit-conversations/internal/domain"
)

// MockClient implements domain.Collector but returns fake data. Output is
// deterministic per subreddit so imports can be rerun.
type MockClient struct {
	Latency time.Duration
}

func NewMockClient() *MockClient {
	return &MockClient{Latency: 500 * time.Millisecond}
}

func (mc *MockClient) wait(ctx context.Context) error {
	if mc.Latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(mc.Latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func seed(sub string) int {
	h := fnv.New32a()
	h.Write([]byte(sub))
	return int(h.Sum32() % 1000)
}

func (mc *MockClient) About(ctx context.Context, sub string) (domain.SubredditInfo, error) {
	if err := mc.wait(ctx); err != nil {
		return domain.SubredditInfo{}, err
	}
	sub = subredditName(sub)
	n := seed(sub)
	return domain.SubredditInfo{
		Name:        sub,
		Title:       "Simulated r/" + sub,
		Description: fmt.Sprintf("Mock community %s", sub),
		Subscribers: 1000 * (n + 1),
		ActiveUsers: n,
		CreatedUTC:  1.2e9,
	}, nil
}

func (mc *MockClient) FetchNewPosts(ctx context.Context, sub string, limit int) ([]domain.Post, error) {
	if err := mc.wait(ctx); err != nil {
		return nil, err
	}
	sub = subredditName(sub)
	n := seed(sub)
	limit = clampLimit(limit)

	posts := make([]domain.Post, 0, limit)
	for i := 0; i < limit; i++ {
		p := domain.Post{
			ID:          fmt.Sprintf("mock_%s_%d", sub, i),
			Title:       fmt.Sprintf("[%s] Simulated conversation #%d", sub, i),
			Subreddit:   sub,
			Author:      "simulated_user",
			URL:         fmt.Sprintf("https://www.reddit.com/r/%s/comments/mock_%d/", sub, i),
			Score:       (n + i*37) % 500,
			NumComments: (n + i*11) % 50,
			Permalink:   fmt.Sprintf("/r/%s/comments/mock_%d/", sub, i),
			CreatedUTC:  float64(1.7e9 - i*60),
		}
		switch i % 5 {
		case 1:
			p.URL = fmt.Sprintf("https://i.redd.it/mock%d.png", i)
		case 3:
			p.IsCrosspost = true
			p.CrosspostParentSubreddit = "AskReddit"
		}
		posts = append(posts, p)
	}
	return posts, nil
}
