package collector

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/loganintech/go-reddit/v2/reddit"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/qepting91/reddit-conversations/internal/domain"
)

// APICredentials authenticate against the OAuth API. Without a username the
// client uses the client_credentials grant (application-only access).
type APICredentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
}

type APIClient struct {
	client  *reddit.Client
	limiter *rate.Limiter
}

func NewAPIClient(ctx context.Context, creds APICredentials) (*APIClient, error) {
	var (
		client *reddit.Client
		err    error
	)
	if creds.Username != "" {
		client, err = reddit.NewClient(reddit.Credentials{
			ID:       creds.ClientID,
			Secret:   creds.ClientSecret,
			Username: creds.Username,
			Password: creds.Password,
		}, reddit.WithUserAgent(creds.UserAgent))
	} else {
		client, err = reddit.NewReadonlyClient(
			reddit.WithHTTPClient(appOnlyHTTPClient(ctx, creds)),
			reddit.WithBaseURL(oauthBaseURL),
			reddit.WithUserAgent(creds.UserAgent),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("create reddit client: %w", err)
	}

	// API Rate Limit: ~60 reqs/min (safe buffer)
	limiter := rate.NewLimiter(rate.Every(1*time.Second), 1)

	return &APIClient{client: client, limiter: limiter}, nil
}

// appOnlyHTTPClient returns an HTTP client that attaches a bearer token
// obtained with the client_credentials grant.
func appOnlyHTTPClient(ctx context.Context, creds APICredentials) *http.Client {
	ua := &http.Client{
		Timeout:   10 * time.Second,
		Transport: &userAgentTransport{userAgent: creds.UserAgent},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, ua)

	cc := clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	return cc.Client(ctx)
}

func (ac *APIClient) About(ctx context.Context, sub string) (domain.SubredditInfo, error) {
	if err := ac.limiter.Wait(ctx); err != nil {
		return domain.SubredditInfo{}, err
	}

	s, _, err := ac.client.Subreddit.Get(ctx, subredditName(sub))
	if err != nil {
		return domain.SubredditInfo{}, fmt.Errorf("authenticated api error: %w", err)
	}

	info := domain.SubredditInfo{
		Name:        s.Name,
		Title:       s.Title,
		Description: s.Description,
		Subscribers: s.Subscribers,
		NSFW:        s.NSFW,
	}
	if s.ActiveUserCount != nil {
		info.ActiveUsers = *s.ActiveUserCount
	}
	if s.Created != nil {
		info.CreatedUTC = float64(s.Created.Time.Unix())
	}
	return info, nil
}

func (ac *APIClient) FetchNewPosts(ctx context.Context, sub string, limit int) ([]domain.Post, error) {
	if err := ac.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	posts, _, err := ac.client.Subreddit.NewPosts(ctx, subredditName(sub), &reddit.ListOptions{Limit: clampLimit(limit)})
	if err != nil {
		return nil, fmt.Errorf("authenticated api error: %w", err)
	}

	result := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		post := domain.Post{
			ID:          p.ID,
			Title:       p.Title,
			Subreddit:   p.SubredditName,
			Author:      p.Author,
			URL:         p.URL,
			Score:       p.Score,
			NumComments: p.NumberOfComments,
			Permalink:   p.Permalink,
		}
		if p.Created != nil {
			post.CreatedUTC = float64(p.Created.Time.Unix())
		}
		result = append(result, post)
	}
	return result, nil
}
