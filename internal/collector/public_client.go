package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/qepting91/reddit-conversations/internal/domain"
)

type PublicClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	baseURL    string
}

type listingResponse struct {
	Data struct {
		Children []struct {
			Data listingPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type listingPost struct {
	ID                  string  `json:"id"`
	Title               string  `json:"title"`
	Subreddit           string  `json:"subreddit"`
	Author              string  `json:"author"`
	URL                 string  `json:"url"`
	Score               int     `json:"score"`
	NumComments         int     `json:"num_comments"`
	Permalink           string  `json:"permalink"`
	CreatedUTC          float64 `json:"created_utc"`
	CrosspostParentList []struct {
		Subreddit string `json:"subreddit"`
	} `json:"crosspost_parent_list"`
}

type aboutResponse struct {
	Data struct {
		DisplayName       string  `json:"display_name"`
		Title             string  `json:"title"`
		PublicDescription string  `json:"public_description"`
		Subscribers       int     `json:"subscribers"`
		ActiveUserCount   int     `json:"active_user_count"`
		Over18            bool    `json:"over18"`
		CreatedUTC        float64 `json:"created_utc"`
	} `json:"data"`
}

func NewPublicClient(userAgent string) (*PublicClient, error) {
	if userAgent == "" {
		return nil, fmt.Errorf("public client requires a user agent")
	}
	return &PublicClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		// Public JSON Limit: 1 req / 2 seconds (Stricter)
		limiter:   rate.NewLimiter(rate.Every(2*time.Second), 1),
		userAgent: userAgent,
		baseURL:   publicBaseURL,
	}, nil
}

func (pc *PublicClient) About(ctx context.Context, sub string) (domain.SubredditInfo, error) {
	var resp aboutResponse
	if err := pc.getJSON(ctx, fmt.Sprintf("/r/%s/about.json", url.PathEscape(subredditName(sub))), &resp); err != nil {
		return domain.SubredditInfo{}, err
	}
	d := resp.Data
	return domain.SubredditInfo{
		Name:        d.DisplayName,
		Title:       d.Title,
		Description: d.PublicDescription,
		Subscribers: d.Subscribers,
		ActiveUsers: d.ActiveUserCount,
		NSFW:        d.Over18,
		CreatedUTC:  d.CreatedUTC,
	}, nil
}

func (pc *PublicClient) FetchNewPosts(ctx context.Context, sub string, limit int) ([]domain.Post, error) {
	path := fmt.Sprintf("/r/%s/new.json?limit=%d", url.PathEscape(subredditName(sub)), clampLimit(limit))

	var resp listingResponse
	if err := pc.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}

	posts := make([]domain.Post, 0, len(resp.Data.Children))
	for _, child := range resp.Data.Children {
		posts = append(posts, child.Data.post())
	}
	return posts, nil
}

func (d listingPost) post() domain.Post {
	p := domain.Post{
		ID:          d.ID,
		Title:       d.Title,
		Subreddit:   d.Subreddit,
		Author:      d.Author,
		URL:         d.URL,
		Score:       d.Score,
		NumComments: d.NumComments,
		Permalink:   d.Permalink,
		CreatedUTC:  d.CreatedUTC,
	}
	if len(d.CrosspostParentList) > 0 {
		p.IsCrosspost = true
		p.CrosspostParentSubreddit = d.CrosspostParentList[0].Subreddit
	}
	return p
}

func (pc *PublicClient) getJSON(ctx context.Context, path string, out any) error {
	if err := pc.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pc.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", pc.userAgent)

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reddit public request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reddit public access status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
