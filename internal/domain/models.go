package domain

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Image types written to the imageType field.
const (
	ImageDirect    = "direct"
	ImageIndicated = "indicated"
	ImageImgur     = "imgur"
	ImageReddit    = "reddit"
)

// Target represents a subreddit to pull from the remote API
type Target struct {
	Subreddit string
	MinScore  int
	Category  string
}

// Post is a scraped Reddit post as stored in the posts collection.
//
// Only ID is required. Pointer fields distinguish "never written" (nil) from
// a written zero value: a nil Category or HasImage marks a document that
// predates the category and image migrations.
type Post struct {
	ID                       string    `json:"id" bson:"_id" firestore:"id"`
	Title                    string    `json:"title" bson:"title" firestore:"title"`
	Subreddit                string    `json:"subreddit" bson:"subreddit" firestore:"subreddit"`
	Category                 *string   `json:"category,omitempty" bson:"category,omitempty" firestore:"category,omitempty"`
	Score                    int       `json:"score" bson:"score" firestore:"score"`
	URL                      string    `json:"url" bson:"url" firestore:"url"`
	Author                   string    `json:"author" bson:"author" firestore:"author"`
	NumComments              int       `json:"num_comments" bson:"num_comments" firestore:"num_comments"`
	Permalink                string    `json:"permalink" bson:"permalink" firestore:"permalink"`
	CreatedUTC               float64   `json:"created_utc" bson:"created_utc" firestore:"created_utc"`
	IsCrosspost              bool      `json:"is_crosspost" bson:"is_crosspost" firestore:"is_crosspost"`
	CrosspostParentSubreddit string    `json:"crosspost_parent_subreddit,omitempty" bson:"crosspost_parent_subreddit,omitempty" firestore:"crosspost_parent_subreddit,omitempty"`
	ScrapedAt                time.Time `json:"scraped_at" bson:"scraped_at" firestore:"scraped_at"`
	HasImage                 *bool     `json:"hasImage,omitempty" bson:"hasImage,omitempty" firestore:"hasImage,omitempty"`
	ImageURL                 *string   `json:"imageUrl,omitempty" bson:"imageUrl,omitempty" firestore:"imageUrl,omitempty"`
	ImageType                *string   `json:"imageType,omitempty" bson:"imageType,omitempty" firestore:"imageType,omitempty"`
}

// Validate checks a post decoded from a store.
func (p Post) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required),
		validation.Field(&p.ImageType, validation.In(ImageDirect, ImageIndicated, ImageImgur, ImageReddit)),
	)
}

// CategoryOrEmpty returns the category, or "" when it was never set.
func (p Post) CategoryOrEmpty() string {
	if p.Category == nil {
		return ""
	}
	return *p.Category
}

// Fields flattens the post into store field names. Unset optional fields are
// omitted so that a set never writes an explicit null.
func (p Post) Fields() map[string]any {
	f := map[string]any{
		"id":           p.ID,
		"title":        p.Title,
		"subreddit":    p.Subreddit,
		"score":        p.Score,
		"url":          p.URL,
		"author":       p.Author,
		"num_comments": p.NumComments,
		"permalink":    p.Permalink,
		"created_utc":  p.CreatedUTC,
		"is_crosspost": p.IsCrosspost,
		"scraped_at":   p.ScrapedAt,
	}
	if p.CrosspostParentSubreddit != "" {
		f["crosspost_parent_subreddit"] = p.CrosspostParentSubreddit
	}
	if p.Category != nil {
		f["category"] = *p.Category
	}
	if p.HasImage != nil {
		f["hasImage"] = *p.HasImage
	}
	if p.ImageURL != nil {
		f["imageUrl"] = *p.ImageURL
	}
	if p.ImageType != nil {
		f["imageType"] = *p.ImageType
	}
	return f
}

// SubredditInfo is the metadata the remote API returns for a subreddit.
type SubredditInfo struct {
	Name        string  `json:"name"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Subscribers int     `json:"subscribers"`
	ActiveUsers int     `json:"active_users"`
	NSFW        bool    `json:"nsfw"`
	CreatedUTC  float64 `json:"created_utc"`
}

// Collector defines the interface for data fetching
type Collector interface {
	About(ctx context.Context, subreddit string) (SubredditInfo, error)
	FetchNewPosts(ctx context.Context, subreddit string, limit int) ([]Post, error)
}

// String and Bool return pointers for optional post fields.
func String(s string) *string { return &s }

func Bool(b bool) *bool { return &b }
