package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qepting91/reddit-conversations/internal/domain"
)

func TestDetectImagePriority(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		title string
		want  ImageResult
	}{
		{
			name: "direct extension is case-insensitive",
			url:  "https://example.com/photo.JPG",
			want: ImageResult{HasImage: true, ImageURL: "https://example.com/photo.JPG", ImageType: domain.ImageDirect},
		},
		{
			name:  "title marker without url",
			title: "[IMAGE] look at this",
			want:  ImageResult{HasImage: true, ImageType: domain.ImageIndicated},
		},
		{
			name: "imgur without extension gets .jpg",
			url:  "https://imgur.com/abc123",
			want: ImageResult{HasImage: true, ImageURL: "https://imgur.com/abc123.jpg", ImageType: domain.ImageImgur},
		},
		{
			name: "reddit host with extension is direct",
			url:  "https://i.redd.it/xyz.png",
			want: ImageResult{HasImage: true, ImageURL: "https://i.redd.it/xyz.png", ImageType: domain.ImageDirect},
		},
		{
			name: "reddit preview host without extension",
			url:  "https://preview.redd.it/xyz",
			want: ImageResult{HasImage: true, ImageURL: "https://preview.redd.it/xyz", ImageType: domain.ImageReddit},
		},
		{
			name: "nothing to go on",
			want: ImageResult{},
		},
		{
			name: "imgur with extension is direct",
			url:  "https://i.imgur.com/abc123.gifv.webp",
			want: ImageResult{HasImage: true, ImageURL: "https://i.imgur.com/abc123.gifv.webp", ImageType: domain.ImageDirect},
		},
		{
			name:  "title marker beats imgur",
			url:   "https://imgur.com/abc123",
			title: "my desk (Image)",
			want:  ImageResult{HasImage: true, ImageType: domain.ImageIndicated},
		},
		{
			name: "extension before query string",
			url:  "https://cdn.example.com/a/b.jpeg?width=640",
			want: ImageResult{HasImage: true, ImageURL: "https://cdn.example.com/a/b.jpeg?width=640", ImageType: domain.ImageDirect},
		},
		{
			name: "text post",
			url:  "https://www.reddit.com/r/jobs/comments/abc/quitting_today/",
			want: ImageResult{},
		},
		{
			name:  "[img] marker",
			title: "Before and after [img]",
			want:  ImageResult{HasImage: true, ImageType: domain.ImageIndicated},
		},
		{
			name: "external preview host",
			url:  "https://external-preview.redd.it/abc?auto=webp",
			want: ImageResult{HasImage: true, ImageURL: "https://external-preview.redd.it/abc?auto=webp", ImageType: domain.ImageReddit},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectImage(tt.url, tt.title))
		})
	}
}

func TestImageSkipsClassifiedPosts(t *testing.T) {
	_, ok := Image(domain.Post{ID: "a", URL: "https://i.redd.it/x.png", HasImage: domain.Bool(false)})
	assert.False(t, ok, "hasImage=false is already classified")

	_, ok = Image(domain.Post{ID: "b", HasImage: domain.Bool(true)})
	assert.False(t, ok)

	r, ok := Image(domain.Post{ID: "c", URL: "https://i.redd.it/x.png"})
	assert.True(t, ok)
	assert.Equal(t, domain.ImageDirect, r.ImageType)
}

func TestImageIsIdempotent(t *testing.T) {
	posts := []domain.Post{
		{ID: "1", URL: "https://example.com/photo.JPG"},
		{ID: "2", Title: "[image] cat"},
		{ID: "3", URL: "https://imgur.com/abc"},
		{ID: "4", URL: "https://preview.redd.it/xyz"},
		{ID: "5", Title: "plain"},
		{ID: "6"},
	}
	for _, p := range posts {
		first, ok := Image(p)
		assert.True(t, ok)

		applied := Apply(p, first)
		assert.NoError(t, applied.Validate())
		_, again := Image(applied)
		assert.False(t, again, "post %s would be written twice", p.ID)

		// recomputing from the same inputs yields the same result
		assert.Equal(t, first, DetectImage(applied.URL, applied.Title))
	}
}

func TestImageFields(t *testing.T) {
	assert.Equal(t, map[string]any{"hasImage": false, "imageUrl": nil, "imageType": nil}, ImageFields(ImageResult{}))
	assert.Equal(t,
		map[string]any{"hasImage": true, "imageUrl": nil, "imageType": domain.ImageIndicated},
		ImageFields(ImageResult{HasImage: true, ImageType: domain.ImageIndicated}))
}

func TestCategory(t *testing.T) {
	tests := []struct {
		name      string
		post      domain.Post
		want      string
		corrected bool
	}{
		{"work becomes workplace", domain.Post{Subreddit: "AskReddit", Category: domain.String("work")}, CategoryWorkplace, true},
		{"advice in workplace subreddit", domain.Post{Subreddit: "jobs", Category: domain.String("advice")}, CategoryWorkplace, true},
		{"prefixed subreddit name", domain.Post{Subreddit: "r/CareerGuidance", Category: domain.String("advice")}, CategoryWorkplace, true},
		{"stories in workplace subreddit stay", domain.Post{Subreddit: "jobs", Category: domain.String("stories")}, "", false},
		{"advice elsewhere stays", domain.Post{Subreddit: "relationship_advice", Category: domain.String("advice")}, "", false},
		{"already workplace", domain.Post{Subreddit: "jobs", Category: domain.String("workplace")}, "", false},
		{"missing category", domain.Post{Subreddit: "jobs"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Category(tt.post)
			assert.Equal(t, tt.corrected, ok)
			assert.Equal(t, tt.want, got)

			if ok {
				tt.post.Category = domain.String(got)
				_, again := Category(tt.post)
				assert.False(t, again)
			}
		})
	}
}
