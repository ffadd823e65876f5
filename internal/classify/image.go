// Package classify derives image metadata and corrected categories from a
// post's current fields. Everything here is pure.
package classify

import (
	"net/url"
	"path"
	"strings"

	"github.com/qepting91/reddit-conversations/internal/domain"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var titleMarkers = []string{"[image]", "[img]", "(image)"}

var redditImageHosts = map[string]bool{
	"i.redd.it":                true,
	"preview.redd.it":          true,
	"external-preview.redd.it": true,
}

// ImageResult is the image metadata derived for one post.
type ImageResult struct {
	HasImage  bool
	ImageURL  string
	ImageType string
}

// DetectImage applies the image rules in priority order; the first match
// wins. Existing documents were migrated with this order, so it must not
// change: an imgur or i.redd.it link with a file extension is "direct".
func DetectImage(rawURL, title string) ImageResult {
	if hasImageExtension(rawURL) {
		return ImageResult{HasImage: true, ImageURL: rawURL, ImageType: domain.ImageDirect}
	}

	lowerTitle := strings.ToLower(title)
	for _, marker := range titleMarkers {
		if strings.Contains(lowerTitle, marker) {
			return ImageResult{HasImage: true, ImageType: domain.ImageIndicated}
		}
	}

	if strings.Contains(strings.ToLower(rawURL), "imgur.com") {
		return ImageResult{HasImage: true, ImageURL: withJPEGExtension(rawURL), ImageType: domain.ImageImgur}
	}

	if u, err := url.Parse(rawURL); err == nil && redditImageHosts[strings.ToLower(u.Hostname())] {
		return ImageResult{HasImage: true, ImageURL: rawURL, ImageType: domain.ImageReddit}
	}

	return ImageResult{}
}

// Image classifies p unless it already has image metadata. The second
// result is false when the post must be skipped; hasImage counts as set even
// when it is false. A stored hasImage of null decodes to nil and is
// classified again, the same as a missing field.
func Image(p domain.Post) (ImageResult, bool) {
	if p.HasImage != nil {
		return ImageResult{}, false
	}
	return DetectImage(p.URL, p.Title), true
}

// ImageFields returns the update that records r on a post. Missing URL and
// type are written as explicit nulls so every classified post carries all
// three fields.
func ImageFields(r ImageResult) map[string]any {
	f := map[string]any{
		"hasImage":  r.HasImage,
		"imageUrl":  nil,
		"imageType": nil,
	}
	if r.ImageURL != "" {
		f["imageUrl"] = r.ImageURL
	}
	if r.ImageType != "" {
		f["imageType"] = r.ImageType
	}
	return f
}

// Apply returns p with r recorded, as the store would hold it after the
// ImageFields update.
func Apply(p domain.Post, r ImageResult) domain.Post {
	p.HasImage = domain.Bool(r.HasImage)
	p.ImageURL, p.ImageType = nil, nil
	if r.ImageURL != "" {
		p.ImageURL = domain.String(r.ImageURL)
	}
	if r.ImageType != "" {
		p.ImageType = domain.String(r.ImageType)
	}
	return p
}

func hasImageExtension(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	return imageExtensions[strings.ToLower(path.Ext(p))]
}

func withJPEGExtension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		if path.Ext(rawURL) == "" {
			return rawURL + ".jpg"
		}
		return rawURL
	}
	if path.Ext(u.Path) != "" {
		return rawURL
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + ".jpg"
	return u.String()
}
