package classify

import (
	"strings"

	"github.com/qepting91/reddit-conversations/internal/domain"
)

// CategoryWorkplace is the category that replaced "work".
const CategoryWorkplace = "workplace"

// workplaceSubreddits hold posts that were wrongly filed as advice.
var workplaceSubreddits = map[string]bool{
	"jobs":           true,
	"careerguidance": true,
	"antiwork":       true,
	"work":           true,
	"workreform":     true,
	"recruitinghell": true,
	"managers":       true,
	"askmanagers":    true,
	"careeradvice":   true,
}

// IsWorkplaceSubreddit reports whether name (with or without the r/ prefix)
// is one of the workplace subreddits.
func IsWorkplaceSubreddit(name string) bool {
	name = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "r/")
	return workplaceSubreddits[name]
}

// Category returns the corrected category for p, or false when the current
// one stands. A post without a category is left for the scraper to fill.
func Category(p domain.Post) (string, bool) {
	if p.Category == nil {
		return "", false
	}
	switch cat := *p.Category; {
	case cat == "work":
		return CategoryWorkplace, true
	case cat == "advice" && IsWorkplaceSubreddit(p.Subreddit):
		return CategoryWorkplace, true
	}
	return "", false
}
