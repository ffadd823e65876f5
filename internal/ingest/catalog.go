package ingest

import (
	"fmt"
	"io"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/qepting91/reddit-conversations/internal/domain"
)

// CatalogEntry declares one scraped subreddit and the category its posts
// are filed under.
type CatalogEntry struct {
	Name     string `yaml:"name" json:"name"`
	Category string `yaml:"category" json:"category"`
	MinScore int    `yaml:"min_score" json:"min_score"`
	Enabled  *bool  `yaml:"enabled" json:"enabled,omitempty"`
}

// Active reports whether the entry is scraped. Entries are enabled unless
// they say otherwise.
func (e CatalogEntry) Active() bool {
	return e.Enabled == nil || *e.Enabled
}

// Catalog is the declared set of subreddits the scraper keeps in sync.
type Catalog struct {
	Subreddits []CatalogEntry `yaml:"subreddits"`
}

// LoadCatalog reads and validates a YAML catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := ReadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// ReadCatalog decodes and validates a catalog. Unknown keys are rejected so
// that typos do not silently drop settings.
func ReadCatalog(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return nil, err
	}
	for i := range c.Subreddits {
		e := &c.Subreddits[i]
		e.Name = normalizeSubreddit(e.Name)
		e.Category = strings.ToLower(strings.TrimSpace(e.Category))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks every entry and reports all problems at once.
func (c *Catalog) Validate() error {
	var result *multierror.Error
	seen := make(map[string]bool)
	for i, e := range c.Subreddits {
		err := validation.ValidateStruct(&e,
			validation.Field(&e.Name, validation.Required, validation.Match(subNameRegex)),
			validation.Field(&e.Category, validation.Required),
			validation.Field(&e.MinScore, validation.Min(0)),
		)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("subreddits[%d]: %w", i, err))
		}
		key := strings.ToLower(e.Name)
		if seen[key] {
			result = multierror.Append(result, fmt.Errorf("subreddits[%d]: duplicate subreddit %q", i, e.Name))
		}
		seen[key] = true
	}
	return result.ErrorOrNil()
}

// Lookup finds an entry by subreddit name, ignoring case and an r/ prefix.
func (c *Catalog) Lookup(name string) (CatalogEntry, bool) {
	name = strings.ToLower(normalizeSubreddit(name))
	for _, e := range c.Subreddits {
		if strings.ToLower(e.Name) == name {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

// Targets converts the active entries into discovery targets.
func (c *Catalog) Targets() []domain.Target {
	var out []domain.Target
	for _, e := range c.Subreddits {
		if !e.Active() {
			continue
		}
		out = append(out, domain.Target{Subreddit: e.Name, MinScore: e.MinScore, Category: e.Category})
	}
	return out
}
