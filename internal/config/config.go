// Package config loads process configuration from .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"

	"github.com/qepting91/reddit-conversations/internal/store"
)

const EnvFile = ".env"

// Collector modes.
const (
	ModeAPI    = "api"
	ModePublic = "public"
	ModeMock   = "mock"
)

// Reddit configures the remote content API.
type Reddit struct {
	Mode         string
	ClientID     string
	ClientSecret string
	// Username and Password switch api mode to the password grant.
	Username  string
	Password  string
	UserAgent string
}

// Config holds everything a postsctl command needs.
type Config struct {
	Store  store.Options
	Reddit Reddit

	PageSize    int
	BatchSize   int
	CommitDelay time.Duration
	// ScanLimit caps sampled scans; zero scans everything.
	ScanLimit int

	CatalogFile    string
	HTTPAddr       string
	MetricsAddr    string
	AllowedOrigins []string
	LogLevel       string
}

// Default returns the settings used when the environment says nothing.
func Default() *Config {
	return &Config{
		Store: store.Options{
			Backend:       store.BackendFirestore,
			MongoDatabase: "reddit_conversations",
			Collection:    store.DefaultCollection,
		},
		Reddit:         Reddit{Mode: ModePublic},
		PageSize:       500,
		BatchSize:      store.MaxBatchOps,
		CommitDelay:    100 * time.Millisecond,
		ScanLimit:      6000,
		CatalogFile:    "config/subreddits.yaml",
		HTTPAddr:       ":8080",
		AllowedOrigins: []string{"http://localhost:3000"},
		LogLevel:       "info",
	}
}

// Load reads .env (if present), overlays the environment on the defaults and
// validates the result. It never touches the store.
func Load() (*Config, error) {
	if err := godotenv.Load(EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", EnvFile, err)
	}
	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv() error {
	var result *multierror.Error

	if v, ok := EnvString("STORE_BACKEND"); ok {
		c.Store.Backend = strings.ToLower(v)
	}
	if v, ok := EnvString("FIRESTORE_PROJECT_ID"); ok {
		c.Store.ProjectID = v
	} else if v, ok := EnvString("GOOGLE_CLOUD_PROJECT"); ok {
		c.Store.ProjectID = v
	}
	if v, ok := EnvString("GOOGLE_APPLICATION_CREDENTIALS"); ok {
		c.Store.CredentialsFile = v
	}
	if v, ok := EnvString("MONGO_URI"); ok {
		c.Store.MongoURI = v
	}
	if v, ok := EnvString("MONGO_DATABASE"); ok {
		c.Store.MongoDatabase = v
	}
	if v, ok := EnvString("POSTS_COLLECTION"); ok {
		c.Store.Collection = v
	}

	if v, ok := EnvString("COLLECTOR_MODE"); ok {
		c.Reddit.Mode = strings.ToLower(v)
	}
	if v, ok := EnvString("REDDIT_CLIENT_ID"); ok {
		c.Reddit.ClientID = v
	}
	if v, ok := EnvString("REDDIT_CLIENT_SECRET"); ok {
		c.Reddit.ClientSecret = v
	}
	if v, ok := EnvString("REDDIT_USERNAME"); ok {
		c.Reddit.Username = v
	}
	if v, ok := EnvString("REDDIT_PASSWORD"); ok {
		c.Reddit.Password = v
	}
	if v, ok := EnvString("REDDIT_USER_AGENT"); ok {
		c.Reddit.UserAgent = v
	}

	for _, iv := range []struct {
		key string
		dst *int
	}{
		{"PAGE_SIZE", &c.PageSize},
		{"BATCH_SIZE", &c.BatchSize},
		{"SCAN_LIMIT", &c.ScanLimit},
	} {
		v, ok, err := EnvInt(iv.key)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid %s: %w", iv.key, err))
			continue
		}
		if ok {
			*iv.dst = v
		}
	}
	if v, ok := EnvString("COMMIT_DELAY"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid COMMIT_DELAY: %w", err))
		} else {
			c.CommitDelay = d
		}
	}

	if v, ok := EnvString("CATALOG_FILE"); ok {
		c.CatalogFile = v
	}
	if v, ok := EnvString("PORT"); ok {
		c.HTTPAddr = ":" + v
	}
	if v, ok := EnvString("HTTP_ADDR"); ok {
		c.HTTPAddr = v
	}
	if v, ok := EnvString("METRICS_ADDR"); ok {
		c.MetricsAddr = v
	}
	if v, ok := EnvString("CORS_ORIGINS"); ok {
		c.AllowedOrigins = splitList(v)
	}
	if v, ok := EnvString("LOG_LEVEL"); ok {
		c.LogLevel = strings.ToLower(v)
	}

	return result.ErrorOrNil()
}

// Validate checks the store and batching settings. Every problem is
// reported, not just the first.
func (c *Config) Validate() error {
	var result *multierror.Error
	add := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf(format, args...))
	}

	switch c.Store.Backend {
	case store.BackendFirestore:
		if c.Store.ProjectID == "" {
			add("FIRESTORE_PROJECT_ID is required for the firestore backend")
		}
	case store.BackendMongo:
		if c.Store.MongoURI == "" {
			add("MONGO_URI is required for the mongo backend")
		}
		if c.Store.MongoDatabase == "" {
			add("MONGO_DATABASE cannot be empty")
		}
	case store.BackendMemory:
	default:
		add("unknown STORE_BACKEND %q (use 'firestore', 'mongo', or 'memory')", c.Store.Backend)
	}
	if c.Store.Collection == "" {
		add("POSTS_COLLECTION cannot be empty")
	}

	if c.PageSize <= 0 {
		add("page size must be positive")
	}
	if c.BatchSize <= 0 || c.BatchSize > store.MaxBatchOps {
		add("batch size must be between 1 and %d", store.MaxBatchOps)
	}
	if c.CommitDelay < 0 {
		add("commit delay cannot be negative")
	}
	if c.ScanLimit < 0 {
		add("scan limit cannot be negative")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		add("unknown LOG_LEVEL %q", c.LogLevel)
	}

	return result.ErrorOrNil()
}

// ValidateReddit checks the settings the remote API client needs. Only
// commands that talk to Reddit call it.
func (c *Config) ValidateReddit() error {
	var result *multierror.Error
	switch c.Reddit.Mode {
	case ModeAPI:
		if c.Reddit.ClientID == "" {
			result = multierror.Append(result, errors.New("REDDIT_CLIENT_ID is required for api mode"))
		}
		if c.Reddit.ClientSecret == "" {
			result = multierror.Append(result, errors.New("REDDIT_CLIENT_SECRET is required for api mode"))
		}
		if c.Reddit.UserAgent == "" {
			result = multierror.Append(result, errors.New("REDDIT_USER_AGENT is required for api mode"))
		}
		if (c.Reddit.Username == "") != (c.Reddit.Password == "") {
			result = multierror.Append(result, errors.New("REDDIT_USERNAME and REDDIT_PASSWORD must be set together"))
		}
	case ModePublic:
		if c.Reddit.UserAgent == "" {
			result = multierror.Append(result, errors.New("REDDIT_USER_AGENT is required for public mode"))
		}
	case ModeMock:
	default:
		result = multierror.Append(result, fmt.Errorf("unknown COLLECTOR_MODE: %s (use 'api', 'public', or 'mock')", c.Reddit.Mode))
	}
	return result.ErrorOrNil()
}

// EnvString returns a trimmed, non-empty environment value.
func EnvString(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// EnvInt parses an integer environment value.
func EnvInt(key string) (int, bool, error) {
	v, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
