// Package dashboard serves the read-only posts API and the stats dashboard.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/qepting91/reddit-conversations/internal/jobs"
	"github.com/qepting91/reddit-conversations/internal/metrics"
	"github.com/qepting91/reddit-conversations/internal/report"
	"github.com/qepting91/reddit-conversations/internal/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = store.MaxBatchOps
)

// Options configure the HTTP surface.
type Options struct {
	Jobs           jobs.Deps
	AllowedOrigins []string
	// StatsLimit caps the documents scanned per stats request.
	StatsLimit int
}

type server struct {
	store   store.Store
	deps    jobs.Deps
	metrics *metrics.Metrics
	log     *slog.Logger
	limit   int
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(o Options) *gin.Engine {
	log := o.Jobs.Log
	if log == nil {
		log = slog.Default()
	}
	s := &server{
		store:   o.Jobs.Store,
		deps:    o.Jobs,
		metrics: o.Jobs.Metrics,
		log:     log,
		limit:   o.StatsLimit,
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogging())

	r.GET("/health", s.health)
	r.GET("/", s.dashboard)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	{
		api.GET("/posts", s.listPosts)
		api.GET("/posts/:id", s.getPost)
		api.GET("/stats", s.stats)
	}
	return r
}

// Handler wraps the router with CORS for the browser frontend.
func Handler(o Options) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: o.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	return c.Handler(NewRouter(o))
}

// ListenAndServe serves h on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *server) requestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("api_request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (s *server) health(c *gin.Context) {
	if _, err := s.store.Query(c.Request.Context(), store.Query{Limit: 1}); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "store": "down", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *server) listPosts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit <= 0 || limit > maxListLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and " + strconv.Itoa(maxListLimit)})
		return
	}

	q := store.Query{Limit: limit, StartAfter: c.Query("after")}
	if sub := c.Query("subreddit"); sub != "" {
		q.Filters = append(q.Filters, store.Filter{Field: "subreddit", Value: sub})
	}
	if cat := c.Query("category"); cat != "" {
		q.Filters = append(q.Filters, store.Filter{Field: "category", Value: cat})
	}

	posts, err := s.store.Query(c.Request.Context(), q)
	if err != nil {
		s.log.Error("list posts failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	next := ""
	if len(posts) == limit {
		next = posts[len(posts)-1].ID
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "next": next})
}

func (s *server) getPost(c *gin.Context) {
	post, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		s.log.Error("get post failed", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, post)
}

type entryJSON struct {
	Values []string `json:"values"`
	Count  int      `json:"count"`
}

type reportJSON struct {
	Name       string      `json:"name"`
	Dimensions []string    `json:"dimensions"`
	Total      int         `json:"total"`
	Entries    []entryJSON `json:"entries"`
}

func (s *server) runStats(c *gin.Context) (*jobs.Result, bool) {
	res, err := jobs.Stats(c.Request.Context(), s.deps, jobs.ScanOptions{
		Subreddit: c.Query("subreddit"),
		Limit:     s.limit,
	})
	if err != nil {
		s.log.Error("stats failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return res, true
}

func (s *server) stats(c *gin.Context) {
	res, ok := s.runStats(c)
	if !ok {
		return
	}
	out := make([]reportJSON, 0, len(res.Reports))
	for _, r := range res.Reports {
		rj := reportJSON{Name: r.Name, Dimensions: r.Dimensions, Total: r.Total(), Entries: []entryJSON{}}
		for _, e := range r.Summary() {
			rj.Entries = append(rj.Entries, entryJSON{Values: e.Values, Count: e.Count})
		}
		out = append(out, rj)
	}
	c.JSON(http.StatusOK, gin.H{"scanned": res.Scanned, "reports": out})
}

func (s *server) dashboard(c *gin.Context) {
	res, ok := s.runStats(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := report.WriteChart(c.Writer, res.Reports...); err != nil {
		s.log.Error("render dashboard failed", "error", err)
	}
}
