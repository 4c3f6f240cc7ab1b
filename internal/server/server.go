// Package server exposes search and index stats over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"devscope/internal/query"
	"devscope/internal/store"
)

// Server serves queries against one backend. The index reader is opened
// lazily and cached until Invalidate.
type Server struct {
	addr    string
	backend store.Backend
	limit   int
	logger  *slog.Logger
	router  *gin.Engine

	mu     sync.RWMutex
	cached *store.Reader
}

// Config describes a Server's dependencies.
type Config struct {
	Addr    string
	Backend store.Backend
	// Limit is the default result cap when the request names none.
	Limit  int
	Logger *slog.Logger
}

// New builds a Server and registers its routes.
func New(cfg Config) (*Server, error) {
	if cfg.Backend == nil {
		return nil, errors.New("server requires a backend")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Limit <= 0 {
		cfg.Limit = query.DefaultLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	s := &Server{
		addr:    cfg.Addr,
		backend: cfg.Backend,
		limit:   cfg.Limit,
		logger:  cfg.Logger,
		router:  router,
	}
	router.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	api := s.router.Group("/api")
	api.GET("/search", s.handleSearch)
	api.GET("/stats", s.handleStats)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Invalidate drops the cached reader so the next request reopens the
// index. The watcher calls this after republishing artifacts.
func (s *Server) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		s.cached.Close()
		s.cached = nil
	}
}

func (s *Server) reader(ctx context.Context) (*store.Reader, error) {
	s.mu.RLock()
	r := s.cached
	s.mu.RUnlock()
	if r != nil {
		return r, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		return s.cached, nil
	}
	r, err := s.backend.OpenReader(ctx)
	if err != nil {
		return nil, err
	}
	s.cached = r
	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleSearch(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}
	limit := s.limit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	reader, err := s.reader(c.Request.Context())
	if err != nil {
		s.respondIndexError(c, err)
		return
	}

	searcher := query.NewSearcher(reader)
	searcher.Limit = limit

	start := time.Now()
	results, err := searcher.Search(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if results == nil {
		results = []query.SearchResult{}
	}
	c.JSON(http.StatusOK, gin.H{
		"query":   q,
		"count":   len(results),
		"elapsed": time.Since(start).String(),
		"results": results,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	man, err := s.backend.ReadManifest(c.Request.Context())
	if err != nil {
		s.respondIndexError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"backend":  s.backend.Describe(),
		"manifest": man,
	})
}

func (s *Server) respondIndexError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNoIndex) {
		c.JSON(http.StatusNotFound, gin.H{"error": "index not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}

// Start serves until ctx is canceled or the listener fails. Shutdown
// drains in-flight requests for up to five seconds.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info("http server listening", "addr", s.addr)

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		s.Invalidate()
		return nil
	case err := <-errCh:
		s.Invalidate()
		return err
	}
}
