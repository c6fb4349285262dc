// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package api serves the query pipeline over HTTP with gin.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/genoscope/internal/history"
	"github.com/pdiddy/genoscope/internal/metrics"
	"github.com/pdiddy/genoscope/internal/pipeline"
	"github.com/pdiddy/genoscope/pkg/types"
)

const requestIDHeader = "X-Request-ID"

// Searcher answers research questions. *pipeline.Engine implements it.
type Searcher interface {
	ProcessQuery(ctx context.Context, rawText string, maxResults int) (types.ResultSet, error)
}

// HistoryReader reads recorded queries. *history.Store implements it.
type HistoryReader interface {
	List(ctx context.Context, limit int) ([]history.Entry, error)
	Search(ctx context.Context, query string, limit int) ([]history.Entry, error)
	Get(ctx context.Context, id string) (types.ResultSet, error)
}

// Handler holds the dependencies of the HTTP endpoints.
type Handler struct {
	engine  Searcher
	history HistoryReader
	metrics *metrics.Metrics
	log     zerolog.Logger
	started time.Time
}

// NewHandler returns a Handler. hist may be nil, in which case the history
// endpoints are not registered.
func NewHandler(engine Searcher, hist HistoryReader, m *metrics.Metrics, log zerolog.Logger) *Handler {
	return &Handler{engine: engine, history: hist, metrics: m, log: log, started: time.Now()}
}

// NewRouter returns a gin engine with recovery, request logging, and every
// route registered.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(h.log))
	h.RegisterRoutes(router)
	return router
}

// RegisterRoutes adds the endpoints to router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.handleHealth)
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	v1 := router.Group("/api/v1")
	v1.GET("/search", h.handleSearch)
	if h.history != nil {
		v1.GET("/history", h.handleHistory)
		v1.GET("/history/:id", h.handleHistoryGet)
	}
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *Handler) handleSearch(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}
	maxResults, ok := intParam(c, "max_results")
	if !ok {
		return
	}

	rs, err := h.engine.ProcessQuery(c.Request.Context(), q, maxResults)
	switch {
	case errors.Is(err, pipeline.ErrAllBackendsFailed):
		c.JSON(http.StatusServiceUnavailable, rs)
	case err != nil:
		h.log.Error().Err(err).Str("q", q).Msg("query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, rs)
	}
}

func (h *Handler) handleHistory(c *gin.Context) {
	limit, ok := intParam(c, "limit")
	if !ok {
		return
	}

	var (
		entries []history.Entry
		err     error
	)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		entries, err = h.history.Search(c.Request.Context(), q, limit)
	} else {
		entries, err = h.history.List(c.Request.Context(), limit)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *Handler) handleHistoryGet(c *gin.Context) {
	rs, err := h.history.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rs)
}

// intParam parses an optional non-negative integer query parameter. On a
// bad value it writes a 400 response and returns false.
func intParam(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + ": " + raw})
		return 0, false
	}
	return n, true
}

// requestLogger tags every request with an ID and logs it once it
// completes.
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		log.Info().
			Str("request_id", id).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

// Serve runs router on addr until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, addr string, router http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
