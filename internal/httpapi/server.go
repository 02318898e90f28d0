// Package httpapi serves the read API over the canonical catalog and the
// ingest endpoint the scraping collaborator posts batches to.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"hound.fit/jobhound/internal/db"
	"hound.fit/jobhound/internal/globaltime"
	"hound.fit/jobhound/internal/resolve"
	payloadschema "hound.fit/jobhound/schema"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200

	// Batch payloads are bounded; a scrape run measured in the tens of
	// megabytes is malformed, not large.
	maxBatchBodyBytes = 32 << 20
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	pool   *db.Pool
	engine *resolve.Engine
	logger zerolog.Logger
	opts   Options
}

func NewServer(pool *db.Pool, engine *resolve.Engine, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8091
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		// Batch resolution happens inside the request.
		writeTimeout = 120 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Server{
		pool:   pool,
		engine: engine,
		logger: logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit("32M"))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/stats", s.handleStats)
	api.GET("/postings", s.handlePostings)
	api.GET("/postings/:posting_uuid", s.handlePostingDetail)
	api.POST("/batches", s.handleIngestBatch)

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("jobhound api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("jobhound api server stopped")
	return nil
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service": "jobhound",
		"time":    globaltime.UTC(),
	})
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.pool.QueryCatalogStats(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query catalog stats failed")
		return internalError(c, "Failed to load stats")
	}
	return success(c, stats)
}

func (s *Server) handlePostings(c echo.Context) error {
	page, err := parsePositiveInt(c.QueryParam("page"), 1, 1, 1_000_000)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid page parameter", nil)
	}
	pageSize, err := parsePositiveInt(c.QueryParam("page_size"), defaultPageSize, 1, maxPageSize)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid page_size parameter", nil)
	}

	from, err := parseTimeFilter(c.QueryParam("from"), false)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid from parameter", nil)
	}
	to, err := parseTimeFilter(c.QueryParam("to"), true)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid to parameter", nil)
	}

	filter := db.PostingListFilter{
		Status:     strings.TrimSpace(c.QueryParam("status")),
		SourceSite: strings.TrimSpace(c.QueryParam("site")),
		Query:      strings.TrimSpace(c.QueryParam("q")),
		From:       from,
		To:         to,
		Page:       page,
		PageSize:   pageSize,
	}

	total, items, err := s.pool.ListPostings(c.Request().Context(), filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("list postings failed")
		return internalError(c, "Failed to load postings")
	}

	return success(c, map[string]any{
		"total":     total,
		"page":      page,
		"page_size": pageSize,
		"postings":  items,
	})
}

func (s *Server) handlePostingDetail(c echo.Context) error {
	postingUUID := strings.TrimSpace(c.Param("posting_uuid"))
	if postingUUID == "" {
		return fail(c, http.StatusBadRequest, "posting_uuid is required", nil)
	}

	detail, err := s.pool.GetPostingDetail(c.Request().Context(), postingUUID)
	if errors.Is(err, db.ErrPostingNotFound) {
		return failNotFound(c, "Posting not found")
	}
	if err != nil {
		s.logger.Error().Err(err).Str("posting_uuid", postingUUID).Msg("load posting failed")
		return internalError(c, "Failed to load posting")
	}

	return success(c, detail)
}

func (s *Server) handleIngestBatch(c echo.Context) error {
	if s.engine == nil {
		return internalError(c, "Ingest is not configured")
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBatchBodyBytes))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Failed to read request body", nil)
	}

	batch, err := payloadschema.ValidateBatchPayload(body)
	if err != nil {
		return fail(c, http.StatusUnprocessableEntity, "Invalid batch payload", map[string]any{
			"reason": err.Error(),
		})
	}

	summary, err := s.engine.ProcessBatch(c.Request().Context(), *batch)
	if err != nil {
		var vErr *resolve.ValidationError
		if errors.As(err, &vErr) {
			return fail(c, http.StatusUnprocessableEntity, vErr.Error(), nil)
		}
		s.logger.Error().Err(err).Str("source_site", batch.SourceSite).Msg("batch resolution failed")
		// Partial stats are preserved in the summary even on storage failure.
		return c.JSON(http.StatusServiceUnavailable, jsendResponse{
			Status:  "error",
			Message: "Catalog store unavailable",
			Code:    http.StatusServiceUnavailable,
			Data:    summary,
		})
	}

	return successWithStatus(c, http.StatusCreated, summary)
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, err
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("value %d out of range [%d, %d]", value, minValue, maxValue)
	}
	return value, nil
}

func parseTimeFilter(raw string, endOfDay bool) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, trimmed); err == nil {
		utc := t.UTC()
		return &utc, nil
	}

	day, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		day = day.Add(24*time.Hour - time.Nanosecond)
	}
	utc := day.UTC()
	return &utc, nil
}
