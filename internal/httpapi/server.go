// Package httpapi exposes the document and retrieval pipelines over
// HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"askpdf/internal/chunker"
	"askpdf/internal/embedder"
	"askpdf/internal/extract"
	"askpdf/internal/llm"
	"askpdf/internal/rag"
	"askpdf/internal/store"
)

// Config holds HTTP server settings.
type Config struct {
	Host      string
	Port      int
	UploadDir string
	// Default chunking parameters for requests that omit them.
	ChunkSize int
	Overlap   int
}

// Server wires the pipeline components behind echo routes.
type Server struct {
	echo      *echo.Echo
	store     store.Store
	pipeline  *rag.Pipeline
	extractor rag.Extractor
	generator llm.Generator
	logger    *zap.Logger
	config    *Config
}

// NewServer creates an HTTP server. All collaborators are required
// except the logger, which defaults to a no-op.
func NewServer(st store.Store, pipeline *rag.Pipeline, ex rag.Extractor, gen llm.Generator, logger *zap.Logger, cfg *Config) (*Server, error) {
	if st == nil || pipeline == nil || ex == nil || gen == nil {
		return nil, fmt.Errorf("store, pipeline, extractor, and generator are required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{
		echo:      e,
		store:     st,
		pipeline:  pipeline,
		extractor: ex,
		generator: gen,
		logger:    logger,
		config:    cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.POST("/chat", s.handleChat)

	doc := s.echo.Group("/document")
	doc.POST("/upload", s.handleUpload)
	doc.GET("/:id/extract_text", s.handleExtractText)
	doc.POST("/:id/chunks", s.handleChunks)

	r := s.echo.Group("/rag")
	r.POST("/:id/index", s.handleIndex)
	r.POST("/:id/query", s.handleQuery)
}

// Start begins serving and blocks until the server stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("http server listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// httpError maps the pipeline error taxonomy onto HTTP statuses. Each
// error kind keeps its own status so clients can tell a bad request
// from a missing index from an upstream outage.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, chunker.ErrBadConfig):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, rag.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "document not found")
	case errors.Is(err, rag.ErrEmptyQuery):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "query is empty or invalid")
	case errors.Is(err, rag.ErrNoContext):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "no chunks found in the document, reindex it first")
	case errors.Is(err, rag.ErrEmptyContext):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "retrieved chunks have no text content, reindex the document")
	case errors.Is(err, extract.ErrNoText):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "no extractable text found in the document")
	case errors.Is(err, extract.ErrExtraction):
		return echo.NewHTTPError(http.StatusBadRequest, "failed to open the document")
	case errors.Is(err, store.ErrDesync):
		return echo.NewHTTPError(http.StatusInternalServerError, "stored index is inconsistent, reindex the document")
	case errors.Is(err, embedder.ErrEmbedding):
		return echo.NewHTTPError(http.StatusBadGateway, "upstream embedding error, please try again later")
	case errors.Is(err, llm.ErrGeneration):
		return echo.NewHTTPError(http.StatusBadGateway, "upstream model error, please try again later")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
