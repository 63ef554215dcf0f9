// Package server exposes the form catalog over HTTP: list and describe the
// forms, hand out blank reports and turn filled-in reports into PDF or XLSX
// downloads.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	formpdf "github.com/lvillar/formpdf"
	"github.com/lvillar/formpdf/forms"
)

// Limits and timeouts.
const (
	MaxBodyBytes    = 20 << 20 // reports carry base64 signature images
	ReadTimeout     = 30 * time.Second
	ShutdownTimeout = 10 * time.Second
)

// Server is the HTTP API.
type Server struct {
	catalog *forms.Catalog
	opts    []formpdf.Option
	log     *zap.Logger
	engine  *gin.Engine
}

// New builds the router. opts are the document options every render starts
// from.
func New(catalog *forms.Catalog, log *zap.Logger, opts ...formpdf.Option) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{catalog: catalog, opts: opts, log: log}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(logger(log))
	r.Use(limitBody(MaxBodyBytes))

	r.GET("/healthz", s.health)
	api := r.Group("/api")
	{
		api.GET("/forms", s.listForms)
		api.GET("/forms/:slug", s.getForm)
		api.GET("/forms/:slug/template", s.template)
		api.POST("/forms/:slug/pdf", s.renderPDF)
		api.POST("/forms/:slug/xlsx", s.exportXLSX)
		api.POST("/bundle", s.bundle)
	}
	s.engine = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.engine,
		ReadTimeout: ReadTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("http server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Request.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

func logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Duration("latency", time.Since(start)),
			zap.Int("bytes", c.Writer.Size()),
			zap.String("request_id", c.GetString("request_id")),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
		}

		switch {
		case status >= 500:
			log.Error("server error", fields...)
		case status >= 400:
			log.Warn("client error", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
