package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/cosmoslim/prescription-server/internal/pdfform"
	"github.com/cosmoslim/prescription-server/internal/pipeline"
	"github.com/cosmoslim/prescription-server/internal/prescription"
	"github.com/cosmoslim/prescription-server/web"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SubmissionRunner runs one form submission through the pipeline.
type SubmissionRunner interface {
	Run(ctx context.Context, record prescription.Record) (*pipeline.Result, error)
}

// FieldInspector enumerates the template's fillable fields for the debug view.
type FieldInspector interface {
	Inspect(templatePath string) ([]pdfform.TemplateField, error)
}

// PagePreviewer renders the template's first page as an image.
type PagePreviewer interface {
	FirstPagePNG(path string) ([]byte, error)
}

// Config holds the HTTP surface configuration.
type Config struct {
	TemplatePath    string
	SheetsConnected bool
}

type artifact struct {
	data     []byte
	filename string
}

// Server owns the HTTP surface: the form page, submission, one-shot
// download, and the template debug endpoints.
type Server struct {
	cfg       Config
	runner    SubmissionRunner
	inspector FieldInspector
	previewer PagePreviewer
	logger    *zap.Logger

	mu        sync.Mutex
	artifacts map[string]artifact
}

// New creates the HTTP server wiring. previewer may be nil, which disables
// the preview endpoint.
func New(cfg Config, runner SubmissionRunner, inspector FieldInspector, previewer PagePreviewer, logger *zap.Logger) *Server {
	return &Server{
		cfg:       cfg,
		runner:    runner,
		inspector: inspector,
		previewer: previewer,
		logger:    logger,
		artifacts: make(map[string]artifact),
	}
}

// Router builds the gin engine with all routes and middleware.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(s.logger))
	router.Use(corsMiddleware())
	router.SetHTMLTemplate(web.Templates())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "prescription-server",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	router.GET("/", s.handleForm)
	router.POST("/prescriptions", s.handleSubmit)
	router.GET("/download/:token", s.handleDownload)

	api := router.Group("/api/v1")
	{
		api.GET("/template/fields", s.handleTemplateFields)
		api.GET("/template/preview", s.handleTemplatePreview)
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
