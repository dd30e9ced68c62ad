// Package api provides the REST API server for midiretime
package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/james-see/midiretime/pkg/clock"
	"github.com/james-see/midiretime/pkg/config"
	"github.com/james-see/midiretime/pkg/converter"
	"github.com/james-see/midiretime/pkg/midifile"
	"github.com/james-see/midiretime/pkg/render"
	"github.com/pkg/errors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title midiretime API
// @version 1.0
// @description Decode Standard MIDI Files and render them as timed text streams
// @host localhost:8080
// @BasePath /api/v1

type server struct {
	cfg    config.Config
	logger *log.Logger
}

// StartServer starts the API server on cfg.Server.Port
func StartServer(cfg config.Config, logger *log.Logger) error {
	logger.Info("listening", "port", cfg.Server.Port, "swagger", fmt.Sprintf("http://localhost:%d/swagger/index.html", cfg.Server.Port))
	return NewRouter(cfg, logger).Run(fmt.Sprintf(":%d", cfg.Server.Port))
}

// NewRouter builds the gin engine with every route registered. Renderer
// settings that are not per request come from cfg.
func NewRouter(cfg config.Config, logger *log.Logger) *gin.Engine {
	if logger == nil {
		logger = log.Default()
	}
	s := &server{cfg: cfg, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/renderers", listRenderers)
		v1.POST("/render/:renderer", s.handleRender)
		v1.POST("/export", s.handleExport)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"took", time.Since(start))
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "midiretime",
	})
}

// listRenderers godoc
// @Summary List renderers and clocks
// @Description Returns the renderers and clock strategies a render request may name
// @Tags info
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/renderers [get]
func listRenderers(c *gin.Context) {
	var renderers []gin.H
	for _, name := range render.Names() {
		r, _ := render.New(name, config.Default())
		renderers = append(renderers, gin.H{
			"name":        r.Name(),
			"description": r.Description(),
			"extension":   r.Extension(),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"renderers": renderers,
		"clocks":    clock.Strategies(),
	})
}

// handleRender godoc
// @Summary Render a MIDI file
// @Description Upload a MIDI file and receive the named rendering as text
// @Tags render
// @Accept multipart/form-data
// @Produce text/plain
// @Param renderer path string true "dump, beatmap or synth"
// @Param file formData file true "MIDI file to render"
// @Param clock query string false "Clock strategy (default from config)"
// @Success 200 {string} string
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/render/{renderer} [post]
func (s *server) handleRender(c *gin.Context) {
	r, err := render.New(c.Param("renderer"), s.cfg)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	strategy := c.DefaultQuery("clock", s.cfg.Clock)
	if !validClock(strategy) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown clock strategy %q", strategy)})
		return
	}

	data, name, ok := upload(c)
	if !ok {
		return
	}

	conv := converter.New(r, converter.WithClock(strategy), converter.WithLogger(s.logger))
	out, err := conv.RenderBytes(data)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", outputName(name, r.Extension())))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", out)
}

// handleExport godoc
// @Summary Re-encode a MIDI file
// @Description Upload a MIDI file and receive it re-encoded with one EndOfTrack per track
// @Tags render
// @Accept multipart/form-data
// @Produce audio/midi
// @Param file formData file true "MIDI file to export"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/export [post]
func (s *server) handleExport(c *gin.Context) {
	data, name, ok := upload(c)
	if !ok {
		return
	}

	conv := converter.New(render.Dump{}, converter.WithLogger(s.logger))
	out, err := conv.Export(data)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", outputName(name, ".mid")))
	c.Data(http.StatusOK, "audio/midi", out)
}

// upload reads the multipart "file" field. It writes the error response
// itself and reports ok=false when there is nothing to work with.
func upload(c *gin.Context) (data []byte, name string, ok bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	data, err = io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return nil, "", false
	}
	return data, header.Filename, true
}

func (s *server) fail(c *gin.Context, err error) {
	var fe *midifile.FormatError
	if errors.As(err, &fe) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  fe.Error(),
			"track":  fe.Track,
			"offset": fe.Offset,
		})
		return
	}
	s.logger.Error("request failed", "path", c.Request.URL.Path, "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func validClock(strategy string) bool {
	if strategy == "" {
		return true
	}
	for _, name := range clock.Strategies() {
		if strings.EqualFold(name, strategy) {
			return true
		}
	}
	return false
}

func outputName(upload, ext string) string {
	base := strings.TrimSuffix(filepath.Base(upload), filepath.Ext(upload))
	if base == "" || base == "." {
		base = "converted"
	}
	return base + ext
}
