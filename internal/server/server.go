package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sentinelpharma/grounder/internal/model"
	"github.com/sentinelpharma/grounder/internal/pipeline"
)

// Server exposes the analysis pipeline over HTTP. The pipeline holds no
// per-request state, so one instance serves all requests.
type Server struct {
	pipeline *pipeline.Pipeline
	config   *model.Config
}

// NewServer creates an HTTP server around a pipeline
func NewServer(p *pipeline.Pipeline, cfg *model.Config) *Server {
	return &Server{pipeline: p, config: cfg}
}

// SetupRouter builds the gin router
func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.POST("/analyze", s.Analyze)
	r.GET("/healthz", s.Health)

	return r
}

// AnalyzeRequest is the body of POST /analyze
type AnalyzeRequest struct {
	Molecule string `json:"molecule"`
	Profile  string `json:"profile"`
	Strict   *bool  `json:"strict"`
}

// Analyze runs one analysis and returns the full report
func (s *Server) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Molecule == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "molecule is required"})
		return
	}

	profile, err := pipeline.ParseProfile(req.Profile)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Per-request strict override without touching the shared pipeline
	p := s.pipeline
	if req.Strict != nil && *req.Strict != s.config.Strict {
		cfg := *s.config
		cfg.Strict = *req.Strict
		p = pipeline.NewPipeline(&cfg)
	}

	report, err := p.AnalyzeProfile(c.Request.Context(), req.Molecule, profile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// Health reports liveness
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Run starts the server on the configured address
func (s *Server) Run() error {
	return s.SetupRouter().Run(s.config.Server.Addr)
}
