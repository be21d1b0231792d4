package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"copyscan/pipeline"
	"copyscan/shared/monitoring"
	"copyscan/youtube"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server owns the HTTP surface: the analyze endpoint, health/status, metrics
// and the static entry page.
type Server struct {
	analyzer pipeline.Analyzer
	monitor  *monitoring.Monitor
	router   *gin.Engine
}

type analyzeRequest struct {
	UserName    string `json:"userName"`
	ChannelName string `json:"channelName"`
}

func New(analyzer pipeline.Analyzer, monitor *monitoring.Monitor, staticDir string) *Server {
	s := &Server{
		analyzer: analyzer,
		monitor:  monitor,
		router:   gin.Default(),
	}

	s.router.POST("/analyze", s.handleAnalyze)
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/status", s.handleStatus)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if staticDir != "" {
		s.router.StaticFile("/", filepath.Join(staticDir, "index.html"))
	}

	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(port int) error {
	return s.router.Run(fmt.Sprintf(":%d", port))
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "request body must be JSON with userName and channelName",
		})
		return
	}

	req.UserName = strings.TrimSpace(req.UserName)
	req.ChannelName = strings.TrimSpace(req.ChannelName)
	if req.UserName == "" || req.ChannelName == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "userName and channelName are required",
		})
		return
	}

	start := time.Now()
	report, err := s.analyzer.Analyze(c.Request.Context(), req.UserName, req.ChannelName)
	duration := time.Since(start)

	if err != nil {
		s.recordFailure(err, duration)

		if errors.Is(err, youtube.ErrNoResults) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "No videos found for this channel",
			})
			return
		}

		var upstream *youtube.UpstreamError
		if errors.As(err, &upstream) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": upstream.Message,
			})
			return
		}

		log.Printf("Analyze request for %q / %q failed unexpectedly: %v", req.UserName, req.ChannelName, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "analysis failed",
			"details": err.Error(),
		})
		return
	}

	s.recordSuccess(report.TotalVideosFound, report.BatchesAnalyzed, report.BatchesFailed, duration)
	c.JSON(http.StatusOK, report)
}

func (s *Server) recordSuccess(videos, batches, failedBatches int, duration time.Duration) {
	result := "ok"
	if failedBatches > 0 {
		result = "degraded"
		s.monitor.RecordPartialFailure(fmt.Errorf("%d of %d batches failed", failedBatches, batches), duration)
	}

	monitoring.AnalyzeRequestsTotal.WithLabelValues(result).Inc()
	monitoring.AnalyzeDurationSeconds.WithLabelValues(result).Observe(duration.Seconds())
	monitoring.VideosFetchedTotal.Add(float64(videos))
	monitoring.BatchesFailedTotal.Add(float64(failedBatches))

	summary := fmt.Sprintf("found %d videos, analyzed %d batches, %d failed", videos, batches, failedBatches)
	s.monitor.RecordSuccess(summary, duration)
}

func (s *Server) recordFailure(err error, duration time.Duration) {
	result := "error"
	if errors.Is(err, youtube.ErrNoResults) {
		result = "no_results"
	}

	monitoring.AnalyzeRequestsTotal.WithLabelValues(result).Inc()
	monitoring.AnalyzeDurationSeconds.WithLabelValues(result).Observe(duration.Seconds())

	if result == "error" {
		s.monitor.RecordCriticalFailure(err, duration)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.monitor.IsHealthy() {
		c.String(http.StatusOK, "OK - %s", s.monitor.GetStatusSummary())
		return
	}
	c.String(http.StatusServiceUnavailable, "Service unhealthy - %s", s.monitor.GetStatusSummary())
}

func (s *Server) handleStatus(c *gin.Context) {
	c.String(http.StatusOK, "%s", s.monitor.GetStatusSummary())
}
