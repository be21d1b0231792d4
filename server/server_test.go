package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"copyscan/internal/models"
	"copyscan/pipeline"
	"copyscan/shared/monitoring"
	"copyscan/youtube"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAnalyzer struct {
	report *models.Report
	err    error
	calls  int
}

func (s *stubAnalyzer) Analyze(ctx context.Context, userName, channelName string) (*models.Report, error) {
	s.calls++
	return s.report, s.err
}

func postAnalyze(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAnalyzeValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"Missing userName", `{"userName":"","channelName":"ArtistOfficial"}`},
		{"Missing channelName", `{"userName":"Artist"}`},
		{"Whitespace only", `{"userName":"  ","channelName":"ArtistOfficial"}`},
		{"Not JSON", `not json at all`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &stubAnalyzer{}
			srv := New(analyzer, monitoring.NewMonitor(), "")

			rec := postAnalyze(t, srv, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decodeError(t, rec)["error"])
			assert.Zero(t, analyzer.calls, "no pipeline work for an invalid request")
		})
	}
}

func TestAnalyzeNoResults(t *testing.T) {
	analyzer := &stubAnalyzer{err: youtube.ErrNoResults}
	srv := New(analyzer, monitoring.NewMonitor(), "")

	rec := postAnalyze(t, srv, `{"userName":"Artist","channelName":"ArtistOfficial"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No videos found for this channel", decodeError(t, rec)["error"])
}

func TestAnalyzeUpstreamSearchFailure(t *testing.T) {
	analyzer := &stubAnalyzer{err: &youtube.UpstreamError{Status: 403, Message: "quota exceeded"}}
	srv := New(analyzer, monitoring.NewMonitor(), "")

	rec := postAnalyze(t, srv, `{"userName":"Artist","channelName":"ArtistOfficial"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "quota exceeded", decodeError(t, rec)["error"])
}

func TestAnalyzeUnexpectedFailure(t *testing.T) {
	analyzer := &stubAnalyzer{err: errors.New("boom")}
	monitor := monitoring.NewMonitor()
	srv := New(analyzer, monitor, "")

	rec := postAnalyze(t, srv, `{"userName":"Artist","channelName":"ArtistOfficial"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.NotEmpty(t, body["error"])
	assert.Equal(t, "boom", body["details"])
	assert.False(t, monitor.IsHealthy())
}

func TestAnalyzeMockModeEndToEnd(t *testing.T) {
	srv := New(pipeline.NewMockGenerator(pipeline.Options{}), monitoring.NewMonitor(), "")

	rec := postAnalyze(t, srv, `{"userName":"Artist","channelName":"ArtistOfficial"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var report models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	assert.Equal(t, 100, report.TotalVideosFound)
	assert.Equal(t, 10, report.BatchesAnalyzed)
	assert.Equal(t, 0, report.BatchesFailed)
	for _, entry := range report.Analysis.RankedList {
		assert.True(t, entry.Risk.Valid(), "entry %s has risk %q", entry.VideoID, entry.Risk)
	}
}

func TestAnalyzeSurfacesPartialDegradation(t *testing.T) {
	report := &models.Report{
		UserName:         "Artist",
		ChannelName:      "ArtistOfficial",
		TotalVideosFound: 50,
		BatchesAnalyzed:  5,
		BatchesFailed:    2,
		FailedBatchDetails: []models.FailedBatchDetail{
			{BatchNumber: 2, Error: "model unavailable", BatchSize: 10},
			{BatchNumber: 4, Error: "model unavailable", BatchSize: 10},
		},
		Analysis: models.FinalAnalysis{BatchCount: 5, FailedBatches: 2},
	}
	monitor := monitoring.NewMonitor()
	srv := New(&stubAnalyzer{report: report}, monitor, "")

	rec := postAnalyze(t, srv, `{"userName":"Artist","channelName":"ArtistOfficial"}`)

	// Degraded analysis is still a 200; callers detect it via batchesFailed.
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2, got.BatchesFailed)
	assert.Len(t, got.FailedBatchDetails, 2)
	assert.True(t, monitor.IsHealthy())
}

func TestHealthEndpoints(t *testing.T) {
	monitor := monitoring.NewMonitor()
	srv := New(&stubAnalyzer{}, monitor, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	monitor.RecordCriticalFailure(errors.New("boom"), 0)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
