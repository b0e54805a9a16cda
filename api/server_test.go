package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-coach/analysis"
	"github.com/RyanBlaney/sonido-coach/config"
	"github.com/RyanBlaney/sonido-coach/logging"
)

func TestMain(m *testing.M) {
	logging.SetGlobalLogger(nil)
	os.Exit(m.Run())
}

type recordingAnalyzer struct {
	mu    sync.Mutex
	data  []byte
	level analysis.AnalysisLevel
}

func (r *recordingAnalyzer) AnalyzeBytes(ctx context.Context, data []byte, level analysis.AnalysisLevel) *analysis.AnalysisResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = data
	r.level = level

	result := analysis.NewResult(level, 1.5)
	result.Feedback = "ok"
	return result
}

func multipartBody(t *testing.T, field string, content []byte, level string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if field != "" {
		part, err := w.CreateFormFile(field, "speech.wav")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if level != "" {
		require.NoError(t, w.WriteField("level", level))
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func postAnalyze(t *testing.T, h http.Handler, field string, content []byte, level string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, field, content, level)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := NewServer(config.Default(), &recordingAnalyzer{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
	assert.NoError(t, err)
}

func TestRequestIDIsKept(t *testing.T) {
	srv := NewServer(config.Default(), &recordingAnalyzer{})
	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", id)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, id, rec.Header().Get("X-Request-ID"))
}

func TestAnalyzeMissingAudio(t *testing.T) {
	fake := &recordingAnalyzer{}
	srv := NewServer(config.Default(), fake)

	rec := postAnalyze(t, srv.Handler(), "", nil, "basic")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"No audio file provided"}`, rec.Body.String())
	assert.Nil(t, fake.data)

	rec = postAnalyze(t, srv.Handler(), "recording", []byte("RIFF"), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeLevels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		expected analysis.AnalysisLevel
	}{
		{"omitted_defaults_to_detailed", "", analysis.LevelDetailed},
		{"basic", "basic", analysis.LevelBasic},
		{"advanced_mixed_case", "Advanced", analysis.LevelAdvanced},
		{"unknown_falls_back", "expert", analysis.LevelDetailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &recordingAnalyzer{}
			srv := NewServer(config.Default(), fake)

			rec := postAnalyze(t, srv.Handler(), "audio", []byte("audio-bytes"), tt.level)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.expected, fake.level)
			assert.Equal(t, []byte("audio-bytes"), fake.data)

			var doc map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
			assert.Equal(t, string(tt.expected), doc["level"])
			assert.Equal(t, "ok", doc["feedback"])
		})
	}
}

func TestAnalyzeUploadTooLarge(t *testing.T) {
	cfg := config.Default()
	cfg.Server.MaxUploadBytes = 8
	fake := &recordingAnalyzer{}
	srv := NewServer(cfg, fake)

	rec := postAnalyze(t, srv.Handler(), "audio", bytes.Repeat([]byte{1}, 64), "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Nil(t, fake.data)
}

func TestAnalyzePreflight(t *testing.T) {
	srv := NewServer(config.Default(), &recordingAnalyzer{})

	req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	req.Header.Set("Origin", "http://127.0.0.1:8000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://127.0.0.1:8000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/analyze", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAnalyzeEmptyUploadWithRealAnalyzer(t *testing.T) {
	srv := NewServer(config.Default(), analysis.NewAnalyzer(analysis.Options{}))

	rec := postAnalyze(t, srv.Handler(), "audio", []byte{}, "advanced")
	require.Equal(t, http.StatusOK, rec.Code)

	var result analysis.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, analysis.FeedbackDecodeFailed, result.Feedback)
	assert.Zero(t, result.Duration)
	assert.Equal(t, analysis.LabelNA, result.PitchVariation)
	assert.Equal(t, analysis.AnalysisLevel("advanced"), result.Level)
}
