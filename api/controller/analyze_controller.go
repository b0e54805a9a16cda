package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/RyanBlaney/sonido-coach/analysis"
	"github.com/RyanBlaney/sonido-coach/logging"
)

var errUploadTooLarge = errors.New("upload exceeds size limit")

// Analyzer is the part of analysis.Analyzer the controller needs
type Analyzer interface {
	AnalyzeBytes(ctx context.Context, data []byte, level analysis.AnalysisLevel) *analysis.AnalysisResult
}

type AnalyzeController struct {
	Analyzer       Analyzer
	Timeout        time.Duration
	MaxUploadBytes int64
	DefaultLevel   analysis.AnalysisLevel
}

func NewAnalyzeController(a Analyzer, timeout time.Duration, maxUploadBytes int64, defaultLevel analysis.AnalysisLevel) *AnalyzeController {
	if defaultLevel == "" {
		defaultLevel = analysis.LevelDetailed
	}
	return &AnalyzeController{
		Analyzer:       a,
		Timeout:        timeout,
		MaxUploadBytes: maxUploadBytes,
		DefaultLevel:   defaultLevel,
	}
}

// AnalyzeHandler accepts a multipart upload with an "audio" file and an
// optional "level" field and responds with the analysis document. Audio that
// cannot be decoded still gets a 200 with the decode-failure result.
func (c *AnalyzeController) AnalyzeHandler(ctx *gin.Context) {
	logger := logging.WithContext(ctx.Request.Context()).WithFields(logging.Fields{
		"component": "analyze_controller",
		"function":  "AnalyzeHandler",
	})

	header, err := ctx.FormFile("audio")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No audio file provided"})
		return
	}

	data, err := c.readUpload(header.Size, func() (io.ReadCloser, error) { return header.Open() })
	if err != nil {
		if errors.Is(err, errUploadTooLarge) {
			ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Audio file too large"})
			return
		}
		_ = ctx.Error(err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read audio file"})
		return
	}

	level := c.DefaultLevel
	if raw, present := ctx.GetPostForm("level"); present && raw != "" {
		parsed, ok := analysis.ParseLevel(raw)
		if !ok {
			logger.Warn("Unknown analysis level, using detailed", logging.Fields{"level": raw})
		}
		level = parsed
	}

	fields := logging.Fields{
		"filename": header.Filename,
		"bytes":    len(data),
		"level":    string(level),
	}
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		fields["mime"] = kind.MIME.Value
		if !filetype.IsAudio(data) && !filetype.IsVideo(data) {
			logger.Warn("Upload does not look like audio", fields)
		}
	}
	logger.Info("Analyzing upload", fields)

	reqCtx := ctx.Request.Context()
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(reqCtx, c.Timeout)
		defer cancel()
	}

	ctx.JSON(http.StatusOK, c.Analyzer.AnalyzeBytes(reqCtx, data, level))
}

func (c *AnalyzeController) readUpload(size int64, open func() (io.ReadCloser, error)) ([]byte, error) {
	if c.MaxUploadBytes > 0 && size > c.MaxUploadBytes {
		return nil, errUploadTooLarge
	}

	f, err := open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if c.MaxUploadBytes > 0 {
		r = io.LimitReader(f, c.MaxUploadBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if c.MaxUploadBytes > 0 && int64(len(data)) > c.MaxUploadBytes {
		return nil, errUploadTooLarge
	}
	return data, nil
}

// HealthHandler reports liveness
func HealthHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func NoContentHandler(ctx *gin.Context) {
	ctx.Status(http.StatusNoContent)
}
