package route

import (
	"github.com/gin-gonic/gin"

	"github.com/RyanBlaney/sonido-coach/analysis"
	"github.com/RyanBlaney/sonido-coach/api/controller"
	"github.com/RyanBlaney/sonido-coach/config"
)

func NewAnalyzeRouter(cfg *config.Config, analyzer controller.Analyzer, group *gin.RouterGroup) {
	level, _ := analysis.ParseLevel(cfg.Analysis.DefaultLevel)
	ctrl := controller.NewAnalyzeController(analyzer, cfg.Server.RequestTimeout, cfg.Server.MaxUploadBytes, level)

	group.POST("/analyze", ctrl.AnalyzeHandler)
	// preflights from allowed origins are answered by the cors middleware
	group.OPTIONS("/analyze", controller.NoContentHandler)
}
