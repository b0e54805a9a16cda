package route

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/RyanBlaney/sonido-coach/api/controller"
	"github.com/RyanBlaney/sonido-coach/api/middleware"
	"github.com/RyanBlaney/sonido-coach/config"
)

// Setup installs middleware and every route on engine
func Setup(cfg *config.Config, analyzer controller.Analyzer, engine *gin.Engine) {
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.AccessLog())
	engine.Use(cors.New(corsConfig(cfg.Server.CORSOrigins)))

	engine.GET("/health", controller.HealthHandler)

	NewAnalyzeRouter(cfg, analyzer, engine.Group(""))
}

func corsConfig(origins []string) cors.Config {
	conf := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			conf.AllowAllOrigins = true
			conf.AllowCredentials = false
			return conf
		}
	}
	conf.AllowOrigins = origins
	return conf
}
