// Package api — HTTP и WebSocket поверхность движка.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

// Options — настройки роутера.
type Options struct {
	// JWTSecret включает проверку bearer-токенов на /api/v1, если не пуст.
	JWTSecret          string
	CORSAllowedOrigins []string
	Debug              bool
}

// NewRouter собирает gin-роутер со всеми маршрутами, логированием, CORS и
// метриками на /metrics.
func NewRouter(h *Handler, opts Options, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(RequestID())
	router.Use(ZapLogger(logger.Named("HTTP")))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = opts.CORSAllowedOrigins
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", requestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	v1 := router.Group("/api/v1")
	if opts.JWTSecret != "" {
		v1.Use(JWTAuth(opts.JWTSecret))
	}
	h.upgrader.CheckOrigin = originChecker(corsConfig.AllowOrigins)
	h.RegisterRoutes(v1)

	return router
}
