package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(app App) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogger(app.Logger()))
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	timeout := 5 * time.Second
	if cfg := app.Config(); cfg != nil && cfg.StoreTimeout > 0 {
		timeout = cfg.StoreTimeout
	}

	router.GET("/", Root())
	router.GET("/health", Health())
	router.GET("/test", StoreTimeout(timeout), Diagnostics(app))

	apiGroup := router.Group("/api")
	apiGroup.Use(StoreTimeout(timeout))
	apiGroup.GET("/hello", Hello())
	apiGroup.POST("/users", PostUser(app))
	apiGroup.POST("/plans", PostPlan(app))
	apiGroup.GET("/plan/:user_id", GetPlan(app))
	apiGroup.POST("/checkins", PostCheckin(app))
	apiGroup.GET("/checkins/:user_id", GetCheckins(app))
	apiGroup.GET("/summary/:user_id", GetSummary(app))
	apiGroup.GET("/tips", GetTips(app))

	return router
}
