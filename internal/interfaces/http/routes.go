package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter builds an engine with the request logger, panic recovery and
// every route registered.
func NewRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(), Recovery(handler.production))
	SetupRoutes(router, handler)
	return router
}

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.GET("/trades", handler.ListTrades)
		api.GET("/trades/:id", handler.GetTrade)
		api.POST("/trades", handler.CreateTrade)
		api.PUT("/trades/:id", handler.UpdateTrade)
		api.DELETE("/trades/:id", handler.DeleteTrade)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, fmt.Sprintf("Cannot %s %s", c.Request.Method, c.Request.URL.Path))
	})
}
