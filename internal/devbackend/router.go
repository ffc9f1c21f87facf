// Package devbackend is a local stand-in for the field backend. It speaks the
// same {success, data, message} envelope and serves seeded data from memory.
package devbackend

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func NewRouter(store *Store, tokens *Tokens) *gin.Engine {
	h := &handler{store: store, tokens: tokens}

	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	api.POST("/auth/login", h.login)

	authed := api.Group("")
	authed.Use(requireAuth(tokens))
	authed.GET("/users/planning", h.planning)
	authed.GET("/users/:id", h.user)
	authed.POST("/plannings/executions", h.createExecution)

	engine.NoRoute(func(c *gin.Context) {
		writeError(c, errNotFound("Route not found"))
	})

	return engine
}
