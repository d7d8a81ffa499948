package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yourname/snusquit/internal/config"
	"github.com/yourname/snusquit/internal/response"
)

func Root() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, response.Message{Message: "SnusQuit Backend is running"})
	}
}

func Hello() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, response.Message{Message: "Hello from the backend API!"})
	}
}

func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, response.Status{Status: "ok"})
	}
}

// Diagnostics reports whether a store is configured and answering.
func Diagnostics(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := response.Diagnostics{
			Backend:          "Running",
			Database:         "Not Available",
			ConnectionStatus: "Not Connected",
			Collections:      []string{},
		}

		store := app.Store()
		if store == nil {
			resp.Database = "Available but not initialized"
			c.JSON(200, resp)
			return
		}

		urlState := "Not Set"
		if cfg := app.Config(); cfg != nil && (cfg.DBType != config.BackendMongo || cfg.MongoURI != "") {
			urlState = "Set"
		}
		name, backend := store.Database(), store.Name()
		resp.Database = "Available"
		resp.DatabaseURL = &urlState
		resp.DatabaseName = &name
		resp.StorageBackend = &backend

		ctx := c.Request.Context()
		if err := store.Ping(ctx); err != nil {
			app.Logger().Warnf("[request_id=%s] diagnostics ping: %v", c.GetString("request_id"), err)
			resp.Database = "Connected but Error"
			c.JSON(200, resp)
			return
		}
		resp.ConnectionStatus = "Connected"

		names, err := store.Collections(ctx)
		if err != nil {
			app.Logger().Warnf("[request_id=%s] diagnostics collections: %v", c.GetString("request_id"), err)
			resp.Database = "Connected but Error"
			c.JSON(200, resp)
			return
		}
		if len(names) > 10 {
			names = names[:10]
		}
		resp.Collections = names
		resp.Database = "Connected & Working"
		c.JSON(200, resp)
	}
}
