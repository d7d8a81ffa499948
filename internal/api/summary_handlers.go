package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/yourname/snusquit/internal"
	"github.com/yourname/snusquit/internal/service"
)

func GetSummary(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := storeOrAbort(c, app)
		if store == nil {
			return
		}
		summary, err := service.GetSummary(c.Request.Context(), store, c.Param("user_id"), app.Now())
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to build summary")
			return
		}
		HandleSuccess(c, app.Logger(), summary)
	}
}

// GetTips serves stored tips, seeding the defaults on first use. Without a
// reachable store it serves the fallback list instead of an error.
func GetTips(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := app.Store()
		if store == nil {
			HandleSuccess(c, app.Logger(), service.FallbackTips)
			return
		}
		tips, err := service.ListTips(c.Request.Context(), store)
		if errors.Is(err, internal.ErrStoreUnavailable) {
			app.Logger().Warnf("[request_id=%s] serving fallback tips: %v", c.GetString("request_id"), err)
			HandleSuccess(c, app.Logger(), service.FallbackTips)
			return
		}
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to fetch tips")
			return
		}
		HandleSuccess(c, app.Logger(), tips)
	}
}
