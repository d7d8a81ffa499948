package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yourname/snusquit/internal/response"
	"github.com/yourname/snusquit/internal/service"
)

// PostCheckin creates or replaces the check-in for (user_id, date).
func PostCheckin(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := storeOrAbort(c, app)
		if store == nil {
			return
		}

		var body service.CheckinRequest
		if !bindJSON(c, app, &body) {
			return
		}
		checkin, err := service.ValidateCheckinRequest(&body)
		if err != nil {
			HandleError(c, app.Logger(), err, "Validation failed")
			return
		}

		id, err := service.SaveCheckin(c.Request.Context(), store, checkin)
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to save check-in")
			return
		}
		HandleSuccess(c, app.Logger(), response.Created{ID: id})
	}
}

func GetCheckins(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := storeOrAbort(c, app)
		if store == nil {
			return
		}
		limit, err := service.ParseLimit(c.Query("limit"))
		if err != nil {
			HandleError(c, app.Logger(), err, "Invalid limit")
			return
		}

		checkins, err := service.ListCheckins(c.Request.Context(), store, c.Param("user_id"), limit)
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to fetch check-ins")
			return
		}
		HandleSuccess(c, app.Logger(), checkins)
	}
}
