package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yourname/snusquit/internal/response"
	"github.com/yourname/snusquit/internal/service"
)

func PostPlan(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := storeOrAbort(c, app)
		if store == nil {
			return
		}

		var body service.CreatePlanRequest
		if !bindJSON(c, app, &body) {
			return
		}
		plan, err := service.ValidateCreatePlanRequest(&body)
		if err != nil {
			HandleError(c, app.Logger(), err, "Validation failed")
			return
		}

		id, err := service.CreatePlan(c.Request.Context(), store, plan)
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to create plan")
			return
		}
		HandleSuccess(c, app.Logger(), response.Created{ID: id})
	}
}

// GetPlan answers with the latest plan, or JSON null when the user has none.
func GetPlan(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := storeOrAbort(c, app)
		if store == nil {
			return
		}
		plan, err := service.CurrentPlan(c.Request.Context(), store, c.Param("user_id"))
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to fetch plan")
			return
		}
		HandleSuccess(c, app.Logger(), plan)
	}
}
