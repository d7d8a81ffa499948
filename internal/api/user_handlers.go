package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yourname/snusquit/internal/response"
	"github.com/yourname/snusquit/internal/service"
)

func PostUser(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := storeOrAbort(c, app)
		if store == nil {
			return
		}

		var body service.CreateUserRequest
		if !bindJSON(c, app, &body) {
			return
		}
		user, err := service.ValidateCreateUserRequest(&body)
		if err != nil {
			HandleError(c, app.Logger(), err, "Validation failed")
			return
		}

		id, err := service.CreateUser(c.Request.Context(), store, user)
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to create user")
			return
		}
		HandleSuccess(c, app.Logger(), response.Created{ID: id})
	}
}
