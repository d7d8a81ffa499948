package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourname/snusquit/internal"
	"github.com/yourname/snusquit/internal/response"
	"github.com/yourname/snusquit/internal/storage"
)

// HandleError logs err with the request id and writes the client-safe
// message for its status.
func HandleError(c *gin.Context, logger internal.Logger, err error, msg string) {
	status := internal.StatusFor(err)
	requestID := c.GetString("request_id")
	if status >= http.StatusInternalServerError {
		logger.Errorf("[request_id=%s] %s: %v", requestID, msg, err)
	} else {
		logger.Warnf("[request_id=%s] %s: %v", requestID, msg, err)
	}
	c.AbortWithStatusJSON(status, errorEnvelope(status, internal.PublicMessage(err)))
}

func errorEnvelope(status int, msg string) response.ErrorBody {
	switch status {
	case http.StatusBadRequest:
		return response.BadRequest(msg)
	case http.StatusNotFound:
		return response.NotFound(msg)
	case http.StatusInternalServerError:
		return response.InternalError(msg)
	default:
		return response.Error(status, msg)
	}
}

func HandleSuccess(c *gin.Context, logger internal.Logger, data interface{}) {
	requestID := c.GetString("request_id")
	logger.Debugf("[request_id=%s] Success", requestID)
	c.JSON(http.StatusOK, data)
}

// storeOrAbort returns the configured store, or answers 503 and returns nil.
func storeOrAbort(c *gin.Context, app App) storage.Store {
	s := app.Store()
	if s == nil {
		HandleError(c, app.Logger(), internal.ErrStoreUnavailable, "Store not initialized")
		return nil
	}
	return s
}

func bindJSON(c *gin.Context, app App, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		app.Logger().Debugf("[request_id=%s] bind %s: %v", c.GetString("request_id"), c.FullPath(), err)
		HandleError(c, app.Logger(), &internal.UserError{Kind: internal.ErrValidation, Message: "Invalid JSON body"}, "Invalid JSON")
		return false
	}
	return true
}
