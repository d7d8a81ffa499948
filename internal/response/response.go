package response

import "github.com/yourname/snusquit/internal"

// ErrorBody is the envelope for every non-2xx response.
type ErrorBody struct {
	Error *internal.AppError `json:"error"`
}

type Created struct {
	ID string `json:"id"`
}

type Message struct {
	Message string `json:"message"`
}

type Status struct {
	Status string `json:"status"`
}

// Diagnostics is the body of GET /test.
type Diagnostics struct {
	Backend          string   `json:"backend"`
	Database         string   `json:"database"`
	DatabaseURL      *string  `json:"database_url"`
	DatabaseName     *string  `json:"database_name"`
	StorageBackend   *string  `json:"storage_backend"`
	ConnectionStatus string   `json:"connection_status"`
	Collections      []string `json:"collections"`
}

func Error(status int, msg string) ErrorBody {
	return ErrorBody{Error: internal.NewAppError(status, msg)}
}

func BadRequest(msg string) ErrorBody {
	return Error(400, msg)
}

func NotFound(msg string) ErrorBody {
	return Error(404, msg)
}

func InternalError(msg string) ErrorBody {
	return Error(500, msg)
}
