package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cosiris15/contract-review/pkg/session"
	"github.com/cosiris15/contract-review/pkg/upload"
)

// errorDetail is the JSON body of every 4xx/5xx response.
type errorDetail struct {
	Detail string `json:"detail"`
}

// writeError maps a package-level sentinel error to an HTTP status and
// writes the {"detail": ...} body. Unrecognized errors are logged and
// surfaced as 500 without leaking internals to the client.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errTaskNotFound), errors.Is(err, session.ErrNotFound), errors.Is(err, upload.ErrNotFound), errors.Is(err, upload.ErrObjectNotFound):
		c.JSON(http.StatusNotFound, errorDetail{Detail: err.Error()})
	case errors.Is(err, upload.ErrRetryNotAllowed):
		c.JSON(http.StatusBadRequest, errorDetail{Detail: err.Error()})
	default:
		slog.Error("api: unexpected error", "error", err)
		c.JSON(http.StatusInternalServerError, errorDetail{Detail: "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorDetail{Detail: msg})
}

func notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, errorDetail{Detail: msg})
}

func conflict(c *gin.Context, msg string) {
	c.JSON(http.StatusConflict, errorDetail{Detail: msg})
}
