package ginserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"rentpricing/internal/domain/shared/daterange"
	"rentpricing/internal/domain/shared/errs"
	"rentpricing/internal/domain/shared/scope"
)

const (
	ownerHeader       = "X-Owner-Id"
	idempotencyHeader = "Idempotency-Key"
)

// statusFor maps error kinds onto HTTP statuses; anything unclassified is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type responder struct {
	logger *slog.Logger
	what   string
}

func (r responder) fail(c *gin.Context, err error) {
	r.respondWithError(c, statusFor(err), err)
}

func (r responder) respondWithError(c *gin.Context, status int, err error) {
	if r.logger != nil {
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		r.logger.Log(c.Request.Context(), level, r.what+" request failed",
			"status", status, "error", err, "path", c.FullPath(), "request_id", c.GetString("request_id"))
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg})
}

// ownerScope reads X-Owner-Id. An absent header means the unscoped admin view.
func ownerScope(c *gin.Context) (scope.Owner, error) {
	raw := strings.TrimSpace(c.GetHeader(ownerHeader))
	if raw == "" {
		return scope.Any(), nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return scope.Owner{}, errs.Invalid("%s must be a positive integer", ownerHeader)
	}
	return scope.For(id), nil
}

func idempotencyKey(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(idempotencyHeader))
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Invalid("%s must be a positive integer", name)
	}
	return id, nil
}

func queryDay(c *gin.Context, name string, required bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		if required {
			return nil, errs.Invalid("%s is required", name)
		}
		return nil, nil
	}
	day, err := daterange.ParseDay(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidInput, err)
	}
	return &day, nil
}

func bindJSON(c *gin.Context, out any) error {
	if err := c.ShouldBindJSON(out); err != nil {
		return errs.Invalid("malformed request body: %v", err)
	}
	return nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
