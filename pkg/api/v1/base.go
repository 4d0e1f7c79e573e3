package apiv1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/beam-cloud/mailsync/pkg/auth"
	"github.com/beam-cloud/mailsync/pkg/mailbox"
	"github.com/beam-cloud/mailsync/pkg/syncer"
	"github.com/beam-cloud/mailsync/pkg/types"
)

const (
	HttpServerBaseRoute string = "/api/v1"
	HttpServerRootRoute string = ""
)

// Response is a standard API response structure
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SyncResponse is returned by the single-account sync endpoints
type SyncResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// SweepResponse is returned by the sweep endpoint
type SweepResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Results []types.SweepResult `json:"results"`
}

// SuccessResponse returns a successful response
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// CreatedResponse returns a successful response for a new resource
func CreatedResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// ErrorResponse returns an error response
func ErrorResponse(c echo.Context, code int, message string) error {
	return c.JSON(code, Response{
		Success: false,
		Error:   message,
	})
}

// StatusFor maps an error to its HTTP status class
func StatusFor(err error) int {
	var (
		notRetryable *types.ErrJobNotRetryable
		notClaimable *types.ErrJobNotClaimable
		unsupported  *types.ErrCapabilityUnsupported
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, auth.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden), errors.Is(err, auth.ErrAdminRequired):
		return http.StatusForbidden
	case types.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, types.ErrSweepInProgress),
		errors.As(err, &notRetryable),
		errors.As(err, &notClaimable):
		return http.StatusConflict
	case errors.Is(err, syncer.ErrNoIMAPCredentials):
		return http.StatusBadRequest
	case errors.As(err, &unsupported):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// HandleError writes err with its mapped status. Server errors are logged.
func HandleError(c echo.Context, err error) error {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return ErrorResponse(c, status, err.Error())
}

// validationStatus is used where a connection failure is the caller's input problem
func validationStatus(err error) int {
	if mailbox.IsConnectionError(err) {
		return http.StatusUnprocessableEntity
	}
	return StatusFor(err)
}
