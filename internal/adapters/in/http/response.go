package http

import (
	"errors"
	"log/slog"
	"net/http"

	"backoffice/internal/core/application/usecases/commands"
	"backoffice/internal/core/domain/model/order"
	"backoffice/internal/core/domain/model/webhook"
	"backoffice/internal/core/ports"
	"backoffice/internal/pkg/errs"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeUpstream     = "UPSTREAM_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
)

// Envelope wraps every JSON answer.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

func fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, Envelope{Success: false, Error: &ErrorBody{Message: message, Code: code}})
}

// classify maps an application error to its status and public code.
// Unexpected errors never leak their message.
func classify(err error) (int, string, string) {
	var httpErr *echo.HTTPError
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code, codeForStatus(httpErr.Code), messageOf(httpErr)
	case errors.As(err, &validationErrs):
		return http.StatusBadRequest, CodeValidation, validationErrs.Error()
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound, CodeNotFound, err.Error()
	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return http.StatusBadRequest, CodeValidation, err.Error()
	case errors.Is(err, ports.ErrDuplicate),
		errors.Is(err, ports.ErrConcurrentUpdate),
		errors.Is(err, ports.ErrShippingAccountMismatch),
		errors.Is(err, order.ErrShippingAccountIsImmutable),
		errors.Is(err, webhook.ErrEventNotRetryable),
		errors.Is(err, commands.ErrShippingAccountInactive),
		errors.Is(err, commands.ErrProviderNotBulkCapable):
		return http.StatusConflict, CodeConflict, err.Error()
	case errors.Is(err, ports.ErrRateLimited):
		return http.StatusBadGateway, CodeUpstream, "delivery provider is rate limiting requests"
	default:
		return http.StatusInternalServerError, CodeInternal, "internal server error"
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusTooManyRequests:
		return CodeRateLimited
	case http.StatusBadGateway:
		return CodeUpstream
	}
	return CodeInternal
}

func messageOf(e *echo.HTTPError) string {
	if msg, isString := e.Message.(string); isString {
		return msg
	}
	return http.StatusText(e.Code)
}

// ErrorHandler renders every error that reaches echo in the envelope.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "http")

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, code, message := classify(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Path()),
				slog.Any("error", err),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = fail(c, status, code, message)
		}
		if err != nil {
			logger.ErrorContext(c.Request().Context(), "error response not written", slog.Any("error", err))
		}
	}
}
