package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"platsbanken-sync/internal/logging"
	"platsbanken-sync/pkg/models"
	"platsbanken-sync/pkg/utils"
)

// ErrorHandler renders every error a handler returns as a JSON
// ErrorResponse, mapping CustomError codes onto HTTP statuses.
func ErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		requestID := utils.GenerateRequestID()
		status := http.StatusInternalServerError
		message := "Internal server error"

		var customErr *utils.CustomError
		var httpErr *echo.HTTPError

		switch {
		case errors.As(err, &customErr):
			status = customErr.Code
			message = customErr.Error()
		case errors.As(err, &httpErr):
			status = httpErr.Code
			if m, ok := httpErr.Message.(string); ok {
				message = m
			}
		}

		if status >= http.StatusInternalServerError {
			logging.GetGlobalLogger().Error("Request failed", map[string]interface{}{
				"request_id": requestID,
				"status":     status,
				"error":      err.Error(),
			})
		}

		_ = c.JSON(status, models.ErrorResponse{
			Error:     http.StatusText(status),
			Message:   message,
			RequestID: requestID,
			Timestamp: time.Now(),
		})
	}
}
