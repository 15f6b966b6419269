package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/martinmanurung/cinereview/pkg/constant"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			requestID := req.Header.Get(constant.HeaderRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
				req.Header.Set(constant.HeaderRequestID, requestID)
			}

			// Set request ID to response header
			c.Response().Header().Set(constant.HeaderRequestID, requestID)

			// Create logger with request_id and store in context
			logger := log.With().
				Str("request_id", requestID).
				Logger()

			c.Set(string(constant.CtxKeyLogger), &logger)
			c.Set(string(constant.CtxKeyRequestID), requestID)

			// The backend client and use cases read the logger and the
			// request ID from the request context
			ctx := context.WithValue(logger.WithContext(req.Context()), constant.CtxKeyRequestID, requestID)
			req = req.WithContext(ctx)
			c.SetRequest(req)

			logger.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("remote_ip", c.RealIP()).
				Msg("Incoming request")

			return next(c)
		}
	}
}

// GetLogger retrieves the logger from echo context
// If not found, returns the default logger
func GetLogger(c echo.Context) *zerolog.Logger {
	if logger, ok := c.Get(string(constant.CtxKeyLogger)).(*zerolog.Logger); ok {
		return logger
	}
	return &log.Logger
}

// GetRequestID retrieves the request ID from echo context
func GetRequestID(c echo.Context) string {
	return c.Request().Header.Get(constant.HeaderRequestID)
}
