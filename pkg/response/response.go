package response

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/martinmanurung/cinereview/pkg/apperror"
	"github.com/martinmanurung/cinereview/pkg/middleware"
)

// ErrorTemplate is the template the error handler renders for browsers.
const ErrorTemplate = "error"

type SuccessResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Errors  interface{} `json:"errors,omitempty"`
}

// ErrorPage is the data handed to the error template
type ErrorPage struct {
	Code      int
	Message   string
	RequestID string
}

func Success(c echo.Context, code int, message string, data interface{}) error {
	return c.JSON(code, SuccessResponse{
		Status:  "success",
		Code:    code,
		Message: message,
		Data:    data,
	})
}

func Error(c echo.Context, code int, message string, errDetails interface{}) error {
	if wantsHTML(c) {
		return c.Render(code, ErrorTemplate, ErrorPage{
			Code:      code,
			Message:   message,
			RequestID: middleware.GetRequestID(c),
		})
	}
	return c.JSON(code, ErrorResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		Errors:  errDetails,
	})
}

type APIError struct {
	Code    int
	Message string
	Details interface{}
}

func (e *APIError) Error() string {
	return e.Message
}

func NewError(code int, message string, details interface{}) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		Error(c, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		var msg string
		if s, ok := echoErr.Message.(string); ok {
			msg = s
		} else {
			msg = http.StatusText(echoErr.Code)
		}
		Error(c, echoErr.Code, msg, nil)
		return
	}

	var ve *apperror.ValidationError
	if errors.As(err, &ve) {
		Error(c, http.StatusBadRequest, "validation_failed", ve.Fields)
		return
	}

	if apperror.IsFetch(err) {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}

	middleware.GetLogger(c).Error().Err(err).Msg("Unhandled error")
	Error(c, http.StatusInternalServerError, "Internal Server Error", nil)
}

// wantsHTML reports whether the caller is a browser rather than an API client.
func wantsHTML(c echo.Context) bool {
	if c.Echo().Renderer == nil {
		return false
	}
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return accept == "" || strings.Contains(accept, echo.MIMETextHTML)
}
