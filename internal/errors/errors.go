package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"codeberg.org/moodcanvas/server/internal/logger"
	"codeberg.org/moodcanvas/server/moodcanvas/sessions"
)

// REST handlers answer through Respond or the helpers below; they log only
// server errors. Websocket handlers report through client.SendError using
// Describe(err).Kind and return the error for the hub to log. Everything
// else returns wrapped errors and leaves the answer to its caller.

// how a domain error reaches a caller
type Description struct {
	Status  int
	Code    string // specific code for REST bodies
	Kind    string // coarse code for websocket errors
	Message string
}

// maps registry errors onto status and codes; unknown errors describe a
// server error
func Describe(err error) Description {
	switch {
	case errors.Is(err, sessions.ErrSessionNotFound):
		return Description{http.StatusNotFound, CodeSessionNotFound, CodeNotFound, "session not found"}
	case errors.Is(err, sessions.ErrMessageNotFound):
		return Description{http.StatusNotFound, CodeMessageNotFound, CodeNotFound, "message not found"}
	case errors.Is(err, sessions.ErrNotFound):
		return Description{http.StatusNotFound, CodeNotFound, CodeNotFound, "resource not found"}
	case errors.Is(err, sessions.ErrDuplicateName):
		return Description{http.StatusConflict, CodeConflict, CodeConflict, "a session with this name already exists"}
	case errors.Is(err, sessions.ErrInvalidInput):
		return Description{http.StatusBadRequest, CodeInvalidInput, CodeInvalidInput, "invalid input"}
	default:
		return Description{http.StatusInternalServerError, CodeServerError, CodeServerError, "session operation failed"}
	}
}

// answers c with the description of err
func Respond(c *gin.Context, err error) {
	d := Describe(err)

	switch d.Status {
	case http.StatusInternalServerError:
		InternalError(c, d.Message, err)
	case http.StatusBadRequest:
		write(c, d.Status, d.Code, d.Message, sanitizeError(err))
	default:
		write(c, d.Status, d.Code, d.Message, "")
	}
}

func write(c *gin.Context, status int, code, message, details string) {
	c.JSON(status, ErrorResponse{Error: code, Message: message, Details: details})
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}

// 404 for resource ("session", "sweep stats", ...)
func NotFound(c *gin.Context, resource string) {
	message := "resource not found"
	if resource != "" {
		message = resource + " not found"
	}

	write(c, http.StatusNotFound, CodeNotFound, message, "")
}

func BadRequest(c *gin.Context, message string, err error) {
	write(c, http.StatusBadRequest, CodeBadRequest, orDefault(message, "invalid request"), sanitizeError(err))
}

// 400 for malformed ids, text or payloads
func InvalidInput(c *gin.Context, message string, err error) {
	write(c, http.StatusBadRequest, CodeInvalidInput, orDefault(message, "invalid input"), sanitizeError(err))
}

// 400 for gin binding failures
func ValidationError(c *gin.Context, err error) {
	message := "validation failed"
	if err != nil && (strings.Contains(err.Error(), "binding") || strings.Contains(err.Error(), "validation")) {
		message = "request validation failed"
	}

	write(c, http.StatusBadRequest, CodeValidationError, message, sanitizeError(err))
}

func TooManyRequests(c *gin.Context, message string) {
	write(c, http.StatusTooManyRequests, CodeTooManyRequests, orDefault(message, "too many requests"), "")
}

// logs err with the request line and answers 500
func InternalError(c *gin.Context, message string, err error) {
	message = orDefault(message, "an error occurred")

	logger.FromContext(c.Request.Context()).Error(message,
		"error", err,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)

	write(c, http.StatusInternalServerError, CodeServerError, message, sanitizeError(err))
}

func IsValidUUID(id string) bool {
	return id != "" && uuidRegex.MatchString(strings.ToLower(id))
}

// reads a uuid path parameter; a malformed id answers 404 for resource
func ValidatePathUUID(c *gin.Context, paramName, resource string) (string, bool) {
	id := c.Param(paramName)

	switch {
	case id == "":
		BadRequest(c, "missing "+paramName, nil)
		return "", false
	case !IsValidUUID(id):
		NotFound(c, resource)
		return "", false
	}

	return id, true
}

func sanitizeError(err error) string {
	return classifyError(err).sanitized
}

// hides websocket error details in production
func SanitizeDetails(details string) string {
	if details == "" || !isProduction() {
		return details
	}

	return "an error occurred"
}
