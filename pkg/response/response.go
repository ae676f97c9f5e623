package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the unified API envelope. Code 0 means success; any other
// value is a portal error code from the table below.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Portal error codes. The first three digits mirror the HTTP status; the
// last two distinguish causes the frontend renders differently (a locked
// issue is not a generic 403, a lost review race is not a generic 409).
const (
	CodeBadRequest     = 40000
	CodeInvalidStatus  = 40001 // review verdict outside {valid, invalid}
	CodeUnauthorized   = 40100
	CodeForbidden      = 40300
	CodeIssueLocked    = 40301 // issue record is immutable
	CodeNotFound       = 40400
	CodeIssueNotFound  = 40401
	CodeReviewConflict = 40900 // concurrent reviews exhausted the retry budget
	CodeTooManyLogins  = 42900
	CodeServerError    = 50000
)

// AppError carries a portal error code through the handler layer. The HTTP
// status is derived from the code, so the two cannot disagree.
type AppError struct {
	Code    int
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) HTTPStatus() int {
	return e.Code / 100
}

func New(code int, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Review failure taxonomy, mapped from the review engine's sentinel errors
// by the issue handler.

func InvalidStatus(status string) *AppError {
	return New(CodeInvalidStatus, fmt.Sprintf("status %q is not a review verdict", status))
}

func IssueNotFound(githubIssueID int64) *AppError {
	return New(CodeIssueNotFound, fmt.Sprintf("issue %d not found", githubIssueID))
}

func IssueLocked(githubIssueID int64) *AppError {
	return New(CodeIssueLocked, fmt.Sprintf("issue %d is locked and cannot be reviewed", githubIssueID))
}

func ReviewConflict() *AppError {
	return New(CodeReviewConflict, "issue was reviewed concurrently, please retry")
}

// --- Gin response helpers ---

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}

// Accepted sends a 202 for work handed to the task queue.
func Accepted(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusAccepted, Response{
		Code:    0,
		Message: msg,
		Data:    data,
	})
}

// Error sends an error response. If err is (or wraps) an *AppError, its code
// decides the HTTP status; anything else is a generic 500.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus(), Response{
			Code:    appErr.Code,
			Message: appErr.Message,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, Response{
		Code:    CodeServerError,
		Message: err.Error(),
	})
}

// Convenience error response functions

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Code: CodeBadRequest, Message: msg})
}

func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, Response{Code: CodeUnauthorized, Message: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Response{Code: CodeNotFound, Message: msg})
}

func TooManyRequests(c *gin.Context, msg string) {
	c.JSON(http.StatusTooManyRequests, Response{Code: CodeTooManyLogins, Message: msg})
}

func ServerError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, Response{Code: CodeServerError, Message: msg})
}
