// Package response is the operator API's JSON envelope.
package response

import "github.com/gin-gonic/gin"

type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func OK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

func Fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, Envelope{Success: false, Error: &Error{Code: code, Message: message}})
}

func BadRequest(c *gin.Context, message string)   { Fail(c, 400, "BAD_REQUEST", message) }
func Unauthorized(c *gin.Context, message string)  { Fail(c, 401, "UNAUTHORIZED", message) }
func Forbidden(c *gin.Context, message string)     { Fail(c, 403, "FORBIDDEN", message) }
func NotFound(c *gin.Context, message string)      { Fail(c, 404, "NOT_FOUND", message) }
func InternalError(c *gin.Context, message string) { Fail(c, 500, "INTERNAL", message) }
