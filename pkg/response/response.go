package response

import "github.com/gin-gonic/gin"

// ErrorResponse is a standardized error response for API
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error writes an error body with the given status
func Error(c *gin.Context, status int, message, details string) {
	c.JSON(status, ErrorResponse{Code: status, Message: message, Details: details})
}

// Abort writes an error body and stops the handler chain
func Abort(c *gin.Context, status int, message, details string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Code: status, Message: message, Details: details})
}
