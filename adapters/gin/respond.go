package authgin

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Reject aborts the request with the subsystem's failure body contract:
// {"status": N, "message": "..."}.
func Reject(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"status": status, "message": message})
}

// Unauthorized aborts with 401 and a generic message. Verification failure
// details stay in logs, not responses.
func Unauthorized(c *gin.Context) {
	Reject(c, http.StatusUnauthorized, "Authentication required")
}
