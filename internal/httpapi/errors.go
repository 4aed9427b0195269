package httpapi

import "github.com/gin-gonic/gin"

// apiError writes the uniform {code, error, ...} JSON error shape from
// spec §7.
func apiError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"code": code, "error": message})
}
