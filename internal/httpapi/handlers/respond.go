package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// fail writes the {"detail": ...} error body every endpoint uses.
func fail(c *gin.Context, httpStatus int, detail string) {
	c.AbortWithStatusJSON(httpStatus, gin.H{"detail": detail})
}

func NotFound(c *gin.Context) {
	fail(c, http.StatusNotFound, "Not Found")
}

func MethodNotAllowed(c *gin.Context) {
	fail(c, http.StatusMethodNotAllowed, "Method Not Allowed")
}
