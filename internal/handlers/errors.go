package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/campus-hire/internal/services"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{services.ErrValidation, http.StatusBadRequest},
	{services.ErrUnauthorized, http.StatusUnauthorized},
	{services.ErrForbidden, http.StatusForbidden},
	{services.ErrNotFound, http.StatusNotFound},
	{services.ErrNotConfigured, http.StatusServiceUnavailable},
}

// respondError maps service errors onto status codes. Anything unrecognised is a 500
// whose details stay in the log.
func respondError(c *gin.Context, err error) {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			c.JSON(m.status, gin.H{"error": userMessage(err, m.err)})
			return
		}
	}
	log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// userMessage drops the "<sentinel>: " prefix added by the services.
func userMessage(err, sentinel error) string {
	msg := err.Error()
	if i := strings.Index(msg, sentinel.Error()+": "); i >= 0 {
		msg = msg[i+len(sentinel.Error())+2:]
	}
	return msg
}

func badJSON(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
}
