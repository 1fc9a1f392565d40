package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/campus-hire/internal/dtos"
	"github.com/justsurfingit/campus-hire/internal/services"
)

type BookmarkHandler struct {
	Bookmarks *services.BookmarkService
}

func NewBookmarkHandler(b *services.BookmarkService) *BookmarkHandler {
	return &BookmarkHandler{Bookmarks: b}
}

func (h *BookmarkHandler) List(c *gin.Context) {
	list, err := h.Bookmarks.List(currentProfile(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookmarks": list})
}

func (h *BookmarkHandler) Add(c *gin.Context) {
	var req dtos.BookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	b, err := h.Bookmarks.Add(currentProfile(c), req.JobID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BookmarkHandler) Remove(c *gin.Context) {
	if err := h.Bookmarks.Remove(currentProfile(c), c.Param("jobId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
