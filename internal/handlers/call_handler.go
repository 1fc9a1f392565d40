package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/campus-hire/internal/dtos"
	"github.com/justsurfingit/campus-hire/internal/services"
)

type CallHandler struct {
	Calls *services.CallService
}

func NewCallHandler(s *services.CallService) *CallHandler {
	return &CallHandler{Calls: s}
}

func (h *CallHandler) Create(c *gin.Context) {
	var req dtos.CallRequestCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	call, err := h.Calls.Create(currentProfile(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, call)
}

// List is GET /api/calls?direction=incoming|outgoing
func (h *CallHandler) List(c *gin.Context) {
	calls, err := h.Calls.List(currentProfile(c), c.Query("direction"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": calls})
}

func (h *CallHandler) Respond(c *gin.Context) {
	var req dtos.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	call, err := h.Calls.Respond(c.Request.Context(), currentProfile(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

func (h *CallHandler) Token(c *gin.Context) {
	tok, err := h.Calls.Token(currentProfile(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tok)
}
