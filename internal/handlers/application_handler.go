package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/campus-hire/internal/dtos"
	"github.com/justsurfingit/campus-hire/internal/services"
)

type ApplicationHandler struct {
	Applications *services.ApplicationService
}

func NewApplicationHandler(a *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{Applications: a}
}

func (h *ApplicationHandler) Apply(c *gin.Context) {
	var req dtos.ApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	app, err := h.Applications.Apply(c.Request.Context(), currentProfile(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (h *ApplicationHandler) ListMine(c *gin.Context) {
	apps, err := h.Applications.ListMine(currentProfile(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": apps})
}

func (h *ApplicationHandler) Get(c *gin.Context) {
	app, err := h.Applications.Get(currentProfile(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	var req dtos.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	app, err := h.Applications.UpdateStatus(currentProfile(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	if err := h.Applications.Withdraw(currentProfile(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
