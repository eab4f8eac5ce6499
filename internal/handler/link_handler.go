package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/user/smartshort/internal/middleware"
	"github.com/user/smartshort/internal/models"
	"github.com/user/smartshort/internal/service"
)

// LinkHandler handles the owner's link management.
// All routes require an authenticated user.
type LinkHandler struct {
	links  *service.LinkService
	logger logrus.FieldLogger
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(links *service.LinkService, logger logrus.FieldLogger) *LinkHandler {
	return &LinkHandler{links: links, logger: logger}
}

// ===========================================
// POST /api/links
// ===========================================
// Request:
//
//	{
//	  "title": "My video",
//	  "url": "https://example.com/video",
//	  "custom_slug": "myvideo",            // optional
//	  "expires_at": "2030-01-01T00:00:00Z" // optional
//	}
//
// Response (201): {"id", "slug", "short_url", "title", "expires_at"}
func (h *LinkHandler) Create(c *gin.Context) {
	var req models.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.links.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GET /api/links
func (h *LinkHandler) List(c *gin.Context) {
	links, err := h.links.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"links": links})
}

// PUT /api/links/:id
func (h *LinkHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id", "Link not found")
	if !ok {
		return
	}

	var req models.UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	link, err := h.links.Update(c.Request.Context(), middleware.UserID(c), id, req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

// DELETE /api/links/:id
//
// Response: 204 No Content. Clicks and earnings of the link go with it.
func (h *LinkHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id", "Link not found")
	if !ok {
		return
	}

	if err := h.links.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
