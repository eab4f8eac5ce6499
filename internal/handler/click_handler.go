package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/user/smartshort/internal/service"
)

// ClickHandler serves the visitor side: the short link redirect and
// the interstitial ad page API.
type ClickHandler struct {
	clicks *service.ClickService
	minter *service.EarningsMinter
	pages  *PageHandler
	appURL string
	logger logrus.FieldLogger
}

// NewClickHandler creates a new click handler. appURL is the frontend
// origin hosting /ads/{clickId}; empty means same origin.
func NewClickHandler(clicks *service.ClickService, minter *service.EarningsMinter, pages *PageHandler, appURL string, logger logrus.FieldLogger) *ClickHandler {
	return &ClickHandler{clicks: clicks, minter: minter, pages: pages, appURL: appURL, logger: logger}
}

// ===========================================
// GET /:slug
// ===========================================
// Records the visit and sends the visitor to the ad page.
//
// Responses:
// - 302 to {appURL}/ads/{clickId}
// - 302 to /link-inactive or /link-expired
// - 404 page for unknown slugs
// - 403 / 429 JSON for bots and throttled visits
//
// 302, not 301: every visit must reach us.
func (h *ClickHandler) Redirect(c *gin.Context) {
	click, err := h.clicks.RecordVisit(c.Request.Context(), c.Param("slug"), c.Request.Header)
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, h.appURL+"/ads/"+click.ID.String())
	case errors.Is(err, service.ErrLinkNotFound):
		h.pages.NotFound(c)
	case errors.Is(err, service.ErrLinkInactive):
		c.Redirect(http.StatusFound, "/link-inactive")
	case errors.Is(err, service.ErrLinkExpired):
		c.Redirect(http.StatusFound, "/link-expired")
	case errors.Is(err, service.ErrBotDetected):
		c.JSON(http.StatusForbidden, gin.H{"error": "Automated access detected"})
	default:
		handleError(c, h.logger, err)
	}
}

// ===========================================
// GET /api/clicks/:id
// ===========================================
// Response (200):
//
//	{"success": true, "redirectUrl": "...", "title": "...", "adDuration": 15}
func (h *ClickHandler) Details(c *gin.Context) {
	id, ok := uuidParam(c, "id", "Click not found")
	if !ok {
		return
	}

	details, err := h.clicks.Details(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			err = service.ErrClickNotFound
		}
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// ===========================================
// POST /api/clicks/:id/complete
// ===========================================
// Called by the ad page once the countdown ends.
//
// Response (200):
//
//	{"success": true, "earned": true, "amount": 0.01, "cpm": 10}
//
// 400 with the reason when the dwell window is not met or the click was
// already completed; 404 for unknown clicks.
func (h *ClickHandler) Complete(c *gin.Context) {
	id, ok := uuidParam(c, "id", "Click not found")
	if !ok {
		return
	}

	resp, err := h.minter.Complete(c.Request.Context(), id)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
