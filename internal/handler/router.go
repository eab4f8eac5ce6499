package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/user/smartshort/internal/middleware"
	"github.com/user/smartshort/internal/models"
)

// Router bundles everything NewRouter wires.
type Router struct {
	Clicks      *ClickHandler
	Links       *LinkHandler
	Payouts     *PayoutHandler
	Analytics   *AnalyticsHandler
	Health      *HealthHandler
	Pages       *PageHandler
	Auth        *middleware.JWTAuth
	RateLimiter *middleware.RateLimiter
	CORS        middleware.CORSConfig
	Logger      logrus.FieldLogger
}

// NewRouter builds the gin engine.
//
// Middleware order: Recovery -> RequestLogger -> SecurityHeaders -> CORS,
// then per group RequireUser -> RateLimiter so authenticated callers are
// limited per user.
func NewRouter(r Router) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(r.Logger))
	engine.Use(middleware.SecurityHeaders())
	engine.Use(middleware.CORS(r.CORS))

	// Health and metrics (no auth, no rate limit)
	engine.GET("/health", r.Health.Health)
	engine.GET("/ready", r.Health.Ready)
	engine.GET("/live", r.Health.Live)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Explanatory pages
	engine.GET("/link-inactive", r.Pages.Inactive)
	engine.GET("/link-expired", r.Pages.Expired)

	// Visitor routes. The redirect has its own per-IP throttle, so only
	// the JSON endpoints get the generic limiter.
	engine.GET("/:slug", r.Clicks.Redirect)

	api := engine.Group("/api")
	{
		clicks := api.Group("/clicks", r.RateLimiter.Middleware())
		clicks.GET("/:id", r.Clicks.Details)
		clicks.POST("/:id/complete", r.Clicks.Complete)

		// Signed by the processor; authenticated by HMAC only.
		api.POST("/razorpay/webhook", r.Payouts.Webhook)

		owner := api.Group("", r.Auth.RequireUser(), r.RateLimiter.Middleware())
		owner.POST("/links", r.Links.Create)
		owner.GET("/links", r.Links.List)
		owner.PUT("/links/:id", r.Links.Update)
		owner.DELETE("/links/:id", r.Links.Delete)
		owner.GET("/earnings", r.Payouts.Earnings)
		owner.GET("/analytics", r.Analytics.Analytics)
		owner.POST("/payout/request", r.Payouts.Request)
	}

	engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Not found", Code: models.ErrCodeNotFound})
			return
		}
		r.Pages.NotFound(c)
	})

	return engine
}
