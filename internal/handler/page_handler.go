package handler

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PageHandler renders the small explanatory pages visitors land on
// when a short link cannot be followed.
type PageHandler struct {
	homeURL string
}

// NewPageHandler creates a new page handler. homeURL is linked from
// every page.
func NewPageHandler(homeURL string) *PageHandler {
	if homeURL == "" {
		homeURL = "/"
	}
	return &PageHandler{homeURL: homeURL}
}

type pageData struct {
	Title   string
	Heading string
	Message string
	HomeURL string
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} - SmartShort</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: linear-gradient(135deg, #1a1a2e 0%, #16213e 50%, #0f3460 100%);
            min-height: 100vh;
            margin: 0;
            display: flex;
            align-items: center;
            justify-content: center;
            color: #fff;
        }
        .card {
            max-width: 480px;
            width: 90%;
            padding: 40px;
            text-align: center;
            background: rgba(255, 255, 255, 0.05);
            border-radius: 20px;
            border: 1px solid rgba(255, 255, 255, 0.1);
        }
        h1 { font-size: 1.8rem; margin-bottom: 12px; }
        p { color: #94a3b8; line-height: 1.5; }
        a { color: #00d2ff; text-decoration: none; }
    </style>
</head>
<body>
    <div class="card">
        <h1>{{.Heading}}</h1>
        <p>{{.Message}}</p>
        <p><a href="{{.HomeURL}}">Go to SmartShort</a></p>
    </div>
</body>
</html>`))

// GET /link-inactive
func (h *PageHandler) Inactive(c *gin.Context) {
	h.render(c, http.StatusOK, pageData{
		Title:   "Link inactive",
		Heading: "This link is inactive",
		Message: "The owner has disabled this link. It may be enabled again later.",
	})
}

// GET /link-expired
func (h *PageHandler) Expired(c *gin.Context) {
	h.render(c, http.StatusOK, pageData{
		Title:   "Link expired",
		Heading: "This link has expired",
		Message: "The link you followed is past its expiry date and no longer redirects.",
	})
}

// NotFound renders the 404 page. Also used as the router's NoRoute.
func (h *PageHandler) NotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, pageData{
		Title:   "Not found",
		Heading: "Link not found",
		Message: "We could not find a link at this address. Check it for typos.",
	})
}

func (h *PageHandler) render(c *gin.Context, status int, data pageData) {
	data.HomeURL = h.homeURL
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
