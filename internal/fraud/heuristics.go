// ===========================================
// Package fraud - Click Validation Heuristics
// ===========================================
// Pure functions that classify an inbound visit as automated or
// suspicious from its user-agent and headers, plus the per-IP
// throttle gate that consults recent click history.
//
// Two layers:
// 1. IsBot: hard reject (403), no click is recorded
// 2. DetectSuspiciousActivity: soft signal, the click is recorded
//    with is_valid=false and never earns
// ===========================================

package fraud

import (
	"net/http"
	"regexp"
	"strings"
)

// MinUserAgentLength is the shortest user-agent treated as a browser.
const MinUserAgentLength = 10

// SuspicionThreshold is how many independent reasons must fire before a
// visit is considered suspicious. One weak signal is tolerated.
const SuspicionThreshold = 2

// botTokens are matched as lowercase substrings.
var botTokens = []string{
	"bot", "crawler", "spider", "scraper", "curl", "wget", "python",
	"java", "http", "headless", "phantom", "selenium", "puppeteer",
}

// botPatterns overlap botTokens on purpose; both lists are checked.
var botPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bot`),
	regexp.MustCompile(`(?i)crawl`),
	regexp.MustCompile(`(?i)spider`),
	regexp.MustCompile(`(?i)scrape`),
	regexp.MustCompile(`(?i)curl`),
	regexp.MustCompile(`(?i)wget`),
	regexp.MustCompile(`(?i)python`),
	regexp.MustCompile(`(?i)java`),
	regexp.MustCompile(`(?i)http`),
	regexp.MustCompile(`(?i)headless`),
	regexp.MustCompile(`(?i)phantom`),
	regexp.MustCompile(`(?i)selenium`),
}

// Suspicion reasons reported by DetectSuspiciousActivity.
const (
	ReasonBotUserAgent     = "bot user agent detected"
	ReasonInvalidUserAgent = "missing or invalid user agent"
	ReasonNoReferer        = "no referer header (direct access)"
	ReasonNoAcceptLanguage = "missing accept-language header"
	ReasonBadAccept        = "suspicious accept header"
)

// IsBot reports whether a user-agent belongs to an automated client.
// Empty and very short agents count as bots.
func IsBot(userAgent string) bool {
	if len(userAgent) < MinUserAgentLength {
		return true
	}

	lower := strings.ToLower(userAgent)
	for _, token := range botTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}

	for _, pattern := range botPatterns {
		if pattern.MatchString(userAgent) {
			return true
		}
	}

	return false
}

// SuspicionResult lists every reason that fired for one request.
type SuspicionResult struct {
	Suspicious bool
	Reasons    []string
}

// DetectSuspiciousActivity accumulates independent suspicion reasons from
// the request headers. It has no side effects.
func DetectSuspiciousActivity(h http.Header) SuspicionResult {
	var reasons []string
	userAgent := h.Get("User-Agent")

	if IsBot(userAgent) {
		reasons = append(reasons, ReasonBotUserAgent)
	}
	if len(userAgent) < MinUserAgentLength {
		reasons = append(reasons, ReasonInvalidUserAgent)
	}
	if h.Get("Referer") == "" {
		reasons = append(reasons, ReasonNoReferer)
	}
	if h.Get("Accept-Language") == "" {
		reasons = append(reasons, ReasonNoAcceptLanguage)
	}
	if accept := h.Get("Accept"); !strings.Contains(accept, "text/html") {
		reasons = append(reasons, ReasonBadAccept)
	}

	return SuspicionResult{
		Suspicious: len(reasons) >= SuspicionThreshold,
		Reasons:    reasons,
	}
}
