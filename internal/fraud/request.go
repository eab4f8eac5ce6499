package fraud

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"regexp"
	"strings"

	"github.com/user/smartshort/internal/models"
)

// UnknownIP is hashed when no forwarded address is present.
const UnknownIP = "unknown"

// ClientIP returns the first entry of X-Forwarded-For, or UnknownIP.
// The direct peer address is deliberately not used: behind the edge
// proxy it is always the proxy.
func ClientIP(h http.Header) string {
	forwarded := h.Get("X-Forwarded-For")
	if forwarded == "" {
		return UnknownIP
	}
	ip := strings.TrimSpace(strings.Split(forwarded, ",")[0])
	if ip == "" {
		return UnknownIP
	}
	return ip
}

// HashIP returns the hex SHA-256 of an IP. Raw addresses are never stored.
func HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}

var (
	mobileRe  = regexp.MustCompile(`(?i)mobile`)
	tabletRe  = regexp.MustCompile(`(?i)tablet|ipad`)
	windowsRe = regexp.MustCompile(`(?i)windows`)
	macRe     = regexp.MustCompile(`(?i)macintosh|mac os x`)
	linuxRe   = regexp.MustCompile(`(?i)linux`)
	iosRe     = regexp.MustCompile(`(?i)iphone|ipad|ipod`)
	androidRe = regexp.MustCompile(`(?i)android`)
)

// DeviceType classifies a user-agent as desktop, mobile or tablet.
func DeviceType(userAgent string) string {
	switch {
	case mobileRe.MatchString(userAgent):
		return models.DeviceMobile
	case tabletRe.MatchString(userAgent):
		return models.DeviceTablet
	default:
		return models.DeviceDesktop
	}
}

// OSFamily returns a coarse operating system name. Order matters:
// Android agents also mention Linux, iOS agents mention Mac OS X.
func OSFamily(userAgent string) string {
	switch {
	case windowsRe.MatchString(userAgent):
		return "Windows"
	case iosRe.MatchString(userAgent):
		return "iOS"
	case androidRe.MatchString(userAgent):
		return "Android"
	case macRe.MatchString(userAgent):
		return "macOS"
	case linuxRe.MatchString(userAgent):
		return "Linux"
	default:
		return "Unknown"
	}
}

// referrerSources maps a host fragment to its category, checked in order.
var referrerSources = []struct {
	fragment string
	category string
}{
	{"whatsapp", models.ReferrerWhatsApp},
	{"wa.me", models.ReferrerWhatsApp},
	{"youtube", models.ReferrerYouTube},
	{"youtu.be", models.ReferrerYouTube},
	{"telegram", models.ReferrerTelegram},
	{"t.me", models.ReferrerTelegram},
	{"instagram", models.ReferrerInstagram},
}

// ReferrerCategory collapses a Referer header into the fixed taxonomy.
// Anything unrecognized is Other; an absent header is Direct.
func ReferrerCategory(referer string) string {
	if referer == "" {
		return models.ReferrerDirect
	}
	lower := strings.ToLower(referer)
	for _, src := range referrerSources {
		if strings.Contains(lower, src.fragment) {
			return src.category
		}
	}
	return models.ReferrerOther
}
