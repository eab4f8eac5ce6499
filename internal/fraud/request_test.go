package fraud

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/user/smartshort/internal/models"
)

func TestClientIP(t *testing.T) {
	h := http.Header{}
	assert.Equal(t, UnknownIP, ClientIP(h))

	h.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientIP(h))
}

func TestHashIP_IsStableHex(t *testing.T) {
	a := HashIP("203.0.113.7")

	assert.Len(t, a, 64)
	assert.Equal(t, a, HashIP("203.0.113.7"))
	assert.NotEqual(t, a, HashIP("203.0.113.8"))
}

func TestDeviceAndOS(t *testing.T) {
	iphone := "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148"
	ipad := "Mozilla/5.0 (iPad; CPU OS 16_0 like Mac OS X) Safari/604.1"
	android := "Mozilla/5.0 (Linux; Android 14; Pixel 8) Mobile Safari/537.36"

	assert.Equal(t, models.DeviceMobile, DeviceType(iphone))
	assert.Equal(t, models.DeviceTablet, DeviceType(ipad))
	assert.Equal(t, models.DeviceDesktop, DeviceType(chromeUA))

	assert.Equal(t, "iOS", OSFamily(iphone))
	assert.Equal(t, "Android", OSFamily(android))
	assert.Equal(t, "Windows", OSFamily(chromeUA))
	assert.Equal(t, "macOS", OSFamily("Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0)"))
	assert.Equal(t, "Unknown", OSFamily("SomethingElse/1.0"))
}

func TestReferrerCategory(t *testing.T) {
	cases := map[string]string{
		"":                                  models.ReferrerDirect,
		"https://web.whatsapp.com/":         models.ReferrerWhatsApp,
		"https://www.youtube.com/watch?v=1": models.ReferrerYouTube,
		"https://t.me/somechannel":          models.ReferrerTelegram,
		"https://l.instagram.com/?u=x":      models.ReferrerInstagram,
		"https://www.facebook.com/":         models.ReferrerOther,
		"https://news.ycombinator.com/":     models.ReferrerOther,
	}
	for referer, want := range cases {
		assert.Equal(t, want, ReferrerCategory(referer), referer)
	}
}
