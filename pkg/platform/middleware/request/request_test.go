package request

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seal/pkg/testutil"
)

func TestRequestID(t *testing.T) {
	var seenID, seenIP string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		seenIP = GetClientIP(r.Context())
	}))

	t.Run("generates an id when none is sent", func(t *testing.T) {
		rr := testutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/", nil))
		require.NotEmpty(t, seenID)
		assert.Equal(t, seenID, rr.Header().Get(HeaderRequestID))
		assert.Equal(t, "192.0.2.1", seenIP)
	})

	t.Run("keeps the client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, "req-123")
		rr := testutil.DoRequest(h, req)
		assert.Equal(t, "req-123", seenID)
		assert.Equal(t, "req-123", rr.Header().Get(HeaderRequestID))
	})

	t.Run("replaces oversized ids", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, strings.Repeat("x", maxRequestIDLen+1))
		testutil.DoRequest(h, req)
		assert.Len(t, seenID, 36)
	})
}

func TestClientIPFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientIPFromRequest(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", " 198.51.100.2 ")
	assert.Equal(t, "198.51.100.2", ClientIPFromRequest(req))
}

func TestDescribeClient(t *testing.T) {
	assert.Equal(t, "unknown", DescribeClient("  "))
	assert.Equal(t, "bot", DescribeClient("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"))
	assert.Equal(t, "curl/8.4.0", DescribeClient("curl/8.4.0"))

	desc := DescribeClient("Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/118.0")
	assert.Contains(t, desc, "Firefox 118.0")
	assert.Contains(t, desc, "Linux")
}

func TestRequestIDStoresClient(t *testing.T) {
	var client string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client = GetClient(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "curl/8.4.0")
	testutil.DoRequest(h, req)
	assert.Equal(t, "curl/8.4.0", client)
}
