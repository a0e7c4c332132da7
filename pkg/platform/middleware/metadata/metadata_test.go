package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"rfcheck/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	newReq := func(remote string, headers map[string]string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = remote
		for k, v := range headers {
			r.Header.Set(k, v)
		}
		return r
	}

	t.Run("remote addr without proxy trust", func(t *testing.T) {
		r := newReq("10.0.0.7:5123", map[string]string{"X-Forwarded-For": "1.2.3.4"})
		assert.Equal(t, "10.0.0.7", ClientIPFromRequest(r, false))
	})

	t.Run("first forwarded hop behind trusted proxy", func(t *testing.T) {
		r := newReq("10.0.0.7:5123", map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1"})
		assert.Equal(t, "1.2.3.4", ClientIPFromRequest(r, true))
	})

	t.Run("real ip header behind trusted proxy", func(t *testing.T) {
		r := newReq("10.0.0.7:5123", map[string]string{"X-Real-IP": " 5.6.7.8 "})
		assert.Equal(t, "5.6.7.8", ClientIPFromRequest(r, true))
	})

	t.Run("ipv6 remote addr", func(t *testing.T) {
		r := newReq("[::1]:8080", nil)
		assert.Equal(t, "::1", ClientIPFromRequest(r, false))
	})
}

func TestClientMetadata(t *testing.T) {
	var gotIP, gotUA string
	h := ClientMetadata(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = requestcontext.ClientIP(r.Context())
		gotUA = requestcontext.UserAgent(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.10:1234"
	r.Header.Set("User-Agent", "curl/8.5")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "192.0.2.10", gotIP)
	assert.Equal(t, "curl/8.5", gotUA)
}
