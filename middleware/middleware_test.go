package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panellicense/metrics"
	"panellicense/services"
	"panellicense/utils"
)

func newTokenManager(t *testing.T) *utils.TokenManager {
	t.Helper()
	tm, err := utils.NewTokenManager("middleware-secret", "panellicense", time.Hour)
	require.NoError(t, err)
	return tm
}

func TestAuthMiddleware(t *testing.T) {
	tm := newTokenManager(t)

	var seen *utils.Claims
	var actor string
	handler := ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		actor = services.ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}, LoggingMiddleware, AuthMiddleware(tm))

	token, _, err := tm.GenerateToken("user-9", utils.RoleUser)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/licenses", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
			if tt.want == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, "user-9", seen.UserID)
				assert.Equal(t, "user-9", actor)
			} else {
				assert.Nil(t, seen)
				assert.Contains(t, rec.Body.String(), `"code":"UNAUTHORIZED"`)
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	tm := newTokenManager(t)
	handler := ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, AuthMiddleware(tm), RequireRoles(utils.RoleAdmin))

	for role, want := range map[string]int{
		utils.RoleAdmin: http.StatusNoContent,
		utils.RoleUser:  http.StatusForbidden,
	} {
		t.Run(role, func(t *testing.T) {
			token, _, err := tm.GenerateToken("someone", role)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/api/admin/licenses", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler(rec, req)
			assert.Equal(t, want, rec.Code)
		})
	}

	t.Run("without auth", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequireRoles(utils.RoleAdmin)(func(http.ResponseWriter, *http.Request) {})(rec,
			httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestLoggingMiddleware_KeepsIncomingRequestID(t *testing.T) {
	var got string
	handler := LoggingMiddleware(func(w http.ResponseWriter, r *http.Request) {
		got = RequestIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, "req-123", got)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	called := false
	handler := CORSMiddleware(func(http.ResponseWriter, *http.Request) { called = true })

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodOptions, "/api/license/validate", nil))
	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), utils.SignatureHeader)
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/admin/licenses/{key}", MetricsMiddleware(m)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	for _, key := range []string{"AAAAAA-AAAAAA-AAAAAA-AAAAAA", "BBBBBB-BBBBBB-BBBBBB-BBBBBB"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/licenses/"+key, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	// one series for both keys
	count, err := testutil.GatherAndCount(m.Registry(), "panellicense_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestClientIPResolver(t *testing.T) {
	ips, err := NewClientIPResolver([]string{"10.0.0.1", "172.16.0.0/12"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct peer", "198.51.100.7:1234", "", "", "198.51.100.7"},
		{"untrusted peer ignores headers", "198.51.100.7:1234", "192.0.2.44", "203.0.113.9", "198.51.100.7"},
		{"trusted peer uses forwarded for", "10.0.0.1:80", "192.0.2.44", "", "192.0.2.44"},
		{"skips trusted hops", "10.0.0.1:80", "192.0.2.44, 172.16.5.5", "", "192.0.2.44"},
		{"nearest untrusted hop wins", "10.0.0.1:80", "203.0.113.1, 192.0.2.44", "", "192.0.2.44"},
		{"trusted peer falls back to real ip", "172.20.0.9:80", "", "203.0.113.9", "203.0.113.9"},
		{"ipv6 peer", "[2001:db8::1]:443", "192.0.2.44", "", "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, ips.ClientIP(req))
		})
	}

	var none *ClientIPResolver
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:80"
	req.Header.Set("X-Forwarded-For", "192.0.2.44")
	assert.Equal(t, "10.0.0.1", none.ClientIP(req))

	_, err = NewClientIPResolver([]string{"not-an-ip"})
	assert.Error(t, err)
}
