package ipchecker

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, err := New("not a cidr")
	assert.Error(t, err)

	checker, err := New("")
	require.NoError(t, err)
	assert.False(t, checker.Check(net.ParseIP("127.0.0.1")))
}

func TestGetClientIP(t *testing.T) {
	checker, err := New("192.168.1.0/24")
	require.NoError(t, err)

	testCases := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{
			name:       "X-Real-IP wins",
			headers:    map[string]string{"X-Real-IP": "192.168.1.10", "X-Forwarded-For": "10.0.0.1"},
			remoteAddr: "127.0.0.1:1234",
			expected:   "192.168.1.10",
		},
		{
			name:       "first X-Forwarded-For entry",
			headers:    map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"},
			remoteAddr: "127.0.0.1:1234",
			expected:   "10.0.0.1",
		},
		{
			name:       "remote address",
			remoteAddr: "172.16.0.5:4321",
			expected:   "172.16.0.5",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = testCase.remoteAddr
			for key, value := range testCase.headers {
				req.Header.Set(key, value)
			}

			ip, err := checker.GetClientIP(req)
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, ip.String())
		})
	}
}

func TestTrustedOnly(t *testing.T) {
	checker, err := New("192.168.1.0/24")
	require.NoError(t, err)

	handler := checker.TrustedOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	trusted := httptest.NewRequest(http.MethodGet, "/", nil)
	trusted.Header.Set("X-Real-IP", "192.168.1.77")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, trusted)
	assert.Equal(t, http.StatusOK, rec.Code)

	untrusted := httptest.NewRequest(http.MethodGet, "/", nil)
	untrusted.Header.Set("X-Real-IP", "10.1.1.1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, untrusted)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
