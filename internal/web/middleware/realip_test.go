package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{
			name:   "no proxies strips port",
			remote: "203.0.113.7:5123",
			want:   "203.0.113.7",
		},
		{
			name:    "untrusted proxy header ignored",
			trusted: []string{"10.0.0.0/8"},
			remote:  "203.0.113.7:5123",
			headers: map[string]string{"X-Real-IP": "1.1.1.1"},
			want:    "203.0.113.7",
		},
		{
			name:    "trusted proxy X-Real-IP",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.1.2.3:80",
			headers: map[string]string{"X-Real-IP": "198.51.100.4"},
			want:    "198.51.100.4",
		},
		{
			name:    "trusted proxy first X-Forwarded-For",
			trusted: []string{"127.0.0.1"},
			remote:  "127.0.0.1:80",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.4, 10.0.0.1"},
			want:    "198.51.100.4",
		},
		{
			name:    "invalid header keeps proxy address",
			trusted: []string{"127.0.0.1"},
			remote:  "127.0.0.1:80",
			headers: map[string]string{"X-Real-IP": "not-an-ip"},
			want:    "127.0.0.1",
		},
		{
			name:    "ipv6 proxy",
			trusted: []string{"::1/128", "bogus"},
			remote:  "[::1]:80",
			headers: map[string]string{"X-Real-IP": "2001:db8::1"},
			want:    "2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}
