package audit_test

import (
	"net/http/httptest"
	"testing"

	"github.com/docvault/docvault/internal/audit"
)

func TestRequestMeta(t *testing.T) {
	tests := []struct {
		name      string
		remote    string
		forwarded string
		agent     string
		wantIP    string
	}{
		{
			name:   "remote addr only",
			remote: "10.1.2.3:54321",
			agent:  "curl/8.0",
			wantIP: "10.1.2.3",
		},
		{
			name:      "forwarded header wins",
			remote:    "10.0.0.1:1234",
			forwarded: "203.0.113.7",
			wantIP:    "203.0.113.7",
		},
		{
			name:      "first forwarded hop",
			remote:    "10.0.0.1:1234",
			forwarded: "203.0.113.7, 198.51.100.2",
			wantIP:    "203.0.113.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.agent != "" {
				r.Header.Set("User-Agent", tt.agent)
			}

			ip, ua := audit.RequestMeta(r)
			if ip != tt.wantIP {
				t.Errorf("ip = %q, want %q", ip, tt.wantIP)
			}
			if tt.agent != "" && ua != tt.agent {
				t.Errorf("user agent = %q, want %q", ua, tt.agent)
			}
		})
	}
}
