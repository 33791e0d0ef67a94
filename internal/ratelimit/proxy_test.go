package ratelimit

import (
	"net/http/httptest"
	"testing"
)

func TestIPResolverClientIP(t *testing.T) {
	trusted, err := NewIPResolver([]string{"10.0.0.0/8", " 192.0.2.10 ", "", "2001:db8::/32"})
	if err != nil {
		t.Fatalf("NewIPResolver: %v", err)
	}

	tests := []struct {
		name      string
		resolver  *IPResolver
		forwarded []string
		remote    string
		want      string
	}{
		{"peer address", nil, nil, "198.51.100.1:5555", "198.51.100.1"},
		{"no port", nil, nil, "198.51.100.1", "198.51.100.1"},
		{"forwarded ignored without trusted proxies", nil, []string{"203.0.113.9"}, "198.51.100.1:80", "198.51.100.1"},
		{"forwarded ignored from untrusted peer", trusted, []string{"203.0.113.9"}, "198.51.100.1:80", "198.51.100.1"},
		{"forwarded from trusted peer", trusted, []string{"203.0.113.9"}, "10.0.0.1:80", "203.0.113.9"},
		{"trusted single address", trusted, []string{"203.0.113.9"}, "192.0.2.10:80", "203.0.113.9"},
		{"spoofed leftmost hop", trusted, []string{"1.2.3.4, 203.0.113.9"}, "10.0.0.1:80", "203.0.113.9"},
		{"chain of trusted proxies", trusted, []string{"203.0.113.9, 10.0.0.3", "10.0.0.2"}, "10.0.0.1:80", "203.0.113.9"},
		{"garbage hop stops the walk", trusted, []string{"203.0.113.9, not-an-ip, 10.0.0.2"}, "10.0.0.1:80", "10.0.0.2"},
		{"only trusted hops", trusted, []string{"10.0.0.2"}, "10.0.0.1:80", "10.0.0.2"},
		{"trusted peer without header", trusted, nil, "10.0.0.1:80", "10.0.0.1"},
		{"ipv6 trusted peer", trusted, []string{"203.0.113.9"}, "[2001:db8::1]:443", "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/applicants", nil)
			r.RemoteAddr = tt.remote
			for _, v := range tt.forwarded {
				r.Header.Add("X-Forwarded-For", v)
			}
			if got := tt.resolver.ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewIPResolverRejectsInvalidEntries(t *testing.T) {
	for _, entry := range []string{"10.0.0.0/33", "proxy.internal", "10.0.0"} {
		if _, err := NewIPResolver([]string{entry}); err == nil {
			t.Errorf("expected error for %q", entry)
		}
	}
}
