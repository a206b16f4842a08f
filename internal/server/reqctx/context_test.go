package reqctx

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maruel/ksid"
)

func TestGetClientIP(t *testing.T) {
	proxies, err := ParseProxies("10.0.0.0/8, 192.0.2.10")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name       string
		remoteAddr string
		trusted    Proxies
		headers    map[string]string
		want       string
	}{
		{"ipv4", "192.0.2.1:1234", nil, nil, "192.0.2.1"},
		{"ipv6", "[2001:db8::1]:1234", nil, nil, "2001:db8::1"},
		{"no port", "192.0.2.1", nil, nil, "192.0.2.1"},
		{"forwarded untrusted peer", "192.0.2.1:1", nil, map[string]string{"X-Forwarded-For": "198.51.100.7"}, "192.0.2.1"},
		{"real ip untrusted peer", "192.0.2.1:1", proxies, map[string]string{"X-Real-IP": "203.0.113.9"}, "192.0.2.1"},
		{"forwarded single", "10.0.0.1:1", proxies, map[string]string{"X-Forwarded-For": "198.51.100.7"}, "198.51.100.7"},
		{"forwarded chain", "10.0.0.1:1", proxies, map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.2"}, "198.51.100.7"},
		{"forwarded spoofed prefix", "10.0.0.1:1", proxies, map[string]string{"X-Forwarded-For": "1.2.3.4, 198.51.100.7"}, "198.51.100.7"},
		{"forwarded all proxies", "10.0.0.1:1", proxies, map[string]string{"X-Forwarded-For": "10.0.0.3, 10.0.0.2"}, "10.0.0.3"},
		{"single trusted address", "192.0.2.10:1", proxies, map[string]string{"X-Forwarded-For": "198.51.100.7"}, "198.51.100.7"},
		{"real ip", "10.0.0.1:1", proxies, map[string]string{"X-Real-IP": "203.0.113.9"}, "203.0.113.9"},
		{"trusted no header", "10.0.0.1:1", proxies, nil, "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := GetClientIP(r, tt.trusted); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseProxies(t *testing.T) {
	p, err := ParseProxies("")
	if err != nil || p != nil {
		t.Errorf("ParseProxies(\"\") = %v, %v", p, err)
	}
	p, err = ParseProxies("127.0.0.1,::1,172.16.0.0/12")
	if err != nil {
		t.Fatal(err)
	}
	for _, ip := range []string{"127.0.0.1", "::1", "172.20.1.1", "::ffff:127.0.0.1"} {
		if !p.Trusts(ip) {
			t.Errorf("Trusts(%q) = false", ip)
		}
	}
	for _, ip := range []string{"127.0.0.2", "192.0.2.1", "not-an-ip"} {
		if p.Trusts(ip) {
			t.Errorf("Trusts(%q) = true", ip)
		}
	}
	for _, bad := range []string{"localhost", "10.0.0.0/33"} {
		if _, err := ParseProxies(bad); err == nil {
			t.Errorf("ParseProxies(%q) succeeded", bad)
		}
	}
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	if ClientIP(ctx) != "" || UserAgent(ctx) != "" || !RequestID(ctx).IsZero() {
		t.Error("expected empty values on a bare context")
	}
	id := ksid.NewID()
	ctx = WithRequestID(WithUserAgent(WithClientIP(ctx, "192.0.2.1"), "curl/8"), id)
	if got := ClientIP(ctx); got != "192.0.2.1" {
		t.Errorf("ClientIP() = %q", got)
	}
	if got := UserAgent(ctx); got != "curl/8" {
		t.Errorf("UserAgent() = %q", got)
	}
	if got := RequestID(ctx); got != id {
		t.Errorf("RequestID() = %v, want %v", got, id)
	}
}

func TestLogHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewLogHandler(slog.NewJSONHandler(&buf, nil))).With("svc", "x")
	id := ksid.NewID()
	ctx := WithClientIP(WithRequestID(context.Background(), id), "192.0.2.1")

	logger.InfoContext(ctx, "with request")
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["id"] != id.String() || rec["ip"] != "192.0.2.1" || rec["svc"] != "x" {
		t.Errorf("record = %v", rec)
	}

	buf.Reset()
	logger.Info("no request")
	rec = nil
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if _, ok := rec["id"]; ok {
		t.Errorf("record = %v, want no id", rec)
	}
}
