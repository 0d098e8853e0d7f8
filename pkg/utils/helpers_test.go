package utils

import (
	"net/http/httptest"
	"testing"
)

func TestRandomHexLength(t *testing.T) {
	if got := RandomHex(4); len(got) != 8 {
		t.Fatalf("expected 8 hex chars, got %q", got)
	}
	if RandomHex(16) == RandomHex(16) {
		t.Fatalf("expected distinct values")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.7:5123"
	if got := ClientIP(r); got != "10.0.0.7" {
		t.Fatalf("expected remote host, got %s", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := ClientIP(r); got != "10.0.0.7" {
		t.Fatalf("forwarded header must not override remote host, got %s", got)
	}

	r.RemoteAddr = "198.51.100.4"
	if got := ClientIP(r); got != "198.51.100.4" {
		t.Fatalf("expected bare address, got %s", got)
	}
}
