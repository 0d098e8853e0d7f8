package utils

import (
	"crypto/rand"
	"encoding/hex"
	"net"
	"net/http"
)

// RandomHex returns a random hexadecimal string encoding n bytes.
func RandomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// ClientIP returns the host part of the request's remote address. Forwarding
// headers are ignored; install a proxy-aware middleware such as chi's RealIP
// in front when the server runs behind a trusted proxy.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
