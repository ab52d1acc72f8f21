package pkg

import (
	"net"
	"net/http"
	"strings"
)

// ReadUserIP returns the client IP, honoring proxy headers set by the reverse proxy.
func ReadUserIP(r *http.Request) (string, error) {
	if ip := r.Header.Get("X-Real-Ip"); ip != "" {
		return ip, nil
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0]), nil
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "", err
	}
	return host, nil
}
