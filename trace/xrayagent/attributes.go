package xrayagent

import (
	"net"
	"net/http"
	"strings"
)

// Response is the host-agnostic view of the outbound response the
// interceptor needs: the status code and the headers it may still write
// the trace header into.
type Response struct {
	StatusCode int
	Header     http.Header
}

// collectRequestAttributes attaches url, method, user agent and client ip
// to the segment. Additive only.
func collectRequestAttributes(e Entity, req *http.Request) {
	attrs := map[string]interface{}{
		AttrURL:    requestURL(req),
		AttrMethod: req.Method,
	}
	if ua := req.UserAgent(); ua != "" {
		attrs[AttrUserAgent] = ua
	}
	ip, forwarded := clientIP(req)
	if ip != "" {
		attrs[AttrClientIP] = ip
	}
	if forwarded {
		attrs[AttrXForwardedFor] = true
	}
	e.AddHTTPRequest(attrs)
}

// collectResponseAttributes attaches the status code and flags
// error/throttle/fault state from it. A nil response skips collection
// entirely.
func collectResponseAttributes(e Entity, resp *Response) {
	if resp == nil {
		return
	}
	e.AddHTTPResponse(map[string]interface{}{
		AttrStatus: resp.StatusCode,
	})
	e.MarkFromStatus(resp.StatusCode)
}

// clientIP resolves the original client address. A forwarded-for header
// wins; only its first entry is used, the leftmost hop being the original
// client in a proxy chain. Otherwise the directly observed peer address
// applies.
func clientIP(req *http.Request) (ip string, forwarded bool) {
	if fwd := req.Header.Get("X-Forwarded-For"); fwd != "" {
		first := fwd
		if idx := strings.Index(fwd, ","); idx >= 0 {
			first = fwd[:idx]
		}
		return strings.TrimSpace(first), true
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr, false
	}
	return host, false
}

func requestURL(req *http.Request) string {
	if req.URL != nil && req.URL.IsAbs() {
		return req.URL.String()
	}
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}
	path := ""
	if req.URL != nil {
		path = req.URL.Path
	}
	return scheme + "://" + req.Host + path
}
