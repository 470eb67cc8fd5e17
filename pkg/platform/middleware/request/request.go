// Package request carries per-request metadata: the request id, the client
// address and a short description of the client software.
package request

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"seal/pkg/requestcontext"
)

const HeaderRequestID = "X-Request-ID"

// maxRequestIDLen bounds ids accepted from clients.
const maxRequestIDLen = 128

type (
	contextKeyClientIP struct{}
	contextKeyClient   struct{}
)

// RequestID reuses a well-formed X-Request-ID from the client or generates one,
// echoes it on the response and stores it in the context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)

		ctx := requestcontext.WithRequestID(r.Context(), id)
		ctx = context.WithValue(ctx, contextKeyClientIP{}, ClientIPFromRequest(r))
		ctx = context.WithValue(ctx, contextKeyClient{}, DescribeClient(r.UserAgent()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}

// GetClientIP retrieves the client IP address from the context.
func GetClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(contextKeyClientIP{}).(string); ok {
		return ip
	}
	return ""
}

// GetClient returns the client description stored by RequestID.
func GetClient(ctx context.Context) string {
	if c, ok := ctx.Value(contextKeyClient{}).(string); ok {
		return c
	}
	return ""
}

// DescribeClient reduces a User-Agent header to "browser version (os)",
// "bot" for crawlers, or the raw product token for non-browser clients such
// as curl or ethers scripts.
func DescribeClient(userAgent string) string {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return "unknown"
	}
	ua := useragent.New(userAgent)
	if ua.Bot() {
		return "bot"
	}
	name, version := ua.Browser()
	if os := ua.OS(); os != "" {
		desc := strings.TrimSpace(name + " " + version)
		if ua.Mobile() {
			os += ", mobile"
		}
		return desc + " (" + os + ")"
	}
	product, _, _ := strings.Cut(userAgent, " ")
	return product
}

// ClientIPFromRequest extracts the client IP, preferring proxy headers.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}
	return "unknown"
}
