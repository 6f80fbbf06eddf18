package api

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
)

// uploadLimit throttles cover-processing operations per client address.
// It runs after chi's RealIP, so RemoteAddr already honors proxy headers.
func (s *Server) uploadLimit(ctx huma.Context, next func(huma.Context)) {
	if s.limiter == nil {
		next(ctx)
		return
	}

	key := clientKey(ctx.RemoteAddr())
	if s.limiter.Allow(key) {
		next(ctx)
		return
	}

	wait := s.limiter.RetryAfter(key)
	s.logger.Warn("upload rate limit exceeded",
		"client", key,
		"operation", ctx.Operation().OperationID,
		"retry_after", wait,
	)
	ctx.SetHeader("Retry-After", strconv.Itoa(max(1, int(math.Ceil(wait.Seconds())))))
	_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "Too many uploads. Please try again shortly.")
}

// clientKey strips the port from a remote address.
func clientKey(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
