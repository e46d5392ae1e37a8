package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"

	apierrors "github.com/maruel/wcstore/internal/errors"
	"github.com/maruel/wcstore/internal/metrics"
	"github.com/maruel/wcstore/internal/server/reqctx"
	"github.com/maruel/wcstore/internal/utils"
)

// WriteHeaders sets the X-RateLimit-* headers, plus Retry-After when the
// request is refused.
func WriteHeaders(w http.ResponseWriter, res Result) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
	if !res.Allowed {
		h.Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
	}
}

// Middleware refuses requests over the tier budget with 429.
func (t *Tier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := reqctx.ClientIP(r.Context())
		if ip == "" {
			ip = reqctx.GetClientIP(r)
		}
		res := t.Limiter.Allow(t.Name + ":" + ip)
		WriteHeaders(w, res)
		if !res.Allowed {
			metrics.RateLimitRejected.WithLabelValues(t.Name).Inc()
			slog.WarnContext(r.Context(), "Rate limited", "tier", t.Name, "ip", ip)
			utils.RespondError(r.Context(), w, apierrors.TooManyRequests())
			return
		}
		next.ServeHTTP(w, r)
	})
}
