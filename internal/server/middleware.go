package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/maruel/wcstore/internal/auth"
	"github.com/maruel/wcstore/internal/metrics"
	"github.com/maruel/wcstore/internal/server/reqctx"
	"github.com/maruel/wcstore/internal/utils"
)

// TokenVerifier returns the subject of a valid token.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// CORS allows every origin, method and header and answers preflight requests.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "*")
		h.Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder remembers the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// RequestContext stores the client metadata in the request context, then
// logs and counts the request once it is answered.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := reqctx.GetClientIP(r)
		ctx := reqctx.WithClientIP(r.Context(), ip)
		ctx = reqctx.WithUserAgent(ctx, r.UserAgent())
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		slog.InfoContext(ctx, "http", "method", r.Method, "path", r.URL.Path, "status", rec.status, "dur", time.Since(start).Round(time.Millisecond), "ip", ip)
	})
}

// RequireAdmin refuses requests without a valid bearer token with 401 before
// calling next. The token subject is stored in the request context.
func RequireAdmin(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, err := auth.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				utils.RespondError(ctx, w, err)
				return
			}
			sub, err := tokens.VerifyToken(token)
			if err != nil {
				utils.RespondError(ctx, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(reqctx.WithSubject(ctx, sub)))
		})
	}
}
