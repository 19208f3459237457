package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

type ctxKey int

const requestIDKey ctxKey = iota

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// withMiddleware wraps h, outermost first: CORS, request ID, panic recovery,
// rate limiting.
func (s *Server) withMiddleware(h http.Handler) http.Handler {
	h = s.rateLimit(h)
	h = s.recoverPanics(h)
	h = withRequestID(h)

	origins := s.config.CORSOrigins
	if len(origins) == 0 {
		return h
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
	}).Handler(h)
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// recoverPanics turns a panic anywhere below into a 400 so that no internal
// failure escapes the boundary.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("panic while handling request",
					"request_id", requestID(r.Context()),
					"path", r.URL.Path,
					"panic", rec)
				s.metrics.panics.Inc()
				writeDetail(w, http.StatusBadRequest, "Failed to parse PDF.")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// rateLimit applies one token bucket to the parsing endpoints. Health and
// metrics stay unlimited.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.config.RateLimit <= 0 {
		return next
	}
	burst := s.config.RateBurst
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(s.config.RateLimit), burst)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && !limiter.Allow() {
			s.metrics.rateLimited.Inc()
			writeDetail(w, http.StatusTooManyRequests, "Too many requests.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
