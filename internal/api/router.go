package api

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/dipscan/internal/api/handlers"
	"github.com/wonny/dipscan/internal/metrics"
	"github.com/wonny/dipscan/pkg/logger"
	"github.com/wonny/dipscan/pkg/redis"
)

// RouterDeps holds the optional pieces of the router.
// A nil Metrics disables /metrics; a nil Limiter disables upload throttling.
type RouterDeps struct {
	Metrics         *metrics.Metrics
	Limiter         redis.Limiter
	UploadPerMinute int
	TrustProxy      bool // honor X-Forwarded-For when keying the limiter
	Logger          *logger.Logger
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h *handlers.AnalysisHandler, deps RouterDeps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	upload := http.Handler(http.HandlerFunc(h.Create))
	if deps.Limiter != nil && deps.UploadPerMinute > 0 {
		upload = rateLimitMiddleware(deps.Limiter, deps.UploadPerMinute, deps.TrustProxy, log)(upload)
	}
	api.Handle("/analyses", upload).Methods("POST")

	api.HandleFunc("/analyses/{id}", h.Get).Methods("GET")
	api.HandleFunc("/analyses/{id}", h.Delete).Methods("DELETE")
	api.HandleFunc("/analyses/{id}/prices", h.Prices).Methods("GET")
	api.HandleFunc("/analyses/{id}/summary", h.Summary).Methods("GET")
	api.HandleFunc("/analyses/{id}/events", h.Events).Methods("GET")
	api.HandleFunc("/analyses/{id}/export.xlsx", h.Export).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log, deps.Metrics))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "dipscan-api",
	})
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests and feeds request metrics
func loggingMiddleware(log *logger.Logger, m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			elapsed := time.Since(start)

			if m != nil {
				m.ObserveRequest(route, r.Method, rec.status, elapsed)
			}

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"route":    route,
				"status":   rec.status,
				"duration": elapsed.String(),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					handlers.RespondError(w, http.StatusInternalServerError, handlers.CodeInternal, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware throttles uploads per client address
func rateLimitMiddleware(l redis.Limiter, perMinute int, trustProxy bool, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cfg := redis.UploadRateLimit(clientIP(r, trustProxy), perMinute)

			allowed, _, err := l.Allow(r.Context(), cfg)
			if err != nil {
				// 리밋 저장소 장애 시 요청은 통과
				log.WithError(err).Warn("Rate limit check failed")
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", "60")
				handlers.RespondError(w, http.StatusTooManyRequests, handlers.CodeRateLimited, "too many uploads, try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the socket address. The first X-Forwarded-For hop is used
// only behind a trusted proxy, since clients can set the header freely.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
