package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"panellicense/logger"
	"panellicense/metrics"
	"panellicense/models"
	"panellicense/services"
	"panellicense/utils"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	claimsKey
)

// RequestIDHeader is echoed back so clients can quote it in support requests.
const RequestIDHeader = "X-Request-ID"

// responseWriter captures the status and size of a response
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += n
	return n, err
}

// LoggingMiddleware logs every request and response and assigns a request id.
func LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if requestID == "" || len(requestID) > 64 {
			requestID = utils.GenerateID("")
		}
		rw.Header().Set(RequestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)

		logger.WithFields(map[string]interface{}{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"ip":         remoteIP(r),
			"user_agent": r.UserAgent(),
		}).Debug("HTTP Request")

		next.ServeHTTP(rw, r.WithContext(ctx))

		duration := time.Since(start)
		logger.WithFields(map[string]interface{}{
			"request_id":  requestID,
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": duration.Milliseconds(),
			"size":        rw.written,
		}).Log(getLogLevelForStatus(rw.statusCode), "HTTP Response")
	}
}

// MetricsMiddleware records request latency by route pattern, never by raw path.
func MetricsMiddleware(m *metrics.Metrics) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			pattern := r.Pattern
			if pattern == "" {
				pattern = "unmatched"
			}
			m.ObserveRequest(pattern, rw.statusCode, time.Since(start))
		}
	}
}

// getLogLevelForStatus picks the log level for a status code
func getLogLevelForStatus(statusCode int) logger.LogLevel {
	switch {
	case statusCode >= 500:
		return logger.ERROR
	case statusCode >= 400:
		return logger.WARN
	default:
		return logger.INFO
	}
}

// RequestIDFromContext returns the id assigned by LoggingMiddleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ClaimsFromContext returns the token claims stored by AuthMiddleware.
func ClaimsFromContext(ctx context.Context) (*utils.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*utils.Claims)
	return claims, ok && claims != nil
}

// ContextWithClaims is what AuthMiddleware does after verifying a token.
func ContextWithClaims(ctx context.Context, claims *utils.Claims) context.Context {
	ctx = context.WithValue(ctx, claimsKey, claims)
	return services.ContextWithActor(ctx, claims.UserID)
}

// AuthMiddleware requires a valid bearer token.
func AuthMiddleware(tm *utils.TokenManager) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			requestID := RequestIDFromContext(r.Context())

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WithFields(map[string]interface{}{
					"request_id": requestID,
					"ip":         remoteIP(r),
				}).Warn("Missing authorization header")
				writeUnauthorized(w, "Authorization header required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				logger.WithFields(map[string]interface{}{
					"request_id": requestID,
					"ip":         remoteIP(r),
				}).Warn("Invalid authorization header format")
				writeUnauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := tm.ValidateToken(strings.TrimSpace(parts[1]))
			if err != nil {
				logger.WithFields(map[string]interface{}{
					"request_id": requestID,
					"ip":         remoteIP(r),
					"error":      err.Error(),
				}).Warn("Invalid or expired token")
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			logger.WithFields(map[string]interface{}{
				"request_id": requestID,
				"user_id":    claims.UserID,
				"role":       claims.Role,
			}).Debug("Caller authenticated")

			next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
		}
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="panellicense"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(models.CodedErrorResponse(message, "UNAUTHORIZED", ""))
}

// CORSMiddleware CORS headers and preflight
func CORSMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+RequestIDHeader)
		w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader+", "+utils.SignatureHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	}
}

// ChainMiddleware applies middlewares so the first listed runs outermost
func ChainMiddleware(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}
