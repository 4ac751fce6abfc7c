package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/domain/entity"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/platform/logger"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/platform/metrics"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const (
	accountIDKey contextKey = "account_id"
	claimsKey    contextKey = "access_claims"
)

const accessTokenCookie = "accessToken"

func accountIDFromContext(ctx context.Context) (primitive.ObjectID, bool) {
	id, ok := ctx.Value(accountIDKey).(primitive.ObjectID)
	return id, ok
}

func claimsFromContext(ctx context.Context) (*service.AccessClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*service.AccessClaims)
	return claims, ok
}

func unauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, envelope{
		Success:    false,
		StatusCode: http.StatusUnauthorized,
		Message:    message,
	})
}

// Authenticate reads the access token from the Authorization header or the
// accessToken cookie and puts the verified claims on the request context.
func Authenticate(tokens *service.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				if cookie, err := r.Cookie(accessTokenCookie); err == nil {
					tokenString = cookie.Value
				}
			}
			if tokenString == "" {
				unauthorized(w, "authentication required")
				return
			}

			claims, err := tokens.VerifyAccessToken(tokenString)
			if err != nil {
				unauthorized(w, "access token is invalid or expired")
				return
			}
			accountID, err := primitive.ObjectIDFromHex(claims.Subject)
			if err != nil {
				unauthorized(w, "access token is invalid or expired")
				return
			}

			ctx := context.WithValue(r.Context(), accountIDKey, accountID)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// StaffOnly guards endpoints reserved for staff accounts. It must run after
// Authenticate.
func StaffOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFromContext(r.Context())
		if !ok || claims.Role != entity.RoleStaff {
			writeJSON(w, http.StatusForbidden, envelope{
				Success:    false,
				StatusCode: http.StatusForbidden,
				Message:    "staff access required",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Observe records per-route latency and error counts against the metrics
// registry, and logs each completed request.
func Observe(m *metrics.Manager, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = r.URL.Path
			}
			m.APILatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
			if rec.status >= http.StatusBadRequest {
				m.APIErrorsTotal.WithLabelValues(route, http.StatusText(rec.status)).Inc()
			}
			log.Debugf("%s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start))
		})
	}
}
