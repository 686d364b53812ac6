package api

import (
	"net/http"
	"strconv"

	"github.com/tuanvm/fashionstore-backend/internal/auth"
	"github.com/tuanvm/fashionstore-backend/pkg/logger"
	"go.uber.org/zap"
)

// Identity pulls the gateway-forwarded identity headers into the request
// context. Requests without X-User-Id pass through anonymous; the per-route
// guards decide whether that is acceptable.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get("X-User-Id"); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
				ctx := auth.WithUser(r.Context(), id, r.Header.Get("X-User-Role"))
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.UserID(r.Context()) == 0 {
			JSON(w, http.StatusUnauthorized, errorBody{Kind: "unauthorized", Detail: "Authentication required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.UserID(r.Context()) == 0 {
			JSON(w, http.StatusUnauthorized, errorBody{Kind: "unauthorized", Detail: "Authentication required"})
			return
		}
		if !auth.IsAdmin(r.Context()) {
			JSON(w, http.StatusForbidden, errorBody{Kind: "forbidden", Detail: "Admin role required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger emits one structured line per request.
func RequestLogger(log logger.ZapLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
		})
	}
}
