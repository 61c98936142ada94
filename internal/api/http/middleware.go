package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"book-rental-backend/internal/api/grpc/interceptor"
	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/logger"
	"book-rental-backend/internal/security"
)

type ctxKey int

const actorKey ctxKey = iota

// ActorFromContext returns the caller set by the auth middleware.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	a, ok := ctx.Value(actorKey).(domain.Actor)
	return a, ok
}

func withActor(ctx context.Context, a domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// authenticate requires a valid access token and stores the caller.
func authenticate(tm security.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeErrorCode(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authorization token is not provided")
				return
			}
			claims, err := tm.ValidateToken(interceptor.StripBearer(header))
			if err != nil {
				writeErrorCode(w, http.StatusUnauthorized, "UNAUTHENTICATED", err.Error())
				return
			}
			if claims.Type != security.TokenTypeAccess {
				writeErrorCode(w, http.StatusUnauthorized, "UNAUTHENTICATED", "access token required")
				return
			}
			next.ServeHTTP(w, r.WithContext(withActor(r.Context(), claims.Actor())))
		})
	}
}

// requireRole rejects callers whose role is not listed.
func requireRole(roles ...domain.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			actor, _ := ActorFromContext(r.Context())
			for _, role := range roles {
				if actor.Role == role {
					next(w, r)
					return
				}
			}
			writeError(w, domain.ErrForbidden)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogging tags each request with an ID and logs its outcome.
func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := logger.WithRequestID(r.Context(), reqID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))
		logger.InfoContext(ctx, "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// recoverPanic turns a handler panic into a 500.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.Error("Panic in HTTP handler", "path", r.URL.Path, "panic", v)
				writeErrorCode(w, http.StatusInternalServerError, "INTERNAL", "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
