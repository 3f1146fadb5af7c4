package middlewares

import (
	"context"
	"errors"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"

	"github.com/grvbrk/vidcatalog/internal/auth"
	"github.com/grvbrk/vidcatalog/internal/models"
	"github.com/grvbrk/vidcatalog/internal/store"
	"github.com/grvbrk/vidcatalog/internal/utils"
)

type contextKey string

const AdminContextKey contextKey = "admin"

const RequestIDHeader = "X-Request-ID"

type MiddlewareHandler struct {
	Logger         zerolog.Logger
	SessionStore   sessions.Store
	UserStore      store.UserStore
	AllowedOrigins []string
}

func NewMiddlewareHandler(logger zerolog.Logger, sessionStore sessions.Store, userStore store.UserStore, allowedOrigins []string) *MiddlewareHandler {
	return &MiddlewareHandler{
		Logger:         logger,
		SessionStore:   sessionStore,
		UserStore:      userStore,
		AllowedOrigins: allowedOrigins,
	}
}

// AuthenticateAdmin rejects requests without a session for an existing admin.
func (mh *MiddlewareHandler) AuthenticateAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := zerolog.Ctx(r.Context())

		adminID, ok := auth.AdminIDFromSession(mh.SessionStore, r)
		if !ok {
			log.Debug().Msg("no admin session")
			utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"error": "Admin access required"})
			return
		}

		admin, err := mh.UserStore.GetUserByID(r.Context(), adminID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				log.Warn().Int64("admin_id", adminID).Msg("session for unknown admin")
				utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"error": "Admin access required"})
				return
			}
			log.Error().Err(err).Msg("error loading admin")
			utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"error": "Internal Server Error"})
			return
		}

		ctx := context.WithValue(r.Context(), AdminContextKey, admin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PublicCors lets any origin read the public API.
func (mh *MiddlewareHandler) PublicCors() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	})
}

// AdminCors only admits the configured origins, with credentials.
func (mh *MiddlewareHandler) AdminCors() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   mh.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Disposition", RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	})
}

// RequestLogger tags every request with an id and a request scoped logger,
// then logs the outcome.
func (mh *MiddlewareHandler) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		log := mh.Logger.With().Str("request_id", requestID).Logger()
		ctx := log.WithContext(r.Context())

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("origin", r.Header.Get("Origin")).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (mh *MiddlewareHandler) Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

func GetAdminFromContext(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(AdminContextKey).(*models.User)
	return user, ok
}
