// Package api wires the HTTP surface over the account and gift services.
package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/GiftLink-io/giftlink/internal/auth"
	"github.com/GiftLink-io/giftlink/internal/models"
	"github.com/GiftLink-io/giftlink/internal/store"
)

// GiftStore is the catalog contract the gift handlers depend on.
type GiftStore interface {
	ListGifts(ctx context.Context) ([]models.Gift, error)
	GetGiftByID(ctx context.Context, id string) (*models.Gift, error)
	CreateGift(ctx context.Context, gift *models.Gift) error
	SearchGifts(ctx context.Context, filter store.GiftFilter) ([]models.Gift, error)
	SetGiftImage(ctx context.Context, id, key string) error
}

// ImageStore is the object-storage contract for gift images.
type ImageStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	PresignURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Api holds the router and the services behind it.
type Api struct {
	router   *chi.Mux
	logger   *slog.Logger
	accounts *auth.Service
	tokens   *auth.TokenManager
	gifts    GiftStore
	images   ImageStore // nil when image storage is not configured
}

// NewApi assembles the router. images may be nil; the image endpoints then
// report the feature as unavailable.
func NewApi(logger *slog.Logger, accounts *auth.Service, tokens *auth.TokenManager, gifts GiftStore, images ImageStore) *Api {
	a := &Api{
		router:   chi.NewRouter(),
		logger:   logger,
		accounts: accounts,
		tokens:   tokens,
		gifts:    gifts,
		images:   images,
	}
	a.setupRoutes()
	return a
}

// ServeHTTP delegates to the underlying chi router.
func (a *Api) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *Api) setupRoutes() {
	r := a.router

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/heartbeat"))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Server is running and ready!"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", a.RegisterHandler)
		r.Post("/auth/login", a.LoginHandler)

		r.Get("/gifts", a.ListGiftsHandler)
		r.Get("/gifts/{id}", a.GetGiftHandler)
		r.Post("/gifts", a.CreateGiftHandler)
		r.Get("/gifts/{id}/image", a.GiftImageURLHandler)
		r.Get("/search", a.SearchGiftsHandler)

		r.Group(func(r chi.Router) {
			r.Use(a.RequireAuth)
			r.Put("/auth/update", a.UpdateProfileHandler)
			r.Post("/gifts/{id}/image", a.UploadGiftImageHandler)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
}

// requestLogger logs one structured line per request.
func (a *Api) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
