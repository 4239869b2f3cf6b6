package public

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/sngm3741/friendlyeats/api/internal/directory/application"
)

// RateLimiter decides whether a user may submit another review.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// Handler wires public HTTP endpoints to application services.
type Handler struct {
	logger         logrus.FieldLogger
	restaurants    application.RestaurantQueryService
	reviewQueries  application.ReviewQueryService
	reviewCommands application.ReviewCommandService
	limiter        RateLimiter
	upgrader       websocket.Upgrader
	pingInterval   time.Duration
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger         logrus.FieldLogger
	Restaurants    application.RestaurantQueryService
	ReviewQueries  application.ReviewQueryService
	ReviewCommands application.ReviewCommandService
	// RateLimiter is optional; review submissions are unlimited without it.
	RateLimiter    RateLimiter
	AllowedOrigins []string
	// PingInterval defaults to 30 seconds.
	PingInterval time.Duration
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	ping := cfg.PingInterval
	if ping <= 0 {
		ping = 30 * time.Second
	}
	return &Handler{
		logger:         cfg.Logger,
		restaurants:    cfg.Restaurants,
		reviewQueries:  cfg.ReviewQueries,
		reviewCommands: cfg.ReviewCommands,
		limiter:        cfg.RateLimiter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
		pingInterval: ping,
	}
}

// Register mounts all public routes onto the router. Review submission is only
// mounted when authMiddleware is non-nil.
func (h *Handler) Register(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/restaurants", h.restaurantListHandler())
	r.Get("/restaurants/live", h.restaurantLiveHandler())
	r.Get("/restaurants/{id}", h.restaurantDetailHandler())
	r.Get("/restaurants/{id}/reviews", h.reviewListHandler())
	r.Get("/restaurants/{id}/reviews/live", h.reviewLiveHandler())
	if authMiddleware == nil {
		return
	}
	r.With(authMiddleware, h.rateLimit).Post("/restaurants/{id}/reviews", h.reviewSubmitHandler())
	r.With(authMiddleware).Get("/auth/verify", h.authVerifyHandler())
}
