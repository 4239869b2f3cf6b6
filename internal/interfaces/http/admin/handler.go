package admin

import (
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/sngm3741/friendlyeats/api/internal/directory/application"
)

// Handler wires restaurant maintenance endpoints to the command service.
type Handler struct {
	logger   logrus.FieldLogger
	commands application.RestaurantCommandService
}

// Config provides dependencies for Handler.
type Config struct {
	Logger   logrus.FieldLogger
	Commands application.RestaurantCommandService
}

// NewHandler constructs an admin HTTP handler set.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		logger:   cfg.Logger,
		commands: cfg.Commands,
	}
}

// Register mounts admin routes onto router. Callers put authentication in front.
func (h *Handler) Register(r chi.Router) {
	r.Post("/restaurants", h.restaurantCreateHandler())
	r.Patch("/restaurants/{id}/photo", h.restaurantPhotoHandler())
}
