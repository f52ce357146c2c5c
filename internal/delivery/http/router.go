package http

import (
	"log/slog"
	"net/http"

	"campusevents/internal/delivery/http/controllers"
	"campusevents/internal/delivery/http/helpers"
	"campusevents/internal/delivery/http/middleware"
	"campusevents/internal/domain"

	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter initializes the HTTP router with all application routes.
// Engagement routes are rate limited per caller after authentication.
func NewRouter(
	eventController *controllers.EventController,
	statController *controllers.StatController,
	userController *controllers.UserController,
	verifier domain.TokenVerifier,
	limiter *middleware.RateLimiter,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Events
	mux.HandleFunc("GET /api/event/getevent", auth(eventController.ListFeed))
	mux.HandleFunc("GET /api/event/mine", auth(eventController.ListMine))
	mux.HandleFunc("POST /api/event/create", auth(eventController.CreateEvent))
	mux.HandleFunc("GET /api/event/{id}", auth(eventController.GetEvent))
	mux.HandleFunc("PUT /api/event/{id}", auth(eventController.UpdateEvent))
	mux.HandleFunc("DELETE /api/event/{id}", auth(eventController.DeleteEvent))

	// Engagement
	mux.HandleFunc("POST /api/stat/like/{eventId}", auth(limiter.Limit(statController.ToggleLike)))
	mux.HandleFunc("POST /api/stat/comment/{eventId}", auth(limiter.Limit(statController.AddComment)))

	// Profiles
	mux.HandleFunc("GET /api/user/details", auth(userController.GetDetails))
	mux.HandleFunc("PUT /api/user/details", auth(userController.UpdateDetails))
	mux.HandleFunc("PUT /api/user/update-photo", auth(userController.UpdatePhoto))
	mux.HandleFunc("GET /api/user/suggestions", auth(userController.ListSuggestions))
	mux.HandleFunc("POST /api/user/add-connection/{id}", auth(userController.AddConnection))

	// Public photo downloads
	mux.HandleFunc("GET /api/user/photo/{filename}", userController.ServePhoto)
	mux.HandleFunc("GET /uploads/{filename}", userController.ServePhoto)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
