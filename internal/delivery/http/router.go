package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "sportmeet/docs"
	"sportmeet/internal/delivery/http/controllers"
	"sportmeet/internal/delivery/http/middleware"
	"sportmeet/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	logger *slog.Logger,
	verifier domain.TokenVerifier,
	authController *controllers.AuthController,
	eventController *controllers.EventController,
	participationController *controllers.ParticipationController,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.LogIn)

	// Events
	mux.HandleFunc("POST /events", auth(eventController.CreateEvent))
	mux.HandleFunc("GET /events/mine", auth(eventController.ListMyEvents))
	mux.HandleFunc("GET /events/{eventID}", auth(eventController.GetEventByID))
	mux.HandleFunc("PATCH /events/{eventID}", auth(eventController.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", auth(eventController.DeleteEvent))
	mux.HandleFunc("PUT /events/{eventID}/image", auth(eventController.UploadEventImage))

	// Participations
	mux.HandleFunc("POST /events/{eventID}/join", auth(participationController.Join))
	mux.HandleFunc("DELETE /events/{eventID}/join", auth(participationController.CancelPendingRequest))
	mux.HandleFunc("POST /events/{eventID}/invitations", auth(participationController.Invite))
	mux.HandleFunc("POST /events/{eventID}/invitation/accept", auth(participationController.AcceptInvitation))
	mux.HandleFunc("DELETE /events/{eventID}/invitation", auth(participationController.RejectInvitation))
	mux.HandleFunc("POST /events/{eventID}/participants/{userID}/approve", auth(participationController.Approve))
	mux.HandleFunc("POST /events/{eventID}/participants/{userID}/reject", auth(participationController.Reject))
	mux.HandleFunc("DELETE /events/{eventID}/participants/{userID}", auth(participationController.RemoveParticipant))
	mux.HandleFunc("GET /events/{eventID}/participants", auth(participationController.ListEventParticipants))
	mux.HandleFunc("DELETE /events/{eventID}/leave", auth(participationController.Leave))
	mux.HandleFunc("GET /me/participations", auth(participationController.ListMyParticipations))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
