package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"sportmeet/internal/delivery/http/helpers"
	"sportmeet/internal/delivery/http/middleware"
	"sportmeet/internal/domain"
)

// JoinRequest is the optional request body for POST /events/{eventID}/join.
type JoinRequest struct {
	Note string `json:"note"`
}

// Validate implements Validator.
func (j JoinRequest) Validate() []string {
	if len(j.Note) > 500 {
		return []string{"note must be at most 500 characters"}
	}
	return nil
}

// InviteRequest is the request body for POST /events/{eventID}/invitations.
type InviteRequest struct {
	UserID string `json:"user_id"`
}

// Validate implements Validator.
func (i InviteRequest) Validate() []string {
	if strings.TrimSpace(i.UserID) == "" {
		return []string{"user_id is required"}
	}
	return nil
}

type ParticipationController struct {
	Logger  *slog.Logger
	Service domain.ParticipationService
}

func NewParticipationController(logger *slog.Logger, svc domain.ParticipationService) *ParticipationController {
	return &ParticipationController{
		Logger:  logger,
		Service: svc,
	}
}

// writeParticipationError maps the state machine's named failures onto HTTP
// statuses; anything unnamed is logged and reported as a 500.
func (c *ParticipationController) writeParticipationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrAlreadyParticipant):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "user already has a participation for this event")
	case errors.Is(err, domain.ErrEventFull):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "event is full")
	case errors.Is(err, domain.ErrInvalidTransition):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "participation is not in a state that allows this operation")
	case errors.Is(err, domain.ErrOrganizersCannotLeave):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "organizers cannot leave their own event")
	case errors.Is(err, domain.ErrCannotRemoveOrganizer):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "the organizer cannot be removed")
	case errors.Is(err, domain.ErrNotAuthorized), errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotEligible):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "user does not meet the event's age requirements")
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}

func requireAuthAndEvent(w http.ResponseWriter, r *http.Request) (userID, eventID string, ok bool) {
	eventID = r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return "", "", false
	}
	userID, ok = middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return "", "", false
	}
	return userID, eventID, true
}

// Join godoc
// @Summary Request to join an event
// @Description Creates a pending participation for the authenticated user. The organizer must approve it before the user is in.
// @Tags participations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body JoinRequest false "Optional note to the organizer"
// @Success 201 {object} helpers.APIResponse "data contains the pending participation"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{eventID}/join [post]
func (c *ParticipationController) Join(w http.ResponseWriter, r *http.Request) {
	userID, eventID, ok := requireAuthAndEvent(w, r)
	if !ok {
		return
	}
	var req JoinRequest
	if r.ContentLength > 0 && !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	p, err := c.Service.Join(r.Context(), eventID, userID, req.Note)
	if err != nil {
		c.writeParticipationError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, p)
}

// Invite godoc
// @Summary Invite a user to an event
// @Description Creates an invited participation for the given user. Only accepted participants (organizer included) may invite.
// @Tags participations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body InviteRequest true "User to invite"
// @Success 201 {object} helpers.APIResponse "data contains the invited participation"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{eventID}/invitations [post]
func (c *ParticipationController) Invite(w http.ResponseWriter, r *http.Request) {
	inviterID, eventID, ok := requireAuthAndEvent(w, r)
	if !ok {
		return
	}
	var req InviteRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	p, err := c.Service.Invite(r.Context(), eventID, inviterID, req.UserID)
	if err != nil {
		c.writeParticipationError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, p)
}

// AcceptInvitation godoc
// @Summary Accept an invitation
// @Description Moves the authenticated user's invited participation to pending, awaiting organizer approval. Without an invitation this behaves like a join request.
// @Tags participations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains the pending participation"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{eventID}/invitation/accept [post]
func (c *ParticipationController) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	userID, eventID, ok := requireAuthAndEvent(w, r)
	if !ok {
		return
	}
	p, err := c.Service.AcceptInvitation(r.Context(), eventID, userID)
	if err != nil {
		c.writeParticipationError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, p)
}

// RejectInvitation godoc
// @Summary Decline an invitation
// @Description Deletes the authenticated user's invited participation, so they may be invited again later.
// @Tags participations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains a confirmation message"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{eventID}/invitation [delete]
func (c *ParticipationController) RejectInvitation(w http.ResponseWriter, r *http.Request) {
	userID, eventID, ok := requireAuthAndEvent(w, r)
	if !ok {
		return
	}
	if err := c.Service.RejectInvitation(r.Context(), eventID, userID); err != nil {
		c.writeParticipationError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "invitation declined"})
}

// Approve godoc
// @Summary Approve a pending join request
// @Description Accepts the target user's pending participation. Organizer only. Fails with 409 when the event's capacity is already reached.
// @Tags participations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param userID path string true "Target user ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains the accepted participation"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{eventID}/participants/{userID}/approve [post]
func (c *ParticipationController) Approve(w http.ResponseWriter, r *http.Request) {
	approverID, eventID, ok := requireAuthAndEvent(w, r)
	if !ok {
		return
	}
	targetID := r.PathValue("userID")
	p, err := c.Service.Approve(r.Context(), eventID, approverID, targetID)
	if err != nil {
		c.writeParticipationError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, p)
}

// Reject godoc
// @Summary Reject a pending join request
// @Description Marks the target user's pending participation as rejected. Organizer only. The rejected row is kept, so the user cannot simply re-join.
// @Tags participations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param userID path string true "Target user ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains the rejected participation"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{eventID}/participants/{userID}/reject [post]
func (c *ParticipationController) Reject(w http.ResponseWriter, r *http.Request) {
	approverID, eventID, ok := requireAuthAndEvent(w, r)
	if !ok {
		return
	}
	targetID := r.PathValue("userID")
	p, err := c.Service.Reject(r.Context(), eventID, approverID, targetID)
	if err != nil {
		c.writeParticipationError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, p)
}

// Leave godoc
// @Summary Leave an event
// @Description Deletes the authenticated user's accepted participation. Organizers cannot leave their own event.
// @Tags participations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains a confirmation message"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{eventID}/leave [delete]
func (c *ParticipationController) Leave(w http.ResponseWriter, r *http.Request) {
	userID, eventID, ok := requireAuthAndEvent(w, r)
	if !ok {
		return
	}
	if err := c.Service.Leave(r.Context(), eventID, userID); err != nil {
		c.writeParticipationError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "left event"})
}

// CancelPendingRequest godoc
// @Summary Cancel a pending join request
// @Description Deletes the authenticated user's pending participation before the organizer resolves it.
// @Tags participations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains a confirmation message"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{eventID}/join [delete]
func (c *ParticipationController) CancelPendingRequest(w http.ResponseWriter, r *http.Request) {
	userID, eventID, ok := requireAuthAndEvent(w, r)
	if !ok {
		return
	}
	if err := c.Service.CancelPendingRequest(r.Context(), eventID, userID); err != nil {
		c.writeParticipationError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "request cancelled"})
}

// RemoveParticipant godoc
// @Summary Remove a participant
// @Description Deletes the target user's participation in any state. Organizer only; the organizer's own row cannot be removed.
// @Tags participations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param userID path string true "Target user ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains a confirmation message"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{eventID}/participants/{userID} [delete]
func (c *ParticipationController) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	removerID, eventID, ok := requireAuthAndEvent(w, r)
	if !ok {
		return
	}
	targetID := r.PathValue("userID")
	if err := c.Service.RemoveParticipant(r.Context(), eventID, removerID, targetID); err != nil {
		c.writeParticipationError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "participant removed"})
}

// ListEventParticipants godoc
// @Summary List an event's participants
// @Description Returns every participation row of the event, all statuses included.
// @Tags participations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains the participant list"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/participants [get]
func (c *ParticipationController) ListEventParticipants(w http.ResponseWriter, r *http.Request) {
	_, eventID, ok := requireAuthAndEvent(w, r)
	if !ok {
		return
	}
	participants, err := c.Service.ListEventParticipants(r.Context(), eventID)
	if err != nil {
		c.writeParticipationError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, participants)
}

// ListMyParticipations godoc
// @Summary List my participations
// @Description Returns the authenticated user's participation rows across all events.
// @Tags participations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the participation list"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /me/participations [get]
func (c *ParticipationController) ListMyParticipations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	participants, err := c.Service.ListMyParticipations(r.Context(), userID)
	if err != nil {
		c.writeParticipationError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, participants)
}
