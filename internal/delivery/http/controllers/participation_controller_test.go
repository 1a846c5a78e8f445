package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"sportmeet/internal/delivery/http/helpers"
	"sportmeet/internal/delivery/http/middleware"
	"sportmeet/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testControllerLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeParticipationService implements domain.ParticipationService for handler tests.
type fakeParticipationService struct {
	participant *domain.Participant
	list        []*domain.Participant
	err         error

	lastOp       string
	lastEventID  string
	lastUserID   string
	lastTargetID string
	lastNote     string
}

func (f *fakeParticipationService) Join(_ context.Context, eventID, userID, note string) (*domain.Participant, error) {
	f.lastOp, f.lastEventID, f.lastUserID, f.lastNote = "join", eventID, userID, note
	return f.participant, f.err
}

func (f *fakeParticipationService) Invite(_ context.Context, eventID, inviterID, inviteeID string) (*domain.Participant, error) {
	f.lastOp, f.lastEventID, f.lastUserID, f.lastTargetID = "invite", eventID, inviterID, inviteeID
	return f.participant, f.err
}

func (f *fakeParticipationService) AcceptInvitation(_ context.Context, eventID, userID string) (*domain.Participant, error) {
	f.lastOp, f.lastEventID, f.lastUserID = "accept_invitation", eventID, userID
	return f.participant, f.err
}

func (f *fakeParticipationService) RejectInvitation(_ context.Context, eventID, userID string) error {
	f.lastOp, f.lastEventID, f.lastUserID = "reject_invitation", eventID, userID
	return f.err
}

func (f *fakeParticipationService) Approve(_ context.Context, eventID, approverID, targetUserID string) (*domain.Participant, error) {
	f.lastOp, f.lastEventID, f.lastUserID, f.lastTargetID = "approve", eventID, approverID, targetUserID
	return f.participant, f.err
}

func (f *fakeParticipationService) Reject(_ context.Context, eventID, approverID, targetUserID string) (*domain.Participant, error) {
	f.lastOp, f.lastEventID, f.lastUserID, f.lastTargetID = "reject", eventID, approverID, targetUserID
	return f.participant, f.err
}

func (f *fakeParticipationService) Leave(_ context.Context, eventID, userID string) error {
	f.lastOp, f.lastEventID, f.lastUserID = "leave", eventID, userID
	return f.err
}

func (f *fakeParticipationService) CancelPendingRequest(_ context.Context, eventID, userID string) error {
	f.lastOp, f.lastEventID, f.lastUserID = "cancel", eventID, userID
	return f.err
}

func (f *fakeParticipationService) RemoveParticipant(_ context.Context, eventID, removerID, targetUserID string) error {
	f.lastOp, f.lastEventID, f.lastUserID, f.lastTargetID = "remove", eventID, removerID, targetUserID
	return f.err
}

func (f *fakeParticipationService) ListEventParticipants(_ context.Context, eventID string) ([]*domain.Participant, error) {
	f.lastOp, f.lastEventID = "list_event", eventID
	return f.list, f.err
}

func (f *fakeParticipationService) ListMyParticipations(_ context.Context, userID string) ([]*domain.Participant, error) {
	f.lastOp, f.lastUserID = "list_mine", userID
	return f.list, f.err
}

func (f *fakeParticipationService) CleanupUnresolved(_ context.Context, eventID string) error {
	return f.err
}

func (f *fakeParticipationService) PurgeEvent(_ context.Context, eventID string) error {
	return f.err
}

func authedRequest(method, target, eventID, userID string, body []byte) *http.Request {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, "http://test"+target, reader)
	if eventID != "" {
		req.SetPathValue("eventID", eventID)
	}
	req = req.WithContext(middleware.SetUserID(req.Context(), userID))
	return req
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	return envelope
}

func TestParticipationController_Join(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fake := &fakeParticipationService{
			participant: &domain.Participant{ID: "p-1", EventID: "ev-1", UserID: "user-1", Status: domain.StatusPending},
		}
		ctrl := NewParticipationController(testControllerLogger(), fake)

		body, _ := json.Marshal(JoinRequest{Note: "count me in"})
		rr := httptest.NewRecorder()
		ctrl.Join(rr, authedRequest(http.MethodPost, "/events/ev-1/join", "ev-1", "user-1", body))

		require.Equal(t, http.StatusCreated, rr.Code)
		envelope := decodeEnvelope(t, rr)
		require.Nil(t, envelope.Error)
		assert.Equal(t, "join", fake.lastOp)
		assert.Equal(t, "ev-1", fake.lastEventID)
		assert.Equal(t, "user-1", fake.lastUserID)
		assert.Equal(t, "count me in", fake.lastNote)
	})

	t.Run("empty body is allowed", func(t *testing.T) {
		fake := &fakeParticipationService{participant: &domain.Participant{ID: "p-1"}}
		ctrl := NewParticipationController(testControllerLogger(), fake)

		rr := httptest.NewRecorder()
		ctrl.Join(rr, authedRequest(http.MethodPost, "/events/ev-1/join", "ev-1", "user-1", nil))

		require.Equal(t, http.StatusCreated, rr.Code)
		assert.Empty(t, fake.lastNote)
	})

	t.Run("no user in context", func(t *testing.T) {
		ctrl := NewParticipationController(testControllerLogger(), &fakeParticipationService{})

		req := httptest.NewRequest(http.MethodPost, "http://test/events/ev-1/join", nil)
		req.SetPathValue("eventID", "ev-1")
		rr := httptest.NewRecorder()
		ctrl.Join(rr, req)

		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"event missing", domain.ErrNotFound, http.StatusNotFound, helpers.ErrCodeNotFound},
		{"already participant", domain.ErrAlreadyParticipant, http.StatusConflict, helpers.ErrCodeConflict},
		{"age restricted", domain.ErrNotEligible, http.StatusForbidden, helpers.ErrCodeForbidden},
		{"service error", assert.AnError, http.StatusInternalServerError, helpers.ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewParticipationController(testControllerLogger(), &fakeParticipationService{err: tt.err})

			rr := httptest.NewRecorder()
			ctrl.Join(rr, authedRequest(http.MethodPost, "/events/ev-1/join", "ev-1", "user-1", nil))

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tt.wantCode, envelope.Error.Code)
		})
	}
}

func TestParticipationController_Invite(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fake := &fakeParticipationService{
			participant: &domain.Participant{ID: "p-2", Status: domain.StatusInvited},
		}
		ctrl := NewParticipationController(testControllerLogger(), fake)

		body, _ := json.Marshal(InviteRequest{UserID: "user-2"})
		rr := httptest.NewRecorder()
		ctrl.Invite(rr, authedRequest(http.MethodPost, "/events/ev-1/invitations", "ev-1", "user-1", body))

		require.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "invite", fake.lastOp)
		assert.Equal(t, "user-2", fake.lastTargetID)
	})

	t.Run("missing user_id", func(t *testing.T) {
		ctrl := NewParticipationController(testControllerLogger(), &fakeParticipationService{})

		body := []byte(`{"user_id": ""}`)
		rr := httptest.NewRecorder()
		ctrl.Invite(rr, authedRequest(http.MethodPost, "/events/ev-1/invitations", "ev-1", "user-1", body))

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("inviter not accepted", func(t *testing.T) {
		ctrl := NewParticipationController(testControllerLogger(), &fakeParticipationService{err: domain.ErrNotAuthorized})

		body, _ := json.Marshal(InviteRequest{UserID: "user-2"})
		rr := httptest.NewRecorder()
		ctrl.Invite(rr, authedRequest(http.MethodPost, "/events/ev-1/invitations", "ev-1", "user-1", body))

		require.Equal(t, http.StatusForbidden, rr.Code)
		envelope := decodeEnvelope(t, rr)
		assert.Equal(t, helpers.ErrCodeForbidden, envelope.Error.Code)
	})
}

func TestParticipationController_Approve(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"success", nil, http.StatusOK, ""},
		{"event full", domain.ErrEventFull, http.StatusConflict, helpers.ErrCodeConflict},
		{"not organizer", domain.ErrNotAuthorized, http.StatusForbidden, helpers.ErrCodeForbidden},
		{"target not pending", domain.ErrInvalidTransition, http.StatusConflict, helpers.ErrCodeConflict},
		{"target missing", domain.ErrNotFound, http.StatusNotFound, helpers.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeParticipationService{
				participant: &domain.Participant{ID: "p-1", Status: domain.StatusAccepted},
				err:         tt.err,
			}
			ctrl := NewParticipationController(testControllerLogger(), fake)

			req := authedRequest(http.MethodPost, "/events/ev-1/participants/user-2/approve", "ev-1", "organizer", nil)
			req.SetPathValue("userID", "user-2")
			rr := httptest.NewRecorder()
			ctrl.Approve(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.err == nil {
				assert.Equal(t, "approve", fake.lastOp)
				assert.Equal(t, "organizer", fake.lastUserID)
				assert.Equal(t, "user-2", fake.lastTargetID)
				return
			}
			envelope := decodeEnvelope(t, rr)
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tt.wantCode, envelope.Error.Code)
		})
	}
}

func TestParticipationController_Leave(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fake := &fakeParticipationService{}
		ctrl := NewParticipationController(testControllerLogger(), fake)

		rr := httptest.NewRecorder()
		ctrl.Leave(rr, authedRequest(http.MethodDelete, "/events/ev-1/leave", "ev-1", "user-1", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "leave", fake.lastOp)
	})

	t.Run("organizer cannot leave", func(t *testing.T) {
		ctrl := NewParticipationController(testControllerLogger(), &fakeParticipationService{err: domain.ErrOrganizersCannotLeave})

		rr := httptest.NewRecorder()
		ctrl.Leave(rr, authedRequest(http.MethodDelete, "/events/ev-1/leave", "ev-1", "organizer", nil))

		require.Equal(t, http.StatusConflict, rr.Code)
		envelope := decodeEnvelope(t, rr)
		assert.Equal(t, helpers.ErrCodeConflict, envelope.Error.Code)
	})
}

func TestParticipationController_RemoveParticipant(t *testing.T) {
	t.Run("organizer row is protected", func(t *testing.T) {
		ctrl := NewParticipationController(testControllerLogger(), &fakeParticipationService{err: domain.ErrCannotRemoveOrganizer})

		req := authedRequest(http.MethodDelete, "/events/ev-1/participants/organizer", "ev-1", "organizer", nil)
		req.SetPathValue("userID", "organizer")
		rr := httptest.NewRecorder()
		ctrl.RemoveParticipant(rr, req)

		require.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("success", func(t *testing.T) {
		fake := &fakeParticipationService{}
		ctrl := NewParticipationController(testControllerLogger(), fake)

		req := authedRequest(http.MethodDelete, "/events/ev-1/participants/user-2", "ev-1", "organizer", nil)
		req.SetPathValue("userID", "user-2")
		rr := httptest.NewRecorder()
		ctrl.RemoveParticipant(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "remove", fake.lastOp)
		assert.Equal(t, "user-2", fake.lastTargetID)
	})
}

func TestParticipationController_ListEventParticipants(t *testing.T) {
	fake := &fakeParticipationService{
		list: []*domain.Participant{
			{ID: "p-1", Role: domain.RoleOrganizer, Status: domain.StatusAccepted},
			{ID: "p-2", Role: domain.RolePlayer, Status: domain.StatusPending},
		},
	}
	ctrl := NewParticipationController(testControllerLogger(), fake)

	rr := httptest.NewRecorder()
	ctrl.ListEventParticipants(rr, authedRequest(http.MethodGet, "/events/ev-1/participants", "ev-1", "user-1", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	envelope := decodeEnvelope(t, rr)
	require.Nil(t, envelope.Error)
	dataBytes, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var participants []*domain.Participant
	require.NoError(t, json.Unmarshal(dataBytes, &participants))
	require.Len(t, participants, 2)
}
