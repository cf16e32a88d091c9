package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/felixLandlord/eventRSVP/internal/auth"
	"github.com/felixLandlord/eventRSVP/internal/credential"
	"github.com/felixLandlord/eventRSVP/internal/domain"
	"github.com/felixLandlord/eventRSVP/internal/ratelimit"
)

// CheckInDesk is the interface needed by the organizer check-in endpoints.
type CheckInDesk interface {
	ValidateAndCheckIn(ctx context.Context, payload, eventID, organizerID string) (domain.RSVP, error)
	GetEventAttendees(ctx context.Context, eventID, organizerID string) ([]domain.RSVP, error)
	GetCheckInSummary(ctx context.Context, eventID, organizerID string) (domain.CheckInSummary, error)
}

type checkInRequest struct {
	Credential string `json:"credential"`
}

// handleEventCheckIn is the scanner flow: the organizer posts a scanned
// credential against the event and the holder's RSVP is checked in.
func handleEventCheckIn(desk CheckInDesk, verifier auth.Verifier, limiter *ratelimit.Limiter, eventID string, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		return
	}
	if !allowRate(limiter, "validate_checkin", w, r) {
		return
	}
	userID, ok := authenticate(verifier, w, r)
	if !ok {
		return
	}

	var req checkInRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	if req.Credential == "" {
		writeError(w, http.StatusBadRequest, codeValidation, "credential is required")
		return
	}

	rsvp, err := desk.ValidateAndCheckIn(r.Context(), req.Credential, eventID, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRSVPResponse(rsvp))
}

func handleEventAttendees(desk CheckInDesk, verifier auth.Verifier, limiter *ratelimit.Limiter, eventID string, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		return
	}
	if !allowRate(limiter, "event_attendees", w, r) {
		return
	}
	userID, ok := authenticate(verifier, w, r)
	if !ok {
		return
	}

	rsvps, err := desk.GetEventAttendees(r.Context(), eventID, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]rsvpResponse, 0, len(rsvps))
	for _, rsvp := range rsvps {
		resp = append(resp, toRSVPResponse(rsvp))
	}
	writeJSON(w, http.StatusOK, resp)
}

func handleCheckInSummary(desk CheckInDesk, verifier auth.Verifier, limiter *ratelimit.Limiter, eventID string, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		return
	}
	if !allowRate(limiter, "check_in_summary", w, r) {
		return
	}
	userID, ok := authenticate(verifier, w, r)
	if !ok {
		return
	}

	summary, err := desk.GetCheckInSummary(r.Context(), eventID, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCheckInSummaryResponse(summary))
}

// CredentialValidator decodes a credential against an expected event.
type CredentialValidator interface {
	ValidateCredential(payload, expectedEventID string) (credential.Claims, error)
}

type validateCredentialRequest struct {
	Credential string `json:"credential"`
	EventID    string `json:"event_id"`
}

type validateCredentialResponse struct {
	Valid   bool   `json:"valid"`
	UserID  string `json:"user_id"`
	EventID string `json:"event_id"`
}

// HandleValidateCredential serves POST /checkin/validate: a dry-run decode
// for scanner UIs that want to show the holder before committing the
// check-in.
func HandleValidateCredential(svc CredentialValidator, verifier auth.Verifier, limiter *ratelimit.Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		if !allowRate(limiter, "validate_checkin", w, r) {
			return
		}
		if _, ok := authenticate(verifier, w, r); !ok {
			return
		}

		var req validateCredentialRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.Credential == "" || req.EventID == "" {
			writeError(w, http.StatusBadRequest, codeValidation, "credential and event_id are required")
			return
		}

		claims, err := svc.ValidateCredential(req.Credential, req.EventID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, validateCredentialResponse{
			Valid:   true,
			UserID:  claims.UserID,
			EventID: claims.EventID,
		})
	}
}
