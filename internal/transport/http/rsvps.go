package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/felixLandlord/eventRSVP/internal/app"
	"github.com/felixLandlord/eventRSVP/internal/auth"
	"github.com/felixLandlord/eventRSVP/internal/domain"
	"github.com/felixLandlord/eventRSVP/internal/ratelimit"
)

// RSVPDesk is the interface needed by the RSVP endpoints.
type RSVPDesk interface {
	CreateRSVP(ctx context.Context, in app.CreateRSVPInput) (domain.RSVP, error)
	CancelRSVP(ctx context.Context, rsvpID, userID string) error
	ListUserRSVPs(ctx context.Context, userID string) ([]domain.RSVP, error)
	CheckInAttendee(ctx context.Context, rsvpID, organizerID string) (domain.RSVP, error)
	MarkNoShow(ctx context.Context, rsvpID, organizerID string) error
}

type createRSVPRequest struct {
	EventID string `json:"event_id"`
	TierID  string `json:"tier_id"`
	Notes   string `json:"notes"`
}

// HandleRSVPs serves the RSVP collection: reserve a spot, list the caller's
// RSVPs.
func HandleRSVPs(svc RSVPDesk, verifier auth.Verifier, limiter *ratelimit.Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			if !allowRate(limiter, "create_rsvp", w, r) {
				return
			}
			userID, ok := authenticate(verifier, w, r)
			if !ok {
				return
			}

			var req createRSVPRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			if req.EventID == "" || req.TierID == "" {
				writeError(w, http.StatusBadRequest, codeValidation, "event_id and tier_id are required")
				return
			}

			rsvp, err := svc.CreateRSVP(r.Context(), app.CreateRSVPInput{
				UserID:  userID,
				EventID: req.EventID,
				TierID:  req.TierID,
				Notes:   req.Notes,
			})
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, toRSVPResponse(rsvp))

		case http.MethodGet:
			if !allowRate(limiter, "list_my_rsvps", w, r) {
				return
			}
			userID, ok := authenticate(verifier, w, r)
			if !ok {
				return
			}

			rsvps, err := svc.ListUserRSVPs(r.Context(), userID)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			resp := make([]rsvpResponse, 0, len(rsvps))
			for _, rsvp := range rsvps {
				resp = append(resp, toRSVPResponse(rsvp))
			}
			writeJSON(w, http.StatusOK, resp)

		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleRSVPSubroutes dispatches the RSVP lifecycle actions:
// POST /rsvps/{id}/cancel, /rsvps/{id}/checkin and /rsvps/{id}/no-show.
func HandleRSVPSubroutes(svc RSVPDesk, verifier auth.Verifier, limiter *ratelimit.Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rsvpID, action, ok := splitRSVPPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		switch action {
		case "cancel":
			if !allowRate(limiter, "cancel_rsvp", w, r) {
				return
			}
			userID, authed := authenticate(verifier, w, r)
			if !authed {
				return
			}
			if err := svc.CancelRSVP(r.Context(), rsvpID, userID); err != nil {
				writeDomainError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		case "checkin":
			if !allowRate(limiter, "check_in_attendee", w, r) {
				return
			}
			userID, authed := authenticate(verifier, w, r)
			if !authed {
				return
			}
			rsvp, err := svc.CheckInAttendee(r.Context(), rsvpID, userID)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toRSVPResponse(rsvp))

		case "no-show":
			if !allowRate(limiter, "mark_no_show", w, r) {
				return
			}
			userID, authed := authenticate(verifier, w, r)
			if !authed {
				return
			}
			if err := svc.MarkNoShow(r.Context(), rsvpID, userID); err != nil {
				writeDomainError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

// splitRSVPPath parses /rsvps/{id}/{action}.
func splitRSVPPath(path string) (rsvpID, action string, ok bool) {
	rest, found := strings.CutPrefix(path, "/rsvps/")
	if !found || rest == "" {
		return "", "", false
	}
	parts := strings.Split(strings.TrimSuffix(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
