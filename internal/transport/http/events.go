package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/felixLandlord/eventRSVP/internal/app"
	"github.com/felixLandlord/eventRSVP/internal/auth"
	"github.com/felixLandlord/eventRSVP/internal/domain"
	"github.com/felixLandlord/eventRSVP/internal/ratelimit"
)

// EventCatalog is the interface needed by the event endpoints.
type EventCatalog interface {
	CreateEvent(ctx context.Context, in app.CreateEventInput) (domain.Event, error)
	GetEvent(ctx context.Context, eventID string) (app.EventView, error)
	ListEvents(ctx context.Context, filter app.EventFilter) ([]app.EventView, error)
	ListOrganizerEvents(ctx context.Context, organizerID string) ([]app.EventView, error)
	UpdateEvent(ctx context.Context, eventID, organizerID string, in app.UpdateEventInput) (domain.Event, error)
	DeleteEvent(ctx context.Context, eventID, organizerID string) error
}

// HandleEvents serves the event collection: public listing and
// authenticated creation.
func HandleEvents(svc EventCatalog, verifier auth.Verifier, limiter *ratelimit.Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if !allowRate(limiter, "list_events", w, r) {
				return
			}
			listEvents(svc, w, r)
		case http.MethodPost:
			if !allowRate(limiter, "create_event", w, r) {
				return
			}
			createEvent(svc, verifier, w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

func listEvents(svc EventCatalog, w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := app.EventFilter{Search: q.Get("search")}

	if raw := q.Get("category"); raw != "" {
		category := domain.EventCategory(raw)
		filter.Category = &category
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, "limit must be an integer")
			return
		}
		filter.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, "offset must be an integer")
			return
		}
		filter.Offset = offset
	}

	views, err := svc.ListEvents(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := make([]eventResponse, 0, len(views))
	for _, view := range views {
		resp = append(resp, toEventViewResponse(view))
	}
	writeJSON(w, http.StatusOK, resp)
}

type createEventRequest struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Location     string    `json:"location"`
	VenueAddress string    `json:"venue_address"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	Timezone     string    `json:"timezone"`
	MaxAttendees *int      `json:"max_attendees"`
	IsFree       bool      `json:"is_free"`
}

func createEvent(svc EventCatalog, verifier auth.Verifier, w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticate(verifier, w, r)
	if !ok {
		return
	}

	var req createEventRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	event, err := svc.CreateEvent(r.Context(), app.CreateEventInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     domain.EventCategory(req.Category),
		Location:     req.Location,
		VenueAddress: req.VenueAddress,
		StartsAt:     req.StartsAt,
		EndsAt:       req.EndsAt,
		Timezone:     req.Timezone,
		MaxAttendees: req.MaxAttendees,
		IsFree:       req.IsFree,
		OrganizerID:  userID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventResponse(event))
}

// HandleOrganizerEvents lists the caller's own events, active RSVP counts
// included.
func HandleOrganizerEvents(svc EventCatalog, verifier auth.Verifier, limiter *ratelimit.Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		if !allowRate(limiter, "list_events", w, r) {
			return
		}
		userID, ok := authenticate(verifier, w, r)
		if !ok {
			return
		}

		views, err := svc.ListOrganizerEvents(r.Context(), userID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp := make([]eventResponse, 0, len(views))
		for _, view := range views {
			resp = append(resp, toEventViewResponse(view))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleEventSubroutes dispatches /events/{id} and its nested resources:
// tiers, attendees, check-in.
func HandleEventSubroutes(events EventCatalog, tiers TierCatalog, desk CheckInDesk, verifier auth.Verifier, limiter *ratelimit.Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, sub, ok := splitEventPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch sub {
		case "":
			handleEventItem(events, verifier, limiter, eventID, w, r)
		case "tiers":
			handleEventTiers(tiers, verifier, limiter, eventID, w, r)
		case "attendees":
			handleEventAttendees(desk, verifier, limiter, eventID, w, r)
		case "checkin-summary":
			handleCheckInSummary(desk, verifier, limiter, eventID, w, r)
		case "checkin":
			handleEventCheckIn(desk, verifier, limiter, eventID, w, r)
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

// splitEventPath parses /events/{id} and /events/{id}/{sub}.
func splitEventPath(path string) (eventID, sub string, ok bool) {
	rest, found := strings.CutPrefix(path, "/events/")
	if !found || rest == "" {
		return "", "", false
	}
	parts := strings.Split(strings.TrimSuffix(rest, "/"), "/")
	switch len(parts) {
	case 1:
		return parts[0], "", parts[0] != ""
	case 2:
		return parts[0], parts[1], parts[0] != "" && parts[1] != ""
	default:
		return "", "", false
	}
}

type updateEventRequest struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Category     *string    `json:"category"`
	Location     *string    `json:"location"`
	VenueAddress *string    `json:"venue_address"`
	StartsAt     *time.Time `json:"starts_at"`
	EndsAt       *time.Time `json:"ends_at"`
	Timezone     *string    `json:"timezone"`
	MaxAttendees *int       `json:"max_attendees"`
	IsFree       *bool      `json:"is_free"`
	Status       *string    `json:"status"`
}

func handleEventItem(svc EventCatalog, verifier auth.Verifier, limiter *ratelimit.Limiter, eventID string, w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !allowRate(limiter, "get_event", w, r) {
			return
		}
		view, err := svc.GetEvent(r.Context(), eventID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventViewResponse(view))

	case http.MethodPatch:
		if !allowRate(limiter, "update_event", w, r) {
			return
		}
		userID, ok := authenticate(verifier, w, r)
		if !ok {
			return
		}

		var req updateEventRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		in := app.UpdateEventInput{
			Title:        req.Title,
			Description:  req.Description,
			Location:     req.Location,
			VenueAddress: req.VenueAddress,
			StartsAt:     req.StartsAt,
			EndsAt:       req.EndsAt,
			Timezone:     req.Timezone,
			MaxAttendees: req.MaxAttendees,
			IsFree:       req.IsFree,
		}
		if req.Category != nil {
			category := domain.EventCategory(*req.Category)
			in.Category = &category
		}
		if req.Status != nil {
			status := domain.EventStatus(*req.Status)
			in.Status = &status
		}

		event, err := svc.UpdateEvent(r.Context(), eventID, userID, in)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponse(event))

	case http.MethodDelete:
		if !allowRate(limiter, "delete_event", w, r) {
			return
		}
		userID, ok := authenticate(verifier, w, r)
		if !ok {
			return
		}
		if err := svc.DeleteEvent(r.Context(), eventID, userID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
