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

// TierCatalog is the interface needed by the tier endpoints.
type TierCatalog interface {
	CreateTier(ctx context.Context, organizerID string, in app.CreateTierInput) (domain.TicketTier, error)
	ListTiers(ctx context.Context, eventID string) ([]domain.TicketTier, error)
	UpdateTierCapacity(ctx context.Context, organizerID, tierID string, quantityTotal int) (domain.TicketTier, error)
}

type createTierRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	PriceCents    int64  `json:"price_cents"`
	Currency      string `json:"currency"`
	QuantityTotal int    `json:"quantity_total"`
}

func handleEventTiers(svc TierCatalog, verifier auth.Verifier, limiter *ratelimit.Limiter, eventID string, w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !allowRate(limiter, "list_tiers", w, r) {
			return
		}
		tiers, err := svc.ListTiers(r.Context(), eventID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp := make([]tierResponse, 0, len(tiers))
		for _, tier := range tiers {
			resp = append(resp, toTierResponse(tier))
		}
		writeJSON(w, http.StatusOK, resp)

	case http.MethodPost:
		if !allowRate(limiter, "create_tier", w, r) {
			return
		}
		userID, ok := authenticate(verifier, w, r)
		if !ok {
			return
		}

		var req createTierRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		tier, err := svc.CreateTier(r.Context(), userID, app.CreateTierInput{
			EventID:       eventID,
			Name:          req.Name,
			Description:   req.Description,
			PriceCents:    req.PriceCents,
			Currency:      req.Currency,
			QuantityTotal: req.QuantityTotal,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toTierResponse(tier))

	default:
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	}
}

type updateTierCapacityRequest struct {
	QuantityTotal int `json:"quantity_total"`
}

// HandleTierCapacity serves PATCH /tiers/{id}/capacity.
func HandleTierCapacity(svc TierCatalog, verifier auth.Verifier, limiter *ratelimit.Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tierID, ok := splitTierPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		if r.Method != http.MethodPatch {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		if !allowRate(limiter, "update_tier", w, r) {
			return
		}
		userID, authed := authenticate(verifier, w, r)
		if !authed {
			return
		}

		var req updateTierCapacityRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		tier, err := svc.UpdateTierCapacity(r.Context(), userID, tierID, req.QuantityTotal)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTierResponse(tier))
	}
}

// splitTierPath parses /tiers/{id}/capacity.
func splitTierPath(path string) (tierID string, ok bool) {
	rest, found := strings.CutPrefix(path, "/tiers/")
	if !found || rest == "" {
		return "", false
	}
	parts := strings.Split(strings.TrimSuffix(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "capacity" {
		return "", false
	}
	return parts[0], true
}
