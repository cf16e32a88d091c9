package http

import (
	"encoding/json"
	"net/http"

	"github.com/felixLandlord/eventRSVP/internal/domain"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeValidation         = "validation_failed"
	codeInvalidID          = "invalid_id"
	codeUnauthorized       = "unauthorized"
	codeUnauthenticated    = "unauthenticated"
	codeEventNotFound      = "event_not_found"
	codeTierNotFound       = "tier_not_found"
	codeRSVPNotFound       = "rsvp_not_found"
	codeDuplicateRSVP      = "duplicate_rsvp"
	codeSoldOut            = "sold_out"
	codeInvalidTransition  = "invalid_transition"
	codeAlreadyCheckedIn   = "already_checked_in"
	codeInvalidCredential  = "invalid_credential"
	codeEventMismatch      = "event_mismatch"
	codeTierEventMismatch  = "tier_event_mismatch"
	codeCapacityBelowSold  = "capacity_below_sold"
	codeInvalidEventStatus = "invalid_event_status"
	codeRateLimited        = "rate_limited"
	codeForbidden          = "forbidden"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps a sentinel from the services to a stable HTTP
// status and code. Unknown errors become an opaque 500: internals never
// leak to the caller.
func writeDomainError(w http.ResponseWriter, err error) {
	switch err {
	case domain.ErrEventNotFound:
		writeError(w, http.StatusNotFound, codeEventNotFound, err.Error())
	case domain.ErrTierNotFound:
		writeError(w, http.StatusNotFound, codeTierNotFound, err.Error())
	case domain.ErrRSVPNotFound:
		writeError(w, http.StatusNotFound, codeRSVPNotFound, err.Error())
	case domain.ErrInvalidID:
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case domain.ErrValidation:
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
	case domain.ErrUnauthorized:
		writeError(w, http.StatusForbidden, codeUnauthorized, err.Error())
	case domain.ErrDuplicateRSVP:
		writeError(w, http.StatusConflict, codeDuplicateRSVP, err.Error())
	case domain.ErrSoldOut:
		writeError(w, http.StatusConflict, codeSoldOut, err.Error())
	case domain.ErrInvalidTransition:
		writeError(w, http.StatusConflict, codeInvalidTransition, err.Error())
	case domain.ErrAlreadyCheckedIn:
		writeError(w, http.StatusConflict, codeAlreadyCheckedIn, err.Error())
	case domain.ErrInvalidCredential:
		writeError(w, http.StatusBadRequest, codeInvalidCredential, err.Error())
	case domain.ErrEventMismatch:
		writeError(w, http.StatusConflict, codeEventMismatch, err.Error())
	case domain.ErrTierEventMismatch:
		writeError(w, http.StatusBadRequest, codeTierEventMismatch, err.Error())
	case domain.ErrCapacityBelowSold:
		writeError(w, http.StatusConflict, codeCapacityBelowSold, err.Error())
	case domain.ErrInvalidEventStatus:
		writeError(w, http.StatusConflict, codeInvalidEventStatus, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
