package domain

import "errors"

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrTierNotFound       = errors.New("ticket tier not found")
	ErrRSVPNotFound       = errors.New("rsvp not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrDuplicateRSVP      = errors.New("active rsvp already exists for this event")
	ErrSoldOut            = errors.New("ticket tier sold out")
	ErrInvalidTransition  = errors.New("invalid rsvp status transition")
	ErrAlreadyCheckedIn   = errors.New("attendee already checked in")
	ErrInvalidCredential  = errors.New("invalid check-in credential")
	ErrEventMismatch      = errors.New("credential is for a different event")
	ErrTierEventMismatch  = errors.New("ticket tier does not belong to event")
	ErrCapacityBelowSold  = errors.New("capacity below quantity already sold")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidID          = errors.New("invalid id")
	ErrInvalidEventStatus = errors.New("invalid event status change")
)
