package domain

import "time"

type RSVPStatus string

const (
	// RSVPStatusPending is reserved for a future approval workflow; the
	// current flow creates RSVPs directly in confirmed.
	RSVPStatusPending   RSVPStatus = "pending"
	RSVPStatusConfirmed RSVPStatus = "confirmed"
	RSVPStatusCancelled RSVPStatus = "cancelled"
	RSVPStatusAttended  RSVPStatus = "attended"
	RSVPStatusNoShow    RSVPStatus = "no_show"
)

// RSVP is one user's reservation against one tier of one event.
type RSVP struct {
	ID          string
	EventID     string
	TierID      string
	UserID      string
	Status      RSVPStatus
	Credential  string
	CheckedInAt *time.Time
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Active reports whether the RSVP still occupies a unit of tier inventory.
func (r RSVP) Active() bool {
	return r.Status != RSVPStatusCancelled
}

// CheckInSummary aggregates the ledger for one event.
type CheckInSummary struct {
	PendingCheckin    int
	CheckedIn         int
	NoShow            int
	TotalRSVPs        int
	CheckinPercentage float64
}

// CanTransitionTo reports whether the ledger state machine permits moving
// from s to next. Cancelled, attended and no_show are terminal.
func (s RSVPStatus) CanTransitionTo(next RSVPStatus) bool {
	switch s {
	case RSVPStatusPending, RSVPStatusConfirmed:
		return next == RSVPStatusCancelled || next == RSVPStatusAttended || next == RSVPStatusNoShow
	}
	return false
}
