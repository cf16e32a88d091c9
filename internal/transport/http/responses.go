package http

import (
	"time"

	"github.com/felixLandlord/eventRSVP/internal/app"
	"github.com/felixLandlord/eventRSVP/internal/domain"
)

type eventResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category"`
	Location      string    `json:"location"`
	VenueAddress  string    `json:"venue_address,omitempty"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	Timezone      string    `json:"timezone"`
	MaxAttendees  *int      `json:"max_attendees,omitempty"`
	IsFree        bool      `json:"is_free"`
	Status        string    `json:"status"`
	OrganizerID   string    `json:"organizer_id"`
	AttendeeCount *int      `json:"attendee_count,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toEventResponse(event domain.Event) eventResponse {
	return eventResponse{
		ID:           event.ID,
		Title:        event.Title,
		Description:  event.Description,
		Category:     string(event.Category),
		Location:     event.Location,
		VenueAddress: event.VenueAddress,
		StartsAt:     event.StartsAt,
		EndsAt:       event.EndsAt,
		Timezone:     event.Timezone,
		MaxAttendees: event.MaxAttendees,
		IsFree:       event.IsFree,
		Status:       string(event.Status),
		OrganizerID:  event.OrganizerID,
		CreatedAt:    event.CreatedAt,
	}
}

func toEventViewResponse(view app.EventView) eventResponse {
	resp := toEventResponse(view.Event)
	count := view.AttendeeCount
	resp.AttendeeCount = &count
	return resp
}

type tierResponse struct {
	ID            string    `json:"id"`
	EventID       string    `json:"event_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	PriceCents    int64     `json:"price_cents"`
	Currency      string    `json:"currency"`
	QuantityTotal int       `json:"quantity_total"`
	QuantitySold  int       `json:"quantity_sold"`
	Remaining     int       `json:"remaining"`
	CreatedAt     time.Time `json:"created_at"`
}

func toTierResponse(tier domain.TicketTier) tierResponse {
	return tierResponse{
		ID:            tier.ID,
		EventID:       tier.EventID,
		Name:          tier.Name,
		Description:   tier.Description,
		PriceCents:    tier.PriceCents,
		Currency:      tier.Currency,
		QuantityTotal: tier.QuantityTotal,
		QuantitySold:  tier.QuantitySold,
		Remaining:     tier.Remaining(),
		CreatedAt:     tier.CreatedAt,
	}
}

type rsvpResponse struct {
	ID          string     `json:"id"`
	EventID     string     `json:"event_id"`
	TierID      string     `json:"tier_id"`
	UserID      string     `json:"user_id"`
	Status      string     `json:"status"`
	Credential  string     `json:"credential,omitempty"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toRSVPResponse(rsvp domain.RSVP) rsvpResponse {
	return rsvpResponse{
		ID:          rsvp.ID,
		EventID:     rsvp.EventID,
		TierID:      rsvp.TierID,
		UserID:      rsvp.UserID,
		Status:      string(rsvp.Status),
		Credential:  rsvp.Credential,
		CheckedInAt: rsvp.CheckedInAt,
		Notes:       rsvp.Notes,
		CreatedAt:   rsvp.CreatedAt,
	}
}

type checkInSummaryResponse struct {
	PendingCheckin    int     `json:"pending_checkin"`
	CheckedIn         int     `json:"checked_in"`
	NoShow            int     `json:"no_show"`
	TotalRSVPs        int     `json:"total_rsvps"`
	CheckinPercentage float64 `json:"checkin_percentage"`
}

func toCheckInSummaryResponse(s domain.CheckInSummary) checkInSummaryResponse {
	return checkInSummaryResponse{
		PendingCheckin:    s.PendingCheckin,
		CheckedIn:         s.CheckedIn,
		NoShow:            s.NoShow,
		TotalRSVPs:        s.TotalRSVPs,
		CheckinPercentage: s.CheckinPercentage,
	}
}
