package app

import (
	"context"
	"strings"
	"time"

	"github.com/felixLandlord/eventRSVP/internal/clock"
	"github.com/felixLandlord/eventRSVP/internal/domain"
)

// EventFilter narrows and pages the public event listing.
type EventFilter struct {
	Category *domain.EventCategory
	Search   string
	Offset   int
	Limit    int
}

type EventRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateEvent(ctx context.Context, event domain.Event) error
	GetEvent(ctx context.Context, id string) (domain.Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]domain.Event, error)
	ListEventsByOrganizer(ctx context.Context, organizerID string) ([]domain.Event, error)
	UpdateEvent(ctx context.Context, event domain.Event) error
	SoftDeleteEvent(ctx context.Context, id string, at time.Time) error
	CountActiveRSVPs(ctx context.Context, eventID string) (int, error)
	CreateTier(ctx context.Context, tier domain.TicketTier) error
}

// EventService owns the event catalog: CRUD and the publication lifecycle.
type EventService struct {
	repo  EventRepository
	clock clock.Clock
}

func NewEventService(repo EventRepository, clk clock.Clock) *EventService {
	return &EventService{
		repo:  repo,
		clock: clk,
	}
}

// EventView is an event projection carrying the current active RSVP count.
type EventView struct {
	domain.Event
	AttendeeCount int
}

type CreateEventInput struct {
	Title        string
	Description  string
	Category     domain.EventCategory
	Location     string
	VenueAddress string
	StartsAt     time.Time
	EndsAt       time.Time
	Timezone     string
	MaxAttendees *int
	IsFree       bool
	OrganizerID  string
}

// defaultFreeTierCapacity backs free events with no declared attendee cap.
const defaultFreeTierCapacity = 1000

func (s *EventService) CreateEvent(ctx context.Context, in CreateEventInput) (domain.Event, error) {
	if in.OrganizerID == "" {
		return domain.Event{}, domain.ErrInvalidID
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Location) == "" {
		return domain.Event{}, domain.ErrValidation
	}
	if !in.StartsAt.Before(in.EndsAt) {
		return domain.Event{}, domain.ErrValidation
	}

	category := in.Category
	if category == "" {
		category = domain.EventCategoryOther
	}
	if !domain.ValidCategory(category) {
		return domain.Event{}, domain.ErrValidation
	}

	timezone := in.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	now := s.clock.Now()
	event := domain.Event{
		ID:           newID(),
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Category:     category,
		Location:     strings.TrimSpace(in.Location),
		VenueAddress: in.VenueAddress,
		StartsAt:     in.StartsAt,
		EndsAt:       in.EndsAt,
		Timezone:     timezone,
		MaxAttendees: in.MaxAttendees,
		IsFree:       in.IsFree,
		Status:       domain.EventStatusDraft,
		OrganizerID:  in.OrganizerID,
		CreatedAt:    now,
	}

	// Free events always get one reservable tier so the allocation engine
	// has inventory to reserve against. Created in the same transaction as
	// the event: no window where a free event has no tier.
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateEvent(txCtx, event); err != nil {
			return err
		}
		if !event.IsFree {
			return nil
		}

		capacity := defaultFreeTierCapacity
		if event.MaxAttendees != nil && *event.MaxAttendees > 0 {
			capacity = *event.MaxAttendees
		}
		tier := domain.TicketTier{
			ID:            newID(),
			EventID:       event.ID,
			Name:          "General Admission",
			Description:   "Free admission to the event",
			PriceCents:    0,
			Currency:      "USD",
			QuantityTotal: capacity,
			CreatedAt:     now,
		}
		return s.repo.CreateTier(txCtx, tier)
	})
	if err != nil {
		return domain.Event{}, err
	}
	return event, nil
}

func (s *EventService) GetEvent(ctx context.Context, eventID string) (EventView, error) {
	if eventID == "" {
		return EventView{}, domain.ErrInvalidID
	}
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return EventView{}, err
	}
	count, err := s.repo.CountActiveRSVPs(ctx, eventID)
	if err != nil {
		return EventView{}, err
	}
	return EventView{Event: event, AttendeeCount: count}, nil
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func (s *EventService) ListEvents(ctx context.Context, filter EventFilter) ([]EventView, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Category != nil && !domain.ValidCategory(*filter.Category) {
		return nil, domain.ErrValidation
	}

	events, err := s.repo.ListEvents(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.withCounts(ctx, events)
}

func (s *EventService) ListOrganizerEvents(ctx context.Context, organizerID string) ([]EventView, error) {
	if organizerID == "" {
		return nil, domain.ErrInvalidID
	}
	events, err := s.repo.ListEventsByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	return s.withCounts(ctx, events)
}

func (s *EventService) withCounts(ctx context.Context, events []domain.Event) ([]EventView, error) {
	views := make([]EventView, 0, len(events))
	for _, event := range events {
		count, err := s.repo.CountActiveRSVPs(ctx, event.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, EventView{Event: event, AttendeeCount: count})
	}
	return views, nil
}

type UpdateEventInput struct {
	Title        *string
	Description  *string
	Category     *domain.EventCategory
	Location     *string
	VenueAddress *string
	StartsAt     *time.Time
	EndsAt       *time.Time
	Timezone     *string
	MaxAttendees *int
	IsFree       *bool
	Status       *domain.EventStatus
}

func (s *EventService) UpdateEvent(ctx context.Context, eventID, organizerID string, in UpdateEventInput) (domain.Event, error) {
	if eventID == "" || organizerID == "" {
		return domain.Event{}, domain.ErrInvalidID
	}

	var updated domain.Event
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEvent(txCtx, eventID)
		if err != nil {
			return err
		}
		if event.OrganizerID != organizerID {
			return domain.ErrUnauthorized
		}

		if in.Title != nil {
			if strings.TrimSpace(*in.Title) == "" {
				return domain.ErrValidation
			}
			event.Title = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			event.Description = *in.Description
		}
		if in.Category != nil {
			if !domain.ValidCategory(*in.Category) {
				return domain.ErrValidation
			}
			event.Category = *in.Category
		}
		if in.Location != nil {
			if strings.TrimSpace(*in.Location) == "" {
				return domain.ErrValidation
			}
			event.Location = strings.TrimSpace(*in.Location)
		}
		if in.VenueAddress != nil {
			event.VenueAddress = *in.VenueAddress
		}
		if in.StartsAt != nil {
			event.StartsAt = *in.StartsAt
		}
		if in.EndsAt != nil {
			event.EndsAt = *in.EndsAt
		}
		if !event.StartsAt.Before(event.EndsAt) {
			return domain.ErrValidation
		}
		if in.Timezone != nil {
			event.Timezone = *in.Timezone
		}
		if in.MaxAttendees != nil {
			event.MaxAttendees = in.MaxAttendees
		}
		if in.IsFree != nil {
			event.IsFree = *in.IsFree
		}
		if in.Status != nil {
			if !domain.ValidEventStatusChange(event.Status, *in.Status) {
				return domain.ErrInvalidEventStatus
			}
			event.Status = *in.Status
		}

		if err := s.repo.UpdateEvent(txCtx, event); err != nil {
			return err
		}
		updated = event
		return nil
	})
	if err != nil {
		return domain.Event{}, err
	}
	return updated, nil
}

// DeleteEvent soft-deletes: the row stays while RSVPs reference it, but no
// read path returns it afterwards.
func (s *EventService) DeleteEvent(ctx context.Context, eventID, organizerID string) error {
	if eventID == "" || organizerID == "" {
		return domain.ErrInvalidID
	}

	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEvent(txCtx, eventID)
		if err != nil {
			return err
		}
		if event.OrganizerID != organizerID {
			return domain.ErrUnauthorized
		}
		return s.repo.SoftDeleteEvent(txCtx, eventID, s.clock.Now())
	})
}
