package app

import (
	"context"
	"strings"

	"github.com/felixLandlord/eventRSVP/internal/clock"
	"github.com/felixLandlord/eventRSVP/internal/domain"
)

type TierRepository interface {
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
	GetTier(ctx context.Context, tierID string) (domain.TicketTier, error)
	CreateTier(ctx context.Context, tier domain.TicketTier) error
	ListTiersByEvent(ctx context.Context, eventID string) ([]domain.TicketTier, error)
	// UpdateTierCapacity conditionally raises or lowers quantity_total and
	// must refuse to go below the current quantity_sold.
	UpdateTierCapacity(ctx context.Context, tierID string, quantityTotal int) error
}

// TicketService is the organizer-facing side of tier inventory. It never
// touches quantity_sold; that column belongs to the allocation engine.
type TicketService struct {
	repo  TierRepository
	clock clock.Clock
}

func NewTicketService(repo TierRepository, clk clock.Clock) *TicketService {
	return &TicketService{
		repo:  repo,
		clock: clk,
	}
}

type CreateTierInput struct {
	EventID       string
	Name          string
	Description   string
	PriceCents    int64
	Currency      string
	QuantityTotal int
}

func (s *TicketService) CreateTier(ctx context.Context, organizerID string, in CreateTierInput) (domain.TicketTier, error) {
	if in.EventID == "" || organizerID == "" {
		return domain.TicketTier{}, domain.ErrInvalidID
	}
	if strings.TrimSpace(in.Name) == "" || in.QuantityTotal <= 0 || in.PriceCents < 0 {
		return domain.TicketTier{}, domain.ErrValidation
	}

	event, err := s.repo.GetEvent(ctx, in.EventID)
	if err != nil {
		return domain.TicketTier{}, err
	}
	if event.OrganizerID != organizerID {
		return domain.TicketTier{}, domain.ErrUnauthorized
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "USD"
	}
	if len(currency) != 3 {
		return domain.TicketTier{}, domain.ErrValidation
	}

	tier := domain.TicketTier{
		ID:            newID(),
		EventID:       in.EventID,
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		PriceCents:    in.PriceCents,
		Currency:      currency,
		QuantityTotal: in.QuantityTotal,
		CreatedAt:     s.clock.Now(),
	}

	if err := s.repo.CreateTier(ctx, tier); err != nil {
		return domain.TicketTier{}, err
	}
	return tier, nil
}

func (s *TicketService) ListTiers(ctx context.Context, eventID string) ([]domain.TicketTier, error) {
	if eventID == "" {
		return nil, domain.ErrInvalidID
	}
	if _, err := s.repo.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListTiersByEvent(ctx, eventID)
}

// UpdateTierCapacity adjusts quantity_total. Decreases below the current
// quantity_sold are rejected by a conditional update at the storage layer.
func (s *TicketService) UpdateTierCapacity(ctx context.Context, organizerID, tierID string, quantityTotal int) (domain.TicketTier, error) {
	if tierID == "" || organizerID == "" {
		return domain.TicketTier{}, domain.ErrInvalidID
	}
	if quantityTotal <= 0 {
		return domain.TicketTier{}, domain.ErrValidation
	}

	tier, err := s.repo.GetTier(ctx, tierID)
	if err != nil {
		return domain.TicketTier{}, err
	}
	event, err := s.repo.GetEvent(ctx, tier.EventID)
	if err != nil {
		return domain.TicketTier{}, err
	}
	if event.OrganizerID != organizerID {
		return domain.TicketTier{}, domain.ErrUnauthorized
	}

	if err := s.repo.UpdateTierCapacity(ctx, tierID, quantityTotal); err != nil {
		return domain.TicketTier{}, err
	}
	return s.repo.GetTier(ctx, tierID)
}
