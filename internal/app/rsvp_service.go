package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/felixLandlord/eventRSVP/internal/clock"
	"github.com/felixLandlord/eventRSVP/internal/credential"
	"github.com/felixLandlord/eventRSVP/internal/domain"
	"github.com/felixLandlord/eventRSVP/internal/notify"
)

type RSVPRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
	GetTier(ctx context.Context, tierID string) (domain.TicketTier, error)
	FindActiveRSVP(ctx context.Context, userID, eventID string) (*domain.RSVP, error)
	// Reserve atomically increments the tier's quantity_sold when capacity
	// remains; ErrSoldOut otherwise. One statement, linearizable per tier.
	Reserve(ctx context.Context, eventID, tierID string) error
	// Release decrements quantity_sold, floored at zero.
	Release(ctx context.Context, tierID string) error
	CreateRSVP(ctx context.Context, rsvp domain.RSVP) error
	GetRSVPForUpdate(ctx context.Context, rsvpID string) (domain.RSVP, error)
	UpdateRSVPStatus(ctx context.Context, rsvpID string, status domain.RSVPStatus, checkedInAt *time.Time) error
	ListRSVPsByUser(ctx context.Context, userID string) ([]domain.RSVP, error)
	ListRSVPsByEvent(ctx context.Context, eventID string) ([]domain.RSVP, error)
	CheckInCounts(ctx context.Context, eventID string) (pending, checkedIn, noShow, total int, err error)
}

// RSVPService is the allocation engine: it coordinates tier inventory and
// the RSVP ledger so that no tier oversells, no user holds two active RSVPs
// for one event, and check-in transitions stay monotonic.
type RSVPService struct {
	repo        RSVPRepository
	clock       clock.Clock
	credentials credential.Issuer
	notifier    notify.Notifier
	log         *zap.Logger

	notifyTimeout time.Duration
}

const defaultNotifyTimeout = 5 * time.Second

func NewRSVPService(repo RSVPRepository, clk clock.Clock, issuer credential.Issuer, notifier notify.Notifier, log *zap.Logger, opts ...RSVPServiceOption) *RSVPService {
	svc := &RSVPService{
		repo:          repo,
		clock:         clk,
		credentials:   issuer,
		notifier:      notifier,
		log:           log,
		notifyTimeout: defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type RSVPServiceOption func(*RSVPService)

// WithNotifyTimeout bounds the background notification dispatch.
func WithNotifyTimeout(d time.Duration) RSVPServiceOption {
	return func(s *RSVPService) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

type CreateRSVPInput struct {
	UserID  string
	EventID string
	TierID  string
	Notes   string
}

// CreateRSVP reserves one unit of the tier and records the ledger row in a
// single transaction. The conditional increment is the capacity gate; the
// partial unique index on (user_id, event_id) is the duplicate gate. A
// violation after the increment rolls the whole transaction back, so
// inventory and ledger cannot diverge.
func (s *RSVPService) CreateRSVP(ctx context.Context, in CreateRSVPInput) (domain.RSVP, error) {
	if in.UserID == "" || in.EventID == "" || in.TierID == "" {
		return domain.RSVP{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	var result domain.RSVP

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEvent(txCtx, in.EventID)
		if err != nil {
			return err
		}

		tier, err := s.repo.GetTier(txCtx, in.TierID)
		if err != nil {
			return err
		}
		if tier.EventID != event.ID {
			return domain.ErrTierEventMismatch
		}

		// Friendly pre-check; the unique index remains authoritative for
		// concurrent requests from the same user.
		if existing, err := s.repo.FindActiveRSVP(txCtx, in.UserID, in.EventID); err != nil {
			return err
		} else if existing != nil {
			return domain.ErrDuplicateRSVP
		}

		if err := s.repo.Reserve(txCtx, in.EventID, in.TierID); err != nil {
			return err
		}

		payload, err := s.credentials.Issue(in.UserID, in.EventID)
		if err != nil {
			return fmt.Errorf("issue credential: %w", err)
		}

		rsvp := domain.RSVP{
			ID:         newID(),
			EventID:    in.EventID,
			TierID:     in.TierID,
			UserID:     in.UserID,
			Status:     domain.RSVPStatusConfirmed,
			Credential: payload,
			Notes:      in.Notes,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.repo.CreateRSVP(txCtx, rsvp); err != nil {
			return err
		}

		result = rsvp
		return nil
	})
	if err != nil {
		return domain.RSVP{}, err
	}

	s.dispatch("reservation confirmed", func(nctx context.Context) error {
		return s.notifier.ReservationConfirmed(nctx, in.UserID, in.EventID)
	})
	return result, nil
}

// CancelRSVP moves the ledger row to cancelled and releases the reserved
// unit. The row lock plus the state check make the release happen exactly
// once per RSVP; the floor at zero in Release covers everything else.
func (s *RSVPService) CancelRSVP(ctx context.Context, rsvpID, userID string) error {
	if rsvpID == "" || userID == "" {
		return domain.ErrInvalidID
	}

	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		rsvp, err := s.repo.GetRSVPForUpdate(txCtx, rsvpID)
		if err != nil {
			return err
		}
		if rsvp.UserID != userID {
			return domain.ErrUnauthorized
		}
		if !rsvp.Status.CanTransitionTo(domain.RSVPStatusCancelled) {
			return domain.ErrInvalidTransition
		}

		if err := s.repo.UpdateRSVPStatus(txCtx, rsvpID, domain.RSVPStatusCancelled, nil); err != nil {
			return err
		}
		return s.repo.Release(txCtx, rsvp.TierID)
	})
}

// CheckInAttendee marks the RSVP attended and stamps checked_in_at exactly
// once. A second attempt reports ErrAlreadyCheckedIn and leaves the stamp
// untouched.
func (s *RSVPService) CheckInAttendee(ctx context.Context, rsvpID, organizerID string) (domain.RSVP, error) {
	if rsvpID == "" || organizerID == "" {
		return domain.RSVP{}, domain.ErrInvalidID
	}

	var result domain.RSVP
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		rsvp, err := s.repo.GetRSVPForUpdate(txCtx, rsvpID)
		if err != nil {
			return err
		}
		event, err := s.repo.GetEvent(txCtx, rsvp.EventID)
		if err != nil {
			return err
		}
		if event.OrganizerID != organizerID {
			return domain.ErrUnauthorized
		}
		if rsvp.Status == domain.RSVPStatusAttended {
			return domain.ErrAlreadyCheckedIn
		}
		if !rsvp.Status.CanTransitionTo(domain.RSVPStatusAttended) {
			return domain.ErrInvalidTransition
		}

		checkedInAt := s.clock.Now()
		if err := s.repo.UpdateRSVPStatus(txCtx, rsvpID, domain.RSVPStatusAttended, &checkedInAt); err != nil {
			return err
		}

		rsvp.Status = domain.RSVPStatusAttended
		rsvp.CheckedInAt = &checkedInAt
		result = rsvp
		return nil
	})
	if err != nil {
		return domain.RSVP{}, err
	}

	s.dispatch("checked in", func(nctx context.Context) error {
		return s.notifier.CheckedIn(nctx, result.UserID, result.EventID)
	})
	return result, nil
}

// ValidateCredential decodes a scanned check-in credential and verifies it
// names the expected event.
func (s *RSVPService) ValidateCredential(payload, expectedEventID string) (credential.Claims, error) {
	claims, err := s.credentials.Decode(payload)
	if err != nil {
		return credential.Claims{}, err
	}
	if claims.EventID != expectedEventID {
		return credential.Claims{}, domain.ErrEventMismatch
	}
	return claims, nil
}

// ValidateAndCheckIn is the scanner flow: decode the credential, locate the
// holder's active RSVP for the event, and check it in.
func (s *RSVPService) ValidateAndCheckIn(ctx context.Context, payload, eventID, organizerID string) (domain.RSVP, error) {
	claims, err := s.ValidateCredential(payload, eventID)
	if err != nil {
		return domain.RSVP{}, err
	}

	rsvp, err := s.repo.FindActiveRSVP(ctx, claims.UserID, eventID)
	if err != nil {
		return domain.RSVP{}, err
	}
	if rsvp == nil {
		return domain.RSVP{}, domain.ErrRSVPNotFound
	}
	return s.CheckInAttendee(ctx, rsvp.ID, organizerID)
}

// MarkNoShow is the post-event reconciliation transition, triggered
// explicitly by the organizer rather than by a timer.
func (s *RSVPService) MarkNoShow(ctx context.Context, rsvpID, organizerID string) error {
	if rsvpID == "" || organizerID == "" {
		return domain.ErrInvalidID
	}

	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		rsvp, err := s.repo.GetRSVPForUpdate(txCtx, rsvpID)
		if err != nil {
			return err
		}
		event, err := s.repo.GetEvent(txCtx, rsvp.EventID)
		if err != nil {
			return err
		}
		if event.OrganizerID != organizerID {
			return domain.ErrUnauthorized
		}
		if !rsvp.Status.CanTransitionTo(domain.RSVPStatusNoShow) {
			return domain.ErrInvalidTransition
		}
		return s.repo.UpdateRSVPStatus(txCtx, rsvpID, domain.RSVPStatusNoShow, nil)
	})
}

func (s *RSVPService) ListUserRSVPs(ctx context.Context, userID string) ([]domain.RSVP, error) {
	if userID == "" {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListRSVPsByUser(ctx, userID)
}

func (s *RSVPService) GetEventAttendees(ctx context.Context, eventID, organizerID string) ([]domain.RSVP, error) {
	if eventID == "" || organizerID == "" {
		return nil, domain.ErrInvalidID
	}
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != organizerID {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.ListRSVPsByEvent(ctx, eventID)
}

func (s *RSVPService) GetCheckInSummary(ctx context.Context, eventID, organizerID string) (domain.CheckInSummary, error) {
	if eventID == "" || organizerID == "" {
		return domain.CheckInSummary{}, domain.ErrInvalidID
	}
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return domain.CheckInSummary{}, err
	}
	if event.OrganizerID != organizerID {
		return domain.CheckInSummary{}, domain.ErrUnauthorized
	}

	pending, checkedIn, noShow, total, err := s.repo.CheckInCounts(ctx, eventID)
	if err != nil {
		return domain.CheckInSummary{}, err
	}

	summary := domain.CheckInSummary{
		PendingCheckin: pending,
		CheckedIn:      checkedIn,
		NoShow:         noShow,
		TotalRSVPs:     total,
	}
	if total > 0 {
		summary.CheckinPercentage = float64(checkedIn) / float64(total) * 100
	}
	return summary, nil
}

// dispatch runs a notification off the request path. Failures are logged
// and never surface to the caller.
func (s *RSVPService) dispatch(name string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.log.Warn("notification dispatch failed",
				zap.String("notification", name),
				zap.Error(err),
			)
		}
	}()
}
