package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixLandlord/eventRSVP/internal/domain"
)

const rsvpColumns = `id, event_id, tier_id, user_id, status, credential,
checked_in_at, notes, created_at, updated_at`

type RSVPRepository struct {
	pool *pgxpool.Pool
}

func NewRSVPRepository(pool *pgxpool.Pool) *RSVPRepository {
	return &RSVPRepository{pool: pool}
}

func (r *RSVPRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *RSVPRepository) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 AND deleted_at IS NULL`
	event, err := scanEvent(r.queryRow(ctx, query, eventID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Event{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (r *RSVPRepository) GetTier(ctx context.Context, tierID string) (domain.TicketTier, error) {
	query := `SELECT ` + tierColumns + ` FROM ticket_tiers WHERE id = $1`
	tier, err := scanTier(r.queryRow(ctx, query, tierID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.TicketTier{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.TicketTier{}, domain.ErrTierNotFound
		}
		return domain.TicketTier{}, fmt.Errorf("get tier: %w", err)
	}
	return tier, nil
}

func (r *RSVPRepository) FindActiveRSVP(ctx context.Context, userID, eventID string) (*domain.RSVP, error) {
	query := `SELECT ` + rsvpColumns + `
FROM rsvps
WHERE user_id = $1 AND event_id = $2 AND status <> 'cancelled'`

	rsvp, err := scanRSVP(r.queryRow(ctx, query, userID, eventID))
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find active rsvp: %w", err)
	}
	return &rsvp, nil
}

// Reserve is the capacity gate: a single conditional increment, so two
// callers racing for the last unit see exactly one winner.
func (r *RSVPRepository) Reserve(ctx context.Context, eventID, tierID string) error {
	const stmt = `
UPDATE ticket_tiers
SET quantity_sold = quantity_sold + 1
WHERE id = $1 AND event_id = $2 AND quantity_sold < quantity_total`

	tag, err := r.exec(ctx, stmt, tierID, eventID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("reserve tier: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// No row moved: absent tier, wrong event, or no capacity left.
	const query = `SELECT event_id, quantity_sold < quantity_total FROM ticket_tiers WHERE id = $1`
	var ownerEventID string
	var hasCapacity bool
	if err := r.queryRow(ctx, query, tierID).Scan(&ownerEventID, &hasCapacity); err != nil {
		if err == pgx.ErrNoRows {
			return domain.ErrTierNotFound
		}
		return fmt.Errorf("check tier: %w", err)
	}
	if ownerEventID != eventID {
		return domain.ErrTierEventMismatch
	}
	return domain.ErrSoldOut
}

// Release undoes one reservation, floored at zero so a stray double release
// can never drive the counter negative.
func (r *RSVPRepository) Release(ctx context.Context, tierID string) error {
	const stmt = `
UPDATE ticket_tiers
SET quantity_sold = GREATEST(quantity_sold - 1, 0)
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, tierID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("release tier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTierNotFound
	}
	return nil
}

func (r *RSVPRepository) CreateRSVP(ctx context.Context, rsvp domain.RSVP) error {
	const stmt = `
INSERT INTO rsvps (id, event_id, tier_id, user_id, status, credential, checked_in_at, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.exec(ctx, stmt,
		rsvp.ID,
		rsvp.EventID,
		rsvp.TierID,
		rsvp.UserID,
		rsvp.Status,
		rsvp.Credential,
		rsvp.CheckedInAt,
		rsvp.Notes,
		rsvp.CreatedAt,
		rsvp.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateRSVP
		}
		if isForeignKeyViolation(err) {
			return domain.ErrEventNotFound
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create rsvp: %w", err)
	}
	return nil
}

func (r *RSVPRepository) GetRSVPForUpdate(ctx context.Context, rsvpID string) (domain.RSVP, error) {
	query := `SELECT ` + rsvpColumns + ` FROM rsvps WHERE id = $1 FOR UPDATE`
	rsvp, err := scanRSVP(r.queryRow(ctx, query, rsvpID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.RSVP{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.RSVP{}, domain.ErrRSVPNotFound
		}
		return domain.RSVP{}, fmt.Errorf("get rsvp: %w", err)
	}
	return rsvp, nil
}

// UpdateRSVPStatus writes the new status; checked_in_at is written only
// when provided and only if not already set, so the stamp survives retries.
func (r *RSVPRepository) UpdateRSVPStatus(ctx context.Context, rsvpID string, status domain.RSVPStatus, checkedInAt *time.Time) error {
	const stmt = `
UPDATE rsvps
SET status = $2, checked_in_at = COALESCE(checked_in_at, $3), updated_at = NOW()
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, rsvpID, status, checkedInAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update rsvp status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRSVPNotFound
	}
	return nil
}

func (r *RSVPRepository) ListRSVPsByUser(ctx context.Context, userID string) ([]domain.RSVP, error) {
	query := `SELECT ` + rsvpColumns + `
FROM rsvps
WHERE user_id = $1
ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *RSVPRepository) ListRSVPsByEvent(ctx context.Context, eventID string) ([]domain.RSVP, error) {
	query := `SELECT ` + rsvpColumns + `
FROM rsvps
WHERE event_id = $1
ORDER BY created_at DESC`
	return r.list(ctx, query, eventID)
}

func (r *RSVPRepository) CheckInCounts(ctx context.Context, eventID string) (pending, checkedIn, noShow, total int, err error) {
	const query = `
SELECT
	COUNT(*) FILTER (WHERE status = 'confirmed'),
	COUNT(*) FILTER (WHERE status = 'attended'),
	COUNT(*) FILTER (WHERE status = 'no_show'),
	COUNT(*)
FROM rsvps
WHERE event_id = $1`

	if err = r.queryRow(ctx, query, eventID).Scan(&pending, &checkedIn, &noShow, &total); err != nil {
		if isInvalidUUID(err) {
			return 0, 0, 0, 0, domain.ErrInvalidID
		}
		return 0, 0, 0, 0, fmt.Errorf("check-in counts: %w", err)
	}
	return pending, checkedIn, noShow, total, nil
}

func (r *RSVPRepository) list(ctx context.Context, query string, arg any) ([]domain.RSVP, error) {
	rows, err := r.query(ctx, query, arg)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list rsvps: %w", err)
	}
	defer rows.Close()

	var rsvps []domain.RSVP
	for rows.Next() {
		rsvp, err := scanRSVP(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rsvp: %w", err)
		}
		rsvps = append(rsvps, rsvp)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate rsvps: %w", rows.Err())
	}
	return rsvps, nil
}

func scanRSVP(row pgx.Row) (domain.RSVP, error) {
	var r domain.RSVP
	err := row.Scan(
		&r.ID,
		&r.EventID,
		&r.TierID,
		&r.UserID,
		&r.Status,
		&r.Credential,
		&r.CheckedInAt,
		&r.Notes,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}

func (r *RSVPRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *RSVPRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *RSVPRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
