package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixLandlord/eventRSVP/internal/domain"
)

const tierColumns = `id, event_id, name, description, price_cents, currency,
quantity_total, quantity_sold, created_at`

type executor interface {
	exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertTier(ctx context.Context, db executor, tier domain.TicketTier) error {
	const stmt = `
INSERT INTO ticket_tiers (id, event_id, name, description, price_cents, currency,
	quantity_total, quantity_sold, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := db.exec(ctx, stmt,
		tier.ID,
		tier.EventID,
		tier.Name,
		tier.Description,
		tier.PriceCents,
		tier.Currency,
		tier.QuantityTotal,
		tier.QuantitySold,
		tier.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrEventNotFound
		}
		return fmt.Errorf("create tier: %w", err)
	}
	return nil
}

type TicketRepository struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

func (r *TicketRepository) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
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

func (r *TicketRepository) GetTier(ctx context.Context, tierID string) (domain.TicketTier, error) {
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

func (r *TicketRepository) CreateTier(ctx context.Context, tier domain.TicketTier) error {
	return insertTier(ctx, r, tier)
}

func (r *TicketRepository) ListTiersByEvent(ctx context.Context, eventID string) ([]domain.TicketTier, error) {
	query := `SELECT ` + tierColumns + `
FROM ticket_tiers
WHERE event_id = $1
ORDER BY price_cents ASC, created_at ASC`

	rows, err := r.query(ctx, query, eventID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list tiers: %w", err)
	}
	defer rows.Close()

	var tiers []domain.TicketTier
	for rows.Next() {
		tier, err := scanTier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tier: %w", err)
		}
		tiers = append(tiers, tier)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate tiers: %w", rows.Err())
	}
	return tiers, nil
}

// UpdateTierCapacity lowers or raises quantity_total in one conditional
// statement; a decrease below quantity_sold matches no row and is reported
// as ErrCapacityBelowSold.
func (r *TicketRepository) UpdateTierCapacity(ctx context.Context, tierID string, quantityTotal int) error {
	const stmt = `
UPDATE ticket_tiers
SET quantity_total = $2
WHERE id = $1 AND quantity_sold <= $2`

	tag, err := r.exec(ctx, stmt, tierID, quantityTotal)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update tier capacity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Disambiguate: missing tier vs capacity conflict.
		const existsQuery = `SELECT EXISTS (SELECT 1 FROM ticket_tiers WHERE id = $1)`
		var exists bool
		if err := r.queryRow(ctx, existsQuery, tierID).Scan(&exists); err != nil {
			return fmt.Errorf("check tier: %w", err)
		}
		if !exists {
			return domain.ErrTierNotFound
		}
		return domain.ErrCapacityBelowSold
	}
	return nil
}

func scanTier(row pgx.Row) (domain.TicketTier, error) {
	var t domain.TicketTier
	err := row.Scan(
		&t.ID,
		&t.EventID,
		&t.Name,
		&t.Description,
		&t.PriceCents,
		&t.Currency,
		&t.QuantityTotal,
		&t.QuantitySold,
		&t.CreatedAt,
	)
	return t, err
}

func (r *TicketRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *TicketRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *TicketRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
