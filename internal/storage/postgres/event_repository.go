package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixLandlord/eventRSVP/internal/app"
	"github.com/felixLandlord/eventRSVP/internal/domain"
)

const eventColumns = `id, title, description, category, location, venue_address,
starts_at, ends_at, timezone, max_attendees, is_free, status, organizer_id, created_at`

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *EventRepository) CreateEvent(ctx context.Context, event domain.Event) error {
	const stmt = `
INSERT INTO events (id, title, description, category, location, venue_address,
	starts_at, ends_at, timezone, max_attendees, is_free, status, organizer_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.exec(ctx, stmt,
		event.ID,
		event.Title,
		event.Description,
		event.Category,
		event.Location,
		event.VenueAddress,
		event.StartsAt,
		event.EndsAt,
		event.Timezone,
		event.MaxAttendees,
		event.IsFree,
		event.Status,
		event.OrganizerID,
		event.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (r *EventRepository) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 AND deleted_at IS NULL`
	event, err := scanEvent(r.queryRow(ctx, query, id))
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

func (r *EventRepository) ListEvents(ctx context.Context, filter app.EventFilter) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE deleted_at IS NULL`
	args := make([]any, 0, 4)

	if filter.Category != nil {
		args = append(args, *filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY starts_at ASC LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return collectEvents(rows)
}

func (r *EventRepository) ListEventsByOrganizer(ctx context.Context, organizerID string) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + `
FROM events
WHERE organizer_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC`

	rows, err := r.query(ctx, query, organizerID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list organizer events: %w", err)
	}
	return collectEvents(rows)
}

func (r *EventRepository) UpdateEvent(ctx context.Context, event domain.Event) error {
	const stmt = `
UPDATE events
SET title = $2, description = $3, category = $4, location = $5, venue_address = $6,
	starts_at = $7, ends_at = $8, timezone = $9, max_attendees = $10, is_free = $11,
	status = $12, updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.exec(ctx, stmt,
		event.ID,
		event.Title,
		event.Description,
		event.Category,
		event.Location,
		event.VenueAddress,
		event.StartsAt,
		event.EndsAt,
		event.Timezone,
		event.MaxAttendees,
		event.IsFree,
		event.Status,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *EventRepository) SoftDeleteEvent(ctx context.Context, id string, at time.Time) error {
	const stmt = `UPDATE events SET deleted_at = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.exec(ctx, stmt, id, at)
	if err != nil {
		return fmt.Errorf("soft delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *EventRepository) CountActiveRSVPs(ctx context.Context, eventID string) (int, error) {
	const query = `SELECT COUNT(*) FROM rsvps WHERE event_id = $1 AND status <> 'cancelled'`

	var count int
	if err := r.queryRow(ctx, query, eventID).Scan(&count); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("count active rsvps: %w", err)
	}
	return count, nil
}

func (r *EventRepository) CreateTier(ctx context.Context, tier domain.TicketTier) error {
	return insertTier(ctx, r, tier)
}

func scanEvent(row pgx.Row) (domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.Category,
		&e.Location,
		&e.VenueAddress,
		&e.StartsAt,
		&e.EndsAt,
		&e.Timezone,
		&e.MaxAttendees,
		&e.IsFree,
		&e.Status,
		&e.OrganizerID,
		&e.CreatedAt,
	)
	return e, err
}

func collectEvents(rows pgx.Rows) ([]domain.Event, error) {
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate events: %w", rows.Err())
	}
	return events, nil
}

func (r *EventRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *EventRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *EventRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
