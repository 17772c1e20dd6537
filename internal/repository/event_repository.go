package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gatherly/internal/models"
)

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrAttendeeNotFound = errors.New("attendee not found")
)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

const eventColumns = `id, title, description, venue_id, organizer_id, starts_at, ends_at, ticket_price, capacity, status, cover_url, created_at, updated_at`

func scanEvent(row pgx.Row) (models.Event, error) {
	var event models.Event
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.VenueID,
		&event.OrganizerID,
		&event.StartsAt,
		&event.EndsAt,
		&event.TicketPrice,
		&event.Capacity,
		&event.Status,
		&event.CoverURL,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Event{}, ErrEventNotFound
		}
		return models.Event{}, err
	}
	return event, nil
}

func (r *EventRepository) Create(ctx context.Context, event models.Event) error {
	const query = `
		INSERT INTO events (
			id, title, description, venue_id, organizer_id, starts_at, ends_at, ticket_price, capacity, status, cover_url, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.Title,
		event.Description,
		event.VenueID,
		event.OrganizerID,
		event.StartsAt,
		event.EndsAt,
		event.TicketPrice,
		event.Capacity,
		event.Status,
		event.CoverURL,
	)
	return err
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (models.Event, error) {
	const query = `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return scanEvent(r.pool.QueryRow(ctx, query, id))
}

func (r *EventRepository) Update(ctx context.Context, event models.Event) error {
	const query = `
		UPDATE events
		SET title = $2,
		    description = $3,
		    venue_id = $4,
		    starts_at = $5,
		    ends_at = $6,
		    ticket_price = $7,
		    capacity = $8,
		    status = $9,
		    cover_url = $10,
		    updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query,
		event.ID,
		event.Title,
		event.Description,
		event.VenueID,
		event.StartsAt,
		event.EndsAt,
		event.TicketPrice,
		event.Capacity,
		event.Status,
		event.CoverURL,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM events WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *EventRepository) List(ctx context.Context, limit, offset int) ([]models.Event, error) {
	const query = `
		SELECT ` + eventColumns + `
		FROM events
		WHERE status = 'published'
		ORDER BY starts_at ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *EventRepository) UpsertAttendee(ctx context.Context, attendee models.EventAttendee) error {
	const query = `
		INSERT INTO event_attendees (event_id, user_id, status, joined_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (event_id, user_id)
		DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query, attendee.EventID, attendee.UserID, attendee.Status)
	return err
}

func (r *EventRepository) DeleteAttendee(ctx context.Context, eventID, userID string) error {
	const query = `DELETE FROM event_attendees WHERE event_id = $1 AND user_id = $2`
	cmd, err := r.pool.Exec(ctx, query, eventID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAttendeeNotFound
	}
	return nil
}

func (r *EventRepository) CountAttendees(ctx context.Context, eventID string) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM event_attendees
		WHERE event_id = $1 AND status IN ('pending', 'approved')
	`
	var count int
	if err := r.pool.QueryRow(ctx, query, eventID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ListAttendees returns the users attending the event, joined against the
// users table so callers get display fields without extra lookups.
func (r *EventRepository) ListAttendees(ctx context.Context, eventID string) ([]models.User, error) {
	const query = `
		SELECT u.id, u.username, u.email, u.password_hash, u.first_name, u.last_name, u.role, u.status, u.phone, u.avatar_url, u.created_at, u.updated_at
		FROM event_attendees a
		JOIN users u ON u.id = a.user_id
		WHERE a.event_id = $1 AND a.status IN ('pending', 'approved')
		ORDER BY a.joined_at ASC
	`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *EventRepository) GetAttendee(ctx context.Context, eventID, userID string) (models.EventAttendee, error) {
	const query = `
		SELECT event_id, user_id, status, joined_at, updated_at
		FROM event_attendees
		WHERE event_id = $1 AND user_id = $2
	`
	row := r.pool.QueryRow(ctx, query, eventID, userID)
	var attendee models.EventAttendee
	if err := row.Scan(
		&attendee.EventID,
		&attendee.UserID,
		&attendee.Status,
		&attendee.JoinedAt,
		&attendee.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.EventAttendee{}, ErrAttendeeNotFound
		}
		return models.EventAttendee{}, err
	}
	return attendee, nil
}
