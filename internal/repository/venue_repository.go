package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gatherly/internal/models"
)

var ErrVenueNotFound = errors.New("venue not found")

type VenueRepository struct {
	pool *pgxpool.Pool
}

func NewVenueRepository(pool *pgxpool.Pool) *VenueRepository {
	return &VenueRepository{pool: pool}
}

func (r *VenueRepository) Create(ctx context.Context, venue models.Venue) error {
	const query = `
		INSERT INTO venues (id, name, address, city, capacity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		venue.ID,
		venue.Name,
		venue.Address,
		venue.City,
		venue.Capacity,
	)
	return err
}

func (r *VenueRepository) GetByID(ctx context.Context, id string) (models.Venue, error) {
	const query = `
		SELECT id, name, address, city, capacity, created_at, updated_at
		FROM venues
		WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	var venue models.Venue
	if err := row.Scan(
		&venue.ID,
		&venue.Name,
		&venue.Address,
		&venue.City,
		&venue.Capacity,
		&venue.CreatedAt,
		&venue.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Venue{}, ErrVenueNotFound
		}
		return models.Venue{}, err
	}
	return venue, nil
}

func (r *VenueRepository) Update(ctx context.Context, venue models.Venue) error {
	const query = `
		UPDATE venues
		SET name = $2, address = $3, city = $4, capacity = $5, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query,
		venue.ID,
		venue.Name,
		venue.Address,
		venue.City,
		venue.Capacity,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVenueNotFound
	}
	return nil
}

func (r *VenueRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM venues WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVenueNotFound
	}
	return nil
}

func (r *VenueRepository) List(ctx context.Context) ([]models.Venue, error) {
	const query = `
		SELECT id, name, address, city, capacity, created_at, updated_at
		FROM venues
		ORDER BY name ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var venues []models.Venue
	for rows.Next() {
		var venue models.Venue
		if err := rows.Scan(
			&venue.ID,
			&venue.Name,
			&venue.Address,
			&venue.City,
			&venue.Capacity,
			&venue.CreatedAt,
			&venue.UpdatedAt,
		); err != nil {
			return nil, err
		}
		venues = append(venues, venue)
	}
	return venues, rows.Err()
}
