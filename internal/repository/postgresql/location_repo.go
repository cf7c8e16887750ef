package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"parking_reservation/internal/domain"
	"parking_reservation/internal/repository"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type pgLocationRepository struct {
	db *sql.DB
}

func NewPgLocationRepository(db *sql.DB) repository.LocationRepository {
	return &pgLocationRepository{db: db}
}

func (r *pgLocationRepository) Create(ctx context.Context, location *domain.Location) (*domain.Location, error) {
	if location.ID == "" {
		location.ID = uuid.NewString()
	}
	query := `INSERT INTO locations (id, name, address, created_at, updated_at)
	           VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, location.ID, location.Name, location.Address).
		Scan(&location.CreatedAt, &location.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" {
				return nil, fmt.Errorf("%w: địa điểm '%s' đã tồn tại", repository.ErrDuplicateEntry, location.Name)
			}
		}
		return nil, fmt.Errorf("LocationRepository.Create: %w", err)
	}
	location.CreatedAt = location.CreatedAt.In(time.UTC)
	location.UpdatedAt = location.UpdatedAt.In(time.UTC)
	return location, nil
}

func (r *pgLocationRepository) FindByID(ctx context.Context, id string) (*domain.Location, error) {
	location := &domain.Location{}
	query := `SELECT id, name, address, created_at, updated_at FROM locations WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&location.ID, &location.Name, &location.Address, &location.CreatedAt, &location.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("LocationRepository.FindByID: %w", err)
	}
	location.CreatedAt = location.CreatedAt.In(time.UTC)
	location.UpdatedAt = location.UpdatedAt.In(time.UTC)
	return location, nil
}

// FindAll trả về các địa điểm kèm danh sách slot của từng địa điểm.
func (r *pgLocationRepository) FindAll(ctx context.Context) ([]domain.Location, error) {
	query := `SELECT l.id, l.name, l.address, l.created_at, l.updated_at,
	                 s.id, s.location_id, s.identifier, s.status, s.created_at, s.updated_at
	           FROM locations l
	           LEFT JOIN parking_slots s ON s.location_id = l.id
	           ORDER BY l.name, s.identifier`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("LocationRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var locations []domain.Location
	index := make(map[string]int)
	for rows.Next() {
		var location domain.Location
		var slotID, slotLocationID, slotIdentifier, slotStatus sql.NullString
		var slotCreatedAt, slotUpdatedAt sql.NullTime
		if err := rows.Scan(
			&location.ID, &location.Name, &location.Address, &location.CreatedAt, &location.UpdatedAt,
			&slotID, &slotLocationID, &slotIdentifier, &slotStatus, &slotCreatedAt, &slotUpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("LocationRepository.FindAll (scanning row): %w", err)
		}
		location.CreatedAt = location.CreatedAt.In(time.UTC)
		location.UpdatedAt = location.UpdatedAt.In(time.UTC)

		i, ok := index[location.ID]
		if !ok {
			locations = append(locations, location)
			i = len(locations) - 1
			index[location.ID] = i
		}
		if slotID.Valid {
			locations[i].Slots = append(locations[i].Slots, domain.ParkingSlot{
				ID:         slotID.String,
				LocationID: slotLocationID.String,
				Identifier: slotIdentifier.String,
				Status:     domain.SlotStatus(slotStatus.String),
				CreatedAt:  slotCreatedAt.Time.In(time.UTC),
				UpdatedAt:  slotUpdatedAt.Time.In(time.UTC),
			})
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("LocationRepository.FindAll (rows error): %w", err)
	}
	return locations, nil
}

func (r *pgLocationRepository) Update(ctx context.Context, location *domain.Location) (*domain.Location, error) {
	query := `UPDATE locations SET name = $1, address = $2, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $3 RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, location.Name, location.Address, location.ID).
		Scan(&location.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" {
				return nil, fmt.Errorf("%w: địa điểm '%s' đã tồn tại", repository.ErrDuplicateEntry, location.Name)
			}
		}
		return nil, fmt.Errorf("LocationRepository.Update: %w", err)
	}
	location.UpdatedAt = location.UpdatedAt.In(time.UTC)
	return location, nil
}

func (r *pgLocationRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM locations WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("LocationRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("LocationRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
