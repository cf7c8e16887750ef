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

type pgParkingSlotRepository struct {
	db *sql.DB
}

func NewPgParkingSlotRepository(db *sql.DB) repository.ParkingSlotRepository {
	return &pgParkingSlotRepository{db: db}
}

func (r *pgParkingSlotRepository) Create(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error) {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	query := `INSERT INTO parking_slots (id, location_id, identifier, status, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, slot.ID, slot.LocationID, slot.Identifier, slot.Status).
		Scan(&slot.CreatedAt, &slot.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" {
				// UNIQUE (location_id, identifier)
				if pqErr.Constraint == "parking_slots_location_id_identifier_key" {
					return nil, fmt.Errorf("%w: chỗ đỗ '%s' đã tồn tại tại địa điểm %s", repository.ErrDuplicateEntry, slot.Identifier, slot.LocationID)
				}
			}
			if pqErr.Code.Name() == "foreign_key_violation" {
				return nil, fmt.Errorf("%w: địa điểm %s không tồn tại", repository.ErrNotFound, slot.LocationID)
			}
		}
		return nil, fmt.Errorf("ParkingSlotRepository.Create: %w", err)
	}
	slot.CreatedAt = slot.CreatedAt.In(time.UTC)
	slot.UpdatedAt = slot.UpdatedAt.In(time.UTC)
	return slot, nil
}

func (r *pgParkingSlotRepository) FindByID(ctx context.Context, id string) (*domain.ParkingSlot, error) {
	slot := &domain.ParkingSlot{}
	query := `SELECT id, location_id, identifier, status, created_at, updated_at
	           FROM parking_slots WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&slot.ID, &slot.LocationID, &slot.Identifier, &slot.Status, &slot.CreatedAt, &slot.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSlotRepository.FindByID: %w", err)
	}
	slot.CreatedAt = slot.CreatedAt.In(time.UTC)
	slot.UpdatedAt = slot.UpdatedAt.In(time.UTC)
	return slot, nil
}

func (r *pgParkingSlotRepository) FindAll(ctx context.Context) ([]domain.ParkingSlot, error) {
	query := `SELECT s.id, s.location_id, s.identifier, s.status, s.created_at, s.updated_at,
	                 l.id, l.name, l.address, l.created_at, l.updated_at
	           FROM parking_slots s
	           JOIN locations l ON l.id = s.location_id
	           ORDER BY l.name, s.identifier`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ParkingSlotRepository.FindAll: %w", err)
	}
	defer rows.Close()
	return scanSlotsWithLocation(rows, "ParkingSlotRepository.FindAll")
}

func (r *pgParkingSlotRepository) FindByLocationID(ctx context.Context, locationID string) ([]domain.ParkingSlot, error) {
	query := `SELECT s.id, s.location_id, s.identifier, s.status, s.created_at, s.updated_at,
	                 l.id, l.name, l.address, l.created_at, l.updated_at
	           FROM parking_slots s
	           JOIN locations l ON l.id = s.location_id
	           WHERE s.location_id = $1
	           ORDER BY s.identifier`
	rows, err := r.db.QueryContext(ctx, query, locationID)
	if err != nil {
		return nil, fmt.Errorf("ParkingSlotRepository.FindByLocationID: %w", err)
	}
	defer rows.Close()
	return scanSlotsWithLocation(rows, "ParkingSlotRepository.FindByLocationID")
}

func scanSlotsWithLocation(rows *sql.Rows, op string) ([]domain.ParkingSlot, error) {
	var slots []domain.ParkingSlot
	for rows.Next() {
		var slot domain.ParkingSlot
		var location domain.Location
		if err := rows.Scan(
			&slot.ID, &slot.LocationID, &slot.Identifier, &slot.Status, &slot.CreatedAt, &slot.UpdatedAt,
			&location.ID, &location.Name, &location.Address, &location.CreatedAt, &location.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s (scanning row): %w", op, err)
		}
		slot.CreatedAt = slot.CreatedAt.In(time.UTC)
		slot.UpdatedAt = slot.UpdatedAt.In(time.UTC)
		location.CreatedAt = location.CreatedAt.In(time.UTC)
		location.UpdatedAt = location.UpdatedAt.In(time.UTC)
		slot.Location = &location
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s (rows error): %w", op, err)
	}
	return slots, nil
}

func (r *pgParkingSlotRepository) FindByLocationAndIdentifier(ctx context.Context, locationID string, identifier string) (*domain.ParkingSlot, error) {
	slot := &domain.ParkingSlot{}
	query := `SELECT id, location_id, identifier, status, created_at, updated_at
	           FROM parking_slots
	           WHERE location_id = $1 AND identifier = $2`
	err := r.db.QueryRowContext(ctx, query, locationID, identifier).
		Scan(&slot.ID, &slot.LocationID, &slot.Identifier, &slot.Status, &slot.CreatedAt, &slot.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSlotRepository.FindByLocationAndIdentifier: %w", err)
	}
	slot.CreatedAt = slot.CreatedAt.In(time.UTC)
	slot.UpdatedAt = slot.UpdatedAt.In(time.UTC)
	return slot, nil
}

func (r *pgParkingSlotRepository) Update(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error) {
	query := `UPDATE parking_slots
	           SET location_id = $1, identifier = $2, status = $3, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $4
	           RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, slot.LocationID, slot.Identifier, slot.Status, slot.ID).
		Scan(&slot.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" {
				if pqErr.Constraint == "parking_slots_location_id_identifier_key" {
					return nil, fmt.Errorf("%w: chỗ đỗ '%s' đã tồn tại tại địa điểm %s", repository.ErrDuplicateEntry, slot.Identifier, slot.LocationID)
				}
			}
		}
		return nil, fmt.Errorf("ParkingSlotRepository.Update: %w", err)
	}
	slot.UpdatedAt = slot.UpdatedAt.In(time.UTC)
	return slot, nil
}

func (r *pgParkingSlotRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM parking_slots WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ParkingSlotRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSlotRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
