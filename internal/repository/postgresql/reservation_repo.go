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

type pgReservationRepository struct {
	db *sql.DB
}

func NewPgReservationRepository(db *sql.DB) repository.ReservationRepository {
	return &pgReservationRepository{db: db}
}

// CreateIfFree kiểm tra trùng khoảng thời gian và insert trong cùng một
// transaction. SELECT ... FOR UPDATE trên row của slot serialize các request
// admission cạnh tranh trên cùng một slot: trong hai request trùng khoảng
// thời gian, đúng một request thắng, request còn lại nhận ErrTimeConflict.
func (r *pgReservationRepository) CreateIfFree(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error) {
	if reservation.ID == "" {
		reservation.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.CreateIfFree (begin tx): %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 1. Lock row của slot để serialize admission trên slot này
	var slotID string
	queryLock := `SELECT id FROM parking_slots WHERE id = $1 FOR UPDATE`
	err = tx.QueryRowContext(ctx, queryLock, reservation.SlotID).Scan(&slotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ReservationRepository.CreateIfFree (lock slot): %w", err)
	}

	// 2. Kiểm tra trùng khoảng nửa mở [start, end): các đặt chỗ kề nhau
	// (end của cái này bằng start của cái kia) không tính là trùng
	var conflicts int
	queryOverlap := `SELECT COUNT(*) FROM reservations
	                  WHERE slot_id = $1 AND canceled = FALSE
	                    AND start_time < $3 AND end_time > $2`
	err = tx.QueryRowContext(ctx, queryOverlap, reservation.SlotID, reservation.StartTime, reservation.EndTime).
		Scan(&conflicts)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.CreateIfFree (overlap check): %w", err)
	}
	if conflicts > 0 {
		return nil, repository.ErrTimeConflict
	}

	// 3. Insert đặt chỗ
	queryInsert := `INSERT INTO reservations (id, user_id, slot_id, start_time, end_time, canceled, created_at, updated_at)
	                 VALUES ($1, $2, $3, $4, $5, FALSE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	                 RETURNING created_at, updated_at`
	err = tx.QueryRowContext(ctx, queryInsert,
		reservation.ID, reservation.UserID, reservation.SlotID, reservation.StartTime, reservation.EndTime,
	).Scan(&reservation.CreatedAt, &reservation.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			// 23P01: exclusion_violation - nếu DB có EXCLUDE constraint trên
			// (slot_id, tstzrange(start_time, end_time)) thì insert thua cuộc
			// cũng được map về ErrTimeConflict
			if pqErr.Code == "23P01" {
				return nil, repository.ErrTimeConflict
			}
		}
		return nil, fmt.Errorf("ReservationRepository.CreateIfFree (insert): %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("ReservationRepository.CreateIfFree (commit): %w", err)
	}
	reservation.Canceled = false
	reservation.CreatedAt = reservation.CreatedAt.In(time.UTC)
	reservation.UpdatedAt = reservation.UpdatedAt.In(time.UTC)
	return reservation, nil
}

func (r *pgReservationRepository) FindByID(ctx context.Context, id string) (*domain.Reservation, error) {
	reservation := &domain.Reservation{}
	query := `SELECT id, user_id, slot_id, start_time, end_time, canceled, canceled_at, created_at, updated_at
	           FROM reservations WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&reservation.ID, &reservation.UserID, &reservation.SlotID,
		&reservation.StartTime, &reservation.EndTime,
		&reservation.Canceled, &reservation.CanceledAt,
		&reservation.CreatedAt, &reservation.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ReservationRepository.FindByID: %w", err)
	}
	normalizeReservationTimes(reservation)
	return reservation, nil
}

// FindAllWithDetails trả về mọi đặt chỗ (mới tạo trước), join user và
// slot -> location để hiển thị cho admin.
func (r *pgReservationRepository) FindAllWithDetails(ctx context.Context) ([]domain.Reservation, error) {
	query := `SELECT rs.id, rs.user_id, rs.slot_id, rs.start_time, rs.end_time, rs.canceled, rs.canceled_at, rs.created_at, rs.updated_at,
	                 u.id, u.name, u.email, u.role,
	                 s.id, s.location_id, s.identifier, s.status,
	                 l.id, l.name, l.address
	           FROM reservations rs
	           JOIN users u ON u.id = rs.user_id
	           JOIN parking_slots s ON s.id = rs.slot_id
	           JOIN locations l ON l.id = s.location_id
	           ORDER BY rs.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.FindAllWithDetails: %w", err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		var rsv domain.Reservation
		var user domain.User
		var slot domain.ParkingSlot
		var location domain.Location
		if err := rows.Scan(
			&rsv.ID, &rsv.UserID, &rsv.SlotID, &rsv.StartTime, &rsv.EndTime, &rsv.Canceled, &rsv.CanceledAt, &rsv.CreatedAt, &rsv.UpdatedAt,
			&user.ID, &user.Name, &user.Email, &user.Role,
			&slot.ID, &slot.LocationID, &slot.Identifier, &slot.Status,
			&location.ID, &location.Name, &location.Address,
		); err != nil {
			return nil, fmt.Errorf("ReservationRepository.FindAllWithDetails (scanning row): %w", err)
		}
		normalizeReservationTimes(&rsv)
		slot.Location = &location
		rsv.User = &user
		rsv.Slot = &slot
		reservations = append(reservations, rsv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ReservationRepository.FindAllWithDetails (rows error): %w", err)
	}
	return reservations, nil
}

// FindByUserID trả về đặt chỗ của một user, sắp theo start_time tăng dần,
// join slot -> location để hiển thị.
func (r *pgReservationRepository) FindByUserID(ctx context.Context, userID string) ([]domain.Reservation, error) {
	query := `SELECT rs.id, rs.user_id, rs.slot_id, rs.start_time, rs.end_time, rs.canceled, rs.canceled_at, rs.created_at, rs.updated_at,
	                 s.id, s.location_id, s.identifier, s.status,
	                 l.id, l.name, l.address
	           FROM reservations rs
	           JOIN parking_slots s ON s.id = rs.slot_id
	           JOIN locations l ON l.id = s.location_id
	           WHERE rs.user_id = $1
	           ORDER BY rs.start_time ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.FindByUserID: %w", err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		var rsv domain.Reservation
		var slot domain.ParkingSlot
		var location domain.Location
		if err := rows.Scan(
			&rsv.ID, &rsv.UserID, &rsv.SlotID, &rsv.StartTime, &rsv.EndTime, &rsv.Canceled, &rsv.CanceledAt, &rsv.CreatedAt, &rsv.UpdatedAt,
			&slot.ID, &slot.LocationID, &slot.Identifier, &slot.Status,
			&location.ID, &location.Name, &location.Address,
		); err != nil {
			return nil, fmt.Errorf("ReservationRepository.FindByUserID (scanning row): %w", err)
		}
		normalizeReservationTimes(&rsv)
		slot.Location = &location
		rsv.Slot = &slot
		reservations = append(reservations, rsv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ReservationRepository.FindByUserID (rows error): %w", err)
	}
	return reservations, nil
}

func (r *pgReservationRepository) FindActiveBySlotID(ctx context.Context, slotID string, from time.Time) ([]domain.Reservation, error) {
	query := `SELECT id, user_id, slot_id, start_time, end_time, canceled, canceled_at, created_at, updated_at
	           FROM reservations
	           WHERE slot_id = $1 AND canceled = FALSE AND end_time > $2
	           ORDER BY start_time ASC`
	rows, err := r.db.QueryContext(ctx, query, slotID, from)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.FindActiveBySlotID: %w", err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		var rsv domain.Reservation
		if err := rows.Scan(
			&rsv.ID, &rsv.UserID, &rsv.SlotID, &rsv.StartTime, &rsv.EndTime,
			&rsv.Canceled, &rsv.CanceledAt, &rsv.CreatedAt, &rsv.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ReservationRepository.FindActiveBySlotID (scanning row): %w", err)
		}
		normalizeReservationTimes(&rsv)
		reservations = append(reservations, rsv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ReservationRepository.FindActiveBySlotID (rows error): %w", err)
	}
	return reservations, nil
}

// Cancel đặt canceled = true và giữ lại bản ghi. Gọi lại trên một đặt chỗ
// đã hủy vẫn thành công, canceled_at giữ lần hủy đầu tiên.
func (r *pgReservationRepository) Cancel(ctx context.Context, id string) (*domain.Reservation, error) {
	reservation := &domain.Reservation{}
	query := `UPDATE reservations
	           SET canceled = TRUE,
	               canceled_at = COALESCE(canceled_at, CURRENT_TIMESTAMP),
	               updated_at = CURRENT_TIMESTAMP
	           WHERE id = $1
	           RETURNING id, user_id, slot_id, start_time, end_time, canceled, canceled_at, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&reservation.ID, &reservation.UserID, &reservation.SlotID,
		&reservation.StartTime, &reservation.EndTime,
		&reservation.Canceled, &reservation.CanceledAt,
		&reservation.CreatedAt, &reservation.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ReservationRepository.Cancel: %w", err)
	}
	normalizeReservationTimes(reservation)
	return reservation, nil
}

func normalizeReservationTimes(rsv *domain.Reservation) {
	rsv.StartTime = rsv.StartTime.In(time.UTC)
	rsv.EndTime = rsv.EndTime.In(time.UTC)
	rsv.CreatedAt = rsv.CreatedAt.In(time.UTC)
	rsv.UpdatedAt = rsv.UpdatedAt.In(time.UTC)
	if rsv.CanceledAt.Valid {
		rsv.CanceledAt.Time = rsv.CanceledAt.Time.In(time.UTC)
	}
}
