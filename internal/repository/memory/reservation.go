package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"parking_reservation/internal/domain"
	"parking_reservation/internal/repository"

	"github.com/google/uuid"
	"gopkg.in/guregu/null.v4"
)

type ReservationRepository struct {
	mu           sync.RWMutex
	reservations map[string]*domain.Reservation

	// slotLocks serialize check-then-insert theo từng slot, thay cho
	// transaction + row lock của bản postgresql.
	slotLocksMu sync.Mutex
	slotLocks   map[string]*sync.Mutex

	users *UserRepository
	slots *ParkingSlotRepository
}

func NewReservationRepository(users *UserRepository, slots *ParkingSlotRepository) *ReservationRepository {
	return &ReservationRepository{
		reservations: make(map[string]*domain.Reservation),
		slotLocks:    make(map[string]*sync.Mutex),
		users:        users,
		slots:        slots,
	}
}

func (r *ReservationRepository) lockForSlot(slotID string) *sync.Mutex {
	r.slotLocksMu.Lock()
	defer r.slotLocksMu.Unlock()
	l, ok := r.slotLocks[slotID]
	if !ok {
		l = &sync.Mutex{}
		r.slotLocks[slotID] = l
	}
	return l
}

func (r *ReservationRepository) CreateIfFree(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error) {
	lock := r.lockForSlot(reservation.SlotID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := r.slots.FindByID(ctx, reservation.SlotID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reservations {
		if existing.SlotID != reservation.SlotID || existing.Canceled {
			continue
		}
		if existing.Overlaps(reservation.StartTime, reservation.EndTime) {
			return nil, repository.ErrTimeConflict
		}
	}

	if reservation.ID == "" {
		reservation.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	reservation.Canceled = false
	reservation.CanceledAt = null.Time{}
	reservation.CreatedAt = now
	reservation.UpdatedAt = now
	cp := *reservation
	cp.User = nil
	cp.Slot = nil
	r.reservations[reservation.ID] = &cp
	return reservation, nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, id string) (*domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rsv, ok := r.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rsv
	return &cp, nil
}

func (r *ReservationRepository) FindAllWithDetails(ctx context.Context) ([]domain.Reservation, error) {
	r.mu.RLock()
	var reservations []domain.Reservation
	for _, rsv := range r.reservations {
		reservations = append(reservations, *rsv)
	}
	r.mu.RUnlock()

	sort.Slice(reservations, func(i, j int) bool {
		return reservations[i].CreatedAt.After(reservations[j].CreatedAt)
	})
	for i := range reservations {
		if user, err := r.users.FindByID(ctx, reservations[i].UserID); err == nil {
			user.Password = ""
			reservations[i].User = user
		}
		r.attachSlot(ctx, &reservations[i])
	}
	return reservations, nil
}

func (r *ReservationRepository) FindByUserID(ctx context.Context, userID string) ([]domain.Reservation, error) {
	r.mu.RLock()
	var reservations []domain.Reservation
	for _, rsv := range r.reservations {
		if rsv.UserID == userID {
			reservations = append(reservations, *rsv)
		}
	}
	r.mu.RUnlock()

	sort.Slice(reservations, func(i, j int) bool {
		return reservations[i].StartTime.Before(reservations[j].StartTime)
	})
	for i := range reservations {
		r.attachSlot(ctx, &reservations[i])
	}
	return reservations, nil
}

func (r *ReservationRepository) attachSlot(ctx context.Context, rsv *domain.Reservation) {
	slot, err := r.slots.FindByID(ctx, rsv.SlotID)
	if err != nil {
		return
	}
	if r.slots.locations != nil {
		if location, lerr := r.slots.locations.FindByID(ctx, slot.LocationID); lerr == nil {
			slot.Location = location
		}
	}
	rsv.Slot = slot
}

func (r *ReservationRepository) FindActiveBySlotID(ctx context.Context, slotID string, from time.Time) ([]domain.Reservation, error) {
	r.mu.RLock()
	var reservations []domain.Reservation
	for _, rsv := range r.reservations {
		if rsv.SlotID == slotID && !rsv.Canceled && rsv.EndTime.After(from) {
			reservations = append(reservations, *rsv)
		}
	}
	r.mu.RUnlock()
	sort.Slice(reservations, func(i, j int) bool {
		return reservations[i].StartTime.Before(reservations[j].StartTime)
	})
	return reservations, nil
}

func (r *ReservationRepository) Cancel(ctx context.Context, id string) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rsv, ok := r.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	now := time.Now().UTC()
	rsv.Canceled = true
	if !rsv.CanceledAt.Valid {
		rsv.CanceledAt = null.TimeFrom(now)
	}
	rsv.UpdatedAt = now
	cp := *rsv
	return &cp, nil
}
