// Package memory chứa các repository in-memory, dùng làm test double cho
// tầng service và API. Hành vi (sentinel error, thứ tự sắp xếp, ràng buộc
// duy nhất) bám theo các bản postgresql tương ứng.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"parking_reservation/internal/domain"
	"parking_reservation/internal/repository"

	"github.com/google/uuid"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*domain.User)}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return nil, repository.ErrDuplicateEntry
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	r.users[user.ID] = &cp
	return user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) FindAdminByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Role != domain.RoleAdmin {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

type LocationRepository struct {
	mu        sync.RWMutex
	locations map[string]*domain.Location
	slots     *ParkingSlotRepository // để đính kèm slots khi FindAll
}

func NewLocationRepository(slots *ParkingSlotRepository) *LocationRepository {
	return &LocationRepository{
		locations: make(map[string]*domain.Location),
		slots:     slots,
	}
}

func (r *LocationRepository) Create(ctx context.Context, location *domain.Location) (*domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if location.ID == "" {
		location.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	location.CreatedAt = now
	location.UpdatedAt = now
	cp := *location
	cp.Slots = nil
	r.locations[location.ID] = &cp
	return location, nil
}

func (r *LocationRepository) FindByID(ctx context.Context, id string) (*domain.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.locations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *LocationRepository) FindAll(ctx context.Context) ([]domain.Location, error) {
	r.mu.RLock()
	var locations []domain.Location
	for _, l := range r.locations {
		locations = append(locations, *l)
	}
	r.mu.RUnlock()

	sort.Slice(locations, func(i, j int) bool { return locations[i].Name < locations[j].Name })
	if r.slots != nil {
		for i := range locations {
			slots, err := r.slots.FindByLocationID(ctx, locations[i].ID)
			if err != nil {
				return nil, err
			}
			for j := range slots {
				slots[j].Location = nil
			}
			locations[i].Slots = slots
		}
	}
	return locations, nil
}

func (r *LocationRepository) Update(ctx context.Context, location *domain.Location) (*domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.locations[location.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	existing.Name = location.Name
	existing.Address = location.Address
	existing.UpdatedAt = time.Now().UTC()
	location.CreatedAt = existing.CreatedAt
	location.UpdatedAt = existing.UpdatedAt
	return location, nil
}

func (r *LocationRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.locations[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.locations, id)
	return nil
}

type ParkingSlotRepository struct {
	mu        sync.RWMutex
	slots     map[string]*domain.ParkingSlot
	locations *LocationRepository
}

func NewParkingSlotRepository() *ParkingSlotRepository {
	return &ParkingSlotRepository{slots: make(map[string]*domain.ParkingSlot)}
}

// AttachLocations cho phép repo đính kèm Location vào kết quả trả về,
// tương tự các câu JOIN của bản postgresql.
func (r *ParkingSlotRepository) AttachLocations(locations *LocationRepository) {
	r.locations = locations
}

func (r *ParkingSlotRepository) Create(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.slots {
		if s.LocationID == slot.LocationID && s.Identifier == slot.Identifier {
			return nil, repository.ErrDuplicateEntry
		}
	}
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	slot.CreatedAt = now
	slot.UpdatedAt = now
	cp := *slot
	cp.Location = nil
	r.slots[slot.ID] = &cp
	return slot, nil
}

func (r *ParkingSlotRepository) FindByID(ctx context.Context, id string) (*domain.ParkingSlot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *ParkingSlotRepository) FindAll(ctx context.Context) ([]domain.ParkingSlot, error) {
	r.mu.RLock()
	var slots []domain.ParkingSlot
	for _, s := range r.slots {
		slots = append(slots, *s)
	}
	r.mu.RUnlock()
	sort.Slice(slots, func(i, j int) bool { return slots[i].Identifier < slots[j].Identifier })
	r.attach(ctx, slots)
	return slots, nil
}

func (r *ParkingSlotRepository) FindByLocationID(ctx context.Context, locationID string) ([]domain.ParkingSlot, error) {
	r.mu.RLock()
	var slots []domain.ParkingSlot
	for _, s := range r.slots {
		if s.LocationID == locationID {
			slots = append(slots, *s)
		}
	}
	r.mu.RUnlock()
	sort.Slice(slots, func(i, j int) bool { return slots[i].Identifier < slots[j].Identifier })
	r.attach(ctx, slots)
	return slots, nil
}

func (r *ParkingSlotRepository) attach(ctx context.Context, slots []domain.ParkingSlot) {
	if r.locations == nil {
		return
	}
	for i := range slots {
		if location, err := r.locations.FindByID(ctx, slots[i].LocationID); err == nil {
			slots[i].Location = location
		}
	}
}

func (r *ParkingSlotRepository) FindByLocationAndIdentifier(ctx context.Context, locationID string, identifier string) (*domain.ParkingSlot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.slots {
		if s.LocationID == locationID && s.Identifier == identifier {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *ParkingSlotRepository) Update(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.slots[slot.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for _, s := range r.slots {
		if s.ID != slot.ID && s.LocationID == slot.LocationID && s.Identifier == slot.Identifier {
			return nil, repository.ErrDuplicateEntry
		}
	}
	existing.LocationID = slot.LocationID
	existing.Identifier = slot.Identifier
	existing.Status = slot.Status
	existing.UpdatedAt = time.Now().UTC()
	slot.CreatedAt = existing.CreatedAt
	slot.UpdatedAt = existing.UpdatedAt
	return slot, nil
}

func (r *ParkingSlotRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.slots, id)
	return nil
}
