package service

import (
	"context"
	"errors"
	"fmt"
	"parking_reservation/internal/cache"
	"parking_reservation/internal/domain"
	"parking_reservation/internal/repository"

	"github.com/rs/zerolog"
)

var ErrInvalidSlotStatus = errors.New("trạng thái chỗ đỗ không hợp lệ")
var ErrLocationHasSlots = errors.New("địa điểm vẫn còn chỗ đỗ liên kết")

// ParkingService quản lý CRUD cho địa điểm và chỗ đỗ. Chỉ admin được gọi
// các thao tác mutation (ép ở middleware), đọc thì mọi user đã đăng nhập.
type ParkingService struct {
	locationRepo repository.LocationRepository
	slotRepo     repository.ParkingSlotRepository
	cache        *cache.Cache
	logger       *zerolog.Logger
}

func NewParkingService(
	locationRepo repository.LocationRepository,
	slotRepo repository.ParkingSlotRepository,
	cache *cache.Cache,
	logger *zerolog.Logger,
) *ParkingService {
	return &ParkingService{
		locationRepo: locationRepo,
		slotRepo:     slotRepo,
		cache:        cache,
		logger:       logger,
	}
}

// --- Location ---

func (s *ParkingService) CreateLocation(ctx context.Context, dto domain.LocationDTO) (*domain.Location, error) {
	location := &domain.Location{
		Name:    dto.Name,
		Address: dto.Address,
	}
	created, err := s.locationRepo.Create(ctx, location)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.KeyLocations)
	s.logger.Info().Str("location_id", created.ID).Str("name", created.Name).Msg("đã tạo địa điểm")
	return created, nil
}

func (s *ParkingService) GetLocationByID(ctx context.Context, id string) (*domain.Location, error) {
	return s.locationRepo.FindByID(ctx, id)
}

func (s *ParkingService) GetAllLocations(ctx context.Context) ([]domain.Location, error) {
	var locations []domain.Location
	if s.cache.GetJSON(ctx, cache.KeyLocations, &locations) {
		return locations, nil
	}
	locations, err := s.locationRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, cache.KeyLocations, locations)
	return locations, nil
}

func (s *ParkingService) UpdateLocation(ctx context.Context, id string, dto domain.LocationDTO) (*domain.Location, error) {
	location, err := s.locationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	location.Name = dto.Name
	location.Address = dto.Address
	updated, err := s.locationRepo.Update(ctx, location)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.KeyLocations)
	return updated, nil
}

func (s *ParkingService) DeleteLocation(ctx context.Context, id string) error {
	// Không xóa địa điểm khi vẫn còn chỗ đỗ liên kết; chính sách cascade
	// thuộc về schema, guard này giữ khóa ngoại luôn hợp lệ.
	slots, err := s.slotRepo.FindByLocationID(ctx, id)
	if err != nil {
		return fmt.Errorf("lỗi khi kiểm tra các chỗ đỗ của địa điểm %s: %w", id, err)
	}
	if len(slots) > 0 {
		return fmt.Errorf("%w: địa điểm %s", ErrLocationHasSlots, id)
	}
	if err := s.locationRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.KeyLocations)
	s.logger.Info().Str("location_id", id).Msg("đã xóa địa điểm")
	return nil
}

// --- ParkingSlot ---

func (s *ParkingService) CreateSlot(ctx context.Context, dto domain.ParkingSlotDTO) (*domain.ParkingSlot, error) {
	// Địa điểm phải tồn tại trước khi gắn slot vào
	location, err := s.locationRepo.FindByID(ctx, dto.LocationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: địa điểm %s không tồn tại", repository.ErrNotFound, dto.LocationID)
		}
		return nil, fmt.Errorf("lỗi khi kiểm tra địa điểm: %w", err)
	}

	// Check trước cho message rõ ràng; ràng buộc unique trong DB vẫn là
	// chốt chặn cuối khi hai request tạo cùng identifier chạy song song
	if _, err := s.slotRepo.FindByLocationAndIdentifier(ctx, dto.LocationID, dto.Identifier); err == nil {
		return nil, fmt.Errorf("%w: chỗ đỗ '%s' đã tồn tại tại địa điểm này", repository.ErrDuplicateEntry, dto.Identifier)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lỗi khi kiểm tra chỗ đỗ trùng: %w", err)
	}

	status := domain.StatusAvailable
	if dto.Status != "" {
		status = domain.SlotStatus(dto.Status)
		if !domain.ValidSlotStatus(status) {
			return nil, fmt.Errorf("%w: '%s'", ErrInvalidSlotStatus, dto.Status)
		}
	}

	slot := &domain.ParkingSlot{
		LocationID: dto.LocationID,
		Identifier: dto.Identifier,
		Status:     status,
	}
	created, err := s.slotRepo.Create(ctx, slot)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.KeyLocations)
	s.logger.Info().
		Str("slot_id", created.ID).
		Str("identifier", created.Identifier).
		Str("location", location.Name).
		Msg("đã tạo chỗ đỗ")
	return created, nil
}

func (s *ParkingService) GetSlotByID(ctx context.Context, slotID string) (*domain.ParkingSlot, error) {
	return s.slotRepo.FindByID(ctx, slotID)
}

func (s *ParkingService) GetAllSlots(ctx context.Context) ([]domain.ParkingSlot, error) {
	return s.slotRepo.FindAll(ctx)
}

func (s *ParkingService) GetSlotsByLocation(ctx context.Context, locationID string) ([]domain.ParkingSlot, error) {
	if _, err := s.locationRepo.FindByID(ctx, locationID); err != nil {
		return nil, err
	}
	return s.slotRepo.FindByLocationID(ctx, locationID)
}

func (s *ParkingService) UpdateSlot(ctx context.Context, slotID string, dto domain.ParkingSlotDTO) (*domain.ParkingSlot, error) {
	slot, err := s.slotRepo.FindByID(ctx, slotID)
	if err != nil {
		return nil, err
	}

	if dto.LocationID != "" && dto.LocationID != slot.LocationID {
		if _, err := s.locationRepo.FindByID(ctx, dto.LocationID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: địa điểm mới %s không tồn tại", repository.ErrNotFound, dto.LocationID)
			}
			return nil, fmt.Errorf("lỗi khi kiểm tra địa điểm mới: %w", err)
		}
		slot.LocationID = dto.LocationID
	}
	if dto.Identifier != "" {
		slot.Identifier = dto.Identifier
	}
	if dto.Status != "" {
		status := domain.SlotStatus(dto.Status)
		if !domain.ValidSlotStatus(status) {
			return nil, fmt.Errorf("%w: '%s'", ErrInvalidSlotStatus, dto.Status)
		}
		slot.Status = status
	}

	updated, err := s.slotRepo.Update(ctx, slot)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.KeyLocations)
	return updated, nil
}

func (s *ParkingService) DeleteSlot(ctx context.Context, slotID string) error {
	if err := s.slotRepo.Delete(ctx, slotID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.KeyLocations)
	s.logger.Info().Str("slot_id", slotID).Msg("đã xóa chỗ đỗ")
	return nil
}
