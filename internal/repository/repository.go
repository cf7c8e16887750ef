package repository

import (
	"context"
	"errors"
	"parking_reservation/internal/domain"
	"time"
)

var ErrNotFound = errors.New("không tìm thấy bản ghi")
var ErrDuplicateEntry = errors.New("bản ghi đã tồn tại")

// ErrTimeConflict được trả về khi khoảng thời gian yêu cầu giao với một
// đặt chỗ đang hoạt động (canceled = false) trên cùng một slot.
var ErrTimeConflict = errors.New("khoảng thời gian bị trùng với đặt chỗ khác")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindAdminByEmail(ctx context.Context, email string) (*domain.User, error)
}

type LocationRepository interface {
	Create(ctx context.Context, location *domain.Location) (*domain.Location, error)
	FindByID(ctx context.Context, id string) (*domain.Location, error)
	FindAll(ctx context.Context) ([]domain.Location, error)
	Update(ctx context.Context, location *domain.Location) (*domain.Location, error)
	Delete(ctx context.Context, id string) error
}

type ParkingSlotRepository interface {
	Create(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error)
	FindByID(ctx context.Context, id string) (*domain.ParkingSlot, error)
	FindAll(ctx context.Context) ([]domain.ParkingSlot, error)
	FindByLocationID(ctx context.Context, locationID string) ([]domain.ParkingSlot, error)
	FindByLocationAndIdentifier(ctx context.Context, locationID string, identifier string) (*domain.ParkingSlot, error)
	Update(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error)
	Delete(ctx context.Context, id string) error
}

type ReservationRepository interface {
	// CreateIfFree là đơn vị admission nguyên tử: kiểm tra trùng khoảng
	// thời gian và insert phải nằm trong cùng một transaction (hoặc cùng
	// một critical section với bản in-memory). Trả về ErrTimeConflict khi
	// đã có đặt chỗ active giao với [StartTime, EndTime).
	CreateIfFree(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error)
	FindByID(ctx context.Context, id string) (*domain.Reservation, error)
	// FindAllWithDetails trả về mọi đặt chỗ, mới tạo trước, join user và
	// slot -> location để hiển thị.
	FindAllWithDetails(ctx context.Context) ([]domain.Reservation, error)
	// FindByUserID trả về đặt chỗ của một user, sắp theo start_time tăng dần.
	FindByUserID(ctx context.Context, userID string) ([]domain.Reservation, error)
	FindActiveBySlotID(ctx context.Context, slotID string, from time.Time) ([]domain.Reservation, error)
	// Cancel đặt canceled = true. Hủy một đặt chỗ đã hủy vẫn thành công
	// (idempotent), bản ghi được giữ lại để tra cứu lịch sử.
	Cancel(ctx context.Context, id string) (*domain.Reservation, error)
}
