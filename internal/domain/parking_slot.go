package domain

import "time"

type SlotStatus string

const (
	StatusAvailable   SlotStatus = "AVAILABLE"
	StatusLimitedTime SlotStatus = "LIMITED_TIME"
	StatusUnavailable SlotStatus = "UNAVAILABLE"
)

// ValidSlotStatus kiểm tra status do admin gửi lên có nằm trong tập cho phép không.
func ValidSlotStatus(s SlotStatus) bool {
	switch s {
	case StatusAvailable, StatusLimitedTime, StatusUnavailable:
		return true
	}
	return false
}

type ParkingSlot struct {
	ID         string     `json:"id"`
	LocationID string     `json:"location_id"`
	Identifier string     `json:"identifier"` // Duy nhất trong phạm vi một location
	Status     SlotStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Location *Location `json:"location,omitempty"` // Không map vào DB, dùng để trả về API
}

type ParkingSlotDTO struct {
	LocationID string `json:"location_id"`
	Identifier string `json:"identifier" binding:"required"`
	Status     string `json:"status,omitempty"` // Mặc định AVAILABLE
}
