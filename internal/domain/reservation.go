package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type Reservation struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	SlotID     string    `json:"slot_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Canceled   bool      `json:"canceled"`
	CanceledAt null.Time `json:"canceled_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	User *User        `json:"user,omitempty"` // Không map vào DB, dùng để trả về API
	Slot *ParkingSlot `json:"slot,omitempty"` // Slot kèm Location khi join
}

// Overlaps kiểm tra hai khoảng [start, end) có giao nhau không.
// Hai đặt chỗ kề nhau ([10:00,11:00) và [11:00,12:00)) không tính là trùng.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && r.EndTime.After(start)
}

// CreateReservationDTO nhận thời gian dạng chuỗi RFC3339; service tự parse
// để phân biệt lỗi "thiếu trường" với lỗi "thời gian không hợp lệ".
type CreateReservationDTO struct {
	SlotID    string `json:"slot_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}
