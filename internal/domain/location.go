package domain

import "time"

type Location struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Slots []ParkingSlot `json:"slots,omitempty"` // Không map vào DB, dùng để trả về API
}

type LocationDTO struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
}
