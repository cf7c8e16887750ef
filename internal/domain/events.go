package domain

import "time"

type ReservationEventType string

const (
	EventReservationCreated  ReservationEventType = "reservation_created"
	EventReservationCanceled ReservationEventType = "reservation_canceled"
	EventSlotStatusChanged   ReservationEventType = "slot_status_changed"
)

// ReservationEventNotification - Event được gửi đến frontend qua WebSocket
type ReservationEventNotification struct {
	EventType     ReservationEventType `json:"event_type"`
	ReservationID string               `json:"reservation_id,omitempty"`
	SlotID        string               `json:"slot_id"`
	SlotStatus    SlotStatus           `json:"slot_status,omitempty"`
	StartTime     *time.Time           `json:"start_time,omitempty"`
	EndTime       *time.Time           `json:"end_time,omitempty"`
	Timestamp     time.Time            `json:"timestamp"`
}
