package handler

import (
	"errors"
	"net/http"
	"parking_reservation/internal/api/middleware"
	"parking_reservation/internal/domain"
	"parking_reservation/internal/repository"
	"parking_reservation/internal/service"

	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	reservationService *service.ReservationService
}

func NewReservationHandler(rs *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: rs}
}

// POST /reservations
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var dto domain.CreateReservationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := middleware.CurrentUserID(c)

	reservation, err := h.reservationService.AdmitReservation(c.Request.Context(), userID, dto)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields),
			errors.Is(err, service.ErrInvalidTime),
			errors.Is(err, service.ErrPastStartTime),
			errors.Is(err, service.ErrInvalidRange):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy chỗ đỗ"})
		case errors.Is(err, service.ErrSlotUnavailable),
			errors.Is(err, service.ErrTimeSlotBooked):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo đặt chỗ"})
		}
		return
	}
	c.JSON(http.StatusCreated, reservation)
}

// GET /reservations (chỉ admin)
func (h *ReservationHandler) GetAllReservations(c *gin.Context) {
	reservations, err := h.reservationService.GetAllReservations(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách đặt chỗ"})
		return
	}
	c.JSON(http.StatusOK, reservations)
}

// GET /reservations/me
func (h *ReservationHandler) GetMyReservations(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	reservations, err := h.reservationService.GetMyReservations(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách đặt chỗ"})
		return
	}
	c.JSON(http.StatusOK, reservations)
}

// GET /slots/:slot_id/reservations
func (h *ReservationHandler) GetSlotSchedule(c *gin.Context) {
	reservations, err := h.reservationService.GetSlotSchedule(c.Request.Context(), c.Param("slot_id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy chỗ đỗ"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy lịch đặt chỗ"})
		return
	}
	c.JSON(http.StatusOK, reservations)
}

// DELETE /reservations/:id (chỉ chủ sở hữu)
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	reservation, err := h.reservationService.CancelReservation(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy đặt chỗ"})
		case errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể hủy đặt chỗ"})
		}
		return
	}
	c.JSON(http.StatusOK, reservation)
}
