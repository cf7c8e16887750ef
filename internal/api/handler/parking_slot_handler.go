package handler

import (
	"errors"
	"net/http"
	"parking_reservation/internal/domain"
	"parking_reservation/internal/repository"
	"parking_reservation/internal/service"

	"github.com/gin-gonic/gin"
)

type ParkingSlotHandler struct {
	parkingService *service.ParkingService
}

func NewParkingSlotHandler(ps *service.ParkingService) *ParkingSlotHandler {
	return &ParkingSlotHandler{parkingService: ps}
}

// POST /locations/:id/slots
func (h *ParkingSlotHandler) CreateSlot(c *gin.Context) {
	var dto domain.ParkingSlotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dto.LocationID = c.Param("id")

	slot, err := h.parkingService.CreateSlot(c.Request.Context(), dto)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, repository.ErrDuplicateEntry) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, service.ErrInvalidSlotStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo chỗ đỗ"})
		return
	}
	c.JSON(http.StatusCreated, slot)
}

// GET /slots
func (h *ParkingSlotHandler) GetAllSlots(c *gin.Context) {
	slots, err := h.parkingService.GetAllSlots(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách chỗ đỗ"})
		return
	}
	c.JSON(http.StatusOK, slots)
}

// GET /locations/:id/slots
func (h *ParkingSlotHandler) GetSlotsByLocation(c *gin.Context) {
	slots, err := h.parkingService.GetSlotsByLocation(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy địa điểm"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách chỗ đỗ"})
		return
	}
	c.JSON(http.StatusOK, slots)
}

// GET /slots/:slot_id
func (h *ParkingSlotHandler) GetSlotByID(c *gin.Context) {
	slot, err := h.parkingService.GetSlotByID(c.Request.Context(), c.Param("slot_id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy chỗ đỗ"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy thông tin chỗ đỗ"})
		return
	}
	c.JSON(http.StatusOK, slot)
}

// PUT /slots/:slot_id
func (h *ParkingSlotHandler) UpdateSlot(c *gin.Context) {
	var dto domain.ParkingSlotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slot, err := h.parkingService.UpdateSlot(c.Request.Context(), c.Param("slot_id"), dto)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, repository.ErrDuplicateEntry) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, service.ErrInvalidSlotStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật chỗ đỗ"})
		return
	}
	c.JSON(http.StatusOK, slot)
}

// DELETE /slots/:slot_id
func (h *ParkingSlotHandler) DeleteSlot(c *gin.Context) {
	err := h.parkingService.DeleteSlot(c.Request.Context(), c.Param("slot_id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy chỗ đỗ để xóa"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xóa chỗ đỗ"})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
