package handler

import (
	"errors"
	"net/http"
	"parking_reservation/internal/domain"
	"parking_reservation/internal/repository"
	"parking_reservation/internal/service"

	"github.com/gin-gonic/gin"
)

type LocationHandler struct {
	parkingService *service.ParkingService
}

func NewLocationHandler(ps *service.ParkingService) *LocationHandler {
	return &LocationHandler{parkingService: ps}
}

// POST /locations
func (h *LocationHandler) CreateLocation(c *gin.Context) {
	var dto domain.LocationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	location, err := h.parkingService.CreateLocation(c.Request.Context(), dto)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo địa điểm"})
		return
	}
	c.JSON(http.StatusCreated, location)
}

// GET /locations
func (h *LocationHandler) GetAllLocations(c *gin.Context) {
	locations, err := h.parkingService.GetAllLocations(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách địa điểm"})
		return
	}
	c.JSON(http.StatusOK, locations)
}

// GET /locations/:id
func (h *LocationHandler) GetLocationByID(c *gin.Context) {
	location, err := h.parkingService.GetLocationByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy địa điểm"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy thông tin địa điểm"})
		return
	}
	c.JSON(http.StatusOK, location)
}

// PUT /locations/:id
func (h *LocationHandler) UpdateLocation(c *gin.Context) {
	var dto domain.LocationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	location, err := h.parkingService.UpdateLocation(c.Request.Context(), c.Param("id"), dto)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy địa điểm để cập nhật"})
			return
		}
		if errors.Is(err, repository.ErrDuplicateEntry) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật địa điểm"})
		return
	}
	c.JSON(http.StatusOK, location)
}

// DELETE /locations/:id
func (h *LocationHandler) DeleteLocation(c *gin.Context) {
	err := h.parkingService.DeleteLocation(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy địa điểm để xóa"})
			return
		}
		if errors.Is(err, service.ErrLocationHasSlots) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xóa địa điểm"})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
