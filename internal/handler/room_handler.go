package handler

import (
	"net/http"
	"strconv"
	"time"

	"clinic-procedure-scheduling/internal/models"
	"clinic-procedure-scheduling/internal/repository"
	"clinic-procedure-scheduling/internal/service"
	"clinic-procedure-scheduling/pkg/utils"

	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	roomService         *service.RoomService
	availabilityService *service.AvailabilityService
}

func NewRoomHandler(roomService *service.RoomService, availabilityService *service.AvailabilityService) *RoomHandler {
	return &RoomHandler{
		roomService:         roomService,
		availabilityService: availabilityService,
	}
}

type CreateRoomRequest struct {
	Name      string `json:"name" binding:"required,max=100"`
	RoomType  string `json:"room_type" binding:"omitempty,max=50"`
	Location  string `json:"location" binding:"omitempty,max=100"`
	Capacity  int    `json:"capacity" binding:"omitempty,min=0"`
	Equipment string `json:"equipment"`
}

// CreateRoom registers a new room (admin only)
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	userID, _ := c.Get("userID")

	room := &models.Room{
		Name:      req.Name,
		RoomType:  req.RoomType,
		Location:  req.Location,
		Capacity:  req.Capacity,
		Equipment: req.Equipment,
	}

	created, err := h.roomService.CreateRoom(room, userID.(uint))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, created)
}

// ListRooms retrieves rooms with optional status/type filters and pagination
func (h *RoomHandler) ListRooms(c *gin.Context) {
	var filter repository.RoomFilter
	switch c.Query("status") {
	case "active":
		active := true
		filter.IsActive = &active
	case "inactive":
		active := false
		filter.IsActive = &active
	}
	filter.RoomType = c.Query("type")

	limit := parseIntQuery(c, "limit", 50)
	offset := parseIntQuery(c, "offset", 0)

	rooms, total, err := h.roomService.ListRooms(filter, limit, offset)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to fetch rooms")
		return
	}

	utils.ListResponse(c, "rooms", rooms, total, limit, offset)
}

// GetRoom retrieves a room with its upcoming procedures
func (h *RoomHandler) GetRoom(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid room ID")
		return
	}

	room, err := h.roomService.GetRoom(id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, room)
}

// UpdateRoom applies a partial update to a room (admin only)
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid room ID")
		return
	}

	var patch service.RoomUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	userID, _ := c.Get("userID")

	room, err := h.roomService.UpdateRoom(id, patch, userID.(uint))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, room)
}

// DeactivateRoom soft deletes a room (admin only)
func (h *RoomHandler) DeactivateRoom(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid room ID")
		return
	}

	userID, _ := c.Get("userID")

	room, err := h.roomService.DeactivateRoom(id, userID.(uint))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, room)
}

// CheckAvailability reports whether a room is free for a proposed interval.
// Query: start=<RFC3339>, duration_minutes=<int>, exclude_procedure_id=<id>
func (h *RoomHandler) CheckAvailability(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid room ID")
		return
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid or missing start timestamp, expected RFC3339")
		return
	}

	duration, err := strconv.Atoi(c.Query("duration_minutes"))
	if err != nil || duration <= 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "duration_minutes must be a positive integer")
		return
	}

	var excludeID *uint
	if raw := c.Query("exclude_procedure_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid exclude_procedure_id")
			return
		}
		procedureID := uint(parsed)
		excludeID = &procedureID
	}

	result, err := h.availabilityService.Check(id, start, duration, excludeID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

func parseIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id), err
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	value, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(fallback)))
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
