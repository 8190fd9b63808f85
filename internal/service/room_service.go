package service

import (
	"fmt"
	"time"

	"clinic-procedure-scheduling/internal/apperrors"
	"clinic-procedure-scheduling/internal/models"
	"clinic-procedure-scheduling/internal/repository"
)

// upcomingLookAhead is how many future procedures a room detail view carries.
const upcomingLookAhead = 5

type RoomService struct {
	roomRepo      *repository.RoomRepository
	procedureRepo *repository.ProcedureRepository
	auditRepo     *repository.AuditRepository
}

func NewRoomService(
	roomRepo *repository.RoomRepository,
	procedureRepo *repository.ProcedureRepository,
	auditRepo *repository.AuditRepository,
) *RoomService {
	return &RoomService{
		roomRepo:      roomRepo,
		procedureRepo: procedureRepo,
		auditRepo:     auditRepo,
	}
}

// CreateRoom registers a new bookable room. Room names must be unique
// (case-sensitive exact match); new rooms start active.
func (s *RoomService) CreateRoom(room *models.Room, userID uint) (*models.Room, error) {
	if existing, err := s.roomRepo.FindByName(room.Name); err == nil && existing != nil {
		return nil, apperrors.Newf(apperrors.KindDuplicateName, "a room named %q already exists", room.Name)
	}

	room.IsActive = true
	if err := s.roomRepo.Create(room); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	details := fmt.Sprintf("Created room: %s (type: %s, location: %s)", room.Name, room.RoomType, room.Location)
	_ = s.auditRepo.CreateAuditLog(&userID, "room_create", details)

	return room, nil
}

// ListRooms retrieves rooms matching the filter with pagination
func (s *RoomService) ListRooms(filter repository.RoomFilter, limit, offset int) ([]models.Room, int64, error) {
	return s.roomRepo.List(filter, limit, offset)
}

// GetRoom retrieves a room together with its next upcoming non-cancelled
// procedures ordered by scheduled start.
func (s *RoomService) GetRoom(id uint) (*models.RoomWithSchedule, error) {
	room, err := s.roomRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	upcoming, err := s.procedureRepo.FindUpcomingByRoom(id, time.Now(), upcomingLookAhead)
	if err != nil {
		return nil, fmt.Errorf("failed to load upcoming procedures: %w", err)
	}

	return &models.RoomWithSchedule{
		Room:               *room,
		UpcomingProcedures: upcoming,
	}, nil
}

// RoomUpdate is a partial patch of mutable room fields. Nil fields are left
// unchanged.
type RoomUpdate struct {
	Name      *string `json:"name"`
	RoomType  *string `json:"room_type"`
	Location  *string `json:"location"`
	Capacity  *int    `json:"capacity"`
	Equipment *string `json:"equipment"`
}

// UpdateRoom applies a partial update to an existing room
func (s *RoomService) UpdateRoom(id uint, patch RoomUpdate, userID uint) (*models.Room, error) {
	room, err := s.roomRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil && *patch.Name != room.Name {
		if existing, err := s.roomRepo.FindByName(*patch.Name); err == nil && existing != nil {
			return nil, apperrors.Newf(apperrors.KindDuplicateName, "a room named %q already exists", *patch.Name)
		}
		room.Name = *patch.Name
	}
	if patch.RoomType != nil {
		room.RoomType = *patch.RoomType
	}
	if patch.Location != nil {
		room.Location = *patch.Location
	}
	if patch.Capacity != nil {
		room.Capacity = *patch.Capacity
	}
	if patch.Equipment != nil {
		room.Equipment = *patch.Equipment
	}

	if err := s.roomRepo.Update(room); err != nil {
		return nil, fmt.Errorf("failed to update room: %w", err)
	}

	details := fmt.Sprintf("Updated room: %s (ID: %d)", room.Name, room.ID)
	_ = s.auditRepo.CreateAuditLog(&userID, "room_update", details)

	return room, nil
}

// DeactivateRoom soft deletes a room. Rooms with future scheduled procedures
// cannot be deactivated; existing bookings are never cancelled by this call.
func (s *RoomService) DeactivateRoom(id uint, userID uint) (*models.Room, error) {
	room, err := s.roomRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	pending, err := s.roomRepo.CountPendingBookings(id, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to count pending bookings: %w", err)
	}
	if pending > 0 {
		return nil, apperrors.Newf(apperrors.KindHasPendingBookings,
			"room %q has %d scheduled procedure(s) and cannot be deactivated", room.Name, pending)
	}

	if err := s.roomRepo.Deactivate(id); err != nil {
		return nil, fmt.Errorf("failed to deactivate room: %w", err)
	}
	room.IsActive = false

	details := fmt.Sprintf("Deactivated room: %s (ID: %d)", room.Name, room.ID)
	_ = s.auditRepo.CreateAuditLog(&userID, "room_deactivate", details)

	return room, nil
}
