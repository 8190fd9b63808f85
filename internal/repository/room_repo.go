package repository

import (
	"errors"
	"time"

	"clinic-procedure-scheduling/internal/apperrors"
	"clinic-procedure-scheduling/internal/models"

	"gorm.io/gorm"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepo(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// RoomFilter narrows room listings. Nil/zero fields are ignored.
type RoomFilter struct {
	IsActive *bool
	RoomType string
}

// Create inserts a new room
func (r *RoomRepository) Create(room *models.Room) error {
	return r.db.Create(room).Error
}

// FindByID retrieves a room by ID
func (r *RoomRepository) FindByID(id uint) (*models.Room, error) {
	var room models.Room
	err := r.db.First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.KindNotFound, "room %d not found", id)
		}
		return nil, err
	}
	return &room, nil
}

// FindByName retrieves a room by its exact name (case-sensitive)
func (r *RoomRepository) FindByName(name string) (*models.Room, error) {
	var room models.Room
	err := r.db.Where("name = ?", name).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.KindNotFound, "room %q not found", name)
		}
		return nil, err
	}
	return &room, nil
}

// List retrieves rooms matching the filter with pagination, returning the
// total count alongside the page
func (r *RoomRepository) List(filter RoomFilter, limit, offset int) ([]models.Room, int64, error) {
	var (
		rooms []models.Room
		total int64
	)

	q := r.db.Model(&models.Room{})
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if filter.RoomType != "" {
		q = q.Where("room_type = ?", filter.RoomType)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Order("name ASC").Find(&rooms).Error; err != nil {
		return nil, 0, err
	}

	return rooms, total, nil
}

// Update persists all fields of an existing room
func (r *RoomRepository) Update(room *models.Room) error {
	return r.db.Save(room).Error
}

// Deactivate soft deletes a room by setting is_active to false
func (r *RoomRepository) Deactivate(id uint) error {
	return r.db.Model(&models.Room{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// CountPendingBookings counts procedures still scheduled in the room at or
// after the given instant. A non-zero count blocks deactivation.
func (r *RoomRepository) CountPendingBookings(roomID uint, now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Procedure{}).
		Where("room_id = ? AND state = ? AND scheduled_start >= ?", roomID, models.ProcedureScheduled, now).
		Count(&count).Error
	return count, err
}
