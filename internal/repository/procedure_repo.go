package repository

import (
	"errors"
	"time"

	"clinic-procedure-scheduling/internal/apperrors"
	"clinic-procedure-scheduling/internal/models"

	"gorm.io/gorm"
)

type ProcedureRepository struct {
	db *gorm.DB
}

func NewProcedureRepo(db *gorm.DB) *ProcedureRepository {
	return &ProcedureRepository{db: db}
}

// ProcedureFilter narrows procedure listings. Nil/zero fields are ignored.
type ProcedureFilter struct {
	AdmissionID   *uint
	PatientID     *uint
	ClinicianID   *uint
	State         models.ProcedureState
	ProcedureType string
	ScheduledFrom *time.Time
	ScheduledTo   *time.Time
}

// Create inserts a new procedure
func (r *ProcedureRepository) Create(procedure *models.Procedure) error {
	return r.db.Create(procedure).Error
}

// FindByID retrieves a procedure by ID without relations
func (r *ProcedureRepository) FindByID(id uint) (*models.Procedure, error) {
	var procedure models.Procedure
	err := r.db.First(&procedure, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.KindNotFound, "procedure %d not found", id)
		}
		return nil, err
	}
	return &procedure, nil
}

// FindByIDWithRelations retrieves a procedure with its display projections
func (r *ProcedureRepository) FindByIDWithRelations(id uint) (*models.Procedure, error) {
	var procedure models.Procedure
	err := r.db.
		Preload("Room").
		Preload("Patient").
		Preload("Clinician").
		Preload("Admission").
		First(&procedure, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.KindNotFound, "procedure %d not found", id)
		}
		return nil, err
	}
	return &procedure, nil
}

// Save persists all fields of an existing procedure
func (r *ProcedureRepository) Save(procedure *models.Procedure) error {
	return r.db.Save(procedure).Error
}

// List retrieves procedures matching the filter with pagination
func (r *ProcedureRepository) List(filter ProcedureFilter, limit, offset int) ([]models.Procedure, int64, error) {
	var (
		procedures []models.Procedure
		total      int64
	)

	q := r.db.Model(&models.Procedure{})
	if filter.AdmissionID != nil {
		q = q.Where("admission_id = ?", *filter.AdmissionID)
	}
	if filter.PatientID != nil {
		q = q.Where("patient_id = ?", *filter.PatientID)
	}
	if filter.ClinicianID != nil {
		q = q.Where("clinician_id = ?", *filter.ClinicianID)
	}
	if filter.State != "" {
		q = q.Where("state = ?", filter.State)
	}
	if filter.ProcedureType != "" {
		q = q.Where("procedure_type = ?", filter.ProcedureType)
	}
	if filter.ScheduledFrom != nil {
		q = q.Where("scheduled_start >= ?", *filter.ScheduledFrom)
	}
	if filter.ScheduledTo != nil {
		q = q.Where("scheduled_start <= ?", *filter.ScheduledTo)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	err := q.
		Preload("Patient").
		Preload("Clinician").
		Preload("Room").
		Order("scheduled_start DESC, created_at DESC").
		Find(&procedures).Error
	if err != nil {
		return nil, 0, err
	}

	return procedures, total, nil
}

// FindActiveByRoomWithin retrieves the conflict candidates for a room: every
// Scheduled or InProgress procedure whose scheduled start falls in [from, to),
// optionally excluding one procedure id. Ordered by scheduled start so the
// earliest-starting conflict is reported first.
func (r *ProcedureRepository) FindActiveByRoomWithin(roomID uint, from, to time.Time, excludeID *uint) ([]models.Procedure, error) {
	var procedures []models.Procedure

	q := r.db.
		Where("room_id = ?", roomID).
		Where("state IN ?", []models.ProcedureState{models.ProcedureScheduled, models.ProcedureInProgress}).
		Where("scheduled_start >= ? AND scheduled_start < ?", from, to)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	err := q.Order("scheduled_start ASC").Find(&procedures).Error
	return procedures, err
}

// FindUpcomingByRoom retrieves the next non-cancelled procedures scheduled in
// the room from the given instant, for the room detail look-ahead.
func (r *ProcedureRepository) FindUpcomingByRoom(roomID uint, from time.Time, limit int) ([]models.Procedure, error) {
	var procedures []models.Procedure
	err := r.db.
		Where("room_id = ?", roomID).
		Where("state <> ?", models.ProcedureCancelled).
		Where("scheduled_start >= ?", from).
		Order("scheduled_start ASC").
		Limit(limit).
		Preload("Patient").
		Preload("Clinician").
		Find(&procedures).Error
	return procedures, err
}

// StateCount is a per-state tally for statistics.
type StateCount struct {
	State models.ProcedureState `json:"state"`
	Count int64                 `json:"count"`
}

// TypeCount is a per-type tally for statistics.
type TypeCount struct {
	ProcedureType string `json:"procedure_type"`
	Count         int64  `json:"count"`
}

// CountByState groups matching procedures by lifecycle state
func (r *ProcedureRepository) CountByState(filter ProcedureFilter) ([]StateCount, error) {
	var counts []StateCount
	err := r.filtered(filter).
		Select("state, COUNT(*) AS count").
		Group("state").
		Scan(&counts).Error
	return counts, err
}

// CountByType groups matching procedures by procedure type
func (r *ProcedureRepository) CountByType(filter ProcedureFilter) ([]TypeCount, error) {
	var counts []TypeCount
	err := r.filtered(filter).
		Select("procedure_type, COUNT(*) AS count").
		Group("procedure_type").
		Scan(&counts).Error
	return counts, err
}

// AverageActualDuration returns the mean real duration of completed
// procedures matching the filter, in minutes. Zero when none completed.
func (r *ProcedureRepository) AverageActualDuration(filter ProcedureFilter) (float64, error) {
	var avg *float64
	err := r.filtered(filter).
		Where("state = ? AND actual_duration_min IS NOT NULL", models.ProcedureCompleted).
		Select("AVG(actual_duration_min)").
		Scan(&avg).Error
	if err != nil || avg == nil {
		return 0, err
	}
	return *avg, nil
}

// Count returns the total number of procedures matching the filter
func (r *ProcedureRepository) Count(filter ProcedureFilter) (int64, error) {
	var total int64
	err := r.filtered(filter).Count(&total).Error
	return total, err
}

func (r *ProcedureRepository) filtered(filter ProcedureFilter) *gorm.DB {
	q := r.db.Model(&models.Procedure{})
	if filter.ClinicianID != nil {
		q = q.Where("clinician_id = ?", *filter.ClinicianID)
	}
	if filter.ProcedureType != "" {
		q = q.Where("procedure_type = ?", filter.ProcedureType)
	}
	if filter.ScheduledFrom != nil {
		q = q.Where("scheduled_start >= ?", *filter.ScheduledFrom)
	}
	if filter.ScheduledTo != nil {
		q = q.Where("scheduled_start <= ?", *filter.ScheduledTo)
	}
	return q
}
