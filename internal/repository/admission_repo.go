package repository

import (
	"errors"

	"clinic-procedure-scheduling/internal/apperrors"
	"clinic-procedure-scheduling/internal/models"

	"gorm.io/gorm"
)

// AdmissionRepository reads the admissions projection. This service never
// writes admissions; they are owned by the admissions subsystem.
type AdmissionRepository struct {
	db *gorm.DB
}

func NewAdmissionRepo(db *gorm.DB) *AdmissionRepository {
	return &AdmissionRepository{db: db}
}

// FindByID retrieves an admission by ID
func (r *AdmissionRepository) FindByID(id uint) (*models.Admission, error) {
	var admission models.Admission
	err := r.db.First(&admission, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.KindNotFound, "admission %d not found", id)
		}
		return nil, err
	}
	return &admission, nil
}
