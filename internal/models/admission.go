package models

import "time"

// Admission statuses as exposed by the admissions subsystem.
const (
	AdmissionActive     = "active"
	AdmissionDischarged = "discharged"
)

// Admission is a read-only projection of the admissions subsystem.
// Procedures reference admissions; this service never mutates them.
type Admission struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PatientID  uint      `gorm:"not null;index" json:"patient_id"`
	AdmittedAt time.Time `json:"admitted_at"`
	Reason     string    `gorm:"type:text" json:"reason,omitempty"`
	Status     string    `gorm:"size:20;default:'active'" json:"status"`

	Patient *Patient `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
}

// TableName specifies the table name for Admission model
func (Admission) TableName() string {
	return "admissions"
}

// Patient is a read-only projection of the patient directory, kept for display
type Patient struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	FirstName string `gorm:"size:100;not null" json:"first_name"`
	LastName  string `gorm:"size:100;not null" json:"last_name"`
	Document  string `gorm:"size:50;uniqueIndex" json:"document"`
}

// TableName specifies the table name for Patient model
func (Patient) TableName() string {
	return "patients"
}
