package models

import "time"

// ProcedureState is the lifecycle state of a clinical procedure.
// The deferred state keeps its original wire value "Diferido" so that
// historical rows and existing clients keep working.
type ProcedureState string

const (
	ProcedureScheduled  ProcedureState = "Scheduled"
	ProcedureInProgress ProcedureState = "InProgress"
	ProcedureCompleted  ProcedureState = "Completed"
	ProcedureCancelled  ProcedureState = "Cancelled"
	ProcedureDeferred   ProcedureState = "Diferido"
)

// IsTerminal reports whether the state admits no further transitions.
func (s ProcedureState) IsTerminal() bool {
	return s == ProcedureCompleted || s == ProcedureCancelled
}

// procedureTransitions is the single source of truth for legal state changes.
// Cancelled->Cancelled is allowed so that cancelling twice stays idempotent.
var procedureTransitions = map[ProcedureState][]ProcedureState{
	ProcedureScheduled:  {ProcedureScheduled, ProcedureInProgress, ProcedureCompleted, ProcedureCancelled, ProcedureDeferred},
	ProcedureInProgress: {ProcedureScheduled, ProcedureCompleted, ProcedureCancelled, ProcedureDeferred},
	ProcedureDeferred:   {ProcedureScheduled, ProcedureInProgress, ProcedureCompleted, ProcedureCancelled, ProcedureDeferred},
	ProcedureCompleted:  {},
	ProcedureCancelled:  {ProcedureCancelled},
}

// CanTransition reports whether a procedure may move from one state to another.
// Every mutation of Procedure.State must go through this check.
func CanTransition(from, to ProcedureState) bool {
	for _, next := range procedureTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Procedure represents a scheduled clinical act (surgery or minor procedure)
// bound to zero-or-one room
type Procedure struct {
	ID          uint  `gorm:"primaryKey" json:"id"`
	AdmissionID *uint `gorm:"index" json:"admission_id"`
	PatientID   *uint `gorm:"index" json:"patient_id"`
	ClinicianID uint  `gorm:"not null;index" json:"clinician_id"`

	Name          string `gorm:"size:255;not null" json:"name"`
	ProcedureType string `gorm:"size:50" json:"procedure_type"`
	Priority      string `gorm:"size:20" json:"priority"`
	Complexity    string `gorm:"size:20" json:"complexity"`
	Description   string `gorm:"type:text" json:"description,omitempty"`
	Indication    string `gorm:"type:text" json:"indication,omitempty"`

	// Scheduling fields; all optional, a procedure may be unscheduled
	RoomID               *uint      `gorm:"index" json:"room_id"`
	ScheduledStart       *time.Time `gorm:"index" json:"scheduled_start"`
	EstimatedDurationMin *int       `json:"estimated_duration_minutes"`

	// Execution fields
	ActualStart       *time.Time `json:"actual_start"`
	ActualEnd         *time.Time `json:"actual_end"`
	ActualDurationMin *int       `json:"actual_duration_minutes"`

	// Outcome and signature fields
	Findings      string     `gorm:"type:text" json:"findings,omitempty"`
	Complications string     `gorm:"type:text" json:"complications,omitempty"`
	Results       string     `gorm:"type:text" json:"results,omitempty"`
	Observations  string     `gorm:"type:text" json:"observations,omitempty"`
	SignedByID    *uint      `json:"signed_by_id"`
	SignedAt      *time.Time `json:"signed_at"`

	State ProcedureState `gorm:"size:20;not null;index;default:'Scheduled'" json:"state"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Room      *Room      `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	Patient   *Patient   `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Clinician *User      `gorm:"foreignKey:ClinicianID" json:"clinician,omitempty"`
	Admission *Admission `gorm:"foreignKey:AdmissionID" json:"admission,omitempty"`
}

// TableName specifies the table name for Procedure model
func (Procedure) TableName() string {
	return "procedures"
}

// IsActiveBooking reports whether the procedure blocks its room's timeline.
// Completed, cancelled and deferred procedures do not hold a slot.
func (p *Procedure) IsActiveBooking() bool {
	return p.State == ProcedureScheduled || p.State == ProcedureInProgress
}
