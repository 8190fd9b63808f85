package service

import (
	"fmt"
	"time"

	"clinic-procedure-scheduling/internal/apperrors"
	"clinic-procedure-scheduling/internal/models"
	"clinic-procedure-scheduling/internal/repository"
	"clinic-procedure-scheduling/internal/scheduling"
)

// ProcedureService owns the procedure lifecycle state machine and every
// scheduling mutation. All check-then-write paths hold the target room's lock
// so a room can never end up with two overlapping committed bookings.
type ProcedureService struct {
	procedureRepo *repository.ProcedureRepository
	admissionRepo *repository.AdmissionRepository
	auditRepo     *repository.AuditRepository
	availability  *AvailabilityService
	locks         roomLocks
}

func NewProcedureService(
	procedureRepo *repository.ProcedureRepository,
	admissionRepo *repository.AdmissionRepository,
	auditRepo *repository.AuditRepository,
	availability *AvailabilityService,
) *ProcedureService {
	return &ProcedureService{
		procedureRepo: procedureRepo,
		admissionRepo: admissionRepo,
		auditRepo:     auditRepo,
		availability:  availability,
	}
}

// CreateProcedureInput carries the fields accepted at creation time.
// Scheduling fields are optional; a procedure may start life unscheduled.
type CreateProcedureInput struct {
	AdmissionID          *uint      `json:"admission_id"`
	PatientID            *uint      `json:"patient_id"`
	Name                 string     `json:"name" binding:"required"`
	ProcedureType        string     `json:"procedure_type"`
	Priority             string     `json:"priority"`
	Complexity           string     `json:"complexity"`
	Description          string     `json:"description"`
	Indication           string     `json:"indication"`
	RoomID               *uint      `json:"room_id"`
	ScheduledStart       *time.Time `json:"scheduled_start"`
	EstimatedDurationMin *int       `json:"estimated_duration_minutes"`
}

// Create persists a new procedure in the Scheduled state. When a room and
// start time are given the booking must pass the availability check first,
// under the room's lock.
func (s *ProcedureService) Create(input CreateProcedureInput, userID uint) (*models.Procedure, error) {
	if input.AdmissionID != nil {
		admission, err := s.admissionRepo.FindByID(*input.AdmissionID)
		if err != nil {
			return nil, err
		}
		if admission.Status != models.AdmissionActive {
			return nil, apperrors.Newf(apperrors.KindAdmissionNotActive,
				"admission %d is %s; procedures require an active admission", admission.ID, admission.Status)
		}
		if input.PatientID == nil {
			input.PatientID = &admission.PatientID
		}
	}

	procedure := &models.Procedure{
		AdmissionID:          input.AdmissionID,
		PatientID:            input.PatientID,
		ClinicianID:          userID,
		Name:                 input.Name,
		ProcedureType:        defaultString(input.ProcedureType, scheduling.DefaultProcedureType),
		Priority:             defaultString(input.Priority, scheduling.DefaultPriority),
		Complexity:           defaultString(input.Complexity, scheduling.DefaultComplexity),
		Description:          input.Description,
		Indication:           input.Indication,
		RoomID:               input.RoomID,
		ScheduledStart:       input.ScheduledStart,
		EstimatedDurationMin: input.EstimatedDurationMin,
		State:                models.ProcedureScheduled,
	}

	persist := func() error {
		if err := s.procedureRepo.Create(procedure); err != nil {
			return fmt.Errorf("failed to create procedure: %w", err)
		}
		return nil
	}

	if procedure.RoomID != nil && procedure.ScheduledStart != nil {
		if err := s.bookRoom(*procedure.RoomID, *procedure.ScheduledStart,
			scheduling.DurationOrDefault(procedure.EstimatedDurationMin), nil, persist); err != nil {
			return nil, err
		}
	} else if err := persist(); err != nil {
		return nil, err
	}

	details := fmt.Sprintf("Created procedure: %s (ID: %d, state: %s)", procedure.Name, procedure.ID, procedure.State)
	_ = s.auditRepo.CreateAuditLog(&userID, "procedure_create", details)

	return procedure, nil
}

// ProcedureUpdate is a partial patch of mutable procedure fields. Nil fields
// are left unchanged. State is not patchable; lifecycle operations own it.
type ProcedureUpdate struct {
	Name                 *string    `json:"name"`
	ProcedureType        *string    `json:"procedure_type"`
	Priority             *string    `json:"priority"`
	Complexity           *string    `json:"complexity"`
	Description          *string    `json:"description"`
	Indication           *string    `json:"indication"`
	Observations         *string    `json:"observations"`
	RoomID               *uint      `json:"room_id"`
	ScheduledStart       *time.Time `json:"scheduled_start"`
	EstimatedDurationMin *int       `json:"estimated_duration_minutes"`
}

func (u ProcedureUpdate) touchesSchedule() bool {
	return u.RoomID != nil || u.ScheduledStart != nil || u.EstimatedDurationMin != nil
}

// Update applies a generic field patch to a non-terminal procedure. When the
// patch changes room, start or duration, the resulting schedule (patched
// fields over existing values) is re-checked for conflicts, excluding self.
func (s *ProcedureService) Update(id uint, patch ProcedureUpdate, userID uint) (*models.Procedure, error) {
	procedure, err := s.procedureRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if err := rejectTerminal(procedure, "update"); err != nil {
		return nil, err
	}

	if patch.Name != nil {
		procedure.Name = *patch.Name
	}
	if patch.ProcedureType != nil {
		procedure.ProcedureType = *patch.ProcedureType
	}
	if patch.Priority != nil {
		procedure.Priority = *patch.Priority
	}
	if patch.Complexity != nil {
		procedure.Complexity = *patch.Complexity
	}
	if patch.Description != nil {
		procedure.Description = *patch.Description
	}
	if patch.Indication != nil {
		procedure.Indication = *patch.Indication
	}
	if patch.Observations != nil {
		procedure.Observations = *patch.Observations
	}
	if patch.RoomID != nil {
		procedure.RoomID = patch.RoomID
	}
	if patch.ScheduledStart != nil {
		procedure.ScheduledStart = patch.ScheduledStart
	}
	if patch.EstimatedDurationMin != nil {
		procedure.EstimatedDurationMin = patch.EstimatedDurationMin
	}

	save := func() error {
		if err := s.procedureRepo.Save(procedure); err != nil {
			return fmt.Errorf("failed to update procedure: %w", err)
		}
		return nil
	}

	if patch.touchesSchedule() && procedure.RoomID != nil && procedure.ScheduledStart != nil {
		if err := s.bookRoom(*procedure.RoomID, *procedure.ScheduledStart,
			scheduling.DurationOrDefault(procedure.EstimatedDurationMin), &procedure.ID, save); err != nil {
			return nil, err
		}
	} else if err := save(); err != nil {
		return nil, err
	}

	details := fmt.Sprintf("Updated procedure: %s (ID: %d)", procedure.Name, procedure.ID)
	_ = s.auditRepo.CreateAuditLog(&userID, "procedure_update", details)

	return procedure, nil
}

// Start moves a scheduled or deferred procedure into execution and stamps the
// actual start time.
func (s *ProcedureService) Start(id uint, userID uint) (*models.Procedure, error) {
	procedure, err := s.procedureRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(procedure.State, models.ProcedureInProgress) {
		return nil, apperrors.Newf(apperrors.KindInvalidState,
			"cannot start a procedure in state %s", procedure.State)
	}

	now := time.Now()
	procedure.State = models.ProcedureInProgress
	procedure.ActualStart = &now

	if err := s.procedureRepo.Save(procedure); err != nil {
		return nil, fmt.Errorf("failed to start procedure: %w", err)
	}

	details := fmt.Sprintf("Started procedure: %s (ID: %d)", procedure.Name, procedure.ID)
	_ = s.auditRepo.CreateAuditLog(&userID, "procedure_start", details)

	return procedure, nil
}

// CompleteProcedureInput carries the outcome fields recorded on completion.
type CompleteProcedureInput struct {
	Findings          string     `json:"findings"`
	Complications     string     `json:"complications"`
	Results           string     `json:"results"`
	Observations      string     `json:"observations"`
	ActualEnd         *time.Time `json:"actual_end"`
	ActualDurationMin *int       `json:"actual_duration_minutes"`
}

// Complete closes a procedure, records outcome fields and signature metadata,
// and derives the real duration when not explicitly supplied: the rounded
// minutes between the actual start and the actual end (or now). Without an
// actual start the duration stays unset.
func (s *ProcedureService) Complete(id uint, input CompleteProcedureInput, userID uint) (*models.Procedure, error) {
	procedure, err := s.procedureRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if procedure.State == models.ProcedureCompleted {
		return nil, apperrors.Newf(apperrors.KindAlreadyCompleted, "procedure %d is already completed", id)
	}
	if !models.CanTransition(procedure.State, models.ProcedureCompleted) {
		return nil, apperrors.Newf(apperrors.KindInvalidState,
			"cannot complete a procedure in state %s", procedure.State)
	}

	now := time.Now()
	end := now
	if input.ActualEnd != nil {
		end = *input.ActualEnd
	}

	procedure.State = models.ProcedureCompleted
	procedure.Findings = input.Findings
	procedure.Complications = input.Complications
	procedure.Results = input.Results
	if input.Observations != "" {
		procedure.Observations = input.Observations
	}
	procedure.ActualEnd = &end

	switch {
	case input.ActualDurationMin != nil:
		procedure.ActualDurationMin = input.ActualDurationMin
	case procedure.ActualStart != nil:
		minutes := scheduling.MinutesBetween(*procedure.ActualStart, end)
		procedure.ActualDurationMin = &minutes
	}

	procedure.SignedByID = &userID
	procedure.SignedAt = &now

	if err := s.procedureRepo.Save(procedure); err != nil {
		return nil, fmt.Errorf("failed to complete procedure: %w", err)
	}

	details := fmt.Sprintf("Completed procedure: %s (ID: %d)", procedure.Name, procedure.ID)
	_ = s.auditRepo.CreateAuditLog(&userID, "procedure_complete", details)

	return procedure, nil
}

// Cancel terminally cancels a procedure, keeping the row for audit. The
// reason is appended to observations rather than replacing them. Cancelling
// an already-cancelled procedure is a no-op.
func (s *ProcedureService) Cancel(id uint, reason string, userID uint) (*models.Procedure, error) {
	procedure, err := s.procedureRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if procedure.State == models.ProcedureCompleted {
		return nil, apperrors.Newf(apperrors.KindAlreadyCompleted,
			"procedure %d is completed and cannot be cancelled", id)
	}
	if procedure.State == models.ProcedureCancelled {
		return procedure, nil
	}

	procedure.State = models.ProcedureCancelled
	if reason != "" {
		procedure.Observations = appendObservation(procedure.Observations, "Cancelado", reason)
	}

	if err := s.procedureRepo.Save(procedure); err != nil {
		return nil, fmt.Errorf("failed to cancel procedure: %w", err)
	}

	details := fmt.Sprintf("Cancelled procedure: %s (ID: %d, reason: %s)", procedure.Name, procedure.ID, reason)
	_ = s.auditRepo.CreateAuditLog(&userID, "procedure_cancel", details)

	return procedure, nil
}

// Defer postpones a procedure, optionally moving its scheduled start to a new
// date. A deferred procedure without a date releases its room slot.
func (s *ProcedureService) Defer(id uint, newDate *time.Time, reason string, userID uint) (*models.Procedure, error) {
	procedure, err := s.procedureRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if procedure.State == models.ProcedureCompleted {
		return nil, apperrors.Newf(apperrors.KindAlreadyCompleted,
			"procedure %d is completed and cannot be deferred", id)
	}
	if !models.CanTransition(procedure.State, models.ProcedureDeferred) {
		return nil, apperrors.Newf(apperrors.KindInvalidState,
			"cannot defer a procedure in state %s", procedure.State)
	}

	procedure.State = models.ProcedureDeferred
	if newDate != nil {
		procedure.ScheduledStart = newDate
	}
	if reason != "" {
		procedure.Observations = appendObservation(procedure.Observations, "Diferido", reason)
	}

	if err := s.procedureRepo.Save(procedure); err != nil {
		return nil, fmt.Errorf("failed to defer procedure: %w", err)
	}

	details := fmt.Sprintf("Deferred procedure: %s (ID: %d, reason: %s)", procedure.Name, procedure.ID, reason)
	_ = s.auditRepo.CreateAuditLog(&userID, "procedure_defer", details)

	return procedure, nil
}

// Reprogram books a procedure back into the Scheduled state at a new date,
// re-checking room availability with its existing room and duration.
func (s *ProcedureService) Reprogram(id uint, newDate time.Time, userID uint) (*models.Procedure, error) {
	procedure, err := s.procedureRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(procedure.State, models.ProcedureScheduled) {
		return nil, apperrors.Newf(apperrors.KindInvalidState,
			"cannot reprogram a procedure in state %s", procedure.State)
	}

	procedure.State = models.ProcedureScheduled
	procedure.ScheduledStart = &newDate

	save := func() error {
		if err := s.procedureRepo.Save(procedure); err != nil {
			return fmt.Errorf("failed to reprogram procedure: %w", err)
		}
		return nil
	}

	if procedure.RoomID != nil {
		if err := s.bookRoom(*procedure.RoomID, newDate,
			scheduling.DurationOrDefault(procedure.EstimatedDurationMin), &procedure.ID, save); err != nil {
			return nil, err
		}
	} else if err := save(); err != nil {
		return nil, err
	}

	details := fmt.Sprintf("Reprogrammed procedure: %s (ID: %d, new start: %s)",
		procedure.Name, procedure.ID, newDate.Format(time.RFC3339))
	_ = s.auditRepo.CreateAuditLog(&userID, "procedure_reprogram", details)

	return procedure, nil
}

// Get retrieves a procedure with its display projections
func (s *ProcedureService) Get(id uint) (*models.Procedure, error) {
	return s.procedureRepo.FindByIDWithRelations(id)
}

// List retrieves procedures matching the filter with pagination
func (s *ProcedureService) List(filter repository.ProcedureFilter, limit, offset int) ([]models.Procedure, int64, error) {
	return s.procedureRepo.List(filter, limit, offset)
}

// ProcedureStats summarizes procedures for dashboards.
type ProcedureStats struct {
	Total              int64                   `json:"total"`
	ByState            []repository.StateCount `json:"by_state"`
	ByType             []repository.TypeCount  `json:"by_type"`
	AverageDurationMin float64                 `json:"average_duration_minutes"`
}

// Stats aggregates totals, per-state and per-type counts, and the mean real
// duration of completed procedures.
func (s *ProcedureService) Stats(filter repository.ProcedureFilter) (*ProcedureStats, error) {
	total, err := s.procedureRepo.Count(filter)
	if err != nil {
		return nil, err
	}
	byState, err := s.procedureRepo.CountByState(filter)
	if err != nil {
		return nil, err
	}
	byType, err := s.procedureRepo.CountByType(filter)
	if err != nil {
		return nil, err
	}
	avg, err := s.procedureRepo.AverageActualDuration(filter)
	if err != nil {
		return nil, err
	}

	return &ProcedureStats{
		Total:              total,
		ByState:            byState,
		ByType:             byType,
		AverageDurationMin: avg,
	}, nil
}

// bookRoom runs the availability check and the write as one critical section
// under the room's lock, closing the check-then-act race.
func (s *ProcedureService) bookRoom(roomID uint, start time.Time, durationMinutes int, excludeID *uint, write func() error) error {
	mu := s.locks.lock(roomID)
	defer mu.Unlock()

	result, err := s.availability.Check(roomID, start, durationMinutes, excludeID)
	if err != nil {
		return err
	}
	if !result.Available {
		return apperrors.RoomConflict(*result.ConflictingProcedureID)
	}

	return write()
}

func rejectTerminal(procedure *models.Procedure, operation string) error {
	switch procedure.State {
	case models.ProcedureCompleted:
		return apperrors.Newf(apperrors.KindAlreadyCompleted,
			"procedure %d is completed; %s is not allowed", procedure.ID, operation)
	case models.ProcedureCancelled:
		return apperrors.Newf(apperrors.KindInvalidState,
			"procedure %d is cancelled; %s is not allowed", procedure.ID, operation)
	}
	return nil
}

// appendObservation adds a tagged line to the observations trail without
// discarding what is already there.
func appendObservation(existing, tag, text string) string {
	entry := fmt.Sprintf("[%s] %s", tag, text)
	if existing == "" {
		return entry
	}
	return existing + "\n" + entry
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
