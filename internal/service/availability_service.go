package service

import (
	"time"

	"clinic-procedure-scheduling/internal/models"
	"clinic-procedure-scheduling/internal/repository"
	"clinic-procedure-scheduling/internal/scheduling"
)

// AvailabilityResult is the outcome of a room availability check.
type AvailabilityResult struct {
	Available              bool  `json:"available"`
	ConflictingProcedureID *uint `json:"conflicting_procedure_id,omitempty"`
}

type AvailabilityService struct {
	procedureRepo *repository.ProcedureRepository
	roomRepo      *repository.RoomRepository
}

func NewAvailabilityService(procedureRepo *repository.ProcedureRepository, roomRepo *repository.RoomRepository) *AvailabilityService {
	return &AvailabilityService{
		procedureRepo: procedureRepo,
		roomRepo:      roomRepo,
	}
}

// Check determines whether the room is free for the proposed interval.
// Candidates are the room's Scheduled and InProgress procedures whose start
// falls within [proposedStart - MaxPlausibleDuration, proposedEnd), so a
// booking running past midnight into the proposed day is still seen.
// Completed, cancelled and deferred procedures never block.
func (s *AvailabilityService) Check(roomID uint, proposedStart time.Time, durationMinutes int, excludeProcedureID *uint) (*AvailabilityResult, error) {
	if _, err := s.roomRepo.FindByID(roomID); err != nil {
		return nil, err
	}

	proposed := scheduling.NewInterval(proposedStart, durationMinutes)

	windowFrom := proposedStart.Add(-scheduling.MaxPlausibleDuration)
	candidates, err := s.procedureRepo.FindActiveByRoomWithin(roomID, windowFrom, proposed.End, excludeProcedureID)
	if err != nil {
		return nil, err
	}

	if conflict := firstConflict(proposed, candidates); conflict != nil {
		return &AvailabilityResult{
			Available:              false,
			ConflictingProcedureID: &conflict.ID,
		}, nil
	}

	return &AvailabilityResult{Available: true}, nil
}

// firstConflict returns the earliest-starting candidate overlapping the
// proposed interval, or nil. Candidates without a start never conflict;
// candidates without a duration default to the standard slot length.
func firstConflict(proposed scheduling.Interval, candidates []models.Procedure) *models.Procedure {
	for i := range candidates {
		candidate := &candidates[i]
		if candidate.ScheduledStart == nil {
			continue
		}
		existing := scheduling.NewInterval(
			*candidate.ScheduledStart,
			scheduling.DurationOrDefault(candidate.EstimatedDurationMin),
		)
		if proposed.Overlaps(existing) {
			return candidate
		}
	}
	return nil
}
