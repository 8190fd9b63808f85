package service

import (
	"sync"
	"testing"
	"time"

	"clinic-procedure-scheduling/internal/apperrors"
	"clinic-procedure-scheduling/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID uint = 1

func TestCreateProcedure_Unscheduled(t *testing.T) {
	env := newTestEnv(t)

	procedure, err := env.procService.Create(CreateProcedureInput{Name: "appendectomy"}, testUserID)
	require.NoError(t, err)

	assert.Equal(t, models.ProcedureScheduled, procedure.State)
	assert.Equal(t, testUserID, procedure.ClinicianID)
	assert.Nil(t, procedure.RoomID)
	// Defaulting policy fills classification fields
	assert.Equal(t, "therapeutic", procedure.ProcedureType)
	assert.Equal(t, "normal", procedure.Priority)
	assert.Equal(t, "medium", procedure.Complexity)
}

func TestCreateProcedure_AdmissionValidation(t *testing.T) {
	env := newTestEnv(t)

	missing := uint(999)
	_, err := env.procService.Create(CreateProcedureInput{Name: "x", AdmissionID: &missing}, testUserID)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	discharged := env.createAdmission(t, models.AdmissionDischarged)
	_, err = env.procService.Create(CreateProcedureInput{Name: "x", AdmissionID: &discharged.ID}, testUserID)
	assert.Equal(t, apperrors.KindAdmissionNotActive, apperrors.KindOf(err))

	active := env.createAdmission(t, models.AdmissionActive)
	procedure, err := env.procService.Create(CreateProcedureInput{Name: "x", AdmissionID: &active.ID}, testUserID)
	require.NoError(t, err)
	require.NotNil(t, procedure.PatientID)
	assert.Equal(t, active.PatientID, *procedure.PatientID)
}

func TestCreateProcedure_RoomConflict(t *testing.T) {
	env := newTestEnv(t)
	room := env.createRoom(t, "OR-1")

	start := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	existing := env.scheduleProcedure(t, room.ID, start, intPtr(60), models.ProcedureScheduled)

	_, err := env.procService.Create(CreateProcedureInput{
		Name:                 "colliding",
		RoomID:               &room.ID,
		ScheduledStart:       timePtr(start.Add(30 * time.Minute)),
		EstimatedDurationMin: intPtr(60),
	}, testUserID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindRoomConflict, apperrors.KindOf(err))

	appErr, ok := err.(*apperrors.Error)
	require.True(t, ok)
	assert.Equal(t, existing.ID, appErr.ConflictingProcedureID)
}

func TestCreateProcedure_AdjacentBookingAccepted(t *testing.T) {
	env := newTestEnv(t)
	room := env.createRoom(t, "OR-1")

	start := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	env.scheduleProcedure(t, room.ID, start, intPtr(60), models.ProcedureScheduled)

	procedure, err := env.procService.Create(CreateProcedureInput{
		Name:                 "back to back",
		RoomID:               &room.ID,
		ScheduledStart:       timePtr(start.Add(60 * time.Minute)),
		EstimatedDurationMin: intPtr(60),
	}, testUserID)
	require.NoError(t, err)
	assert.Equal(t, models.ProcedureScheduled, procedure.State)
}

func TestUpdateProcedure_SelfExclusionIdempotence(t *testing.T) {
	env := newTestEnv(t)
	room := env.createRoom(t, "OR-1")

	start := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	procedure := env.scheduleProcedure(t, room.ID, start, intPtr(60), models.ProcedureScheduled)

	// Re-submitting the unchanged schedule must not conflict with itself
	updated, err := env.procService.Update(procedure.ID, ProcedureUpdate{
		RoomID:               &room.ID,
		ScheduledStart:       &start,
		EstimatedDurationMin: intPtr(60),
	}, testUserID)
	require.NoError(t, err)
	assert.Equal(t, start, updated.ScheduledStart.UTC())
}

func TestUpdateProcedure_ReschedulingIntoConflictFails(t *testing.T) {
	env := newTestEnv(t)
	room := env.createRoom(t, "OR-1")

	start := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	blocker := env.scheduleProcedure(t, room.ID, start, intPtr(60), models.ProcedureScheduled)
	victim := env.scheduleProcedure(t, room.ID, start.Add(2*time.Hour), intPtr(60), models.ProcedureScheduled)

	// Moving only the start; room and duration fall back to existing values
	_, err := env.procService.Update(victim.ID, ProcedureUpdate{
		ScheduledStart: timePtr(start.Add(30 * time.Minute)),
	}, testUserID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindRoomConflict, apperrors.KindOf(err))

	appErr := err.(*apperrors.Error)
	assert.Equal(t, blocker.ID, appErr.ConflictingProcedureID)
}

func TestStartProcedure(t *testing.T) {
	env := newTestEnv(t)

	procedure, err := env.procService.Create(CreateProcedureInput{Name: "x"}, testUserID)
	require.NoError(t, err)

	started, err := env.procService.Start(procedure.ID, testUserID)
	require.NoError(t, err)
	assert.Equal(t, models.ProcedureInProgress, started.State)
	require.NotNil(t, started.ActualStart)

	// Starting twice is illegal
	_, err = env.procService.Start(procedure.ID, testUserID)
	assert.Equal(t, apperrors.KindInvalidState, apperrors.KindOf(err))
}

func TestCompleteProcedure_DerivesDuration(t *testing.T) {
	env := newTestEnv(t)

	procedure, err := env.procService.Create(CreateProcedureInput{Name: "x"}, testUserID)
	require.NoError(t, err)

	actualStart := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	procedure.State = models.ProcedureInProgress
	procedure.ActualStart = &actualStart
	require.NoError(t, env.procedures.Save(procedure))

	completed, err := env.procService.Complete(procedure.ID, CompleteProcedureInput{
		Findings:  "unremarkable",
		ActualEnd: timePtr(actualStart.Add(47 * time.Minute)),
	}, testUserID)
	require.NoError(t, err)

	assert.Equal(t, models.ProcedureCompleted, completed.State)
	require.NotNil(t, completed.ActualDurationMin)
	assert.Equal(t, 47, *completed.ActualDurationMin)
	require.NotNil(t, completed.SignedByID)
	assert.Equal(t, testUserID, *completed.SignedByID)
	assert.NotNil(t, completed.SignedAt)
}

func TestCompleteProcedure_ExplicitDurationWins(t *testing.T) {
	env := newTestEnv(t)

	procedure, err := env.procService.Create(CreateProcedureInput{Name: "x"}, testUserID)
	require.NoError(t, err)

	actualStart := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	procedure.ActualStart = &actualStart
	require.NoError(t, env.procedures.Save(procedure))

	completed, err := env.procService.Complete(procedure.ID, CompleteProcedureInput{
		ActualEnd:         timePtr(actualStart.Add(90 * time.Minute)),
		ActualDurationMin: intPtr(85),
	}, testUserID)
	require.NoError(t, err)
	assert.Equal(t, 85, *completed.ActualDurationMin)
}

func TestCompleteProcedure_NoActualStartLeavesDurationUnset(t *testing.T) {
	env := newTestEnv(t)

	procedure, err := env.procService.Create(CreateProcedureInput{Name: "x"}, testUserID)
	require.NoError(t, err)

	completed, err := env.procService.Complete(procedure.ID, CompleteProcedureInput{}, testUserID)
	require.NoError(t, err)
	assert.Nil(t, completed.ActualDurationMin)
}

func TestCompletedProcedureIsImmutable(t *testing.T) {
	env := newTestEnv(t)

	procedure, err := env.procService.Create(CreateProcedureInput{Name: "x"}, testUserID)
	require.NoError(t, err)
	_, err = env.procService.Complete(procedure.ID, CompleteProcedureInput{}, testUserID)
	require.NoError(t, err)

	_, err = env.procService.Complete(procedure.ID, CompleteProcedureInput{}, testUserID)
	assert.Equal(t, apperrors.KindAlreadyCompleted, apperrors.KindOf(err))

	name := "renamed"
	_, err = env.procService.Update(procedure.ID, ProcedureUpdate{Name: &name}, testUserID)
	assert.Equal(t, apperrors.KindAlreadyCompleted, apperrors.KindOf(err))

	_, err = env.procService.Cancel(procedure.ID, "too late", testUserID)
	assert.Equal(t, apperrors.KindAlreadyCompleted, apperrors.KindOf(err))

	_, err = env.procService.Defer(procedure.ID, nil, "too late", testUserID)
	assert.Equal(t, apperrors.KindAlreadyCompleted, apperrors.KindOf(err))

	_, err = env.procService.Reprogram(procedure.ID, time.Now().Add(time.Hour), testUserID)
	assert.Equal(t, apperrors.KindInvalidState, apperrors.KindOf(err))

	_, err = env.procService.Start(procedure.ID, testUserID)
	assert.Equal(t, apperrors.KindInvalidState, apperrors.KindOf(err))
}

func TestCancelProcedure_AppendsReason(t *testing.T) {
	env := newTestEnv(t)

	procedure, err := env.procService.Create(CreateProcedureInput{Name: "x"}, testUserID)
	require.NoError(t, err)

	note := "patient fasting not confirmed"
	_, err = env.procService.Update(procedure.ID, ProcedureUpdate{Observations: &note}, testUserID)
	require.NoError(t, err)

	cancelled, err := env.procService.Cancel(procedure.ID, "surgeon unavailable", testUserID)
	require.NoError(t, err)
	assert.Equal(t, models.ProcedureCancelled, cancelled.State)
	assert.Equal(t, "patient fasting not confirmed\n[Cancelado] surgeon unavailable", cancelled.Observations)

	// Cancelling again is a no-op, not an error
	again, err := env.procService.Cancel(procedure.ID, "duplicate click", testUserID)
	require.NoError(t, err)
	assert.Equal(t, models.ProcedureCancelled, again.State)
	assert.Equal(t, cancelled.Observations, again.Observations)
}

func TestCancelledProcedureCannotReenterLifecycle(t *testing.T) {
	env := newTestEnv(t)

	procedure, err := env.procService.Create(CreateProcedureInput{Name: "x"}, testUserID)
	require.NoError(t, err)
	_, err = env.procService.Cancel(procedure.ID, "", testUserID)
	require.NoError(t, err)

	_, err = env.procService.Start(procedure.ID, testUserID)
	assert.Equal(t, apperrors.KindInvalidState, apperrors.KindOf(err))

	_, err = env.procService.Defer(procedure.ID, nil, "retry", testUserID)
	assert.Equal(t, apperrors.KindInvalidState, apperrors.KindOf(err))

	_, err = env.procService.Reprogram(procedure.ID, time.Now().Add(time.Hour), testUserID)
	assert.Equal(t, apperrors.KindInvalidState, apperrors.KindOf(err))

	_, err = env.procService.Complete(procedure.ID, CompleteProcedureInput{}, testUserID)
	assert.Equal(t, apperrors.KindInvalidState, apperrors.KindOf(err))
}

func TestDeferProcedure(t *testing.T) {
	env := newTestEnv(t)
	room := env.createRoom(t, "OR-1")

	start := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	procedure := env.scheduleProcedure(t, room.ID, start, intPtr(60), models.ProcedureScheduled)

	newDate := start.AddDate(0, 0, 7)
	deferred, err := env.procService.Defer(procedure.ID, &newDate, "equipment maintenance", testUserID)
	require.NoError(t, err)

	assert.Equal(t, models.ProcedureDeferred, deferred.State)
	assert.Equal(t, newDate, deferred.ScheduledStart.UTC())
	assert.Contains(t, deferred.Observations, "[Diferido] equipment maintenance")

	// A deferred booking no longer holds the slot
	result, err := env.availability.Check(room.ID, start, 60, nil)
	require.NoError(t, err)
	assert.True(t, result.Available)
}

func TestReprogramProcedure_Success(t *testing.T) {
	env := newTestEnv(t)
	room := env.createRoom(t, "OR-1")

	start := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	procedure := env.scheduleProcedure(t, room.ID, start, intPtr(60), models.ProcedureDeferred)

	newDate := start.AddDate(0, 0, 3)
	reprogrammed, err := env.procService.Reprogram(procedure.ID, newDate, testUserID)
	require.NoError(t, err)

	assert.Equal(t, models.ProcedureScheduled, reprogrammed.State)
	assert.Equal(t, newDate, reprogrammed.ScheduledStart.UTC())
}

func TestReprogramProcedure_ConflictAtNewDate(t *testing.T) {
	env := newTestEnv(t)
	room := env.createRoom(t, "OR-1")

	newDate := time.Date(2025, 1, 23, 10, 0, 0, 0, time.UTC)
	blocker := env.scheduleProcedure(t, room.ID, newDate, intPtr(60), models.ProcedureScheduled)

	start := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	// Duration unset: the default slot length applies at the new date
	procedure := env.scheduleProcedure(t, room.ID, start, nil, models.ProcedureDeferred)

	_, err := env.procService.Reprogram(procedure.ID, newDate.Add(30*time.Minute), testUserID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindRoomConflict, apperrors.KindOf(err))
	assert.Equal(t, blocker.ID, err.(*apperrors.Error).ConflictingProcedureID)

	// State must remain Diferido after the failed reprogram
	current, err := env.procedures.FindByID(procedure.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProcedureDeferred, current.State)
}

func TestConcurrentBookings_AtMostOneCommits(t *testing.T) {
	env := newTestEnv(t)
	room := env.createRoom(t, "OR-1")

	start := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.procService.Create(CreateProcedureInput{
				Name:                 "concurrent booking",
				RoomID:               &room.ID,
				ScheduledStart:       timePtr(start.Add(time.Duration(i*30) * time.Minute)),
				EstimatedDurationMin: intPtr(60),
			}, testUserID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, apperrors.KindRoomConflict, apperrors.KindOf(err))
		}
	}
	assert.Equal(t, 1, succeeded)

	// The committed schedule holds the no-overlap invariant
	active, err := env.procedures.FindActiveByRoomWithin(room.ID, start.Add(-24*time.Hour), start.Add(24*time.Hour), nil)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestProcedureStats(t *testing.T) {
	env := newTestEnv(t)

	p1, err := env.procService.Create(CreateProcedureInput{Name: "a"}, testUserID)
	require.NoError(t, err)
	_, err = env.procService.Create(CreateProcedureInput{Name: "b"}, testUserID)
	require.NoError(t, err)

	actualStart := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	p1.ActualStart = &actualStart
	require.NoError(t, env.procedures.Save(p1))
	_, err = env.procService.Complete(p1.ID, CompleteProcedureInput{
		ActualEnd: timePtr(actualStart.Add(30 * time.Minute)),
	}, testUserID)
	require.NoError(t, err)

	stats, err := env.procService.Stats(repositoryFilterAll())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.InDelta(t, 30.0, stats.AverageDurationMin, 0.01)

	byState := map[models.ProcedureState]int64{}
	for _, sc := range stats.ByState {
		byState[sc.State] = sc.Count
	}
	assert.Equal(t, int64(1), byState[models.ProcedureCompleted])
	assert.Equal(t, int64(1), byState[models.ProcedureScheduled])
}
