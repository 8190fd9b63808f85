package service

import (
	"testing"
	"time"

	"clinic-procedure-scheduling/internal/models"
	"clinic-procedure-scheduling/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the real repositories and services against an in-memory
// database so tests exercise the same query paths as production.
type testEnv struct {
	db           *gorm.DB
	rooms        *repository.RoomRepository
	procedures   *repository.ProcedureRepository
	admissions   *repository.AdmissionRepository
	roomService  *RoomService
	availability *AvailabilityService
	procService  *ProcedureService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Every connection to :memory: sees its own database; pin to one.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.AutoMigrate(db))

	rooms := repository.NewRoomRepo(db)
	procedures := repository.NewProcedureRepo(db)
	admissions := repository.NewAdmissionRepo(db)
	audits := repository.NewAuditRepo(db)

	availability := NewAvailabilityService(procedures, rooms)

	return &testEnv{
		db:           db,
		rooms:        rooms,
		procedures:   procedures,
		admissions:   admissions,
		roomService:  NewRoomService(rooms, procedures, audits),
		availability: availability,
		procService:  NewProcedureService(procedures, admissions, audits, availability),
	}
}

func (e *testEnv) createRoom(t *testing.T, name string) *models.Room {
	t.Helper()
	room := &models.Room{Name: name, RoomType: "operating_theater", IsActive: true}
	require.NoError(t, e.rooms.Create(room))
	return room
}

func (e *testEnv) createAdmission(t *testing.T, status string) *models.Admission {
	t.Helper()
	patient := &models.Patient{FirstName: "Ana", LastName: "Reyes", Document: "CC-" + status + "-" + time.Now().Format("150405.000000000")}
	require.NoError(t, e.db.Create(patient).Error)
	admission := &models.Admission{PatientID: patient.ID, AdmittedAt: time.Now(), Status: status}
	require.NoError(t, e.db.Create(admission).Error)
	return admission
}

// scheduleProcedure inserts a booking directly, bypassing the service, for
// arranging fixtures.
func (e *testEnv) scheduleProcedure(t *testing.T, roomID uint, start time.Time, durationMin *int, state models.ProcedureState) *models.Procedure {
	t.Helper()
	procedure := &models.Procedure{
		ClinicianID:          1,
		Name:                 "fixture procedure",
		RoomID:               &roomID,
		ScheduledStart:       &start,
		EstimatedDurationMin: durationMin,
		State:                state,
	}
	require.NoError(t, e.procedures.Create(procedure))
	return procedure
}

func repositoryFilterAll() repository.ProcedureFilter {
	return repository.ProcedureFilter{}
}

func intPtr(v int) *int {
	return &v
}

func timePtr(v time.Time) *time.Time {
	return &v
}
