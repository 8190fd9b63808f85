package handler

import (
	"net/http"
	"strconv"
	"time"

	"clinic-procedure-scheduling/internal/models"
	"clinic-procedure-scheduling/internal/repository"
	"clinic-procedure-scheduling/internal/service"
	"clinic-procedure-scheduling/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ProcedureHandler struct {
	procedureService *service.ProcedureService
}

func NewProcedureHandler(procedureService *service.ProcedureService) *ProcedureHandler {
	return &ProcedureHandler{
		procedureService: procedureService,
	}
}

// CreateProcedure creates a new procedure in the Scheduled state
func (h *ProcedureHandler) CreateProcedure(c *gin.Context) {
	var input service.CreateProcedureInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	userID, _ := c.Get("userID")

	procedure, err := h.procedureService.Create(input, userID.(uint))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, procedure)
}

// ListProcedures retrieves procedures with filters and pagination
func (h *ProcedureHandler) ListProcedures(c *gin.Context) {
	filter := repository.ProcedureFilter{
		State:         models.ProcedureState(c.Query("state")),
		ProcedureType: c.Query("type"),
	}
	filter.AdmissionID = parseOptionalIDQuery(c, "admission_id")
	filter.PatientID = parseOptionalIDQuery(c, "patient_id")
	filter.ClinicianID = parseOptionalIDQuery(c, "clinician_id")

	if raw := c.Query("scheduled_from"); raw != "" {
		if from, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.ScheduledFrom = &from
		}
	}
	if raw := c.Query("scheduled_to"); raw != "" {
		if to, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.ScheduledTo = &to
		}
	}

	limit := parseIntQuery(c, "limit", 100)
	offset := parseIntQuery(c, "offset", 0)

	procedures, total, err := h.procedureService.List(filter, limit, offset)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to fetch procedures")
		return
	}

	utils.ListResponse(c, "procedures", procedures, total, limit, offset)
}

// GetProcedure retrieves a procedure with its relations
func (h *ProcedureHandler) GetProcedure(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid procedure ID")
		return
	}

	procedure, err := h.procedureService.Get(id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, procedure)
}

// UpdateProcedure applies a generic field patch
func (h *ProcedureHandler) UpdateProcedure(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid procedure ID")
		return
	}

	var patch service.ProcedureUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	userID, _ := c.Get("userID")

	procedure, err := h.procedureService.Update(id, patch, userID.(uint))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, procedure)
}

// StartProcedure moves a procedure into execution
func (h *ProcedureHandler) StartProcedure(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid procedure ID")
		return
	}

	userID, _ := c.Get("userID")

	procedure, err := h.procedureService.Start(id, userID.(uint))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, procedure)
}

// CompleteProcedure closes a procedure with its outcome fields
func (h *ProcedureHandler) CompleteProcedure(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid procedure ID")
		return
	}

	var input service.CompleteProcedureInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	userID, _ := c.Get("userID")

	procedure, err := h.procedureService.Complete(id, input, userID.(uint))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, procedure)
}

type CancelProcedureRequest struct {
	Reason string `json:"reason"`
}

// CancelProcedure terminally cancels a procedure
func (h *ProcedureHandler) CancelProcedure(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid procedure ID")
		return
	}

	var req CancelProcedureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	userID, _ := c.Get("userID")

	procedure, err := h.procedureService.Cancel(id, req.Reason, userID.(uint))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, procedure)
}

type DeferProcedureRequest struct {
	NewDate *time.Time `json:"new_date"`
	Reason  string     `json:"reason"`
}

// DeferProcedure postpones a procedure, optionally with a new date
func (h *ProcedureHandler) DeferProcedure(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid procedure ID")
		return
	}

	var req DeferProcedureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	userID, _ := c.Get("userID")

	procedure, err := h.procedureService.Defer(id, req.NewDate, req.Reason, userID.(uint))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, procedure)
}

type ReprogramProcedureRequest struct {
	NewDate time.Time `json:"new_date" binding:"required"`
}

// ReprogramProcedure books a procedure back into the schedule at a new date
func (h *ProcedureHandler) ReprogramProcedure(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid procedure ID")
		return
	}

	var req ReprogramProcedureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	userID, _ := c.Get("userID")

	procedure, err := h.procedureService.Reprogram(id, req.NewDate, userID.(uint))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, procedure)
}

// GetStats returns aggregate procedure statistics
func (h *ProcedureHandler) GetStats(c *gin.Context) {
	filter := repository.ProcedureFilter{
		ProcedureType: c.Query("type"),
	}
	filter.ClinicianID = parseOptionalIDQuery(c, "clinician_id")
	if raw := c.Query("scheduled_from"); raw != "" {
		if from, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.ScheduledFrom = &from
		}
	}
	if raw := c.Query("scheduled_to"); raw != "" {
		if to, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.ScheduledTo = &to
		}
	}

	stats, err := h.procedureService.Stats(filter)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to compute statistics")
		return
	}

	utils.SuccessResponse(c, stats)
}

func parseOptionalIDQuery(c *gin.Context, key string) *uint {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil
	}
	id := uint(parsed)
	return &id
}
