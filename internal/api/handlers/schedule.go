package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/probegrid/probegrid/internal/api/dto"
	"github.com/probegrid/probegrid/internal/api/middleware"
	"github.com/probegrid/probegrid/internal/domain/schedule"
	"github.com/probegrid/probegrid/internal/pkg/errors"
	"github.com/probegrid/probegrid/internal/pkg/logger"
	"github.com/probegrid/probegrid/internal/pkg/utils"
	"github.com/probegrid/probegrid/internal/pkg/validator"
)

type ScheduleHandler struct {
	service   schedule.Service
	logger    *logger.Logger
	validator *validator.Validator
}

func NewScheduleHandler(service schedule.Service, log *logger.Logger, val *validator.Validator) *ScheduleHandler {
	return &ScheduleHandler{service: service, logger: log, validator: val}
}

// List returns polling schedules with optional filtering
// @Summary List polling schedules
// @Tags Schedules
// @Produce json
// @Param schedule_type query string false "Filter by schedule type"
// @Param enabled query bool false "Filter by enabled flag"
// @Success 200 {object} []schedule.PollingSchedule "List of schedules"
// @Security BearerAuth
// @Router /schedules [get]
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	filter := schedule.Filter{
		ScheduleType: r.URL.Query().Get("schedule_type"),
	}
	if v := r.URL.Query().Get("enabled"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			filter.Enabled = &enabled
		}
	}

	schedules, err := h.service.List(r.Context(), act, filter)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to list schedules")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, schedules)
}

// Get returns a single polling schedule by ID
// @Summary Get polling schedule by ID
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} schedule.PollingSchedule "Schedule details"
// @Failure 404 {object} utils.ErrorResponse "Schedule not found"
// @Security BearerAuth
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	ps, err := h.service.GetByID(r.Context(), act, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to get schedule")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, ps)
}

// Create registers a new polling schedule
// @Summary Create polling schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param request body schedule.CreateInput true "Schedule details"
// @Success 201 {object} schedule.PollingSchedule "Schedule created"
// @Failure 400 {object} utils.ErrorResponse "Invalid request or validation error"
// @Security BearerAuth
// @Router /schedules [post]
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	var input schedule.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	ps, err := h.service.Create(r.Context(), act, input)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to create schedule")
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, ps)
}

// Delete removes a polling schedule
// @Summary Delete polling schedule
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} utils.SuccessResponse "Schedule deleted"
// @Failure 403 {object} utils.ErrorResponse "Admin role required"
// @Security BearerAuth
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	if err := h.service.Delete(r.Context(), act, chi.URLParam(r, "id")); err != nil {
		utils.WriteServiceError(w, err, "Failed to delete schedule")
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Schedule deleted", nil)
}

// Enable turns a schedule on
// @Summary Enable polling schedule
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} schedule.PollingSchedule "Enabled schedule"
// @Security BearerAuth
// @Router /schedules/{id}/enable [post]
func (h *ScheduleHandler) Enable(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	ps, err := h.service.Enable(r.Context(), act, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to enable schedule")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, ps)
}

// Disable turns a schedule off
// @Summary Disable polling schedule
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} schedule.PollingSchedule "Disabled schedule"
// @Security BearerAuth
// @Router /schedules/{id}/disable [post]
func (h *ScheduleHandler) Disable(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	ps, err := h.service.Disable(r.Context(), act, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to disable schedule")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, ps)
}

// AcquireLock claims a schedule for an executor node
// @Summary Acquire schedule lock
// @Description Claim a schedule for execution. Returns the lock token that
// @Description must accompany the later release.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param request body dto.AcquireLockRequest true "Claiming node"
// @Success 200 {object} map[string]string "Lock token"
// @Failure 409 {object} utils.ErrorResponse "Lock held by another node"
// @Security BearerAuth
// @Router /schedules/{id}/lock [post]
func (h *ScheduleHandler) AcquireLock(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	var req dto.AcquireLockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if errs := h.validator.Validate(req); len(errs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", errs))
		return
	}

	token, err := h.service.AcquireLock(r.Context(), act, chi.URLParam(r, "id"), req.NodeID)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to acquire schedule lock")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]string{"lock_token": token})
}

// ReleaseLock releases a schedule claimed earlier
// @Summary Release schedule lock
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param request body dto.ReleaseLockRequest true "Lock token"
// @Success 200 {object} utils.SuccessResponse "Lock released"
// @Failure 409 {object} utils.ErrorResponse "Token does not match"
// @Security BearerAuth
// @Router /schedules/{id}/lock [delete]
func (h *ScheduleHandler) ReleaseLock(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	var req dto.ReleaseLockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if errs := h.validator.Validate(req); len(errs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", errs))
		return
	}

	if err := h.service.ReleaseLock(r.Context(), act, chi.URLParam(r, "id"), req.LockToken); err != nil {
		utils.WriteServiceError(w, err, "Failed to release schedule lock")
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Lock released", nil)
}
