package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/probegrid/probegrid/internal/api/middleware"
	"github.com/probegrid/probegrid/internal/domain/check"
	"github.com/probegrid/probegrid/internal/pkg/errors"
	"github.com/probegrid/probegrid/internal/pkg/logger"
	"github.com/probegrid/probegrid/internal/pkg/utils"
	"github.com/probegrid/probegrid/internal/pkg/validator"
)

type CheckHandler struct {
	service   check.Service
	logger    *logger.Logger
	validator *validator.Validator
}

func NewCheckHandler(service check.Service, log *logger.Logger, val *validator.Validator) *CheckHandler {
	return &CheckHandler{service: service, logger: log, validator: val}
}

// List returns service checks with optional filtering
// @Summary List service checks
// @Tags Checks
// @Produce json
// @Param check_type query string false "Filter by check type"
// @Param enabled query bool false "Filter by enabled flag"
// @Param agent_id query string false "Filter by agent"
// @Success 200 {object} []check.ServiceCheck "List of checks"
// @Security BearerAuth
// @Router /checks [get]
func (h *CheckHandler) List(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	filter := check.Filter{
		CheckType: r.URL.Query().Get("check_type"),
		AgentID:   r.URL.Query().Get("agent_id"),
	}
	if v := r.URL.Query().Get("enabled"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			filter.Enabled = &enabled
		}
	}

	checks, err := h.service.List(r.Context(), act, filter)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to list checks")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, checks)
}

// Get returns a single service check by ID
// @Summary Get service check by ID
// @Tags Checks
// @Produce json
// @Param id path string true "Check ID"
// @Success 200 {object} check.ServiceCheck "Check details"
// @Failure 404 {object} utils.ErrorResponse "Check not found"
// @Security BearerAuth
// @Router /checks/{id} [get]
func (h *CheckHandler) Get(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	sc, err := h.service.GetByID(r.Context(), act, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to get check")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, sc)
}

// Create registers a new service check
// @Summary Create service check
// @Tags Checks
// @Accept json
// @Produce json
// @Param request body check.CreateInput true "Check details"
// @Success 201 {object} check.ServiceCheck "Check created"
// @Failure 400 {object} utils.ErrorResponse "Invalid request or validation error"
// @Security BearerAuth
// @Router /checks [post]
func (h *CheckHandler) Create(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	var input check.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	sc, err := h.service.Create(r.Context(), act, input)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to create check")
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, sc)
}

// Update modifies a service check's configuration
// @Summary Update service check
// @Tags Checks
// @Accept json
// @Produce json
// @Param id path string true "Check ID"
// @Param request body check.UpdateInput true "Fields to update"
// @Success 200 {object} check.ServiceCheck "Updated check"
// @Failure 404 {object} utils.ErrorResponse "Check not found"
// @Security BearerAuth
// @Router /checks/{id} [put]
func (h *CheckHandler) Update(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	var input check.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	sc, err := h.service.Update(r.Context(), act, chi.URLParam(r, "id"), input)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to update check")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, sc)
}

// Delete removes a service check
// @Summary Delete service check
// @Tags Checks
// @Produce json
// @Param id path string true "Check ID"
// @Success 200 {object} utils.SuccessResponse "Check deleted"
// @Failure 404 {object} utils.ErrorResponse "Check not found"
// @Security BearerAuth
// @Router /checks/{id} [delete]
func (h *CheckHandler) Delete(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	if err := h.service.Delete(r.Context(), act, chi.URLParam(r, "id")); err != nil {
		utils.WriteServiceError(w, err, "Failed to delete check")
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Check deleted", nil)
}

// Enable turns a check on
// @Summary Enable service check
// @Tags Checks
// @Produce json
// @Param id path string true "Check ID"
// @Success 200 {object} check.ServiceCheck "Enabled check"
// @Security BearerAuth
// @Router /checks/{id}/enable [post]
func (h *CheckHandler) Enable(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	sc, err := h.service.Enable(r.Context(), act, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to enable check")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, sc)
}

// Disable turns a check off
// @Summary Disable service check
// @Tags Checks
// @Produce json
// @Param id path string true "Check ID"
// @Success 200 {object} check.ServiceCheck "Disabled check"
// @Security BearerAuth
// @Router /checks/{id}/disable [post]
func (h *CheckHandler) Disable(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	sc, err := h.service.Disable(r.Context(), act, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to disable check")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, sc)
}

// RecordResult stores the outcome of one check run. Used by external agents
// that execute checks the server has no local prober for.
// @Summary Record check result
// @Tags Checks
// @Accept json
// @Produce json
// @Param id path string true "Check ID"
// @Param request body check.ResultInput true "Run outcome"
// @Success 200 {object} check.ServiceCheck "Updated check"
// @Failure 400 {object} utils.ErrorResponse "Invalid request or validation error"
// @Security BearerAuth
// @Router /checks/{id}/result [post]
func (h *CheckHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	var input check.ResultInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	sc, err := h.service.RecordResult(r.Context(), act, chi.URLParam(r, "id"), input)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to record check result")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, sc)
}

// ResetFailures clears the consecutive-failure counter
// @Summary Reset check failure counter
// @Tags Checks
// @Produce json
// @Param id path string true "Check ID"
// @Success 200 {object} check.ServiceCheck "Updated check"
// @Security BearerAuth
// @Router /checks/{id}/reset-failures [post]
func (h *CheckHandler) ResetFailures(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	sc, err := h.service.ResetFailures(r.Context(), act, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to reset check failures")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, sc)
}

// ListFailing returns checks with at least one consecutive failure
// @Summary List failing checks
// @Tags Checks
// @Produce json
// @Success 200 {object} []check.ServiceCheck "Failing checks"
// @Security BearerAuth
// @Router /checks/failing [get]
func (h *CheckHandler) ListFailing(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	checks, err := h.service.ListFailing(r.Context(), act)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to list failing checks")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, checks)
}
