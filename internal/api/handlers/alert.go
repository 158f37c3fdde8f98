package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/probegrid/probegrid/internal/api/dto"
	"github.com/probegrid/probegrid/internal/api/middleware"
	"github.com/probegrid/probegrid/internal/domain/alert"
	"github.com/probegrid/probegrid/internal/pkg/errors"
	"github.com/probegrid/probegrid/internal/pkg/logger"
	"github.com/probegrid/probegrid/internal/pkg/utils"
	"github.com/probegrid/probegrid/internal/pkg/validator"
)

type AlertHandler struct {
	service   alert.Service
	logger    *logger.Logger
	validator *validator.Validator
}

func NewAlertHandler(service alert.Service, log *logger.Logger, val *validator.Validator) *AlertHandler {
	return &AlertHandler{service: service, logger: log, validator: val}
}

// List returns alerts with pagination and filtering
// @Summary List alerts
// @Description Get a paginated list of alerts with optional filtering
// @Tags Alerts
// @Produce json
// @Param status query string false "Filter by status"
// @Param severity query string false "Filter by severity"
// @Param source_type query string false "Filter by source type"
// @Param page query int false "Page number (default: 1)"
// @Param page_size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} utils.PaginatedResponse{data=[]alert.Alert} "List of alerts"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /alerts [get]
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)
	p := utils.ParsePaginationParams(r)

	filter := alert.Filter{
		Status:     r.URL.Query().Get("status"),
		Severity:   r.URL.Query().Get("severity"),
		SourceType: r.URL.Query().Get("source_type"),
	}

	alerts, total, err := h.service.List(r.Context(), act, filter, p.PageSize, p.Offset)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to list alerts")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(alerts, p.Page, p.PageSize, total))
}

// Get returns a single alert by ID
// @Summary Get alert by ID
// @Tags Alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} alert.Alert "Alert details"
// @Failure 404 {object} utils.ErrorResponse "Alert not found"
// @Security BearerAuth
// @Router /alerts/{id} [get]
func (h *AlertHandler) Get(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	a, err := h.service.GetByID(r.Context(), act, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to get alert")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, a)
}

// Trigger raises a new alert
// @Summary Trigger alert
// @Description Raise a new alert in pending status
// @Tags Alerts
// @Accept json
// @Produce json
// @Param request body alert.TriggerInput true "Alert details"
// @Success 201 {object} alert.Alert "Alert created"
// @Failure 400 {object} utils.ErrorResponse "Invalid request or validation error"
// @Security BearerAuth
// @Router /alerts [post]
func (h *AlertHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	var input alert.TriggerInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	a, err := h.service.Trigger(r.Context(), act, input)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to trigger alert")
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, a)
}

// Acknowledge marks a pending alert as acknowledged
// @Summary Acknowledge alert
// @Tags Alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} alert.Alert "Acknowledged alert"
// @Failure 409 {object} utils.ErrorResponse "Invalid transition"
// @Security BearerAuth
// @Router /alerts/{id}/acknowledge [post]
func (h *AlertHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	a, err := h.service.Acknowledge(r.Context(), act, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to acknowledge alert")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, a)
}

// Resolve closes an alert with an optional note
// @Summary Resolve alert
// @Tags Alerts
// @Accept json
// @Produce json
// @Param id path string true "Alert ID"
// @Param request body dto.ResolveAlertRequest false "Resolution note"
// @Success 200 {object} alert.Alert "Resolved alert"
// @Failure 409 {object} utils.ErrorResponse "Invalid transition"
// @Security BearerAuth
// @Router /alerts/{id}/resolve [post]
func (h *AlertHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	var req dto.ResolveAlertRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.WriteError(w, errors.BadRequest("Invalid request body"))
			return
		}
	}
	if errs := h.validator.Validate(req); len(errs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", errs))
		return
	}

	a, err := h.service.Resolve(r.Context(), act, chi.URLParam(r, "id"), req.Note)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to resolve alert")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, a)
}

// Escalate raises the alert's escalation level
// @Summary Escalate alert
// @Tags Alerts
// @Accept json
// @Produce json
// @Param id path string true "Alert ID"
// @Param request body dto.EscalateAlertRequest true "Escalation reason"
// @Success 200 {object} alert.Alert "Escalated alert"
// @Failure 409 {object} utils.ErrorResponse "Invalid transition"
// @Security BearerAuth
// @Router /alerts/{id}/escalate [post]
func (h *AlertHandler) Escalate(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	var req dto.EscalateAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if errs := h.validator.Validate(req); len(errs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", errs))
		return
	}

	a, err := h.service.Escalate(r.Context(), act, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to escalate alert")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, a)
}

// Suppress silences an alert until a deadline
// @Summary Suppress alert
// @Tags Alerts
// @Accept json
// @Produce json
// @Param id path string true "Alert ID"
// @Param request body dto.SuppressAlertRequest true "Suppression deadline"
// @Success 200 {object} alert.Alert "Suppressed alert"
// @Failure 409 {object} utils.ErrorResponse "Invalid transition"
// @Security BearerAuth
// @Router /alerts/{id}/suppress [post]
func (h *AlertHandler) Suppress(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	var req dto.SuppressAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if errs := h.validator.Validate(req); len(errs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", errs))
		return
	}

	a, err := h.service.Suppress(r.Context(), act, chi.URLParam(r, "id"), req.Until)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to suppress alert")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, a)
}

// Reopen returns a resolved or suppressed alert to pending
// @Summary Reopen alert
// @Tags Alerts
// @Accept json
// @Produce json
// @Param id path string true "Alert ID"
// @Param request body dto.ReopenAlertRequest false "Reopen reason"
// @Success 200 {object} alert.Alert "Reopened alert"
// @Failure 409 {object} utils.ErrorResponse "Invalid transition"
// @Security BearerAuth
// @Router /alerts/{id}/reopen [post]
func (h *AlertHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	var req dto.ReopenAlertRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.WriteError(w, errors.BadRequest("Invalid request body"))
			return
		}
	}

	a, err := h.service.Reopen(r.Context(), act, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to reopen alert")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, a)
}

// GetSummary returns alert counts by status
// @Summary Get alert summary
// @Tags Alerts
// @Produce json
// @Success 200 {object} map[string]int "Alert counts by status"
// @Security BearerAuth
// @Router /alerts/summary [get]
func (h *AlertHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	summary, err := h.service.GetSummary(r.Context(), act)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to get summary")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, summary)
}

// ListActive returns all non-resolved alerts
// @Summary List active alerts
// @Tags Alerts
// @Produce json
// @Success 200 {object} []alert.Alert "Active alerts"
// @Security BearerAuth
// @Router /alerts/active [get]
func (h *AlertHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	alerts, err := h.service.ListActive(r.Context(), act)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to list active alerts")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, alerts)
}
