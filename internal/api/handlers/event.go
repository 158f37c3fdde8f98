package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/probegrid/probegrid/internal/api/middleware"
	"github.com/probegrid/probegrid/internal/domain/event"
	"github.com/probegrid/probegrid/internal/pkg/errors"
	"github.com/probegrid/probegrid/internal/pkg/logger"
	"github.com/probegrid/probegrid/internal/pkg/utils"
	"github.com/probegrid/probegrid/internal/pkg/validator"
)

type EventHandler struct {
	service   event.Service
	logger    *logger.Logger
	validator *validator.Validator
}

func NewEventHandler(service event.Service, log *logger.Logger, val *validator.Validator) *EventHandler {
	return &EventHandler{service: service, logger: log, validator: val}
}

// List returns events with filtering and pagination, newest first
// @Summary List events
// @Tags Events
// @Produce json
// @Param category query string false "Filter by category"
// @Param min_severity query int false "Minimum severity (0-4)"
// @Param event_type query string false "Filter by event type"
// @Param device_uid query string false "Filter by device"
// @Param agent_uid query string false "Filter by agent"
// @Param since query string false "RFC3339 lower bound"
// @Param until query string false "RFC3339 upper bound"
// @Param page query int false "Page number (default: 1)"
// @Param page_size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} utils.PaginatedResponse{data=[]event.Event} "List of events"
// @Security BearerAuth
// @Router /events [get]
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)
	p := utils.ParsePaginationParams(r)

	filter := event.Filter{
		Category:  r.URL.Query().Get("category"),
		EventType: r.URL.Query().Get("event_type"),
		DeviceUID: r.URL.Query().Get("device_uid"),
		AgentUID:  r.URL.Query().Get("agent_uid"),
	}
	if v := r.URL.Query().Get("min_severity"); v != "" {
		if sev, err := strconv.Atoi(v); err == nil {
			filter.MinSeverity = &sev
		}
	}
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			utils.WriteError(w, errors.BadRequest("Invalid since timestamp"))
			return
		}
		filter.Since = &t
	}
	if v := r.URL.Query().Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			utils.WriteError(w, errors.BadRequest("Invalid until timestamp"))
			return
		}
		filter.Until = &t
	}

	events, total, err := h.service.List(r.Context(), act, filter, p.PageSize, p.Offset)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to list events")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(events, p.Page, p.PageSize, total))
}

// Get returns a single event by ID
// @Summary Get event by ID
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} event.Event "Event details"
// @Failure 404 {object} utils.ErrorResponse "Event not found"
// @Security BearerAuth
// @Router /events/{id} [get]
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	e, err := h.service.GetByID(r.Context(), act, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to get event")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, e)
}

// Record appends a new event
// @Summary Record event
// @Description Append an event to the log. Events are immutable once written.
// @Tags Events
// @Accept json
// @Produce json
// @Param request body event.RecordInput true "Event details"
// @Success 201 {object} event.Event "Event recorded"
// @Failure 400 {object} utils.ErrorResponse "Invalid request or validation error"
// @Security BearerAuth
// @Router /events [post]
func (h *EventHandler) Record(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)

	var input event.RecordInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	e, err := h.service.Record(r.Context(), act, input)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to record event")
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, e)
}

// ListRecent returns events from the last hour
// @Summary List recent events
// @Tags Events
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param page_size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} utils.PaginatedResponse{data=[]event.Event} "Recent events"
// @Security BearerAuth
// @Router /events/recent [get]
func (h *EventHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	act, _ := middleware.GetActor(r)
	p := utils.ParsePaginationParams(r)

	events, total, err := h.service.ListRecent(r.Context(), act, p.PageSize, p.Offset)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to list recent events")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(events, p.Page, p.PageSize, total))
}
