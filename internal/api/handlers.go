// Package api exposes HTTP handlers for the step tracker.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"example.com/keepfit/internal/domain"
	"example.com/keepfit/internal/prefs"
	"example.com/keepfit/internal/tracker"
	"example.com/keepfit/internal/units"
)

// Handler coordinates HTTP requests with the tracker service.
type Handler struct {
	service *tracker.Service
}

// NewHandler builds a Handler.
func NewHandler(service *tracker.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/goals", h.goals)
	mux.HandleFunc("/v1/goals/active", h.activeGoal)
	mux.HandleFunc("/v1/goals/", h.goalByID)
	mux.HandleFunc("/v1/checkins", h.checkins)
	mux.HandleFunc("/v1/history", h.history)
	mux.HandleFunc("/v1/history/", h.historyByDate)
	mux.HandleFunc("/v1/settings", h.settings)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) goals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createGoal(w, r)
	case http.MethodGet:
		h.listGoals(w, r)
	case http.MethodDelete:
		h.deleteAllGoals(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) goalByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/goals/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing goal id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getGoal(w, r, id)
	case http.MethodPut:
		h.updateGoal(w, r, id)
	case http.MethodDelete:
		h.deleteGoal(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) createGoal(w http.ResponseWriter, r *http.Request) {
	var req GoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	input, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	goal, err := h.service.CreateGoal(r.Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrGoalNameExists) {
			writeError(w, http.StatusConflict, "name_exists", "a goal with that name already exists")
			return
		}
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, toGoalView(goal))
}

func (h *Handler) listGoals(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "true" {
		h.service.RefreshGoals()
	}

	goals, err := h.service.Goals(r.Context())
	if err != nil && !errors.Is(err, domain.ErrNotAvailable) {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]GoalView, 0, len(goals))
	for _, goal := range goals {
		items = append(items, toGoalView(goal))
	}
	writeJSON(w, http.StatusOK, ListGoalsResponse{Items: items})
}

func (h *Handler) getGoal(w http.ResponseWriter, r *http.Request, id string) {
	goal, err := h.service.Goal(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrGoalNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "goal not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toGoalView(goal))
}

func (h *Handler) updateGoal(w http.ResponseWriter, r *http.Request, id string) {
	var req GoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	input, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	goal, err := h.service.UpdateGoal(r.Context(), id, input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrGoalNotFound):
			writeError(w, http.StatusNotFound, "not_found", "goal not found")
		case errors.Is(err, domain.ErrGoalNameExists):
			writeError(w, http.StatusConflict, "name_exists", "a goal with that name already exists")
		default:
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, toGoalView(goal))
}

func (h *Handler) deleteGoal(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.DeleteGoal(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteAllGoals(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteAllGoals(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) activeGoal(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getActiveGoal(w, r)
	case http.MethodPut:
		h.setActiveGoal(w, r)
	case http.MethodDelete:
		h.clearActiveGoal(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) getActiveGoal(w http.ResponseWriter, r *http.Request) {
	id := h.service.Settings().Get().ActiveGoalID
	if id == "" {
		writeError(w, http.StatusNotFound, "not_found", "no goal selected")
		return
	}
	h.getGoal(w, r, id)
}

func (h *Handler) setActiveGoal(w http.ResponseWriter, r *http.Request) {
	var req SetActiveGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if strings.TrimSpace(req.GoalID) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "goal_id is required")
		return
	}

	if err := h.service.SetActiveGoal(r.Context(), req.GoalID); err != nil {
		if errors.Is(err, domain.ErrGoalNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "goal not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearActiveGoal(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SetActiveGoal(r.Context(), ""); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) checkins(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.recordCheckin(w, r)
	case http.MethodGet:
		h.listCheckins(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) recordCheckin(w http.ResponseWriter, r *http.Request) {
	var req CheckinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	input, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	record, achieved, err := h.service.RecordCheckin(r.Context(), input)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, CheckinResponse{
		History:      toHistoryView(record),
		GoalAchieved: achieved,
	})
}

func (h *Handler) listCheckins(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing date parameter")
		return
	}
	date, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid date parameter")
		return
	}

	updates, err := h.service.UpdatesForDate(r.Context(), date)
	if err != nil && !errors.Is(err, domain.ErrNotAvailable) {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]UpdateView, 0, len(updates))
	for _, update := range updates {
		items = append(items, toUpdateView(update))
	}
	writeJSON(w, http.StatusOK, ListCheckinsResponse{Items: items})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listHistory(w, r)
	case http.MethodDelete:
		h.clearHistory(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "true" {
		h.service.RefreshHistory()
	}

	histories, err := h.service.History(r.Context())
	if err != nil && !errors.Is(err, domain.ErrNotAvailable) {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]HistoryView, 0, len(histories))
	for _, record := range histories {
		items = append(items, toHistoryView(record))
	}
	writeJSON(w, http.StatusOK, ListHistoryResponse{Items: items})
}

func (h *Handler) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearHistory(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) historyByDate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/v1/history/")
	date, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid history date")
		return
	}

	record, err := h.service.HistoryForDate(r.Context(), date)
	if err != nil {
		if errors.Is(err, domain.ErrNotAvailable) {
			writeError(w, http.StatusNotFound, "not_found", "no history for that date")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toHistoryView(record))
}

func (h *Handler) settings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, toSettingsView(h.service.Settings().Get()))
	case http.MethodPut:
		h.updateSettings(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	settings, err := req.toSettings()
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	if err := h.service.Settings().Put(r.Context(), settings); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toSettingsView(h.service.Settings().Get()))
}

// GoalRequest is the payload for POST /v1/goals and PUT /v1/goals/{id}.
type GoalRequest struct {
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
	Unit     string  `json:"unit"`
}

func (r GoalRequest) toInput() (tracker.GoalInput, error) {
	unit, err := units.Parse(r.Unit)
	if err != nil {
		return tracker.GoalInput{}, err
	}
	input := tracker.GoalInput{Name: r.Name, Distance: r.Distance, Unit: unit}
	return input, input.Validate()
}

// SetActiveGoalRequest selects the goal new check-ins count towards.
type SetActiveGoalRequest struct {
	GoalID string `json:"goal_id"`
}

// CheckinRequest is the payload for POST /v1/checkins. A missing or zero
// date means today; an omitted time means now.
type CheckinRequest struct {
	Date     int64   `json:"date"`
	Time     *int64  `json:"time"`
	Distance float64 `json:"distance"`
	Unit     string  `json:"unit"`
}

func (r CheckinRequest) toInput() (tracker.CheckinInput, error) {
	unit, err := units.Parse(r.Unit)
	if err != nil {
		return tracker.CheckinInput{}, err
	}
	second := int64(-1)
	if r.Time != nil {
		second = *r.Time
	}
	return tracker.CheckinInput{Date: r.Date, Time: second, Distance: r.Distance, Unit: unit}, nil
}

// SettingsRequest is the payload for PUT /v1/settings.
type SettingsRequest struct {
	StepsPerMetre float64 `json:"steps_per_metre"`
	DateFilter    string  `json:"date_filter"`
	CustomStart   int64   `json:"custom_start"`
	CustomEnd     int64   `json:"custom_end"`
	GoalFilter    string  `json:"goal_filter"`
	GoalProgress  float64 `json:"goal_progress"`
	DisplayUnit   *string `json:"display_unit"`
	ActiveGoalID  string  `json:"active_goal_id"`
}

func (r SettingsRequest) toSettings() (prefs.Settings, error) {
	if r.StepsPerMetre < 0 {
		return prefs.Settings{}, errors.New("steps_per_metre must not be negative")
	}

	dateFilter, err := domain.ParseDateFilter(r.DateFilter)
	if err != nil {
		return prefs.Settings{}, err
	}
	goalFilter, err := domain.ParseGoalFilter(r.GoalFilter)
	if err != nil {
		return prefs.Settings{}, err
	}

	var display *units.Unit
	if r.DisplayUnit != nil {
		unit, parseErr := units.Parse(*r.DisplayUnit)
		if parseErr != nil {
			return prefs.Settings{}, parseErr
		}
		display = &unit
	}

	return prefs.Settings{
		StepsPerMetre:     r.StepsPerMetre,
		DateFilter:        dateFilter,
		CustomStartFilter: r.CustomStart,
		CustomEndFilter:   r.CustomEnd,
		GoalFilter:        goalFilter,
		GoalProgress:      r.GoalProgress,
		DisplayUnit:       display,
		ActiveGoalID:      r.ActiveGoalID,
	}, nil
}

// GoalView exposes one goal.
type GoalView struct {
	GoalID       string  `json:"goal_id"`
	Name         string  `json:"name"`
	Distance     float64 `json:"distance"`
	Unit         string  `json:"unit"`
	LastAchieved int64   `json:"last_achieved"`
}

// ListGoalsResponse packages list results.
type ListGoalsResponse struct {
	Items []GoalView `json:"items"`
}

// UpdateView exposes one check-in.
type UpdateView struct {
	Date     int64   `json:"date"`
	Time     int64   `json:"time"`
	Distance float64 `json:"distance"`
	Unit     string  `json:"unit"`
}

// ListCheckinsResponse packages a day's check-ins.
type ListCheckinsResponse struct {
	Items []UpdateView `json:"items"`
}

// HistoryView exposes one day's aggregated record. Percentage is omitted
// when no goal was assigned for the day.
type HistoryView struct {
	Date       int64        `json:"date"`
	Goal       *GoalView    `json:"goal,omitempty"`
	Distance   float64      `json:"distance"`
	Percentage *float64     `json:"percentage,omitempty"`
	Updates    []UpdateView `json:"updates"`
}

// CheckinResponse reports the updated day and whether this check-in
// completed its goal.
type CheckinResponse struct {
	History      HistoryView `json:"history"`
	GoalAchieved bool        `json:"goal_achieved"`
}

// ListHistoryResponse packages filtered history results.
type ListHistoryResponse struct {
	Items []HistoryView `json:"items"`
}

// SettingsView exposes the stored preferences.
type SettingsView struct {
	StepsPerMetre float64 `json:"steps_per_metre"`
	DateFilter    string  `json:"date_filter"`
	CustomStart   int64   `json:"custom_start"`
	CustomEnd     int64   `json:"custom_end"`
	GoalFilter    string  `json:"goal_filter"`
	GoalProgress  float64 `json:"goal_progress"`
	DisplayUnit   *string `json:"display_unit,omitempty"`
	ActiveGoalID  string  `json:"active_goal_id,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toGoalView(goal domain.Goal) GoalView {
	return GoalView{
		GoalID:       goal.ID,
		Name:         goal.Name,
		Distance:     goal.Distance,
		Unit:         goal.Unit.String(),
		LastAchieved: goal.LastAchieved,
	}
}

func toUpdateView(update domain.Update) UpdateView {
	return UpdateView{
		Date:     update.Date,
		Time:     update.Time,
		Distance: update.Distance,
		Unit:     update.Unit.String(),
	}
}

func toHistoryView(record domain.History) HistoryView {
	view := HistoryView{
		Date:     record.Date,
		Distance: record.Distance,
		Updates:  make([]UpdateView, 0, len(record.Updates)),
	}
	if record.Goal != nil {
		goal := toGoalView(*record.Goal)
		view.Goal = &goal
	}
	if pct := record.Percentage(); pct != domain.UndefinedPercentage {
		view.Percentage = &pct
	}
	for _, update := range record.Updates {
		view.Updates = append(view.Updates, toUpdateView(update))
	}
	return view
}

func toSettingsView(settings prefs.Settings) SettingsView {
	view := SettingsView{
		StepsPerMetre: settings.StepsPerMetre,
		DateFilter:    settings.DateFilter.String(),
		CustomStart:   settings.CustomStartFilter,
		CustomEnd:     settings.CustomEndFilter,
		GoalFilter:    settings.GoalFilter.String(),
		GoalProgress:  settings.GoalProgress,
		ActiveGoalID:  settings.ActiveGoalID,
	}
	if settings.DisplayUnit != nil {
		name := settings.DisplayUnit.String()
		view.DisplayUnit = &name
	}
	return view
}
