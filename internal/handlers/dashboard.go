package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/Djimarr/projek-maintenance/internal/attachment"
	"github.com/Djimarr/projek-maintenance/internal/db"
	"github.com/Djimarr/projek-maintenance/internal/models"
	"github.com/Djimarr/projek-maintenance/internal/notify"
	log "github.com/sirupsen/logrus"
)

// Store is the persistence behind the dashboard.
type Store interface {
	db.DashboardStore
	db.TicketStore
	GetSession(ctx context.Context, id int64) (*models.Session, error)
}

// Catalog is the read side of the checklist catalog.
type Catalog interface {
	ListEquipment(ctx context.Context) ([]models.Equipment, error)
	ListPoints(ctx context.Context, equipmentID int64) ([]models.ChecklistPoint, error)
}

// Exporter renders session reports.
type Exporter interface {
	Export(ctx context.Context, sessionID int64) (string, error)
}

// DashboardHandler serves the supervisor JSON API.
type DashboardHandler struct {
	store    Store
	catalog  Catalog
	exporter Exporter
	photos   attachment.Store
	notifier notify.Notifier
	log      *log.Entry
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(store Store, catalog Catalog, exporter Exporter, photos attachment.Store, notifier notify.Notifier) *DashboardHandler {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &DashboardHandler{
		store:    store,
		catalog:  catalog,
		exporter: exporter,
		photos:   photos,
		notifier: notifier,
		log:      log.WithField("component", "dashboard"),
	}
}

// Register mounts the dashboard routes on mux.
func (h *DashboardHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /api/equipment", h.ListEquipment)
	mux.HandleFunc("GET /api/equipment/{id}/points", h.ListPoints)
	mux.HandleFunc("GET /api/sessions", h.ListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", h.GetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.DeleteSession)
	mux.HandleFunc("GET /api/sessions/{id}/report", h.Report)
	mux.HandleFunc("PATCH /api/sessions/{id}/records/{pointID}/ticket", h.UpdateRecordTicket)
	mux.HandleFunc("GET /api/logbook", h.Logbook)
	mux.HandleFunc("GET /api/issues", h.Issues)
	mux.HandleFunc("GET /api/tickets", h.ListTickets)
	mux.HandleFunc("PATCH /api/tickets/{id}", h.UpdateTicket)
	mux.HandleFunc("GET /uploads/{file}", h.Upload)
}

// Health reports liveness
func (h *DashboardHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListEquipment lists configured equipment
func (h *DashboardHandler) ListEquipment(w http.ResponseWriter, r *http.Request) {
	equipment, err := h.catalog.ListEquipment(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, equipment)
}

// ListPoints lists the checklist of one equipment
func (h *DashboardHandler) ListPoints(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	points, err := h.catalog.ListPoints(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// ListSessions lists sessions, optionally filtered by kind and status
func (h *DashboardHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	filter := models.SessionFilter{
		Kind:   models.SessionKind(r.URL.Query().Get("kind")),
		Status: models.SessionStatus(r.URL.Query().Get("status")),
	}
	if filter.Kind != "" && filter.Kind != models.KindMaintenance && filter.Kind != models.KindLogbook {
		http.Error(w, "Invalid kind", http.StatusBadRequest)
		return
	}
	if filter.Status != "" && filter.Status != models.SessionInProgress && filter.Status != models.SessionCompleted {
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}
	sessions, err := h.store.ListSessions(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// GetSession returns a session with its records ordered by point
func (h *DashboardHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.store.SessionDetail(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// DeleteSession removes a session and its records
func (h *DashboardHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteSession(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	h.log.WithField("session_id", id).Info("Session deleted")
	w.WriteHeader(http.StatusNoContent)
}

// Report renders and serves the PDF report of a session
func (h *DashboardHandler) Report(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	path, err := h.exporter.Export(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

// Logbook lists logbook days, newest first
func (h *DashboardHandler) Logbook(w http.ResponseWriter, r *http.Request) {
	days, err := h.store.ListLogbook(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

// Issues lists every NOK record
func (h *DashboardHandler) Issues(w http.ResponseWriter, r *http.Request) {
	issues, err := h.store.ListIssues(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issues)
}

// UpdateRecordTicket changes the ticket status of a NOK record and notifies
// the session's first technician.
func (h *DashboardHandler) UpdateRecordTicket(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	pointID, ok := pathID(w, r, "pointID")
	if !ok {
		return
	}
	update, ok := decodeUpdate(w, r)
	if !ok {
		return
	}
	record, err := h.store.UpdateRecordTicket(r.Context(), sessionID, pointID, update)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if session, err := h.store.GetSession(r.Context(), sessionID); err == nil {
		h.notifier.Notify(r.Context(), session.Technician1,
			fmt.Sprintf("Issue on session #%d point #%d is now %s", sessionID, pointID, record.TicketStatus))
	} else {
		h.log.WithError(err).WithField("session_id", sessionID).Warn("No recipient for record ticket notification")
	}
	writeJSON(w, http.StatusOK, record)
}

// ListTickets lists support tickets
func (h *DashboardHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.store.ListTickets(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

// UpdateTicket moves a support ticket forward and notifies its reporter
func (h *DashboardHandler) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	update, ok := decodeUpdate(w, r)
	if !ok {
		return
	}
	ticket, err := h.store.UpdateTicket(r.Context(), id, update)
	if err != nil {
		h.writeError(w, err)
		return
	}
	text := fmt.Sprintf("Your ticket #%d is now %s", ticket.ID, ticket.Status)
	if ticket.TechnicianNote != "" {
		text += "\nNote: " + ticket.TechnicianNote
	}
	h.notifier.Notify(r.Context(), strconv.FormatInt(ticket.ReporterChatID, 10), text)
	writeJSON(w, http.StatusOK, ticket)
}

// Upload serves a stored photo
func (h *DashboardHandler) Upload(w http.ResponseWriter, r *http.Request) {
	data, err := h.photos.Get(r.Context(), r.PathValue("file"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	_, _ = w.Write(data)
}

func (h *DashboardHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound),
		errors.Is(err, db.ErrSessionNotFound),
		errors.Is(err, db.ErrRecordNotFound),
		errors.Is(err, db.ErrTicketNotFound),
		errors.Is(err, attachment.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, models.ErrInvalidTransition):
		http.Error(w, "Invalid status transition", http.StatusConflict)
	case errors.Is(err, db.ErrSessionInProgress):
		http.Error(w, "Session is still in progress", http.StatusConflict)
	default:
		h.log.WithError(err).Error("Request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func decodeUpdate(w http.ResponseWriter, r *http.Request) (models.TicketUpdate, bool) {
	var update models.TicketUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return update, false
	}
	if !models.IsValidTicketStatus(update.Status) {
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return update, false
	}
	return update, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
