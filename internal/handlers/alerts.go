package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"github.com/fleetops/fleetops/internal/api"
	"github.com/fleetops/fleetops/internal/database"
	"github.com/fleetops/fleetops/internal/middleware"
	"github.com/fleetops/fleetops/internal/notify"
	"github.com/fleetops/fleetops/internal/services"
)

// AlertHandler serves the operator alert API and the live alert feed
type AlertHandler struct {
	db       *gorm.DB
	alerts   *services.AlertService
	stats    *services.StatsService
	hub      *notify.Hub
	upgrader websocket.Upgrader
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(db *gorm.DB, hub *notify.Hub) *AlertHandler {
	return &AlertHandler{
		db:     db,
		alerts: services.NewAlertService(db),
		stats:  services.NewStatsService(db),
		hub:    hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // dashboard origin is enforced by the CORS layer
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// SetupRoutes sets up alert API routes
func (h *AlertHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/alerts", h.handleListAlerts)
	mux.HandleFunc("GET /api/alerts/stats", h.handleStats)
	mux.HandleFunc("GET /api/alerts/{id}", h.handleGetAlert)
	mux.HandleFunc("POST /api/alerts/{id}/resolve", h.handleResolve)
	mux.HandleFunc("POST /api/alerts/{id}/dismiss", h.handleDismiss)
	mux.HandleFunc("POST /api/alerts/{id}/acknowledge", h.handleAcknowledge)
	mux.HandleFunc("POST /api/alerts/{id}/read", h.handleMarkRead)
	mux.HandleFunc("GET /api/settings/channels", h.handleGetChannelSettings)
	mux.HandleFunc("PUT /api/settings/channels", h.handleUpdateChannelSettings)
	mux.HandleFunc("/ws/alerts", h.handleAlertFeed)
}

// handleListAlerts handles GET /api/alerts
func (h *AlertHandler) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	p := api.ParsePagination(r)
	q := r.URL.Query()

	filters := database.AlertFilters{
		Status:     database.AlertStatus(q.Get("status")),
		Severity:   database.AlertSeverity(q.Get("severity")),
		SourceType: database.AlertSourceType(q.Get("source_type")),
		UnreadOnly: q.Get("unread") == "true",
		OpenOnly:   q.Get("open") == "true",
		Limit:      p.PerPage,
		Offset:     p.Offset(),
	}

	alerts, total, err := h.alerts.ListAlerts(filters)
	if err != nil {
		log.Printf("AlertHandler: failed to list alerts: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to list alerts")
		return
	}

	api.RespondList(w, alerts, total, p)
}

// handleStats handles GET /api/alerts/stats
func (h *AlertHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	api.RespondJSON(w, http.StatusOK, h.stats.Overview())
}

// handleGetAlert handles GET /api/alerts/{id}
func (h *AlertHandler) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	alert, err := h.alerts.GetAlert(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.RespondError(w, http.StatusNotFound, "Alert not found")
			return
		}
		log.Printf("AlertHandler: failed to get alert %d: %v", id, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to get alert")
		return
	}

	api.RespondJSON(w, http.StatusOK, alert)
}

// handleResolve handles POST /api/alerts/{id}/resolve
func (h *AlertHandler) handleResolve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "resolve", h.alerts.ResolveAlert)
}

// handleDismiss handles POST /api/alerts/{id}/dismiss
func (h *AlertHandler) handleDismiss(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "dismiss", h.alerts.DismissAlert)
}

// handleAcknowledge handles POST /api/alerts/{id}/acknowledge
func (h *AlertHandler) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "acknowledge", h.alerts.AcknowledgeAlert)
}

// handleMarkRead handles POST /api/alerts/{id}/read
func (h *AlertHandler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.alerts.MarkAlertRead(id); err != nil {
		log.Printf("AlertHandler: failed to mark alert %d read: %v", id, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to mark alert read")
		return
	}

	api.RespondNoContent(w)
}

func (h *AlertHandler) transition(w http.ResponseWriter, r *http.Request, action string, fn func(id uint, actor string) error) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	actor := middleware.GetUserFromContext(r.Context())
	if actor == "" {
		actor = "operator"
	}

	if err := fn(id, actor); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.RespondError(w, http.StatusNotFound, "Alert not found")
			return
		}
		log.Printf("AlertHandler: failed to %s alert %d: %v", action, id, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to "+action+" alert")
		return
	}

	alert, err := h.alerts.GetAlert(id)
	if err != nil {
		api.RespondNoContent(w)
		return
	}
	api.RespondJSON(w, http.StatusOK, alert)
}

func (h *AlertHandler) parseID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	idStr := r.PathValue("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		api.RespondError(w, http.StatusBadRequest, "Invalid alert ID")
		return 0, false
	}
	return uint(id), true
}

// handleGetChannelSettings handles GET /api/settings/channels
func (h *AlertHandler) handleGetChannelSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := database.GetOrCreateChannelSettings(h.db)
	if err != nil {
		log.Printf("AlertHandler: failed to load channel settings: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to load channel settings")
		return
	}
	api.RespondJSON(w, http.StatusOK, settings)
}

// handleUpdateChannelSettings handles PUT /api/settings/channels
func (h *AlertHandler) handleUpdateChannelSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := database.GetOrCreateChannelSettings(h.db)
	if err != nil {
		log.Printf("AlertHandler: failed to load channel settings: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to load channel settings")
		return
	}

	if err := api.DecodeJSON(r, settings); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := database.UpdateChannelSettings(h.db, settings); err != nil {
		log.Printf("AlertHandler: failed to update channel settings: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to update channel settings")
		return
	}

	api.RespondJSON(w, http.StatusOK, settings)
}

// handleAlertFeed handles GET /ws/alerts, upgrading to a websocket that
// receives every alert the push channel broadcasts
func (h *AlertHandler) handleAlertFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("AlertHandler: failed to upgrade websocket: %v", err)
		return
	}

	log.Printf("AlertHandler: dashboard client connected from %s", r.RemoteAddr)
	notify.NewHubClient(h.hub, conn)
}
