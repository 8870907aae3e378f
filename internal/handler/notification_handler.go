package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/dot-css/Palm-Pay-App/internal/errors"
	"github.com/dot-css/Palm-Pay-App/internal/models"
	"github.com/dot-css/Palm-Pay-App/internal/service"
	u "github.com/dot-css/Palm-Pay-App/internal/utils"
)

type NotificationHandler struct {
	notificationService service.NotificationService
	logger              *slog.Logger
}

func NewNotificationHandler(notificationService service.NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

func (h *NotificationHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/notifications", h.List).Methods(http.MethodGet)
	router.HandleFunc("/notifications/{id}/read", h.MarkRead).Methods(http.MethodPost)
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	account, ok := AccountFromContext(r.Context())
	if !ok {
		u.WriteError(w, http.StatusUnauthorized, "not authenticated", "")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	notifications, err := h.notificationService.List(r.Context(), account.ID, limit)
	if err != nil {
		h.logger.Error("failed to list notifications", "account_id", account.ID, "error", err.Error())
		u.WriteError(w, http.StatusInternalServerError, "internal server error", "")
		return
	}

	responses := make([]models.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responses = append(responses, models.NewNotificationResponse(n))
	}
	u.WriteJSON(w, http.StatusOK, responses)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	account, ok := AccountFromContext(r.Context())
	if !ok {
		u.WriteError(w, http.StatusUnauthorized, "not authenticated", "")
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.notificationService.MarkRead(r.Context(), account.ID, id); err != nil {
		if err == errors.ErrNotificationNotFound {
			u.WriteError(w, http.StatusNotFound, "notification not found", "")
			return
		}
		h.logger.Error("failed to mark notification read", "account_id", account.ID, "error", err.Error())
		u.WriteError(w, http.StatusInternalServerError, "internal server error", "")
		return
	}

	u.WriteJSON(w, http.StatusNoContent, nil)
}
