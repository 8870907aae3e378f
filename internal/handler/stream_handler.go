package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dot-css/Palm-Pay-App/internal/events"
	u "github.com/dot-css/Palm-Pay-App/internal/utils"
)

// StreamHandler serves the realtime change feed as server-sent events, one
// stream per authenticated account. The subscription handle is owned by the
// request and torn down when the client disconnects.
type StreamHandler struct {
	dispatcher *events.Dispatcher
	logger     *slog.Logger
}

func NewStreamHandler(dispatcher *events.Dispatcher, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (h *StreamHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/events", h.Stream).Methods(http.MethodGet)
}

func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	account, ok := AccountFromContext(r.Context())
	if !ok {
		u.WriteError(w, http.StatusUnauthorized, "not authenticated", "")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		u.WriteError(w, http.StatusInternalServerError, "streaming unsupported", "")
		return
	}

	sub := h.dispatcher.Subscribe(account.ID)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.logger.Info("event stream opened", "account_id", account.ID)
	defer h.logger.Info("event stream closed", "account_id", account.ID)

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error("failed to marshal event", "error", err.Error())
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, payload)
			flusher.Flush()
		}
	}
}
