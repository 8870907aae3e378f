package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dot-css/Palm-Pay-App/internal/errors"
	"github.com/dot-css/Palm-Pay-App/internal/models"
	"github.com/dot-css/Palm-Pay-App/internal/service"
	u "github.com/dot-css/Palm-Pay-App/internal/utils"
)

type TransferHandler struct {
	transferService service.TransferService
	logger          *slog.Logger
}

func NewTransferHandler(transferService service.TransferService, logger *slog.Logger) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
		logger:          logger,
	}
}

func (h *TransferHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/transfers", h.CreateTransfer).Methods(http.MethodPost)
}

func (h *TransferHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	sender, ok := AccountFromContext(r.Context())
	if !ok {
		u.WriteError(w, http.StatusUnauthorized, "not authenticated", "")
		return
	}

	var req models.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid create transfer request", "error", err.Error())
		u.WriteError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}

	amount, err := models.ParseAmount(req.Amount)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	result, err := h.transferService.Transfer(r.Context(), sender.ID, req.RecipientID, amount, req.Note)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	u.WriteJSON(w, http.StatusCreated, models.TransferResponse{
		TransferID:       result.TransferID,
		RecipientID:      req.RecipientID,
		Amount:           models.FormatAmount(result.Amount),
		SenderBalance:    models.FormatAmount(result.SenderBalance),
		RecipientBalance: models.FormatAmount(result.RecipientBalance),
		CreatedAt:        result.CreatedAt,
	})
}

func (h *TransferHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.IsNotFound(err):
		u.WriteError(w, http.StatusNotFound, "account not found", err.Error())
	case errors.IsInsufficientBalance(err):
		u.WriteError(w, http.StatusBadRequest, "insufficient balance", "your balance does not cover this transfer")
	case errors.IsValidationError(err):
		u.WriteError(w, http.StatusBadRequest, "validation error", err.Error())
	case err == errors.ErrSelfTransfer:
		u.WriteError(w, http.StatusBadRequest, "self transfer", err.Error())
	case err == errors.ErrInvalidAmount:
		u.WriteError(w, http.StatusBadRequest, "invalid amount", err.Error())
	case err == errors.ErrNoteTooLong:
		u.WriteError(w, http.StatusBadRequest, "note too long", err.Error())
	case errors.IsTransient(err):
		// The balance write may or may not have committed; the client should
		// re-query state before retrying.
		u.WriteError(w, http.StatusServiceUnavailable, "temporary failure", "could not complete the transfer, please try again")
	default:
		h.logger.Error("internal server error during transfer", "error", err.Error())
		u.WriteError(w, http.StatusInternalServerError, "internal server error", "")
	}
}
