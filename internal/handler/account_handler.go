package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/dot-css/Palm-Pay-App/internal/errors"
	"github.com/dot-css/Palm-Pay-App/internal/models"
	"github.com/dot-css/Palm-Pay-App/internal/service"
	u "github.com/dot-css/Palm-Pay-App/internal/utils"
)

type AccountHandler struct {
	accountService service.AccountService
	lookupService  service.LookupService
	logger         *slog.Logger
}

func NewAccountHandler(accountService service.AccountService, lookupService service.LookupService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		lookupService:  lookupService,
		logger:         logger,
	}
}

func (h *AccountHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/accounts/me", h.Me).Methods(http.MethodGet)
	router.HandleFunc("/accounts/search", h.Search).Methods(http.MethodGet)
	router.HandleFunc("/lookup/scan", h.Scan).Methods(http.MethodPost)
	router.HandleFunc("/transactions", h.Transactions).Methods(http.MethodGet)
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, ok := AccountFromContext(r.Context())
	if !ok {
		u.WriteError(w, http.StatusUnauthorized, "not authenticated", "")
		return
	}

	// Re-read so the caller sees the balance as of now, not as of sign-in.
	current, err := h.accountService.GetAccount(r.Context(), account.ID)
	if err != nil {
		h.logger.Error("failed to load account", "account_id", account.ID, "error", err.Error())
		u.WriteError(w, http.StatusInternalServerError, "internal server error", "")
		return
	}

	u.WriteJSON(w, http.StatusOK, models.NewAccountResponse(current))
}

func (h *AccountHandler) Search(w http.ResponseWriter, r *http.Request) {
	if _, ok := AccountFromContext(r.Context()); !ok {
		u.WriteError(w, http.StatusUnauthorized, "not authenticated", "")
		return
	}

	summary, err := h.lookupService.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.handleLookupError(w, err)
		return
	}

	u.WriteJSON(w, http.StatusOK, summary)
}

func (h *AccountHandler) Scan(w http.ResponseWriter, r *http.Request) {
	if _, ok := AccountFromContext(r.Context()); !ok {
		u.WriteError(w, http.StatusUnauthorized, "not authenticated", "")
		return
	}

	var req models.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		u.WriteError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}

	summary, err := h.lookupService.ResolveScan(r.Context(), req.Data)
	if err != nil {
		h.handleLookupError(w, err)
		return
	}

	u.WriteJSON(w, http.StatusOK, summary)
}

func (h *AccountHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	account, ok := AccountFromContext(r.Context())
	if !ok {
		u.WriteError(w, http.StatusUnauthorized, "not authenticated", "")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	legs, err := h.accountService.History(r.Context(), account.ID, limit)
	if err != nil {
		h.logger.Error("failed to list transactions", "account_id", account.ID, "error", err.Error())
		u.WriteError(w, http.StatusInternalServerError, "internal server error", "")
		return
	}

	responses := make([]models.TransactionLegResponse, 0, len(legs))
	for _, leg := range legs {
		responses = append(responses, models.NewTransactionLegResponse(leg))
	}
	u.WriteJSON(w, http.StatusOK, responses)
}

func (h *AccountHandler) handleLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.IsNotFound(err):
		u.WriteError(w, http.StatusNotFound, "account not found", "no account matches that identifier")
	case err == errors.ErrInvalidScanPayload:
		u.WriteError(w, http.StatusBadRequest, "invalid QR payload", "scan a QR code containing an email address")
	case errors.IsValidationError(err):
		u.WriteError(w, http.StatusBadRequest, "validation error", err.Error())
	default:
		h.logger.Error("internal server error during lookup", "error", err.Error())
		u.WriteError(w, http.StatusInternalServerError, "internal server error", "")
	}
}
