package http

import (
	"net/http"
	"strconv"

	"bridgesync/internal/domain/account"
	"bridgesync/internal/domain/bridge"
	"bridgesync/internal/domain/item"
	"bridgesync/internal/domain/transaction"
	"bridgesync/internal/shared/apperr"
	"bridgesync/internal/shared/middleware"
)

// DataHandler serves sync triggers and reads of synced data.
type DataHandler struct {
	sync         *bridge.SyncService
	items        *item.Service
	selection    *account.SelectionService
	transactions *transaction.Service
}

func NewDataHandler(sync *bridge.SyncService, items *item.Service, selection *account.SelectionService, transactions *transaction.Service) *DataHandler {
	return &DataHandler{
		sync:         sync,
		items:        items,
		selection:    selection,
		transactions: transactions,
	}
}

// HandleSyncUser runs the composite sync. A partial failure still returns the
// per-part results, with the mapped status of the first failure.
func (h *DataHandler) HandleSyncUser(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.AccessToken(r.Context())

	result, err := h.sync.SyncUserData(r.Context(), r.PathValue("userUuid"), token)
	if err != nil {
		status, _ := statusFor(err)
		writeJSON(w, status, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *DataHandler) HandleSyncItems(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.AccessToken(r.Context())

	result, err := h.sync.SyncItems(r.Context(), r.PathValue("userUuid"), token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *DataHandler) HandleSyncAccounts(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.AccessToken(r.Context())

	result, err := h.sync.SyncAccounts(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleSyncTransactions forwards ?since= to the provider unchanged.
func (h *DataHandler) HandleSyncTransactions(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.AccessToken(r.Context())

	result, err := h.sync.SyncTransactions(r.Context(), token, r.URL.Query().Get("since"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *DataHandler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.ListByUser(r.Context(), r.PathValue("userUuid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []*item.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *DataHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathInt64(r, "itemId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	accounts, err := h.selection.ListAvailable(r.Context(), itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponses(accounts))
}

func (h *DataHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathInt64(r, "accountId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	txs, err := h.transactions.ListByAccount(r.Context(), accountID, r.URL.Query().Get("since"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponses(txs))
}

func pathInt64(r *http.Request, name string) (int64, error) {
	return parseID(name, r.PathValue(name))
}

func queryInt64(r *http.Request, name string) (int64, error) {
	return parseID(name, r.URL.Query().Get(name))
}

func parseID(name, raw string) (int64, error) {
	if raw == "" {
		return 0, apperr.Wrap(apperr.ErrValidation, name+" is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrValidation, name+" must be an integer")
	}
	return id, nil
}
