package http

import (
	"net/http"

	"bridgesync/internal/domain/account"
)

type SelectionHandler struct {
	selection *account.SelectionService
}

func NewSelectionHandler(selection *account.SelectionService) *SelectionHandler {
	return &SelectionHandler{selection: selection}
}

// HandleSelect marks an account as its item's selected account.
// Expects ?itemId=; a different existing selection yields 409.
func (h *SelectionHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathInt64(r, "accountId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	itemID, err := queryInt64(r, "itemId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	acc, err := h.selection.Select(r.Context(), accountID, itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(acc))
}

func (h *SelectionHandler) HandleDeselect(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathInt64(r, "accountId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.selection.Deselect(r.Context(), accountID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SelectionHandler) HandleGetSelected(w http.ResponseWriter, r *http.Request) {
	itemID, err := queryInt64(r, "itemId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	acc, err := h.selection.GetSelected(r.Context(), itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(acc))
}

func (h *SelectionHandler) HandleListAvailable(w http.ResponseWriter, r *http.Request) {
	itemID, err := queryInt64(r, "itemId")
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

func (h *SelectionHandler) HandleHasSelected(w http.ResponseWriter, r *http.Request) {
	itemID, err := queryInt64(r, "itemId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	has, err := h.selection.HasSelected(r.Context(), itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"hasSelected": has})
}
