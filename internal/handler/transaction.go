package handler

import (
	"net/http"
	"strconv"
	"time"

	"pantryhub-api/internal/model"
	"pantryhub-api/internal/repository"
	"pantryhub-api/pkg/apierror"
	"pantryhub-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// TransactionHandler serves the ledger and checkout history to the reporting
// layer. Both are append-only; there are no write endpoints here.
type TransactionHandler struct {
	store repository.Store
}

// NewTransactionHandler creates a new transaction handler.
func NewTransactionHandler(store repository.Store) *TransactionHandler {
	return &TransactionHandler{store: store}
}

// ListTransactions handles GET /api/v1/transactions?type=out&item_id=&since=&limit=
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter model.TransactionFilter

	if s := q.Get("type"); s != "" {
		t, err := model.ParseTransactionType(s)
		if err != nil {
			response.Error(w, apierror.BadRequest(err.Error()))
			return
		}
		filter.Type = t
	}
	filter.ItemID = q.Get("item_id")
	if s := q.Get("since"); s != "" {
		since, err := time.Parse(time.RFC3339, s)
		if err != nil {
			response.Error(w, apierror.BadRequest("since must be RFC3339"))
			return
		}
		filter.Since = since
	}
	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			response.Error(w, apierror.BadRequest("limit must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}

	recs, err := h.store.ListTransactions(r.Context(), filter)
	if err != nil {
		response.Error(w, serviceError(err))
		return
	}
	response.OK(w, recs)
}

// StudentCheckouts handles GET /api/v1/checkouts/{student_id}?limit=
func (h *TransactionHandler) StudentCheckouts(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "student_id")

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			response.Error(w, apierror.BadRequest("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	recs, err := h.store.RecentCheckouts(r.Context(), studentID, limit)
	if err != nil {
		response.Error(w, serviceError(err))
		return
	}
	response.OK(w, recs)
}
