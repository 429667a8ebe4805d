package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"pantryhub-api/internal/service"
	"pantryhub-api/pkg/apierror"
	"pantryhub-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// CheckoutHandler handles eligibility and checkout HTTP requests.
type CheckoutHandler struct {
	checkoutService *service.CheckoutService
	eligibility     *service.Eligibility
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(checkoutService *service.CheckoutService, eligibility *service.Eligibility) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		eligibility:     eligibility,
	}
}

// CanTake handles GET /api/v1/eligibility/{student_id}/{item_id}?quantity=N
func (h *CheckoutHandler) CanTake(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "student_id")
	itemID := chi.URLParam(r, "item_id")

	qty, err := strconv.ParseFloat(r.URL.Query().Get("quantity"), 64)
	if err != nil {
		response.Error(w, apierror.BadRequest("quantity must be a number"))
		return
	}

	decision, err := h.eligibility.CanTake(r.Context(), studentID, itemID, qty)
	if err != nil {
		response.Error(w, serviceError(err))
		return
	}
	response.OK(w, decision)
}

// CheckoutRequest is the body of a checkout or order placement.
type CheckoutRequest struct {
	StudentID string                 `json:"student_id"`
	Items     []service.CheckoutLine `json:"items"`
}

// Checkout handles POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCheckoutRequest(w, r)
	if !ok {
		return
	}

	result, err := h.checkoutService.Checkout(r.Context(), req.StudentID, req.Items)
	if err != nil {
		response.Error(w, serviceError(err))
		return
	}
	// Denials are expected outcomes; the result carries every failing line.
	response.OK(w, result)
}

func decodeCheckoutRequest(w http.ResponseWriter, r *http.Request) (*CheckoutRequest, bool) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return nil, false
	}
	if req.StudentID == "" {
		response.Error(w, apierror.BadRequest("student_id is required"))
		return nil, false
	}
	return &req, true
}
