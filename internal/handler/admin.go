package handler

import (
	"encoding/json"
	"net/http"

	"pantryhub-api/internal/service"
	"pantryhub-api/pkg/apierror"
	"pantryhub-api/pkg/response"
)

// AdminHandler handles staff-only HTTP requests: direct checkouts and the
// stats dashboard feed.
type AdminHandler struct {
	checkoutService  *service.CheckoutService
	inventoryService *service.InventoryService
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(checkoutService *service.CheckoutService, inventoryService *service.InventoryService) *AdminHandler {
	return &AdminHandler{
		checkoutService:  checkoutService,
		inventoryService: inventoryService,
	}
}

// DirectCheckoutRequest is the body of an admin direct checkout.
type DirectCheckoutRequest struct {
	StudentID string                 `json:"student_id"`
	Items     []service.CheckoutLine `json:"items"`
}

// DirectCheckout handles POST /api/v1/admin/checkout.
// Per-student limits and cooldowns are bypassed; stock sufficiency is not.
func (h *AdminHandler) DirectCheckout(w http.ResponseWriter, r *http.Request) {
	var req DirectCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	if req.StudentID == "" {
		response.Error(w, apierror.BadRequest("student_id is required"))
		return
	}

	result, err := h.checkoutService.AdminCheckout(r.Context(), actorID(r), req.StudentID, req.Items)
	if err != nil {
		response.Error(w, serviceError(err))
		return
	}
	response.OK(w, result)
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.inventoryService.GetStats(r.Context())
	if err != nil {
		response.Error(w, serviceError(err))
		return
	}
	response.OK(w, stats)
}
