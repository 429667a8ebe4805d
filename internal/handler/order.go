package handler

import (
	"net/http"

	"pantryhub-api/internal/model"
	"pantryhub-api/internal/repository"
	"pantryhub-api/internal/service"
	"pantryhub-api/pkg/apierror"
	"pantryhub-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// OrderHandler handles order lifecycle HTTP requests.
type OrderHandler struct {
	checkoutService *service.CheckoutService
	store           repository.Store
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(checkoutService *service.CheckoutService, store repository.Store) *OrderHandler {
	return &OrderHandler{
		checkoutService: checkoutService,
		store:           store,
	}
}

// PlaceOrder handles POST /api/v1/orders
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCheckoutRequest(w, r)
	if !ok {
		return
	}

	result, err := h.checkoutService.PlaceOrder(r.Context(), req.StudentID, req.Items)
	if err != nil {
		response.Error(w, serviceError(err))
		return
	}
	if !result.Success {
		response.OK(w, result)
		return
	}
	response.Created(w, result)
}

// ListOrders handles GET /api/v1/orders?status=pending
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var status model.OrderStatus
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, err := model.ParseOrderStatus(s)
		if err != nil {
			response.Error(w, apierror.BadRequest(err.Error()))
			return
		}
		status = parsed
	}

	orders, err := h.store.ListOrders(r.Context(), status)
	if err != nil {
		response.Error(w, serviceError(err))
		return
	}
	response.OK(w, orders)
}

// GetOrder handles GET /api/v1/orders/{order_id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		response.Error(w, serviceError(err))
		return
	}
	if order == nil {
		response.Error(w, apierror.NotFound("order not found"))
		return
	}
	response.OK(w, order)
}

// FulfillOrder handles POST /api/v1/orders/{order_id}/fulfill
func (h *OrderHandler) FulfillOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	order, err := h.checkoutService.FulfillOrder(r.Context(), orderID, actorID(r))
	if err != nil {
		response.Error(w, serviceError(err))
		return
	}
	response.OK(w, order)
}

// CancelOrder handles POST /api/v1/orders/{order_id}/cancel
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	order, err := h.checkoutService.CancelOrder(r.Context(), orderID, actorID(r))
	if err != nil {
		response.Error(w, serviceError(err))
		return
	}
	response.OK(w, order)
}
