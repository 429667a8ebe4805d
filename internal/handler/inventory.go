package handler

import (
	"encoding/json"
	"net/http"

	"pantryhub-api/internal/service"
	"pantryhub-api/pkg/apierror"
	"pantryhub-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// InventoryHandler handles inventory-related HTTP requests.
type InventoryHandler struct {
	inventoryService *service.InventoryService
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(inventoryService *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
	}
}

// ListItems handles GET /api/v1/items
func (h *InventoryHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventoryService.ListItems(r.Context())
	if err != nil {
		response.Error(w, serviceError(err))
		return
	}
	response.OK(w, items)
}

// GetItem handles GET /api/v1/items/{item_id}
func (h *InventoryHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")

	item, err := h.inventoryService.GetItem(r.Context(), itemID)
	if err != nil {
		response.Error(w, serviceError(err))
		return
	}
	if item == nil {
		response.Error(w, apierror.NotFound("item not found"))
		return
	}
	response.OK(w, item)
}

// CreateItem handles POST /api/v1/items
func (h *InventoryHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var in service.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}

	item, err := h.inventoryService.CreateItem(r.Context(), actorID(r), in)
	if err != nil {
		response.Error(w, serviceError(err))
		return
	}
	response.Created(w, item)
}

// UpdateItem handles PUT /api/v1/items/{item_id}
func (h *InventoryHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")

	var in service.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}

	item, err := h.inventoryService.UpdateItem(r.Context(), itemID, in)
	if err != nil {
		response.Error(w, serviceError(err))
		return
	}
	response.OK(w, item)
}

// DeleteItem handles DELETE /api/v1/items/{item_id}
func (h *InventoryHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")

	if err := h.inventoryService.DeleteItem(r.Context(), itemID); err != nil {
		response.Error(w, serviceError(err))
		return
	}
	response.NoContent(w)
}

// RestockRequest is the body of a restock call.
type RestockRequest struct {
	Quantity float64 `json:"quantity"`
	Cost     float64 `json:"cost"`
}

// Restock handles POST /api/v1/items/{item_id}/restock
func (h *InventoryHandler) Restock(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")

	var req RestockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}

	item, err := h.inventoryService.Restock(r.Context(), itemID, req.Quantity, req.Cost, actorID(r))
	if err != nil {
		response.Error(w, serviceError(err))
		return
	}
	response.OK(w, item)
}

// actorID identifies who performed a mutation, for the ledger.
func actorID(r *http.Request) string {
	if id := r.Header.Get("X-Actor-ID"); id != "" {
		return id
	}
	return "staff"
}
