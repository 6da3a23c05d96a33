package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/atelier/internal/domain/model"
	"github.com/polkiloo/atelier/internal/server/http/dto"
)

// ItemHandler receives catalog sale-state notifications.
type ItemHandler struct {
	facade ItemFacade
}

// NewItemHandler constructs ItemHandler.
func NewItemHandler(facade ItemFacade) *ItemHandler {
	return &ItemHandler{facade: facade}
}

// SaleStateChanged handles POST /api/items/:id/sale-state.
func (h *ItemHandler) SaleStateChanged(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.SaleStateRequest
	if !bindJSON(c, &req) {
		return
	}

	orders, err := h.facade.ItemSaleStateChanged(c.Request.Context(), id, model.SaleState(req.SaleState), CurrentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	resp := dto.SyncResponse{Orders: make([]dto.OrderResponse, 0, len(orders))}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, toOrderResponse(o))
	}
	c.JSON(http.StatusOK, resp)
}
