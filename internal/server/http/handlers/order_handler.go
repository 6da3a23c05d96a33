package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/atelier/internal/domain/model"
	"github.com/polkiloo/atelier/internal/server/http/dto"
	"github.com/polkiloo/atelier/internal/usecase"
)

// OrderHandler manages order endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	items := make([]model.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, model.LineItem{
			ItemID:    it.ItemID,
			Title:     it.Title,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	payment := usecase.PaymentConfirmed{
		Reference: req.PaymentReference,
		HolderID:  req.HolderID,
		SessionID: req.SessionID,
		Contact: model.Contact{
			Name:  req.Contact.Name,
			Email: req.Contact.Email,
			Phone: req.Contact.Phone,
		},
		ShippingAddress: model.Address(req.ShippingAddress),
		Items:           items,
		Subtotal:        req.Subtotal,
		ShippingCost:    req.ShippingCost,
		Tax:             req.Tax,
		Total:           req.Total,
	}

	order, err := h.facade.CreateOrder(c.Request.Context(), payment, CurrentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(*order))
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := h.facade.Order(c.Request.Context(), id, CurrentViewer(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}

// History handles GET /api/orders/:id/history.
func (h *OrderHandler) History(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	entries, err := h.facade.OrderHistory(c.Request.Context(), id, CurrentViewer(c))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]dto.HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		entry := dto.HistoryEntryResponse{
			To:        string(e.StatusTo),
			ChangedBy: e.ChangedBy,
			Note:      e.Note,
			CreatedAt: e.CreatedAt,
		}
		if e.StatusFrom != nil {
			from := string(*e.StatusFrom)
			entry.From = &from
		}
		resp = append(resp, entry)
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateStatus handles PUT /api/orders/:id/status.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.StatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.facade.UpdateOrderStatus(c.Request.Context(), id, usecase.StatusUpdate{
		To:             model.OrderStatus(req.Status),
		ChangedBy:      CurrentActor(c),
		Note:           req.Note,
		Carrier:        req.Carrier,
		TrackingNumber: req.TrackingNumber,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}

// Cancel handles POST /api/orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.CancelRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	order, err := h.facade.CancelOrder(c.Request.Context(), id, req.Reason, CurrentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}

// MarkPaid handles POST /api/orders/:id/mark-paid.
func (h *OrderHandler) MarkPaid(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.MarkPaidRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.facade.MarkOrderPaid(c.Request.Context(), id, req.PaymentReference, CurrentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}

func toOrderResponse(o model.Order) dto.OrderResponse {
	items := make([]dto.LineItemPayload, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, dto.LineItemPayload{
			ItemID:    it.ItemID,
			Title:     it.Title,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	return dto.OrderResponse{
		ID:               o.ID,
		Number:           o.Number,
		Status:           string(o.Status),
		PaymentReference: o.PaymentReference,
		Contact: dto.ContactPayload{
			Name:  o.Contact.Name,
			Email: o.Contact.Email,
			Phone: o.Contact.Phone,
		},
		ShippingAddress: dto.AddressPayload(o.ShippingAddress),
		Items:           items,
		Subtotal:        o.Subtotal,
		ShippingCost:    o.ShippingCost,
		Tax:             o.Tax,
		Total:           o.Total,
		Carrier:         o.Carrier,
		TrackingNumber:  o.TrackingNumber,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		PaidAt:          o.PaidAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
	}
}
