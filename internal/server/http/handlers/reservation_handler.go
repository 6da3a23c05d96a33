package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/atelier/internal/domain/model"
	"github.com/polkiloo/atelier/internal/server/http/dto"
)

// ReservationHandler manages cart hold endpoints.
type ReservationHandler struct {
	facade ReservationFacade
}

// NewReservationHandler constructs ReservationHandler.
func NewReservationHandler(facade ReservationFacade) *ReservationHandler {
	return &ReservationHandler{facade: facade}
}

func toHoldResponse(r model.Reservation) dto.HoldResponse {
	return dto.HoldResponse{ItemID: r.ItemID, CreatedAt: r.CreatedAt, ExpiresAt: r.ExpiresAt}
}

// Hold handles POST /api/reservations/hold.
func (h *ReservationHandler) Hold(c *gin.Context) {
	var req dto.HoldRequest
	if !bindJSON(c, &req) {
		return
	}
	ttl := time.Duration(req.TTLSeconds) * time.Second

	res, err := h.facade.HoldItem(c.Request.Context(), req.ItemID, CurrentIdentity(c), ttl)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toHoldResponse(*res))
}

// Release handles DELETE /api/reservations/hold. The item may be given as ?item_id= or in the body.
func (h *ReservationHandler) Release(c *gin.Context) {
	var req dto.ItemRequest
	if raw := c.Query("item_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid item_id"})
			return
		}
		req.ItemID = id
	} else if !bindJSON(c, &req) {
		return
	}
	if err := h.facade.ReleaseHold(c.Request.Context(), req.ItemID, CurrentIdentity(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ValidateItem handles POST /api/reservations/validate-item.
func (h *ReservationHandler) ValidateItem(c *gin.Context) {
	var req dto.ItemRequest
	if !bindJSON(c, &req) {
		return
	}
	availability, err := h.facade.CheckAvailability(c.Request.Context(), req.ItemID, CurrentIdentity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AvailabilityResponse{
		ItemID:       req.ItemID,
		Availability: string(availability),
		Available:    availability.AvailableToCaller(),
	})
}

// ValidateCart handles POST /api/reservations/validate-cart.
func (h *ReservationHandler) ValidateCart(c *gin.Context) {
	var req dto.CartRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.facade.ValidateCart(c.Request.Context(), req.ItemIDs, CurrentIdentity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CartResponse{ItemIDs: result.ItemIDs, ExpiresAt: result.ExpiresAt})
}

// MyHolds handles GET /api/reservations/my-holds.
func (h *ReservationHandler) MyHolds(c *gin.Context) {
	holds, err := h.facade.MyHolds(c.Request.Context(), CurrentIdentity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]dto.HoldResponse, 0, len(holds))
	for _, r := range holds {
		resp = append(resp, toHoldResponse(r))
	}
	c.JSON(http.StatusOK, resp)
}

// ReleaseAll handles DELETE /api/reservations/release-all.
func (h *ReservationHandler) ReleaseAll(c *gin.Context) {
	removed, err := h.facade.ReleaseAll(c.Request.Context(), CurrentIdentity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CountResponse{Count: removed})
}

// CleanupExpired handles POST /api/reservations/cleanup-expired.
func (h *ReservationHandler) CleanupExpired(c *gin.Context) {
	removed, err := h.facade.SweepExpired(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CountResponse{Count: removed})
}
