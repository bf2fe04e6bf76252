// server/internal/api/handlers/order_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quickmeds-api-server/internal/api/middleware"
	"quickmeds-api-server/internal/dispatch"
	"quickmeds-api-server/internal/models"
)

type OrderHandler struct {
	Engine *dispatch.Engine
}

type CreateOrderPayload struct {
	PharmacyID      string             `json:"pharmacyID" binding:"required"`
	Items           []models.OrderItem `json:"items" binding:"required"`
	PaymentMethod   string             `json:"paymentMethod"`
	DeliveryAddress models.Address     `json:"deliveryAddress" binding:"required"`
}

// CreateOrder: người dùng đặt một đơn hàng thường (không qua đơn thuốc).
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID := c.GetString("user_id")

	var payload CreateOrderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	total := 0.0
	for _, item := range payload.Items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		total += item.Price * float64(qty)
	}

	order := &models.Order{
		UserID:          userID,
		PharmacyID:      payload.PharmacyID,
		Items:           payload.Items,
		Total:           total,
		PaymentMethod:   payload.PaymentMethod,
		DeliveryAddress: payload.DeliveryAddress,
	}
	if err := h.Engine.CreateOrder(c.Request.Context(), order); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetOrder trả về chi tiết một đơn.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.Engine.FindOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// PharmacyAccept: nhà thuốc nhận chuẩn bị đơn — mở khóa việc điều phối.
func (h *OrderHandler) PharmacyAccept(c *gin.Context) {
	orderID := c.Param("id")
	pharmacyID := middleware.ActorID(c)

	order, err := h.Engine.PharmacyAccept(c.Request.Context(), orderID, pharmacyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
