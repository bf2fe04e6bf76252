// server/internal/api/handlers/dispatch_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quickmeds-api-server/internal/api/middleware"
	"quickmeds-api-server/internal/dispatch"
	"quickmeds-api-server/internal/routing"
)

type DispatchHandler struct {
	Engine *dispatch.Engine
	Oracle *routing.Oracle
	// RadiusMeters là bán kính tìm ứng viên khi tự động điều phối.
	RadiusMeters float64
}

type AssignPayload struct {
	PartnerID string `json:"partnerID" binding:"required"`
}

// Assign: operator/scheduler gán đơn cho một đối tác cụ thể.
func (h *DispatchHandler) Assign(c *gin.Context) {
	orderID := c.Param("id")

	var payload AssignPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.Engine.Assign(c.Request.Context(), orderID, payload.PartnerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// AutoAssign gán đơn cho ứng viên gần nhất chưa thử.
// Một vòng của wave dispatch; scheduler bên ngoài có thể gọi lặp lại.
func (h *DispatchHandler) AutoAssign(c *gin.Context) {
	orderID := c.Param("id")
	ctx := c.Request.Context()

	candidate, err := h.Engine.NextCandidate(ctx, orderID, h.RadiusMeters)
	if err != nil {
		respondError(c, err)
		return
	}

	order, err := h.Engine.Assign(ctx, orderID, candidate.PartnerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Accept: đối tác được gán nhận đơn.
func (h *DispatchHandler) Accept(c *gin.Context) {
	orderID := c.Param("id")
	partnerID := middleware.ActorID(c)

	order, err := h.Engine.Accept(c.Request.Context(), orderID, partnerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Reject: đối tác được gán từ chối đơn; đơn quay lại hàng chờ gán.
func (h *DispatchHandler) Reject(c *gin.Context) {
	orderID := c.Param("id")
	partnerID := middleware.ActorID(c)

	order, err := h.Engine.Reject(c.Request.Context(), orderID, partnerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Pickup: đối tác xác nhận đã lấy hàng.
func (h *DispatchHandler) Pickup(c *gin.Context) {
	orderID := c.Param("id")
	partnerID := middleware.ActorID(c)

	order, err := h.Engine.MarkPickedUp(c.Request.Context(), orderID, partnerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Deliver: đối tác xác nhận đã giao hàng.
func (h *DispatchHandler) Deliver(c *gin.Context) {
	orderID := c.Param("id")
	partnerID := middleware.ActorID(c)

	order, err := h.Engine.MarkDelivered(c.Request.Context(), orderID, partnerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ETA trả về thời gian giao ước tính, chỉ để hiển thị.
func (h *DispatchHandler) ETA(c *gin.Context) {
	orderID := c.Param("id")
	ctx := c.Request.Context()

	order, err := h.Engine.FindOrder(ctx, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	if order.DriverLocation.IsZero() {
		c.JSON(http.StatusOK, gin.H{"etaSeconds": nil})
		return
	}

	eta, err := h.Oracle.ETA(ctx,
		order.DriverLocation.Lat(), order.DriverLocation.Lng(),
		order.DeliveryAddress.Latitude, order.DeliveryAddress.Longitude)
	if err != nil {
		// ETA là best-effort: dịch vụ routing lỗi thì trả "chưa có".
		c.JSON(http.StatusOK, gin.H{"etaSeconds": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"etaSeconds": int(eta.Seconds())})
}

// NextCandidate cho operator xem ứng viên kế tiếp mà không gán.
func (h *DispatchHandler) NextCandidate(c *gin.Context) {
	orderID := c.Param("id")

	candidate, err := h.Engine.NextCandidate(c.Request.Context(), orderID, h.RadiusMeters)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"partnerID":   candidate.PartnerID,
		"name":        candidate.Name,
		"vehicleType": candidate.VehicleType,
	})
}
