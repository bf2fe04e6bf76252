// server/internal/api/handlers/partner_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"quickmeds-api-server/internal/api/middleware"
	"quickmeds-api-server/internal/dispatch"
	"quickmeds-api-server/internal/registry"
)

type PartnerHandler struct {
	Registry *registry.Registry
	Engine   *dispatch.Engine
}

type SetActivePayload struct {
	Active     bool             `json:"active"`
	Location   *registry.LatLng `json:"location"`
	AutoAccept *bool            `json:"autoAccept"`
}

// SetActive: đối tác bật/tắt trạng thái sẵn sàng nhận đơn.
func (h *PartnerHandler) SetActive(c *gin.Context) {
	partnerID := middleware.ActorID(c)

	var payload SetActivePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	partner, err := h.Registry.SetActive(c.Request.Context(), partnerID, payload.Active, payload.Location, payload.AutoAccept)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, partner)
}

type UpdateLocationPayload struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	OrderID string  `json:"orderID"`
}

// UpdateLocation: thiết bị của đối tác đẩy GPS fix mới.
func (h *PartnerHandler) UpdateLocation(c *gin.Context) {
	partnerID := middleware.ActorID(c)

	var payload UpdateLocationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.Registry.UpdateLocation(c.Request.Context(), partnerID, payload.Lat, payload.Lng, payload.OrderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

type DeviceTokenPayload struct {
	Token string `json:"token" binding:"required"`
}

// RegisterDeviceToken lưu push token của thiết bị đối tác.
func (h *PartnerHandler) RegisterDeviceToken(c *gin.Context) {
	partnerID := middleware.ActorID(c)

	var payload DeviceTokenPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Registry.RegisterDeviceToken(c.Request.Context(), partnerID, payload.Token); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// GetMyOrders: nguồn poll cho đối tác — các đơn đang gán/đã nhận.
// Đây là source of truth; offer qua websocket chỉ là tối ưu độ trễ.
func (h *PartnerHandler) GetMyOrders(c *gin.Context) {
	partnerID := middleware.ActorID(c)

	orders, err := h.Engine.ListAssignedTo(c.Request.Context(), partnerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// CheckAvailability là API công khai: "khu vực này có giao được không".
// Chỉ trả về boolean, không lộ danh tính hay vị trí đối tác.
func (h *PartnerHandler) CheckAvailability(c *gin.Context) {
	latStr := c.Query("lat")
	lngStr := c.Query("lng")
	city := c.Query("city")

	if latStr == "" || lngStr == "" {
		// Fallback theo tên thành phố khi client không có tọa độ.
		if city == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "lat/lng or city is required"})
			return
		}
		exists, err := h.Registry.ExistsInCity(c.Request.Context(), city)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"exists": exists})
		return
	}

	lat, err1 := strconv.ParseFloat(latStr, 64)
	lng, err2 := strconv.ParseFloat(lngStr, 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng must be numbers"})
		return
	}

	radius := registry.DefaultRadiusMeters
	if radiusStr := c.Query("radius"); radiusStr != "" {
		if r, err := strconv.ParseFloat(radiusStr, 64); err == nil && r > 0 {
			radius = r
		}
	}

	exists, err := h.Registry.ExistsNearby(c.Request.Context(), lat, lng, radius)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}
