// server/internal/api/handlers/admin_handler.go
package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"quickmeds-api-server/internal/notify"
	"quickmeds-api-server/internal/quote"
	"quickmeds-api-server/internal/registry"
)

type AdminHandler struct {
	Registry    *registry.Registry
	Negotiation *quote.Negotiation
	Notifier    *notify.Notifier
}

// GetPendingPartners liệt kê hồ sơ đối tác chờ duyệt.
func (h *AdminHandler) GetPendingPartners(c *gin.Context) {
	partners, err := h.Registry.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, partners)
}

// GetApprovedPartners liệt kê đối tác đã duyệt.
func (h *AdminHandler) GetApprovedPartners(c *gin.Context) {
	partners, err := h.Registry.ListApproved(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, partners)
}

// GetPrescriptions liệt kê các phiên báo giá mới nhất cho màn hình vận hành.
func (h *AdminHandler) GetPrescriptions(c *gin.Context) {
	limit := int64(50)
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.ParseInt(limitStr, 10, 64); err == nil && l > 0 {
			limit = l
		}
	}

	list, err := h.Negotiation.ListRecent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ApprovePartner duyệt một hồ sơ; thông báo cho đối tác là best-effort.
func (h *AdminHandler) ApprovePartner(c *gin.Context) {
	h.setApproval(c, true)
}

// RejectPartner từ chối một hồ sơ.
func (h *AdminHandler) RejectPartner(c *gin.Context) {
	h.setApproval(c, false)
}

func (h *AdminHandler) setApproval(c *gin.Context, approve bool) {
	partnerID := c.Param("id")
	ctx := c.Request.Context()

	partner, err := h.Registry.SetApproval(ctx, partnerID, approve)
	if err != nil {
		respondError(c, err)
		return
	}

	title := "Application rejected"
	body := "Unfortunately your delivery partner application was not approved."
	if approve {
		title = "Welcome aboard!"
		body = fmt.Sprintf("Your application %s has been approved. Go active to start receiving orders.", partnerID)
	}
	h.Notifier.Push(ctx, partner.DeviceTokens, title, body,
		map[string]string{"event": "approval_decision", "partnerID": partnerID})

	c.JSON(http.StatusOK, partner)
}
