// server/internal/api/handlers/prescription_handler.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"quickmeds-api-server/internal/api/middleware"
	"quickmeds-api-server/internal/models"
	"quickmeds-api-server/internal/quote"
	"quickmeds-api-server/internal/s3"
)

type PrescriptionHandler struct {
	Negotiation *quote.Negotiation
	S3Uploader  *s3.Uploader
}

// Upload: người dùng tải ảnh đơn thuốc và mở phiên chờ báo giá.
// Multipart: field "images" (nhiều file), "items" (mỗi dòng một tên thuốc),
// "city" + địa chỉ giao.
func (h *PrescriptionHandler) Upload(c *gin.Context) {
	userID := c.GetString("user_id")
	ctx := c.Request.Context()

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form is required"})
		return
	}

	var images []models.MediaPointer
	for _, fileHeader := range form.File["images"] {
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("cannot read file %s", fileHeader.Filename)})
			return
		}

		mediaID := uuid.New().String()
		objectKey := fmt.Sprintf("prescriptions/%s/%s-%s", userID, mediaID, fileHeader.Filename)
		contentType := fileHeader.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		url, err := h.S3Uploader.UploadFile(ctx, file, objectKey, contentType)
		file.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload prescription image"})
			return
		}

		images = append(images, models.MediaPointer{
			ID:       mediaID,
			URL:      url,
			FileName: fileHeader.Filename,
			FileType: contentType,
		})
	}

	var items []string
	for _, line := range strings.Split(c.PostForm("items"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			items = append(items, line)
		}
	}

	city := c.PostForm("city")
	candidates, err := h.Negotiation.SuggestPharmacies(ctx, city, 10)
	if err != nil {
		respondError(c, err)
		return
	}
	candidateIDs := make([]string, 0, len(candidates))
	for _, p := range candidates {
		candidateIDs = append(candidateIDs, p.PharmacyID)
	}

	pres := &models.PrescriptionOrder{
		UserID:             userID,
		Images:             images,
		RequestedItems:     items,
		PharmacyCandidates: candidateIDs,
		DeliveryAddress: models.Address{
			FullText: c.PostForm("address"),
			City:     city,
		},
	}
	if err := h.Negotiation.Create(ctx, pres); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pres)
}

type SubmitQuotePayload struct {
	Items       []models.OrderItem `json:"items"`
	Unavailable []string           `json:"unavailable"`
	Message     string             `json:"message"`
}

// SubmitQuote: nhà thuốc ứng viên gửi báo giá.
func (h *PrescriptionHandler) SubmitQuote(c *gin.Context) {
	prescriptionID := c.Param("id")
	pharmacyID := middleware.ActorID(c)

	var payload SubmitQuotePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pres, err := h.Negotiation.SubmitQuote(c.Request.Context(), prescriptionID, pharmacyID,
		payload.Items, payload.Unavailable, payload.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pres)
}

// Get trả về phiên báo giá; các quote được xếp theo thứ tự trình người dùng.
func (h *PrescriptionHandler) Get(c *gin.Context) {
	pres, err := h.Negotiation.Find(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	pres.Quotes = quote.RankQuotes(pres.Quotes)
	c.JSON(http.StatusOK, pres)
}

// GetMine liệt kê các phiên của người dùng đang đăng nhập.
func (h *PrescriptionHandler) GetMine(c *gin.Context) {
	list, err := h.Negotiation.ListByUser(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type AcceptQuotePayload struct {
	PharmacyID    string `json:"pharmacyID" binding:"required"`
	PaymentMethod string `json:"paymentMethod"`
}

// AcceptQuote: người dùng chấp nhận báo giá của một nhà thuốc.
// Trả về đơn hàng đã materialize, kèm phiên con nếu phải split.
func (h *PrescriptionHandler) AcceptQuote(c *gin.Context) {
	prescriptionID := c.Param("id")

	var payload AcceptQuotePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Negotiation.AcceptQuote(c.Request.Context(), prescriptionID,
		payload.PharmacyID, payload.PaymentMethod)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RejectQuotes: người dùng từ chối mọi báo giá, phiên bị hủy.
func (h *PrescriptionHandler) RejectQuotes(c *gin.Context) {
	pres, err := h.Negotiation.RejectQuotes(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pres)
}
