// server/internal/models/prescription.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trạng thái của phiên báo giá đơn thuốc.
const (
	PrescriptionWaitingForQuotes   = "WAITING_FOR_QUOTES"
	PrescriptionPendingUserConfirm = "PENDING_USER_CONFIRM"
	PrescriptionConfirmed          = "CONFIRMED"
	PrescriptionSplit              = "SPLIT"
	PrescriptionConvertedToOrder   = "CONVERTED_TO_ORDER"
	PrescriptionCancelled          = "CANCELLED"
)

// PharmacyQuote là báo giá của một nhà thuốc cho một đơn thuốc.
// Mỗi nhà thuốc chỉ có một báo giá active; gửi lại sẽ thay báo giá cũ.
type PharmacyQuote struct {
	PharmacyID string `bson:"pharmacyID" json:"pharmacyID"`
	// Items là các dòng thuốc nhà thuốc có sẵn, kèm giá.
	Items []OrderItem `bson:"items" json:"items"`
	Total float64     `bson:"total" json:"total"`
	// Unavailable là tên các dòng thuốc nhà thuốc KHÔNG có.
	Unavailable []string  `bson:"unavailable,omitempty" json:"unavailable"`
	Message     string    `bson:"message,omitempty" json:"message"`
	QuotedAt    time.Time `bson:"quotedAt" json:"quotedAt"`
}

// FullyAvailable báo quote này phủ toàn bộ các dòng thuốc được hỏi.
func (q *PharmacyQuote) FullyAvailable() bool {
	return len(q.Unavailable) == 0
}

// PrescriptionOrder là artifact thương lượng trước khi thành Order thật.
//
// Quan hệ cha/con khi split được biểu diễn bằng id (parentOrder), không nhúng
// object, để cây split luôn acyclic và duyệt được độc lập.
type PrescriptionOrder struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PrescriptionID string             `bson:"prescriptionID" json:"prescriptionID"`
	UserID         string             `bson:"userID" json:"userID"`

	// Ảnh đơn thuốc đã upload (tham chiếu S3).
	Images []MediaPointer `bson:"images,omitempty" json:"images"`

	// RequestedItems là tên các dòng thuốc người dùng cần.
	RequestedItems []string `bson:"requestedItems" json:"requestedItems"`

	// PharmacyCandidates: các nhà thuốc được phép báo giá.
	PharmacyCandidates []string `bson:"pharmacyCandidates,omitempty" json:"pharmacyCandidates"`
	// PharmaciesTried: các nhà thuốc đã dùng ở vòng trước, loại khỏi vòng sau.
	PharmaciesTried []string `bson:"pharmaciesTried,omitempty" json:"pharmaciesTried"`

	Quotes []PharmacyQuote `bson:"quotes,omitempty" json:"quotes"`

	Status      string    `bson:"status" json:"status"`
	QuoteExpiry time.Time `bson:"quoteExpiry,omitempty" json:"quoteExpiry"`

	DeliveryAddress Address `bson:"deliveryAddress" json:"deliveryAddress"`

	// ParentOrder là prescriptionID của phiên gốc nếu đây là phần còn lại
	// sau một lần split.
	ParentOrder string `bson:"parentOrder,omitempty" json:"parentOrder,omitempty"`
	// AlreadyFulfilledItems: các dòng đã được cha/anh em phủ, không hỏi lại.
	AlreadyFulfilledItems []string `bson:"alreadyFulfilledItems,omitempty" json:"alreadyFulfilledItems"`

	// ConvertedOrderID là orderID của Order sinh ra khi user chấp nhận quote.
	ConvertedOrderID string `bson:"convertedOrderID,omitempty" json:"convertedOrderID,omitempty"`
	// ChildPrescriptionID: phiên con sinh ra cho phần thiếu khi split.
	ChildPrescriptionID string `bson:"childPrescriptionID,omitempty" json:"childPrescriptionID,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// QuoteFrom trả về báo giá của một nhà thuốc, nil nếu chưa có.
func (p *PrescriptionOrder) QuoteFrom(pharmacyID string) *PharmacyQuote {
	for i := range p.Quotes {
		if p.Quotes[i].PharmacyID == pharmacyID {
			return &p.Quotes[i]
		}
	}
	return nil
}

// Expired báo phiên đã quá hạn báo giá tại thời điểm now.
// Expiry được đánh giá lazy lúc đọc; phiên không có side effect khi nằm im.
func (p *PrescriptionOrder) Expired(now time.Time) bool {
	if p.QuoteExpiry.IsZero() {
		return false
	}
	switch p.Status {
	case PrescriptionWaitingForQuotes, PrescriptionPendingUserConfirm:
		return now.After(p.QuoteExpiry)
	default:
		return false
	}
}
