// server/internal/models/order.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trạng thái fulfillment của đơn hàng.
const (
	OrderStatusPlaced           = "PLACED"
	OrderStatusPharmacyAccepted = "PHARMACY_ACCEPTED"
	OrderStatusOutForDelivery   = "OUT_FOR_DELIVERY"
	OrderStatusDelivered        = "DELIVERED"
	OrderStatusCancelled        = "CANCELLED"
)

// Trạng thái gán giao hàng của đơn.
const (
	AssignmentUnassigned = "UNASSIGNED"
	AssignmentAssigned   = "ASSIGNED"
	AssignmentAccepted   = "ACCEPTED"
	AssignmentRejected   = "REJECTED"
)

// Trạng thái thanh toán.
const (
	PaymentPending    = "PENDING"
	PaymentPaid       = "PAID"
	PaymentCODPending = "COD_PENDING"
	PaymentSettled    = "SETTLED"
)

// Phương thức thanh toán.
const (
	PaymentMethodCOD    = "COD"
	PaymentMethodOnline = "ONLINE"
)

// AssignmentRecord là một dòng trong audit trail gán đơn.
// assignmentHistory chỉ được append, không bao giờ sửa.
type AssignmentRecord struct {
	PartnerID string    `bson:"partnerID" json:"partnerID"`
	Status    string    `bson:"status" json:"status"` // ASSIGNED, ACCEPTED, REJECTED
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Order là đơn vị công việc giao hàng.
type Order struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID    string             `bson:"orderID" json:"orderID"`
	UserID     string             `bson:"userID" json:"userID"`
	PharmacyID string             `bson:"pharmacyID" json:"pharmacyID"`

	Items []OrderItem `bson:"items" json:"items"`
	Total float64     `bson:"total" json:"total"`

	Status        string `bson:"status" json:"status"`
	PaymentStatus string `bson:"paymentStatus" json:"paymentStatus"`
	PaymentMethod string `bson:"paymentMethod" json:"paymentMethod"`

	DeliveryAddress Address `bson:"deliveryAddress" json:"deliveryAddress"`
	PharmacyAddress Address `bson:"pharmacyAddress" json:"pharmacyAddress"`

	DeliveryAssignmentStatus string `bson:"deliveryAssignmentStatus" json:"deliveryAssignmentStatus"`
	// DeliveryPartner là partnerID đang được gán; rỗng nghĩa là chưa có ai.
	DeliveryPartner   string             `bson:"deliveryPartner,omitempty" json:"deliveryPartner,omitempty"`
	AssignmentHistory []AssignmentRecord `bson:"assignmentHistory,omitempty" json:"assignmentHistory"`

	// DriverLocation được mirror từ update vị trí của đối tác để tracking.
	DriverLocation          GeoPoint  `bson:"driverLocation,omitempty" json:"driverLocation"`
	DriverLocationUpdatedAt time.Time `bson:"driverLocationUpdatedAt,omitempty" json:"driverLocationUpdatedAt"`

	// PrescriptionOrderID liên kết ngược về phiên báo giá nếu đơn sinh ra từ đó.
	PrescriptionOrderID string `bson:"prescriptionOrderID,omitempty" json:"prescriptionOrderID,omitempty"`

	InvoiceURL string `bson:"invoiceURL,omitempty" json:"invoiceURL,omitempty"`

	// Các mốc milestone chỉ được set một lần, theo thứ tự thời gian.
	PharmacyAcceptedAt time.Time `bson:"pharmacyAcceptedAt,omitempty" json:"pharmacyAcceptedAt"`
	AssignedAt         time.Time `bson:"assignedAt,omitempty" json:"assignedAt"`
	PartnerAcceptedAt  time.Time `bson:"partnerAcceptedAt,omitempty" json:"partnerAcceptedAt"`
	PickedUpAt         time.Time `bson:"pickedUpAt,omitempty" json:"pickedUpAt"`
	DeliveredAt        time.Time `bson:"deliveredAt,omitempty" json:"deliveredAt"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
