// server/internal/models/partner.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trạng thái duyệt hồ sơ của đối tác giao hàng.
const (
	PartnerStatusPending  = "PENDING"
	PartnerStatusApproved = "APPROVED"
	PartnerStatusRejected = "REJECTED"
)

// DeliveryPartner là hồ sơ của một đối tác giao hàng.
//
// Một đối tác đủ điều kiện điều phối khi và chỉ khi:
// status=APPROVED, active=true và ít nhất một trong hai mốc
// lastSeenAt / locationUpdatedAt còn nằm trong freshness window.
type DeliveryPartner struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PartnerID   string             `bson:"partnerID" json:"partnerID"`
	Name        string             `bson:"name" json:"name"`
	Phone       string             `bson:"phone" json:"phone"`
	Email       string             `bson:"email" json:"email"`
	VehicleType string             `bson:"vehicleType" json:"vehicleType"` // MOTORBIKE, BICYCLE, SCOOTER
	City        string             `bson:"city" json:"city"`
	Status      string             `bson:"status" json:"status"`

	// Active là cờ sẵn sàng nhận đơn, do chính đối tác bật/tắt.
	Active bool `bson:"active" json:"active"`
	// AutoAccept: đối tác chấp nhận mọi offer ngay khi được gán.
	AutoAccept bool `bson:"autoAccept" json:"autoAccept"`

	// Location chỉ hợp lệ khi locationUpdatedAt được set.
	Location          GeoPoint  `bson:"location,omitempty" json:"location"`
	LocationUpdatedAt time.Time `bson:"locationUpdatedAt,omitempty" json:"locationUpdatedAt"`
	// LastSeenAt là heartbeat tổng quát, độc lập với GPS fix.
	LastSeenAt time.Time `bson:"lastSeenAt,omitempty" json:"lastSeenAt"`
	// LastNudgedAt: lần cuối sweeper nhắc đối tác bật lại định vị.
	LastNudgedAt time.Time `bson:"lastNudgedAt,omitempty" json:"lastNudgedAt"`

	DeviceTokens []string `bson:"deviceTokens,omitempty" json:"deviceTokens"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// FreshAt báo đối tác còn "tươi" tại thời điểm now với window cho trước.
// Hai mốc thời gian được OR với nhau vì GPS fix và heartbeat là hai tín hiệu
// sống độc lập.
func (p *DeliveryPartner) FreshAt(now time.Time, window time.Duration) bool {
	if !p.LastSeenAt.IsZero() && now.Sub(p.LastSeenAt) < window {
		return true
	}
	if !p.LocationUpdatedAt.IsZero() && now.Sub(p.LocationUpdatedAt) < window {
		return true
	}
	return false
}

// DispatchEligibleAt gom đủ ba điều kiện điều phối.
func (p *DeliveryPartner) DispatchEligibleAt(now time.Time, window time.Duration) bool {
	return p.Status == PartnerStatusApproved && p.Active && p.FreshAt(now, window)
}
