// server/internal/models/common.go
package models

// Role phân loại các tác nhân trong hệ thống. Closed set — mọi chỗ rẽ nhánh
// theo vai trò phải switch trên các hằng số này, không so sánh chuỗi tự do.
type Role string

const (
	RoleUser     Role = "user"
	RolePharmacy Role = "pharmacy"
	RoleDelivery Role = "delivery"
	RoleAdmin    Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RolePharmacy, RoleDelivery, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// GeoPoint là điểm GeoJSON để MongoDB đánh index 2dsphere.
// Coordinates theo thứ tự [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// NewGeoPoint tạo một GeoPoint từ cặp lat/lng thông thường.
func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

// Lat returns the latitude of the point, or 0 if the point is empty.
func (p GeoPoint) Lat() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[1]
}

// Lng returns the longitude of the point, or 0 if the point is empty.
func (p GeoPoint) Lng() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[0]
}

// IsZero báo point chưa từng được ghi.
func (p GeoPoint) IsZero() bool {
	return len(p.Coordinates) < 2
}

// Address là một object có cấu trúc để lưu thông tin địa chỉ.
type Address struct {
	FullText  string  `bson:"fullText" json:"fullText"`
	City      string  `bson:"city" json:"city"`
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// OrderItem là một dòng thuốc trong đơn hàng hoặc báo giá.
type OrderItem struct {
	Name     string  `bson:"name" json:"name"`
	Brand    string  `bson:"brand,omitempty" json:"brand,omitempty"`
	Quantity int     `bson:"quantity" json:"quantity"`
	Price    float64 `bson:"price" json:"price"`
}

// MediaPointer đại diện cho một tài liệu media được lưu trữ trên S3.
type MediaPointer struct {
	ID       string `bson:"id" json:"id"`
	URL      string `bson:"url" json:"url"`
	FileName string `bson:"fileName" json:"fileName"`
	FileType string `bson:"fileType" json:"fileType"`
}
