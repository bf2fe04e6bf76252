// server/internal/models/pharmacy.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Pharmacy là hồ sơ một nhà thuốc đối tác.
type Pharmacy struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PharmacyID string             `bson:"pharmacyID" json:"pharmacyID"`
	Name       string             `bson:"name" json:"name"`
	Phone      string             `bson:"phone" json:"phone"`
	Address    Address            `bson:"address" json:"address"`
	Location   GeoPoint           `bson:"location,omitempty" json:"location"`
	Active     bool               `bson:"active" json:"active"`
	// Rating dùng làm tie-break phụ khi gợi ý nhà thuốc.
	Rating    float64   `bson:"rating,omitempty" json:"rating"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
