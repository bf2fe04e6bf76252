// server/internal/models/user.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User struct matches the document in MongoDB
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID   string             `bson:"userID" json:"userID"`
	Email    string             `bson:"email" json:"email"`
	Name     string             `bson:"name" json:"name"`
	Password string             `bson:"password" json:"-"`
	Role     Role               `bson:"role" json:"role"`
	Status   string             `bson:"status" json:"status"`
	// PartnerID/PharmacyID trỏ sang hồ sơ nghiệp vụ tương ứng với vai trò.
	PartnerID  string `bson:"partnerID,omitempty" json:"partnerID,omitempty"`
	PharmacyID string `bson:"pharmacyID,omitempty" json:"pharmacyID,omitempty"`
}
