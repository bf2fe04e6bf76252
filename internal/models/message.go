// server/internal/models/message.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message là một thông báo in-app gửi tới người dùng.
// Notifier.Message ghi vào collection "messages"; client poll để hiển thị.
type Message struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID string             `bson:"userID" json:"userID"`
	// SenderRole bắt buộc thuộc closed set Role.
	SenderRole Role      `bson:"senderRole" json:"senderRole"`
	Title      string    `bson:"title" json:"title"`
	Body       string    `bson:"body" json:"body"`
	Link       string    `bson:"link,omitempty" json:"link,omitempty"`
	Read       bool      `bson:"read" json:"read"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}
