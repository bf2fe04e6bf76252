// server/internal/notify/notifier.go
package notify

import (
	"context"
	"log"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.mongodb.org/mongo-driver/mongo"
	"google.golang.org/api/option"

	"quickmeds-api-server/internal/metrics"
	"quickmeds-api-server/internal/models"
)

// Notifier gửi thông báo best-effort: push FCM tới device token của đối tác
// và message in-app cho người dùng. Mọi lỗi ở đây chỉ được log, không bao giờ
// propagate lên caller — thông báo là side effect, không phải correctness.
type Notifier struct {
	Messaging *messaging.Client // nil nghĩa là push bị tắt
	DB        *mongo.Database
	Metrics   *metrics.Metrics
}

// NewNotifier khởi tạo Firebase Admin SDK từ file credentials.
// credentialsFile rỗng thì push bị tắt nhưng message in-app vẫn hoạt động.
func NewNotifier(ctx context.Context, credentialsFile string, db *mongo.Database, m *metrics.Metrics) (*Notifier, error) {
	n := &Notifier{DB: db, Metrics: m}
	if credentialsFile == "" {
		log.Println("FCM credentials not configured, push notifications disabled")
		return n, nil
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, err
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}
	n.Messaging = client
	return n, nil
}

// Push gửi một push notification tới danh sách device token.
func (n *Notifier) Push(ctx context.Context, tokens []string, title, body string, data map[string]string) {
	if n.Messaging == nil || len(tokens) == 0 {
		return
	}

	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	resp, err := n.Messaging.SendEachForMulticast(ctx, msg)
	if err != nil {
		log.Printf("FCM push failed: %v", err)
		n.countFailure()
		return
	}
	if resp.FailureCount > 0 {
		log.Printf("FCM push partially failed: %d/%d tokens", resp.FailureCount, len(tokens))
		n.countFailure()
	}
}

// Message ghi một thông báo in-app cho người dùng.
func (n *Notifier) Message(ctx context.Context, userID string, sender models.Role, title, body, link string) {
	if !sender.IsValid() {
		log.Printf("Refusing to send message with invalid sender role %q", sender)
		return
	}

	msg := models.Message{
		UserID:     userID,
		SenderRole: sender,
		Title:      title,
		Body:       body,
		Link:       link,
		CreatedAt:  time.Now(),
	}
	if _, err := n.DB.Collection("messages").InsertOne(ctx, msg); err != nil {
		log.Printf("Failed to store in-app message for user %s: %v", userID, err)
		n.countFailure()
	}
}

func (n *Notifier) countFailure() {
	if n.Metrics != nil {
		n.Metrics.NotificationFailuresTotal.Inc()
	}
}
