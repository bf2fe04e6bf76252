// server/internal/sweeper/sweeper.go
package sweeper

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"quickmeds-api-server/internal/metrics"
	"quickmeds-api-server/internal/models"
	"quickmeds-api-server/internal/notify"
)

// Sweeper là tác vụ nền duy nhất của hệ thống: định kỳ tìm các đối tác đang
// bật nhận đơn nhưng vị trí đã nguội và nhắc họ bật lại định vị.
type Sweeper struct {
	DB       *mongo.Database
	Notifier *notify.Notifier
	Metrics  *metrics.Metrics
	// Interval giữa hai lần quét.
	Interval time.Duration
	// StaleThreshold: cả hai mốc liveness cũ hơn ngưỡng này thì coi là nguội.
	StaleThreshold time.Duration
}

// Run quét theo chu kỳ cho đến khi ctx bị hủy. Gọi trong một goroutine riêng.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	log.Printf("Freshness sweeper started (interval %s, stale threshold %s)", s.Interval, s.StaleThreshold)
	for {
		select {
		case <-ctx.Done():
			log.Println("Freshness sweeper stopped")
			return
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				log.Printf("Freshness sweep failed: %v", err)
			}
		}
	}
}

// sweep nhắc mỗi đối tác nguội tối đa một lần trong một ngưỡng stale —
// lastNudgedAt chặn việc spam cùng một đối tác mỗi chu kỳ.
func (s *Sweeper) sweep(ctx context.Context) error {
	now := time.Now()
	cutoff := now.Add(-s.StaleThreshold)

	filter := bson.M{
		"status": models.PartnerStatusApproved,
		"active": true,
		"$and": bson.A{
			bson.M{"$or": bson.A{
				bson.M{"lastSeenAt": bson.M{"$lt": cutoff}},
				bson.M{"lastSeenAt": bson.M{"$exists": false}},
			}},
			bson.M{"$or": bson.A{
				bson.M{"locationUpdatedAt": bson.M{"$lt": cutoff}},
				bson.M{"locationUpdatedAt": bson.M{"$exists": false}},
			}},
			bson.M{"$or": bson.A{
				bson.M{"lastNudgedAt": bson.M{"$lt": cutoff}},
				bson.M{"lastNudgedAt": bson.M{"$exists": false}},
			}},
		},
	}

	collection := s.DB.Collection("delivery_partners")
	cursor, err := collection.Find(ctx, filter)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	type stalePartner struct {
		PartnerID    string   `bson:"partnerID"`
		DeviceTokens []string `bson:"deviceTokens"`
	}

	nudged := 0
	for cursor.Next(ctx) {
		var p stalePartner
		if err := cursor.Decode(&p); err != nil {
			log.Printf("Failed to decode stale partner: %v", err)
			continue
		}

		s.Notifier.Push(ctx, p.DeviceTokens, "Are you still there?",
			"We have not seen your location in a while. Open the app so we can keep sending you orders.",
			map[string]string{"event": "freshness_nudge"})

		if _, err := collection.UpdateOne(ctx,
			bson.M{"partnerID": p.PartnerID},
			bson.M{"$set": bson.M{"lastNudgedAt": now}},
		); err != nil {
			log.Printf("Failed to record nudge for partner %s: %v", p.PartnerID, err)
			continue
		}
		nudged++
		if s.Metrics != nil {
			s.Metrics.SweeperNudgesTotal.Inc()
		}
	}
	if err := cursor.Err(); err != nil {
		return err
	}

	if nudged > 0 {
		log.Printf("Freshness sweep nudged %d stale partner(s)", nudged)
	}
	return nil
}
