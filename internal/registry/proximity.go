// server/internal/registry/proximity.go
package registry

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quickmeds-api-server/internal/apperr"
	"quickmeds-api-server/internal/geo"
	"quickmeds-api-server/internal/models"
)

// DefaultRadiusMeters là bán kính tìm kiếm mặc định khi caller không truyền.
const DefaultRadiusMeters = 8000.0

// eligibleFilter dựng filter Mongo cho điều kiện đủ-điều-kiện-điều-phối:
// đã duyệt, đang bật, và ít nhất một mốc liveness còn trong window.
func (r *Registry) eligibleFilter(now time.Time) bson.M {
	cutoff := now.Add(-r.FreshnessWindow)
	return bson.M{
		"status": models.PartnerStatusApproved,
		"active": true,
		"$or": bson.A{
			bson.M{"lastSeenAt": bson.M{"$gte": cutoff}},
			bson.M{"locationUpdatedAt": bson.M{"$gte": cutoff}},
		},
	}
}

// FindNearby trả về các đối tác đủ điều kiện trong bán kính, gần nhất trước.
// Thứ tự theo khoảng cách do $nearSphere đảm bảo (cần index 2dsphere).
func (r *Registry) FindNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int64) ([]models.DeliveryPartner, error) {
	if !geo.ValidCoordinate(lat, lng) {
		return nil, fmt.Errorf("coordinates (%v, %v): %w", lat, lng, apperr.InvalidArgument)
	}
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}

	filter := r.eligibleFilter(time.Now())
	filter["location"] = bson.M{
		"$nearSphere": bson.M{
			"$geometry":    models.NewGeoPoint(lat, lng),
			"$maxDistance": radiusMeters,
		},
	}

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.partners().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("nearby partner query: %w", err)
	}
	defer cursor.Close(ctx)

	var partners []models.DeliveryPartner
	if err = cursor.All(ctx, &partners); err != nil {
		return nil, fmt.Errorf("decode nearby partners: %w", err)
	}
	if partners == nil {
		partners = []models.DeliveryPartner{}
	}
	return partners, nil
}

// ExistsNearby chỉ trả lời "có phục vụ được khu vực này không", không lộ
// danh tính hay vị trí đối tác cho caller chưa xác thực.
func (r *Registry) ExistsNearby(ctx context.Context, lat, lng, radiusMeters float64) (bool, error) {
	partners, err := r.FindNearby(ctx, lat, lng, radiusMeters, 1)
	if err != nil {
		return false, err
	}
	return len(partners) > 0, nil
}

// ExistsInCity là fallback khi client không có tọa độ: match substring
// không phân biệt hoa thường trên trường city tự do.
func (r *Registry) ExistsInCity(ctx context.Context, city string) (bool, error) {
	if city == "" {
		return false, fmt.Errorf("empty city: %w", apperr.InvalidArgument)
	}

	filter := r.eligibleFilter(time.Now())
	filter["city"] = bson.M{"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(city), Options: "i"}}

	err := r.partners().FindOne(ctx, filter).Err()
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return false, nil
		}
		return false, fmt.Errorf("city partner query: %w", err)
	}
	return true, nil
}
