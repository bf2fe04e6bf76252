// server/internal/registry/registry.go
package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quickmeds-api-server/internal/apperr"
	"quickmeds-api-server/internal/geo"
	"quickmeds-api-server/internal/models"
)

// LatLng là cặp tọa độ đầu vào từ client.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Registry sở hữu danh tính, trạng thái duyệt, vị trí sống và độ tươi
// của đội ngũ đối tác giao hàng.
type Registry struct {
	DB *mongo.Database
	// FreshnessWindow là tuổi tối đa của một mốc liveness trước khi đối tác
	// bị loại khỏi các truy vấn điều phối.
	FreshnessWindow time.Duration
}

func (r *Registry) partners() *mongo.Collection {
	return r.DB.Collection("delivery_partners")
}

// Register tạo hồ sơ đối tác mới ở trạng thái chờ duyệt.
func (r *Registry) Register(ctx context.Context, p *models.DeliveryPartner) error {
	now := time.Now()
	p.PartnerID = fmt.Sprintf("DP-%s", strings.ToUpper(uuid.New().String()[:8]))
	p.Status = models.PartnerStatusPending
	p.Active = false
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := r.partners().InsertOne(ctx, p); err != nil {
		return fmt.Errorf("register partner: %w", err)
	}
	return nil
}

// FindByID trả về hồ sơ đối tác theo partnerID.
func (r *Registry) FindByID(ctx context.Context, partnerID string) (*models.DeliveryPartner, error) {
	var p models.DeliveryPartner
	err := r.partners().FindOne(ctx, bson.M{"partnerID": partnerID}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("partner %s: %w", partnerID, apperr.NotFound)
		}
		return nil, fmt.Errorf("find partner %s: %w", partnerID, err)
	}
	return &p, nil
}

// SetActive bật/tắt cờ sẵn sàng nhận đơn của đối tác.
//
// Có GPS fix đi kèm khi bật thì cả locationUpdatedAt lẫn lastSeenAt được đóng
// dấu để đối tác đủ điều kiện điều phối ngay. Không có fix thì chỉ lastSeenAt
// được đóng dấu (freshness lạc quan) — thiết bị có thể chưa kịp có GPS.
func (r *Registry) SetActive(ctx context.Context, partnerID string, active bool, loc *LatLng, autoAccept *bool) (*models.DeliveryPartner, error) {
	now := time.Now()
	set := bson.M{
		"active":    active,
		"updatedAt": now,
	}
	if loc != nil {
		if !geo.ValidCoordinate(loc.Lat, loc.Lng) {
			return nil, fmt.Errorf("coordinates (%v, %v): %w", loc.Lat, loc.Lng, apperr.InvalidArgument)
		}
		set["location"] = models.NewGeoPoint(loc.Lat, loc.Lng)
		set["locationUpdatedAt"] = now
		set["lastSeenAt"] = now
	} else if active {
		set["lastSeenAt"] = now
	}
	if autoAccept != nil {
		set["autoAccept"] = *autoAccept
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.DeliveryPartner
	err := r.partners().FindOneAndUpdate(ctx, bson.M{"partnerID": partnerID}, bson.M{"$set": set}, opts).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("partner %s: %w", partnerID, apperr.NotFound)
		}
		return nil, fmt.Errorf("set active for partner %s: %w", partnerID, err)
	}
	return &p, nil
}

// UpdateLocation ghi GPS fix mới của đối tác và làm tươi cả hai mốc liveness.
// Nếu orderID được truyền, điểm này còn được mirror sang driverLocation của
// đơn tương ứng để người dùng theo dõi trực tiếp.
//
// Vị trí đối tác được ghi TRƯỚC khi kiểm tra order: GPS fix là telemetry
// last-write-wins, một orderID sai không phải lý do vứt bỏ tín hiệu sống.
// Caller vẫn nhận NotFound để biết mirror thất bại.
func (r *Registry) UpdateLocation(ctx context.Context, partnerID string, lat, lng float64, orderID string) error {
	if !geo.ValidCoordinate(lat, lng) {
		return fmt.Errorf("coordinates (%v, %v): %w", lat, lng, apperr.InvalidArgument)
	}

	now := time.Now()
	result, err := r.partners().UpdateOne(ctx,
		bson.M{"partnerID": partnerID},
		bson.M{"$set": bson.M{
			"location":          models.NewGeoPoint(lat, lng),
			"locationUpdatedAt": now,
			"lastSeenAt":        now,
			"updatedAt":         now,
		}},
	)
	if err != nil {
		return fmt.Errorf("update location for partner %s: %w", partnerID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("partner %s: %w", partnerID, apperr.NotFound)
	}

	if orderID != "" {
		result, err := r.DB.Collection("orders").UpdateOne(ctx,
			bson.M{"orderID": orderID, "deliveryPartner": partnerID},
			bson.M{"$set": bson.M{
				"driverLocation":          models.NewGeoPoint(lat, lng),
				"driverLocationUpdatedAt": now,
			}},
		)
		if err != nil {
			return fmt.Errorf("mirror location to order %s: %w", orderID, err)
		}
		if result.MatchedCount == 0 {
			return fmt.Errorf("order %s for partner %s: %w", orderID, partnerID, apperr.NotFound)
		}
	}
	return nil
}

// RegisterDeviceToken thêm một push token vào hồ sơ đối tác.
func (r *Registry) RegisterDeviceToken(ctx context.Context, partnerID, token string) error {
	if token == "" {
		return fmt.Errorf("empty device token: %w", apperr.InvalidArgument)
	}
	result, err := r.partners().UpdateOne(ctx,
		bson.M{"partnerID": partnerID},
		bson.M{
			"$addToSet": bson.M{"deviceTokens": token},
			"$set":      bson.M{"lastSeenAt": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("register device token for partner %s: %w", partnerID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("partner %s: %w", partnerID, apperr.NotFound)
	}
	return nil
}

// SetApproval chuyển hồ sơ PENDING sang APPROVED hoặc REJECTED.
// Chỉ hồ sơ đang chờ mới chuyển được; duyệt lại hồ sơ đã chốt là InvalidState.
func (r *Registry) SetApproval(ctx context.Context, partnerID string, approve bool) (*models.DeliveryPartner, error) {
	status := models.PartnerStatusRejected
	if approve {
		status = models.PartnerStatusApproved
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.DeliveryPartner
	err := r.partners().FindOneAndUpdate(ctx,
		bson.M{"partnerID": partnerID, "status": models.PartnerStatusPending},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}},
		opts,
	).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Phân biệt "không tồn tại" với "đã duyệt rồi".
			if _, ferr := r.FindByID(ctx, partnerID); ferr != nil {
				return nil, ferr
			}
			return nil, fmt.Errorf("partner %s is not pending approval: %w", partnerID, apperr.InvalidState)
		}
		return nil, fmt.Errorf("set approval for partner %s: %w", partnerID, err)
	}
	return &p, nil
}

// ListApproved trả về các đối tác đã được duyệt.
func (r *Registry) ListApproved(ctx context.Context) ([]models.DeliveryPartner, error) {
	return r.list(ctx, bson.M{"status": models.PartnerStatusApproved})
}

// ListPending trả về các hồ sơ đang chờ duyệt.
func (r *Registry) ListPending(ctx context.Context) ([]models.DeliveryPartner, error) {
	return r.list(ctx, bson.M{"status": models.PartnerStatusPending})
}

func (r *Registry) list(ctx context.Context, filter bson.M) ([]models.DeliveryPartner, error) {
	cursor, err := r.partners().Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}
	defer cursor.Close(ctx)

	var partners []models.DeliveryPartner
	if err = cursor.All(ctx, &partners); err != nil {
		return nil, fmt.Errorf("decode partners: %w", err)
	}
	if partners == nil {
		partners = []models.DeliveryPartner{}
	}
	return partners, nil
}
