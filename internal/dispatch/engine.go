// server/internal/dispatch/engine.go
package dispatch

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quickmeds-api-server/internal/apperr"
	"quickmeds-api-server/internal/invoice"
	"quickmeds-api-server/internal/metrics"
	"quickmeds-api-server/internal/models"
	"quickmeds-api-server/internal/notify"
	"quickmeds-api-server/internal/registry"
	"quickmeds-api-server/internal/socket"
)

// Engine sở hữu vòng đời gán giao hàng của đơn:
// UNASSIGNED → ASSIGNED → ACCEPTED, hoặc ASSIGNED → REJECTED rồi gán lại.
//
// Mọi transition là MỘT conditional update trên document đơn — so filter với
// trạng thái hiện tại trước khi ghi — nên hai process chạy song song không
// thể cùng thắng một transition.
type Engine struct {
	DB       *mongo.Database
	Registry *registry.Registry
	Hub      *socket.Hub
	Notifier *notify.Notifier
	Invoices *invoice.Generator
	Metrics  *metrics.Metrics
}

func (e *Engine) orders() *mongo.Collection {
	return e.DB.Collection("orders")
}

// FindOrder trả về đơn theo orderID.
func (e *Engine) FindOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := e.orders().FindOne(ctx, bson.M{"orderID": orderID}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("order %s: %w", orderID, apperr.NotFound)
		}
		return nil, fmt.Errorf("find order %s: %w", orderID, err)
	}
	return &order, nil
}

// invalidStateOrNotFound phân biệt "đơn không tồn tại" với "đơn tồn tại nhưng
// sai pha" sau khi một conditional update không match.
func (e *Engine) invalidStateOrNotFound(ctx context.Context, orderID, op string) error {
	if _, err := e.FindOrder(ctx, orderID); err != nil {
		return err
	}
	return fmt.Errorf("%s order %s: %w", op, orderID, apperr.InvalidState)
}

// Assign gán đơn cho một đối tác.
//
// Tiền điều kiện: nhà thuốc đã nhận đơn (status PHARMACY_ACCEPTED) và chưa
// có đối tác nào ACCEPTED. Gán đè khi đang ASSIGNED là hợp lệ — lần gán mới
// thay thế offer cũ; đối tác cũ accept muộn sẽ nhận InvalidState vì
// deliveryPartner không còn là họ.
func (e *Engine) Assign(ctx context.Context, orderID, partnerID string) (*models.Order, error) {
	partner, err := e.Registry.FindByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if partner.Status != models.PartnerStatusApproved {
		return nil, fmt.Errorf("partner %s is not approved: %w", partnerID, apperr.InvalidState)
	}

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"deliveryPartner":          partnerID,
			"deliveryAssignmentStatus": models.AssignmentAssigned,
			"updatedAt":                now,
		},
		// $min giữ mốc đầu tiên: assignedAt chỉ được set một lần.
		"$min":  bson.M{"assignedAt": now},
		"$push": bson.M{"assignmentHistory": models.AssignmentRecord{PartnerID: partnerID, Status: models.AssignmentAssigned, Timestamp: now}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	if err := e.orders().FindOneAndUpdate(ctx, assignFilter(orderID), update, opts).Decode(&order); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, e.invalidStateOrNotFound(ctx, orderID, "assign")
		}
		return nil, fmt.Errorf("assign order %s: %w", orderID, err)
	}
	e.countAssignment("assigned")

	// Offer qua bus + push là best-effort: trạng thái đơn mới là source of
	// truth, đối tác offline vẫn thấy đơn khi poll danh sách được gán.
	pharmacyName := e.pharmacyName(ctx, order.PharmacyID)
	offer := socket.AssignmentOffer{
		PartnerID:    partnerID,
		OrderID:      order.OrderID,
		PharmacyID:   order.PharmacyID,
		PharmacyName: pharmacyName,
		Total:        order.Total,
		CreatedAt:    now,
	}
	if delivered := e.Hub.Publish(partnerID, offer); delivered > 0 {
		if e.Metrics != nil {
			e.Metrics.OffersPublishedTotal.Inc()
		}
	} else if e.Metrics != nil {
		e.Metrics.OffersDroppedTotal.Inc()
	}

	e.Notifier.Push(ctx, partner.DeviceTokens, "New delivery offer",
		fmt.Sprintf("Order %s from %s is waiting for you", order.OrderID, pharmacyName),
		map[string]string{"orderID": order.OrderID, "event": "assignment_offer"})

	// Đối tác bật autoAccept nhận đơn ngay, không chờ callback.
	if partner.AutoAccept {
		accepted, err := e.Accept(ctx, orderID, partnerID)
		if err != nil {
			// Gán đã thành công; auto-accept trượt (ví dụ bị gán đè ngay
			// sau đó) chỉ đáng một dòng log.
			log.Printf("Auto-accept failed for order %s partner %s: %v", orderID, partnerID, err)
			return &order, nil
		}
		return accepted, nil
	}

	return &order, nil
}

// Accept ghi nhận đối tác được gán chấp nhận đơn.
// Chỉ hợp lệ khi đơn đang ASSIGNED và deliveryPartner đúng là người gọi.
func (e *Engine) Accept(ctx context.Context, orderID, partnerID string) (*models.Order, error) {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"deliveryAssignmentStatus": models.AssignmentAccepted,
			"updatedAt":                now,
		},
		"$min":  bson.M{"partnerAcceptedAt": now},
		"$push": bson.M{"assignmentHistory": models.AssignmentRecord{PartnerID: partnerID, Status: models.AssignmentAccepted, Timestamp: now}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	if err := e.orders().FindOneAndUpdate(ctx, partnerDecisionFilter(orderID, partnerID), update, opts).Decode(&order); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, e.invalidStateOrNotFound(ctx, orderID, "accept")
		}
		return nil, fmt.Errorf("accept order %s: %w", orderID, err)
	}
	e.countAssignment("accepted")

	e.Notifier.Message(ctx, order.UserID, models.RoleDelivery, "Delivery partner on the way",
		fmt.Sprintf("Your order %s has been picked up by a delivery partner", order.OrderID),
		"/orders/"+order.OrderID)

	return &order, nil
}

// Reject ghi nhận đối tác từ chối đơn: xóa tham chiếu đối tác và trả đơn về
// trạng thái gán lại được. Reject lần hai là InvalidState — history không
// bao giờ nhận bản ghi trùng.
func (e *Engine) Reject(ctx context.Context, orderID, partnerID string) (*models.Order, error) {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"deliveryAssignmentStatus": models.AssignmentRejected,
			"updatedAt":                now,
		},
		"$unset": bson.M{"deliveryPartner": ""},
		"$push":  bson.M{"assignmentHistory": models.AssignmentRecord{PartnerID: partnerID, Status: models.AssignmentRejected, Timestamp: now}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	if err := e.orders().FindOneAndUpdate(ctx, partnerDecisionFilter(orderID, partnerID), update, opts).Decode(&order); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, e.invalidStateOrNotFound(ctx, orderID, "reject")
		}
		return nil, fmt.Errorf("reject order %s: %w", orderID, err)
	}
	e.countAssignment("rejected")

	return &order, nil
}

// NextCandidate tìm đối tác gần nhà thuốc nhất chưa từng xuất hiện trong
// assignmentHistory của đơn. Đây là primitive cho wave dispatch: scheduler
// bên ngoài chỉ cần lặp NextCandidate + Assign.
func (e *Engine) NextCandidate(ctx context.Context, orderID string, radiusMeters float64) (*models.DeliveryPartner, error) {
	order, err := e.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	tried := make(map[string]bool, len(order.AssignmentHistory))
	for _, rec := range order.AssignmentHistory {
		tried[rec.PartnerID] = true
	}

	lat := order.PharmacyAddress.Latitude
	lng := order.PharmacyAddress.Longitude
	candidates, err := e.Registry.FindNearby(ctx, lat, lng, radiusMeters, 25)
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		if !tried[candidates[i].PartnerID] {
			return &candidates[i], nil
		}
	}
	return nil, fmt.Errorf("order %s: %w", orderID, apperr.NoPartnerAvailable)
}

// ListAssignedTo trả về các đơn đang gán cho một đối tác — nguồn poll khi
// đối tác không giữ kết nối offer.
func (e *Engine) ListAssignedTo(ctx context.Context, partnerID string) ([]models.Order, error) {
	filter := bson.M{
		"deliveryPartner": partnerID,
		"deliveryAssignmentStatus": bson.M{
			"$in": bson.A{models.AssignmentAssigned, models.AssignmentAccepted},
		},
		"status": bson.M{"$ne": models.OrderStatusDelivered},
	}
	cursor, err := e.orders().Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders for partner %s: %w", partnerID, err)
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err = cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders for partner %s: %w", partnerID, err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// assignFilter là guard của transition Assign: nhà thuốc đã nhận đơn và chưa
// có đối tác nào ACCEPTED. Gán đè lên một assignment đang ASSIGNED hoặc đã
// REJECTED vẫn match; assignment đã ACCEPTED thì không bao giờ.
func assignFilter(orderID string) bson.M {
	return bson.M{
		"orderID":                  orderID,
		"status":                   models.OrderStatusPharmacyAccepted,
		"deliveryAssignmentStatus": bson.M{"$ne": models.AssignmentAccepted},
	}
}

// partnerDecisionFilter là guard chung của Accept/Reject: đơn đang ASSIGNED
// và deliveryPartner đúng là người gọi. Đối tác bị gán đè không còn là
// deliveryPartner nên phản hồi muộn của họ trượt guard này.
func partnerDecisionFilter(orderID, partnerID string) bson.M {
	return bson.M{
		"orderID":                  orderID,
		"deliveryAssignmentStatus": models.AssignmentAssigned,
		"deliveryPartner":          partnerID,
	}
}

func (e *Engine) countAssignment(outcome string) {
	if e.Metrics != nil {
		e.Metrics.AssignmentsTotal.WithLabelValues(outcome).Inc()
	}
}

func (e *Engine) pharmacyName(ctx context.Context, pharmacyID string) string {
	var pharmacy models.Pharmacy
	err := e.DB.Collection("pharmacies").FindOne(ctx, bson.M{"pharmacyID": pharmacyID}).Decode(&pharmacy)
	if err != nil {
		return pharmacyID
	}
	return pharmacy.Name
}

func (e *Engine) pharmacyAddress(ctx context.Context, pharmacyID string) models.Address {
	var pharmacy models.Pharmacy
	err := e.DB.Collection("pharmacies").FindOne(ctx, bson.M{"pharmacyID": pharmacyID}).Decode(&pharmacy)
	if err != nil {
		return models.Address{}
	}
	return pharmacy.Address
}
