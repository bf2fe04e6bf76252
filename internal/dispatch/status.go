// server/internal/dispatch/status.go
package dispatch

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quickmeds-api-server/internal/models"
)

// CreateOrder chèn một đơn mới ở trạng thái PLACED, chưa gán ai.
func (e *Engine) CreateOrder(ctx context.Context, order *models.Order) error {
	now := time.Now()
	order.OrderID = fmt.Sprintf("ORD-%s", strings.ToUpper(uuid.New().String()[:8]))
	order.Status = models.OrderStatusPlaced
	order.DeliveryAssignmentStatus = models.AssignmentUnassigned
	// Địa chỉ nhà thuốc được snapshot vào đơn: NextCandidate neo truy vấn
	// gần-nhất vào tọa độ này. Caller không truyền thì tra từ hồ sơ nhà thuốc.
	if order.PharmacyAddress == (models.Address{}) {
		order.PharmacyAddress = e.pharmacyAddress(ctx, order.PharmacyID)
	}
	if order.PaymentStatus == "" {
		if order.PaymentMethod == models.PaymentMethodCOD {
			order.PaymentStatus = models.PaymentCODPending
		} else {
			order.PaymentStatus = models.PaymentPending
		}
	}
	order.CreatedAt = now
	order.UpdatedAt = now

	if _, err := e.orders().InsertOne(ctx, order); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// PharmacyAccept: nhà thuốc cam kết chuẩn bị đơn. Đây là tiền điều kiện của
// mọi lần Assign — đơn chưa được nhà thuốc nhận thì không thể điều phối.
func (e *Engine) PharmacyAccept(ctx context.Context, orderID, pharmacyID string) (*models.Order, error) {
	now := time.Now()
	filter := bson.M{
		"orderID":    orderID,
		"pharmacyID": pharmacyID,
		"status":     models.OrderStatusPlaced,
	}
	update := bson.M{
		"$set": bson.M{"status": models.OrderStatusPharmacyAccepted, "updatedAt": now},
		"$min": bson.M{"pharmacyAcceptedAt": now},
	}
	return e.transition(ctx, orderID, "pharmacy-accept", filter, update)
}

// MarkPickedUp: đối tác đã lấy hàng tại nhà thuốc.
func (e *Engine) MarkPickedUp(ctx context.Context, orderID, partnerID string) (*models.Order, error) {
	now := time.Now()
	filter := bson.M{
		"orderID":                  orderID,
		"deliveryPartner":          partnerID,
		"deliveryAssignmentStatus": models.AssignmentAccepted,
		"status":                   models.OrderStatusPharmacyAccepted,
	}
	update := bson.M{
		"$set": bson.M{"status": models.OrderStatusOutForDelivery, "updatedAt": now},
		"$min": bson.M{"pickedUpAt": now},
	}
	return e.transition(ctx, orderID, "pickup", filter, update)
}

// MarkDelivered hoàn tất giao hàng.
//
// Hai side effect đi kèm: (a) quyết toán COD đúng-một-lần — chính là lời gọi
// "record payment" của sổ thanh toán, hiện thực bằng conditional update trên
// paymentStatus; (b) sinh hóa đơn fire-and-forget — hóa đơn lỗi không bao giờ
// chặn việc hoàn tất giao hàng.
func (e *Engine) MarkDelivered(ctx context.Context, orderID, partnerID string) (*models.Order, error) {
	now := time.Now()
	filter := bson.M{
		"orderID":                  orderID,
		"deliveryPartner":          partnerID,
		"deliveryAssignmentStatus": models.AssignmentAccepted,
		"status":                   models.OrderStatusOutForDelivery,
	}
	update := bson.M{
		"$set": bson.M{"status": models.OrderStatusDelivered, "updatedAt": now},
		"$min": bson.M{"deliveredAt": now},
	}
	order, err := e.transition(ctx, orderID, "deliver", filter, update)
	if err != nil {
		return nil, err
	}

	e.settleCOD(ctx, order)
	go e.generateInvoice(order)

	e.Notifier.Message(ctx, order.UserID, models.RoleDelivery, "Order delivered",
		fmt.Sprintf("Your order %s has been delivered", order.OrderID),
		"/orders/"+order.OrderID)

	return order, nil
}

func (e *Engine) transition(ctx context.Context, orderID, op string, filter, update bson.M) (*models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	if err := e.orders().FindOneAndUpdate(ctx, filter, update, opts).Decode(&order); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, e.invalidStateOrNotFound(ctx, orderID, op)
		}
		return nil, fmt.Errorf("%s order %s: %w", op, orderID, err)
	}
	return &order, nil
}

// settleCOD chuyển COD_PENDING → SETTLED đúng một lần.
// Filter trên paymentStatus bảo đảm giao hàng lặp (không thể xảy ra) hay
// retry cũng không quyết toán hai lần.
func (e *Engine) settleCOD(ctx context.Context, order *models.Order) {
	if order.PaymentMethod != models.PaymentMethodCOD {
		return
	}
	result, err := e.orders().UpdateOne(ctx,
		bson.M{"orderID": order.OrderID, "paymentStatus": models.PaymentCODPending},
		bson.M{"$set": bson.M{"paymentStatus": models.PaymentSettled, "updatedAt": time.Now()}},
	)
	if err != nil {
		log.Printf("COD settlement failed for order %s: %v", order.OrderID, err)
		return
	}
	if result.ModifiedCount > 0 {
		order.PaymentStatus = models.PaymentSettled
	}
}

// generateInvoice chạy tách khỏi request; mọi lỗi chỉ được log.
func (e *Engine) generateInvoice(order *models.Order) {
	if e.Invoices == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	url, err := e.Invoices.Generate(ctx, order)
	if err != nil {
		log.Printf("Invoice generation failed for order %s: %v", order.OrderID, err)
		return
	}
	if _, err := e.orders().UpdateOne(ctx,
		bson.M{"orderID": order.OrderID},
		bson.M{"$set": bson.M{"invoiceURL": url}},
	); err != nil {
		log.Printf("Failed to record invoice URL for order %s: %v", order.OrderID, err)
	}
}
