// server/internal/quote/negotiation.go
package quote

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quickmeds-api-server/internal/apperr"
	"quickmeds-api-server/internal/dispatch"
	"quickmeds-api-server/internal/metrics"
	"quickmeds-api-server/internal/models"
	"quickmeds-api-server/internal/notify"
)

// Negotiation sở hữu vòng đời thương lượng báo giá của đơn thuốc:
// WAITING_FOR_QUOTES → PENDING_USER_CONFIRM → CONFIRMED → chuyển thành Order
// (kèm split nếu thiếu hàng), hoặc CANCELLED khi bị từ chối/quá hạn.
type Negotiation struct {
	DB       *mongo.Database
	Engine   *dispatch.Engine
	Notifier *notify.Notifier
	Metrics  *metrics.Metrics
	// QuoteTTL là hạn chờ báo giá; quá hạn được đánh giá lazy lúc đọc.
	QuoteTTL time.Duration
}

// AcceptResult là kết quả của một lần user chấp nhận báo giá.
type AcceptResult struct {
	Order *models.Order `json:"order"`
	// Child khác nil khi phiên bị split: phần thiếu hàng quay lại chờ
	// báo giá từ các nhà thuốc chưa thử.
	Child *models.PrescriptionOrder `json:"child,omitempty"`
}

func (n *Negotiation) prescriptions() *mongo.Collection {
	return n.DB.Collection("prescription_orders")
}

// quoteOpenFilter match phiên còn nhận được mutation báo giá. Mọi write lên
// document trước khi chốt ($pull/$push quotes, hủy, expiry) đều phải đi qua
// guard này — phiên đã CONFIRMED/SPLIT/CONVERTED/CANCELLED không bao giờ bị sửa.
func quoteOpenFilter(prescriptionID string) bson.M {
	return bson.M{
		"prescriptionID": prescriptionID,
		"status": bson.M{"$in": bson.A{
			models.PrescriptionWaitingForQuotes,
			models.PrescriptionPendingUserConfirm,
		}},
	}
}

// Create mở một phiên thương lượng mới từ đơn thuốc đã upload.
func (n *Negotiation) Create(ctx context.Context, p *models.PrescriptionOrder) error {
	if len(p.RequestedItems) == 0 && len(p.Images) == 0 {
		return fmt.Errorf("prescription without items or images: %w", apperr.InvalidArgument)
	}
	now := time.Now()
	p.PrescriptionID = fmt.Sprintf("RX-%s", strings.ToUpper(uuid.New().String()[:8]))
	p.Status = models.PrescriptionWaitingForQuotes
	p.QuoteExpiry = now.Add(n.QuoteTTL)
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := n.prescriptions().InsertOne(ctx, p); err != nil {
		return fmt.Errorf("create prescription order: %w", err)
	}
	return nil
}

// Find đọc một phiên và áp expiry lazy: phiên quá hạn mà chưa chốt sẽ được
// chuyển CANCELLED ngay tại lần đọc này. Phiên nằm im không có side effect
// nên không cần timer chủ động.
func (n *Negotiation) Find(ctx context.Context, prescriptionID string) (*models.PrescriptionOrder, error) {
	var p models.PrescriptionOrder
	err := n.prescriptions().FindOne(ctx, bson.M{"prescriptionID": prescriptionID}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("prescription %s: %w", prescriptionID, apperr.NotFound)
		}
		return nil, fmt.Errorf("find prescription %s: %w", prescriptionID, err)
	}

	if p.Expired(time.Now()) {
		result, err := n.prescriptions().UpdateOne(ctx,
			quoteOpenFilter(prescriptionID),
			bson.M{"$set": bson.M{"status": models.PrescriptionCancelled, "updatedAt": time.Now()}},
		)
		if err != nil {
			log.Printf("Failed to persist expiry for prescription %s: %v", prescriptionID, err)
		} else if result.ModifiedCount > 0 {
			p.Status = models.PrescriptionCancelled
		}
	}
	return &p, nil
}

// SubmitQuote nhận báo giá của một nhà thuốc ứng viên.
// Mỗi nhà thuốc chỉ có một báo giá active — gửi lại sẽ thay báo giá cũ.
func (n *Negotiation) SubmitQuote(ctx context.Context, prescriptionID, pharmacyID string, items []models.OrderItem, unavailable []string, message string) (*models.PrescriptionOrder, error) {
	if pharmacyID == "" {
		return nil, fmt.Errorf("missing pharmacy id: %w", apperr.InvalidArgument)
	}
	if len(items) == 0 && len(unavailable) == 0 {
		return nil, fmt.Errorf("quote with no items: %w", apperr.InvalidArgument)
	}
	for _, item := range items {
		if item.Name == "" || item.Price < 0 {
			return nil, fmt.Errorf("malformed quote item: %w", apperr.InvalidArgument)
		}
	}

	p, err := n.Find(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}
	switch p.Status {
	case models.PrescriptionWaitingForQuotes, models.PrescriptionPendingUserConfirm:
	default:
		return nil, fmt.Errorf("prescription %s is %s: %w", prescriptionID, p.Status, apperr.InvalidState)
	}
	if len(p.PharmacyCandidates) > 0 && !contains(p.PharmacyCandidates, pharmacyID) {
		return nil, fmt.Errorf("pharmacy %s is not a candidate for %s: %w", pharmacyID, prescriptionID, apperr.InvalidState)
	}

	quote := models.PharmacyQuote{
		PharmacyID:  pharmacyID,
		Items:       items,
		Total:       QuoteTotal(items),
		Unavailable: unavailable,
		Message:     message,
		QuotedAt:    time.Now(),
	}

	// Gỡ báo giá cũ của chính nhà thuốc này trước khi append báo giá mới.
	// Hai bước không nằm trong một update vì $pull và $push đụng cùng path;
	// cả hai đều mang guard trạng thái để một AcceptQuote chạy đua không bị
	// mất báo giá đã chốt khỏi document.
	if _, err := n.prescriptions().UpdateOne(ctx,
		quoteOpenFilter(prescriptionID),
		bson.M{"$pull": bson.M{"quotes": bson.M{"pharmacyID": pharmacyID}}},
	); err != nil {
		return nil, fmt.Errorf("clear previous quote for %s: %w", prescriptionID, err)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.PrescriptionOrder
	err = n.prescriptions().FindOneAndUpdate(ctx,
		quoteOpenFilter(prescriptionID),
		bson.M{
			"$push": bson.M{"quotes": quote},
			"$set": bson.M{
				"status":    models.PrescriptionPendingUserConfirm,
				"updatedAt": time.Now(),
			},
		},
		opts,
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("prescription %s no longer accepts quotes: %w", prescriptionID, apperr.InvalidState)
		}
		return nil, fmt.Errorf("submit quote for %s: %w", prescriptionID, err)
	}
	if n.Metrics != nil {
		n.Metrics.QuotesSubmittedTotal.Inc()
	}

	n.Notifier.Message(ctx, updated.UserID, models.RolePharmacy, "New quote received",
		fmt.Sprintf("A pharmacy has quoted your prescription %s", prescriptionID),
		"/prescriptions/"+prescriptionID)

	return &updated, nil
}

// AcceptQuote: user chấp nhận báo giá của một nhà thuốc cụ thể.
//
// Phần có sẵn được materialize thành một Order thật (điểm bàn giao sang
// engine điều phối). Nếu báo giá thiếu hàng, phần thiếu tách thành một phiên
// con quay lại WAITING_FOR_QUOTES với các ứng viên chưa thử; cha + các con
// luôn partition đúng tập hàng gốc.
func (n *Negotiation) AcceptQuote(ctx context.Context, prescriptionID, pharmacyID, paymentMethod string) (*AcceptResult, error) {
	p, err := n.Find(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PrescriptionPendingUserConfirm {
		return nil, fmt.Errorf("prescription %s is %s: %w", prescriptionID, p.Status, apperr.InvalidState)
	}
	q := p.QuoteFrom(pharmacyID)
	if q == nil {
		return nil, fmt.Errorf("no quote from pharmacy %s on %s: %w", pharmacyID, prescriptionID, apperr.NotFound)
	}

	covered, remainder := SplitItems(p.RequestedItems, q)
	// Báo giá không phủ được dòng nào thì không có gì để chuyển thành đơn.
	// Phiên chỉ có ảnh (không có dòng text) thì không áp check này.
	if len(p.RequestedItems) > 0 && len(covered) == 0 {
		return nil, fmt.Errorf("quote from %s covers none of the requested items: %w", pharmacyID, apperr.InvalidState)
	}

	// Claim phiên bằng conditional update: hai accept chạy đua thì chỉ một
	// lần thắng, lần thua nhận InvalidState.
	claim, err := n.prescriptions().UpdateOne(ctx,
		bson.M{"prescriptionID": prescriptionID, "status": models.PrescriptionPendingUserConfirm},
		bson.M{"$set": bson.M{"status": models.PrescriptionConfirmed, "updatedAt": time.Now()}},
	)
	if err != nil {
		return nil, fmt.Errorf("confirm prescription %s: %w", prescriptionID, err)
	}
	if claim.ModifiedCount == 0 {
		return nil, fmt.Errorf("prescription %s already confirmed: %w", prescriptionID, apperr.InvalidState)
	}

	if paymentMethod == "" {
		paymentMethod = models.PaymentMethodCOD
	}
	// CreateOrder tự snapshot địa chỉ nhà thuốc vào đơn.
	order := &models.Order{
		UserID:              p.UserID,
		PharmacyID:          pharmacyID,
		Items:               q.Items,
		Total:               q.Total,
		PaymentMethod:       paymentMethod,
		DeliveryAddress:     p.DeliveryAddress,
		PrescriptionOrderID: p.PrescriptionID,
	}
	if err := n.Engine.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	result := &AcceptResult{Order: order}
	tried := append(append([]string{}, p.PharmaciesTried...), pharmacyID)

	finalStatus := models.PrescriptionConvertedToOrder
	set := bson.M{
		"convertedOrderID": order.OrderID,
		"pharmaciesTried":  tried,
		"updatedAt":        time.Now(),
	}

	if len(remainder) > 0 {
		child := &models.PrescriptionOrder{
			UserID:                p.UserID,
			RequestedItems:        remainder,
			PharmacyCandidates:    remainingCandidates(p.PharmacyCandidates, tried),
			PharmaciesTried:       tried,
			DeliveryAddress:       p.DeliveryAddress,
			ParentOrder:           p.PrescriptionID,
			AlreadyFulfilledItems: append(append([]string{}, p.AlreadyFulfilledItems...), covered...),
		}
		if err := n.Create(ctx, child); err != nil {
			// Đơn cho phần có sẵn đã tồn tại; phần thiếu sẽ cần mở phiên
			// mới thủ công. Ghi log và trả kết quả một phần.
			log.Printf("Failed to create split child for %s: %v", prescriptionID, err)
		} else {
			result.Child = child
			finalStatus = models.PrescriptionSplit
			set["childPrescriptionID"] = child.PrescriptionID
			if n.Metrics != nil {
				n.Metrics.PrescriptionSplitsTotal.Inc()
			}
		}
	}

	set["status"] = finalStatus
	if _, err := n.prescriptions().UpdateOne(ctx,
		bson.M{"prescriptionID": prescriptionID},
		bson.M{"$set": set},
	); err != nil {
		return nil, fmt.Errorf("finalize prescription %s: %w", prescriptionID, err)
	}

	return result, nil
}

// RejectQuotes: user từ chối toàn bộ báo giá, phiên đóng lại.
func (n *Negotiation) RejectQuotes(ctx context.Context, prescriptionID string) (*models.PrescriptionOrder, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.PrescriptionOrder
	err := n.prescriptions().FindOneAndUpdate(ctx,
		quoteOpenFilter(prescriptionID),
		bson.M{"$set": bson.M{"status": models.PrescriptionCancelled, "updatedAt": time.Now()}},
		opts,
	).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			if _, ferr := n.Find(ctx, prescriptionID); ferr != nil {
				return nil, ferr
			}
			return nil, fmt.Errorf("prescription %s cannot be cancelled: %w", prescriptionID, apperr.InvalidState)
		}
		return nil, fmt.Errorf("reject prescription %s: %w", prescriptionID, err)
	}
	return &p, nil
}

// ListByUser trả về các phiên của một người dùng, mới nhất trước.
func (n *Negotiation) ListByUser(ctx context.Context, userID string) ([]models.PrescriptionOrder, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := n.prescriptions().Find(ctx, bson.M{"userID": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var list []models.PrescriptionOrder
	if err = cursor.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("decode prescriptions for user %s: %w", userID, err)
	}
	if list == nil {
		list = []models.PrescriptionOrder{}
	}
	return list, nil
}

// ListRecent trả về các phiên mới nhất trên toàn hệ thống, cho màn hình vận hành.
func (n *Negotiation) ListRecent(ctx context.Context, limit int64) ([]models.PrescriptionOrder, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := n.prescriptions().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list recent prescriptions: %w", err)
	}
	defer cursor.Close(ctx)

	var list []models.PrescriptionOrder
	if err = cursor.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("decode recent prescriptions: %w", err)
	}
	if list == nil {
		list = []models.PrescriptionOrder{}
	}
	return list, nil
}

// SuggestPharmacies chọn ứng viên báo giá theo khu vực, xếp theo rating.
func (n *Negotiation) SuggestPharmacies(ctx context.Context, city string, limit int64) ([]models.Pharmacy, error) {
	filter := bson.M{"active": true}
	if city != "" {
		filter["address.city"] = bson.M{"$regex": primitive.Regex{Pattern: city, Options: "i"}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "rating", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := n.DB.Collection("pharmacies").Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("suggest pharmacies: %w", err)
	}
	defer cursor.Close(ctx)

	var pharmacies []models.Pharmacy
	if err = cursor.All(ctx, &pharmacies); err != nil {
		return nil, fmt.Errorf("decode pharmacies: %w", err)
	}
	if pharmacies == nil {
		pharmacies = []models.Pharmacy{}
	}
	return pharmacies, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
