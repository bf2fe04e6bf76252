package dispatch

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quickmeds-api-server/internal/apperr"
	"quickmeds-api-server/internal/models"
	"quickmeds-api-server/internal/notify"
	"quickmeds-api-server/internal/registry"
	"quickmeds-api-server/internal/socket"
)

func TestAssignFilterGuards(t *testing.T) {
	f := assignFilter("ORD-AAAA1111")
	require.Equal(t, "ORD-AAAA1111", f["orderID"])

	// Điều phối chỉ bắt đầu sau khi nhà thuốc nhận đơn.
	require.Equal(t, models.OrderStatusPharmacyAccepted, f["status"])

	// Gán lại được khi UNASSIGNED/ASSIGNED/REJECTED, nhưng không bao giờ đè
	// lên một assignment đã ACCEPTED.
	require.Equal(t, bson.M{"$ne": models.AssignmentAccepted}, f["deliveryAssignmentStatus"])
}

func TestPartnerDecisionFilterGuards(t *testing.T) {
	f := partnerDecisionFilter("ORD-AAAA1111", "DP-BBBB2222")
	require.Equal(t, "ORD-AAAA1111", f["orderID"])
	require.Equal(t, models.AssignmentAssigned, f["deliveryAssignmentStatus"])

	// Guard trói phản hồi vào đối tác đang đứng tên trên đơn: đối tác bị gán
	// đè không còn là deliveryPartner nên accept/reject muộn của họ trượt.
	require.Equal(t, "DP-BBBB2222", f["deliveryPartner"])
}

// --- Mongo-backed lifecycle tests, skipped unless MONGO_URI is set ---

func testDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping Mongo-backed test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { client.Disconnect(context.Background()) })

	db := client.Database("quickmeds_dispatch_test")
	for _, name := range []string{"orders", "delivery_partners", "pharmacies", "messages"} {
		require.NoError(t, db.Collection(name).Drop(ctx))
	}
	return db
}

func newTestEngine(db *mongo.Database) *Engine {
	return &Engine{
		DB:       db,
		Registry: &registry.Registry{DB: db, FreshnessWindow: 15 * time.Minute},
		Hub:      socket.NewHub(),
		Notifier: &notify.Notifier{DB: db},
	}
}

func seedPartner(t *testing.T, db *mongo.Database, partnerID string) {
	t.Helper()
	now := time.Now()
	_, err := db.Collection("delivery_partners").InsertOne(context.Background(), models.DeliveryPartner{
		PartnerID:         partnerID,
		Name:              partnerID,
		Status:            models.PartnerStatusApproved,
		Active:            true,
		Location:          models.NewGeoPoint(28.70, 77.10),
		LocationUpdatedAt: now,
		LastSeenAt:        now,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	require.NoError(t, err)
}

func seedDispatchableOrder(t *testing.T, e *Engine) string {
	t.Helper()
	ctx := context.Background()
	order := &models.Order{
		UserID:          "user-1",
		PharmacyID:      "PH-1",
		Items:           []models.OrderItem{{Name: "Paracetamol", Quantity: 1, Price: 40}},
		Total:           40,
		PaymentMethod:   models.PaymentMethodCOD,
		DeliveryAddress: models.Address{City: "Delhi", Latitude: 28.71, Longitude: 77.11},
		PharmacyAddress: models.Address{City: "Delhi", Latitude: 28.70, Longitude: 77.10},
	}
	require.NoError(t, e.CreateOrder(ctx, order))
	_, err := e.PharmacyAccept(ctx, order.OrderID, "PH-1")
	require.NoError(t, err)
	return order.OrderID
}

func TestSupersedeAssignment(t *testing.T) {
	db := testDB(t)
	e := newTestEngine(db)
	seedPartner(t, db, "DP-ONE")
	seedPartner(t, db, "DP-TWO")
	orderID := seedDispatchableOrder(t, e)
	ctx := context.Background()

	order, err := e.Assign(ctx, orderID, "DP-ONE")
	require.NoError(t, err)
	require.Equal(t, models.AssignmentAssigned, order.DeliveryAssignmentStatus)
	require.Equal(t, "DP-ONE", order.DeliveryPartner)

	// Gán đè khi chưa ai accept là hợp lệ: offer mới thay offer cũ.
	order, err = e.Assign(ctx, orderID, "DP-TWO")
	require.NoError(t, err)
	require.Equal(t, "DP-TWO", order.DeliveryPartner)

	// Đối tác cũ accept muộn: trượt vì deliveryPartner không còn là họ.
	_, err = e.Accept(ctx, orderID, "DP-ONE")
	require.ErrorIs(t, err, apperr.InvalidState)

	order, err = e.Accept(ctx, orderID, "DP-TWO")
	require.NoError(t, err)
	require.Equal(t, models.AssignmentAccepted, order.DeliveryAssignmentStatus)
	require.Equal(t, "DP-TWO", order.DeliveryPartner)

	// Đã có người accept thì mọi lần gán tiếp theo trượt.
	_, err = e.Assign(ctx, orderID, "DP-ONE")
	require.ErrorIs(t, err, apperr.InvalidState)

	// Audit trail: ASSIGNED(DP-ONE), ASSIGNED(DP-TWO), ACCEPTED(DP-TWO).
	require.Len(t, order.AssignmentHistory, 3)
	require.Equal(t, "DP-TWO", order.AssignmentHistory[2].PartnerID)
	require.Equal(t, models.AssignmentAccepted, order.AssignmentHistory[2].Status)
}

func TestDoubleRejectIsInvalidState(t *testing.T) {
	db := testDB(t)
	e := newTestEngine(db)
	seedPartner(t, db, "DP-ONE")
	seedPartner(t, db, "DP-TWO")
	orderID := seedDispatchableOrder(t, e)
	ctx := context.Background()

	_, err := e.Assign(ctx, orderID, "DP-ONE")
	require.NoError(t, err)

	order, err := e.Reject(ctx, orderID, "DP-ONE")
	require.NoError(t, err)
	require.Equal(t, models.AssignmentRejected, order.DeliveryAssignmentStatus)
	require.Empty(t, order.DeliveryPartner)

	// Reject lần hai không thêm bản ghi trùng vào history.
	_, err = e.Reject(ctx, orderID, "DP-ONE")
	require.ErrorIs(t, err, apperr.InvalidState)

	// Đơn bị từ chối vẫn gán lại được cho người khác.
	order, err = e.Assign(ctx, orderID, "DP-TWO")
	require.NoError(t, err)
	require.Equal(t, "DP-TWO", order.DeliveryPartner)
	require.Len(t, order.AssignmentHistory, 3)
}

func TestCreateOrderResolvesPharmacyAddress(t *testing.T) {
	db := testDB(t)
	e := newTestEngine(db)
	ctx := context.Background()

	_, err := db.Collection("pharmacies").InsertOne(ctx, models.Pharmacy{
		PharmacyID: "PH-GEO",
		Name:       "GeoPharm",
		Address:    models.Address{FullText: "12 MG Road", City: "Delhi", Latitude: 28.65, Longitude: 77.23},
		Active:     true,
	})
	require.NoError(t, err)

	// Payload đặt hàng trực tiếp không mang tọa độ nhà thuốc; CreateOrder
	// phải tự tra để NextCandidate có điểm neo truy vấn gần-nhất.
	order := &models.Order{
		UserID:          "user-1",
		PharmacyID:      "PH-GEO",
		Items:           []models.OrderItem{{Name: "Cetirizine", Quantity: 1, Price: 45}},
		Total:           45,
		DeliveryAddress: models.Address{City: "Delhi", Latitude: 28.66, Longitude: 77.24},
	}
	require.NoError(t, e.CreateOrder(ctx, order))
	require.Equal(t, 28.65, order.PharmacyAddress.Latitude)
	require.Equal(t, 77.23, order.PharmacyAddress.Longitude)
	require.Equal(t, "Delhi", order.PharmacyAddress.City)
}
