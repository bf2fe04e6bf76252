package quote

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
	"quickmeds-api-server/internal/dispatch"
	"quickmeds-api-server/internal/models"
	"quickmeds-api-server/internal/notify"
	"quickmeds-api-server/internal/registry"
	"quickmeds-api-server/internal/socket"
)

func TestQuoteOpenFilter(t *testing.T) {
	f := quoteOpenFilter("RX-AAAA1111")
	require.Equal(t, "RX-AAAA1111", f["prescriptionID"])

	// Mọi mutation báo giá — kể cả bước $pull dọn báo giá cũ — chỉ match
	// phiên còn mở; document đã chốt không bao giờ bị sửa.
	require.Equal(t, bson.M{"$in": bson.A{
		models.PrescriptionWaitingForQuotes,
		models.PrescriptionPendingUserConfirm,
	}}, f["status"])
}

// --- Mongo-backed tests, skipped unless MONGO_URI is set ---

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

	db := client.Database("quickmeds_quote_test")
	for _, name := range []string{"prescription_orders", "orders", "pharmacies", "delivery_partners", "messages"} {
		require.NoError(t, db.Collection(name).Drop(ctx))
	}
	return db
}

func newTestNegotiation(db *mongo.Database) *Negotiation {
	return &Negotiation{
		DB: db,
		Engine: &dispatch.Engine{
			DB:       db,
			Registry: &registry.Registry{DB: db, FreshnessWindow: 15 * time.Minute},
			Hub:      socket.NewHub(),
			Notifier: &notify.Notifier{DB: db},
		},
		Notifier: &notify.Notifier{DB: db},
		QuoteTTL: 24 * time.Hour,
	}
}

func TestSubmitQuoteLeavesSettledSessionUntouched(t *testing.T) {
	db := testDB(t)
	n := newTestNegotiation(db)
	ctx := context.Background()

	now := time.Now()
	winning := models.PharmacyQuote{
		PharmacyID: "PH-WIN",
		Items:      []models.OrderItem{{Name: "Paracetamol", Quantity: 1, Price: 40}},
		Total:      40,
		QuotedAt:   now,
	}
	_, err := db.Collection("prescription_orders").InsertOne(ctx, models.PrescriptionOrder{
		PrescriptionID: "RX-SETTLED",
		UserID:         "user-1",
		RequestedItems: []string{"Paracetamol"},
		Quotes:         []models.PharmacyQuote{winning},
		Status:         models.PrescriptionConfirmed,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err)

	// Gửi lại báo giá lên một phiên đã chốt phải bị từ chối...
	_, err = n.SubmitQuote(ctx, "RX-SETTLED", "PH-WIN",
		[]models.OrderItem{{Name: "Paracetamol", Quantity: 1, Price: 35}}, nil, "rẻ hơn nè")
	require.ErrorIs(t, err, apperr.InvalidState)

	// ...và báo giá đơn hàng được materialize từ đó vẫn còn nguyên.
	var p models.PrescriptionOrder
	require.NoError(t, db.Collection("prescription_orders").
		FindOne(ctx, bson.M{"prescriptionID": "RX-SETTLED"}).Decode(&p))
	require.Equal(t, models.PrescriptionConfirmed, p.Status)
	require.Len(t, p.Quotes, 1)
	require.Equal(t, 40.0, p.Quotes[0].Total)
}

func TestAcceptQuoteRejectsUselessQuote(t *testing.T) {
	db := testDB(t)
	n := newTestNegotiation(db)
	ctx := context.Background()

	now := time.Now()
	_, err := db.Collection("prescription_orders").InsertOne(ctx, models.PrescriptionOrder{
		PrescriptionID: "RX-EMPTY",
		UserID:         "user-1",
		RequestedItems: []string{"Insulin"},
		Quotes: []models.PharmacyQuote{{
			PharmacyID:  "PH-1",
			Items:       []models.OrderItem{{Name: "Paracetamol", Quantity: 1, Price: 20}},
			Total:       20,
			Unavailable: []string{"Insulin"},
			QuotedAt:    now,
		}},
		Status:    models.PrescriptionPendingUserConfirm,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)

	// Báo giá không phủ dòng nào của yêu cầu thì không chuyển được thành đơn.
	_, err = n.AcceptQuote(ctx, "RX-EMPTY", "PH-1", "")
	require.ErrorIs(t, err, apperr.InvalidState)

	// Phiên vẫn mở và không có đơn nào được tạo.
	var p models.PrescriptionOrder
	require.NoError(t, db.Collection("prescription_orders").
		FindOne(ctx, bson.M{"prescriptionID": "RX-EMPTY"}).Decode(&p))
	require.Equal(t, models.PrescriptionPendingUserConfirm, p.Status)

	count, err := db.Collection("orders").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	require.Zero(t, count)
}
