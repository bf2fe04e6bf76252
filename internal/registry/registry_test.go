package registry

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quickmeds-api-server/internal/apperr"
	"quickmeds-api-server/internal/models"
)

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

	db := client.Database("quickmeds_registry_test")
	for _, name := range []string{"delivery_partners", "orders"} {
		require.NoError(t, db.Collection(name).Drop(ctx))
	}
	return db
}

func TestUpdateLocationKeepsTelemetryOnBadOrder(t *testing.T) {
	db := testDB(t)
	r := &Registry{DB: db, FreshnessWindow: 15 * time.Minute}
	ctx := context.Background()

	p := &models.DeliveryPartner{Name: "Rider", City: "Delhi"}
	require.NoError(t, r.Register(ctx, p))

	// Mirror sang một đơn không tồn tại thất bại với NotFound...
	err := r.UpdateLocation(ctx, p.PartnerID, 28.70, 77.10, "ORD-KHONGCO")
	require.ErrorIs(t, err, apperr.NotFound)

	// ...nhưng GPS fix là telemetry last-write-wins: vị trí và mốc liveness
	// của đối tác vẫn được giữ.
	got, err := r.FindByID(ctx, p.PartnerID)
	require.NoError(t, err)
	require.Equal(t, 28.70, got.Location.Lat())
	require.Equal(t, 77.10, got.Location.Lng())
	require.False(t, got.LocationUpdatedAt.IsZero())
	require.False(t, got.LastSeenAt.IsZero())
}

func TestUpdateLocationRejectsBadCoordinates(t *testing.T) {
	db := testDB(t)
	r := &Registry{DB: db, FreshnessWindow: 15 * time.Minute}
	ctx := context.Background()

	p := &models.DeliveryPartner{Name: "Rider", City: "Delhi"}
	require.NoError(t, r.Register(ctx, p))

	// Tọa độ ngoài miền bị chặn trước mọi write.
	err := r.UpdateLocation(ctx, p.PartnerID, 91.0, 77.10, "")
	require.ErrorIs(t, err, apperr.InvalidArgument)

	got, err := r.FindByID(ctx, p.PartnerID)
	require.NoError(t, err)
	require.True(t, got.Location.IsZero())
}
