package invoice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quickmeds-api-server/internal/models"
)

func TestRender(t *testing.T) {
	order := &models.Order{
		OrderID:       "ORD-AAAA1111",
		UserID:        "user-1",
		PharmacyID:    "PH-BBBB2222",
		PaymentMethod: models.PaymentMethodCOD,
		PaymentStatus: models.PaymentSettled,
		Total:         165,
		DeliveredAt:   time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC),
		Items: []models.OrderItem{
			{Name: "Paracetamol 500mg", Quantity: 2, Price: 60},
			{Name: "Cetirizine", Quantity: 1, Price: 45},
		},
	}

	data, err := Render(order)
	require.NoError(t, err)

	out := string(data)
	require.Contains(t, out, "ORD-AAAA1111")
	require.Contains(t, out, "2025-06-01 14:30")
	require.Contains(t, out, "PH-BBBB2222")
	require.Contains(t, out, "Paracetamol 500mg")
	require.Contains(t, out, "165.00")
	require.Contains(t, out, "COD (SETTLED)")
}
