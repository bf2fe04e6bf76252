package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPrescriptionExpired(t *testing.T) {
	start := time.Now()
	expiry := start.Add(600 * time.Second)

	p := &PrescriptionOrder{
		Status:      PrescriptionWaitingForQuotes,
		QuoteExpiry: expiry,
	}

	// Trước hạn: chưa quá hạn.
	require.False(t, p.Expired(start.Add(500*time.Second)))
	// Sau hạn mà chưa ai chấp nhận: quá hạn.
	require.True(t, p.Expired(start.Add(700*time.Second)))

	// Phiên đã chốt thì expiry không còn ý nghĩa.
	p.Status = PrescriptionConvertedToOrder
	require.False(t, p.Expired(start.Add(700*time.Second)))

	// Không đặt hạn thì không bao giờ quá hạn.
	p = &PrescriptionOrder{Status: PrescriptionWaitingForQuotes}
	require.False(t, p.Expired(start.Add(24*time.Hour)))
}

func TestQuoteFrom(t *testing.T) {
	p := &PrescriptionOrder{
		Quotes: []PharmacyQuote{
			{PharmacyID: "PH-1", Total: 100},
			{PharmacyID: "PH-2", Total: 90},
		},
	}
	q := p.QuoteFrom("PH-2")
	require.NotNil(t, q)
	require.Equal(t, 90.0, q.Total)
	require.Nil(t, p.QuoteFrom("PH-3"))
}

func TestFullyAvailable(t *testing.T) {
	q := &PharmacyQuote{Items: []OrderItem{{Name: "Paracetamol"}}}
	require.True(t, q.FullyAvailable())
	q.Unavailable = []string{"Insulin"}
	require.False(t, q.FullyAvailable())
}
