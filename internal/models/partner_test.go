package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFreshAt_OrSemantics(t *testing.T) {
	now := time.Now()
	window := 15 * time.Minute

	// Chỉ lastSeenAt tươi: đủ.
	p := &DeliveryPartner{LastSeenAt: now.Add(-5 * time.Minute)}
	require.True(t, p.FreshAt(now, window))

	// Chỉ locationUpdatedAt tươi: cũng đủ.
	p = &DeliveryPartner{LocationUpdatedAt: now.Add(-5 * time.Minute)}
	require.True(t, p.FreshAt(now, window))

	// Cả hai đều quá hạn: nguội.
	p = &DeliveryPartner{
		LastSeenAt:        now.Add(-20 * time.Minute),
		LocationUpdatedAt: now.Add(-30 * time.Minute),
	}
	require.False(t, p.FreshAt(now, window))

	// Chưa từng có mốc nào: nguội.
	p = &DeliveryPartner{}
	require.False(t, p.FreshAt(now, window))
}

func TestDispatchEligibleAt(t *testing.T) {
	now := time.Now()
	window := 15 * time.Minute

	fresh := func() *DeliveryPartner {
		return &DeliveryPartner{
			Status:     PartnerStatusApproved,
			Active:     true,
			LastSeenAt: now.Add(-1 * time.Minute),
		}
	}

	require.True(t, fresh().DispatchEligibleAt(now, window))

	p := fresh()
	p.Status = PartnerStatusPending
	require.False(t, p.DispatchEligibleAt(now, window))

	p = fresh()
	p.Active = false
	require.False(t, p.DispatchEligibleAt(now, window))

	p = fresh()
	p.LastSeenAt = now.Add(-16 * time.Minute)
	require.False(t, p.DispatchEligibleAt(now, window))
}

func TestRole_IsValid(t *testing.T) {
	require.True(t, RoleUser.IsValid())
	require.True(t, RolePharmacy.IsValid())
	require.True(t, RoleDelivery.IsValid())
	require.True(t, RoleAdmin.IsValid())
	require.False(t, Role("driver").IsValid())
	require.False(t, Role("").IsValid())
}

func TestGeoPoint(t *testing.T) {
	p := NewGeoPoint(28.70, 77.10)
	require.Equal(t, "Point", p.Type)
	require.Equal(t, 28.70, p.Lat())
	require.Equal(t, 77.10, p.Lng())
	require.False(t, p.IsZero())

	var zero GeoPoint
	require.True(t, zero.IsZero())
	require.Equal(t, 0.0, zero.Lat())
}
