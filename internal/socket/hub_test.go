package socket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHub_PublishDeliversToSubscriber(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("DP-AAAA1111")
	defer h.Unsubscribe(sub)

	offer := AssignmentOffer{
		PartnerID: "DP-AAAA1111",
		OrderID:   "ORD-BBBB2222",
		Total:     250,
		CreatedAt: time.Now(),
	}
	delivered := h.Publish("DP-AAAA1111", offer)
	require.Equal(t, 1, delivered)

	got := <-sub.Offers()
	require.Equal(t, "ORD-BBBB2222", got.OrderID)
	require.Equal(t, 250.0, got.Total)
}

func TestHub_PublishWithoutSubscriber(t *testing.T) {
	h := NewHub()
	require.Equal(t, 0, h.Publish("DP-KHONGCO", AssignmentOffer{OrderID: "ORD-X"}))
}

func TestHub_FanOutMultipleSessions(t *testing.T) {
	h := NewHub()
	s1 := h.Subscribe("DP-AAAA1111")
	s2 := h.Subscribe("DP-AAAA1111")
	other := h.Subscribe("DP-CCCC3333")
	defer h.Unsubscribe(other)

	require.Equal(t, 2, h.SubscriberCount("DP-AAAA1111"))

	delivered := h.Publish("DP-AAAA1111", AssignmentOffer{OrderID: "ORD-1"})
	require.Equal(t, 2, delivered)
	require.Equal(t, "ORD-1", (<-s1.Offers()).OrderID)
	require.Equal(t, "ORD-1", (<-s2.Offers()).OrderID)

	// Đối tác khác không nhận gì.
	select {
	case <-other.Offers():
		t.Fatal("offer leaked to another partner")
	default:
	}

	h.Unsubscribe(s1)
	h.Unsubscribe(s2)
	require.Equal(t, 0, h.SubscriberCount("DP-AAAA1111"))
}

func TestHub_PreservesOrderPerPartner(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("DP-AAAA1111")
	defer h.Unsubscribe(sub)

	for i := 0; i < 3; i++ {
		h.Publish("DP-AAAA1111", AssignmentOffer{OrderID: []string{"ORD-1", "ORD-2", "ORD-3"}[i]})
	}
	require.Equal(t, "ORD-1", (<-sub.Offers()).OrderID)
	require.Equal(t, "ORD-2", (<-sub.Offers()).OrderID)
	require.Equal(t, "ORD-3", (<-sub.Offers()).OrderID)
}

func TestHub_DropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("DP-AAAA1111")
	defer h.Unsubscribe(sub)

	// Kênh buffer 8; publish 10 mà không đọc thì 2 cái cuối bị bỏ,
	// publisher không bao giờ bị chặn.
	total := 0
	for i := 0; i < 10; i++ {
		total += h.Publish("DP-AAAA1111", AssignmentOffer{OrderID: "ORD-X"})
	}
	require.Equal(t, 8, total)
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("DP-AAAA1111")
	h.Unsubscribe(sub)

	_, open := <-sub.Offers()
	require.False(t, open)
}
