// server/internal/socket/hub.go
package socket

import (
	"log"
	"sync"
	"time"
)

// AssignmentOffer là thông điệp offer tạm thời đẩy cho đối tác.
// Không persist — quyết định cuối cùng nằm trong Order.assignmentHistory,
// bus chỉ là tối ưu độ trễ.
type AssignmentOffer struct {
	PartnerID    string    `json:"partnerID"`
	OrderID      string    `json:"orderID"`
	PharmacyID   string    `json:"pharmacyID"`
	PharmacyName string    `json:"pharmacyName"`
	Total        float64   `json:"total"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Subscriber là một phiên kết nối của đối tác đang chờ offer.
type Subscriber struct {
	partnerID string
	ch        chan AssignmentOffer
}

// Offers trả về kênh nhận offer của phiên này.
func (s *Subscriber) Offers() <-chan AssignmentOffer {
	return s.ch
}

// PartnerID trả về id đối tác sở hữu phiên.
func (s *Subscriber) PartnerID() string {
	return s.partnerID
}

// Hub quản lý các subscriber theo partnerID. Một đối tác có thể mở nhiều
// phiên (nhiều thiết bị); offer được fan-out cho tất cả.
//
// Hub là state in-memory của một process, sống chết theo kết nối — không
// bao giờ được coi là durable.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string][]*Subscriber
}

// NewHub tạo một Hub mới.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string][]*Subscriber),
	}
}

// Subscribe mở một phiên nhận offer cho đối tác.
func (h *Hub) Subscribe(partnerID string) *Subscriber {
	sub := &Subscriber{
		partnerID: partnerID,
		ch:        make(chan AssignmentOffer, 8),
	}
	h.mu.Lock()
	h.subscribers[partnerID] = append(h.subscribers[partnerID], sub)
	h.mu.Unlock()
	log.Printf("Offer subscriber registered: %s", partnerID)
	return sub
}

// Unsubscribe gỡ một phiên khỏi Hub và đóng kênh của nó.
// Bắt buộc gọi khi kết nối đóng để tập subscriber không phình vô hạn.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	subs := h.subscribers[sub.partnerID]
	for i, s := range subs {
		if s == sub {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(h.subscribers, sub.partnerID)
	} else {
		h.subscribers[sub.partnerID] = subs
	}
	h.mu.Unlock()
	close(sub.ch)
	log.Printf("Offer subscriber unregistered: %s", sub.partnerID)
}

// Publish fan-out một offer tới mọi phiên của đối tác.
// Trả về số phiên đã nhận. Không có phiên nào thì offer bị bỏ qua —
// đối tác sẽ thấy đơn được gán khi poll danh sách đơn của mình.
func (h *Hub) Publish(partnerID string, offer AssignmentOffer) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	subs := h.subscribers[partnerID]
	if len(subs) == 0 {
		log.Printf("No offer subscriber for partner %s, offer dropped", partnerID)
		return 0
	}

	delivered := 0
	for _, s := range subs {
		select {
		case s.ch <- offer:
			delivered++
		default:
			// Phiên đọc quá chậm; bỏ offer thay vì chặn publisher.
			log.Printf("Offer buffer full for partner %s, offer dropped", partnerID)
		}
	}
	return delivered
}

// SubscriberCount trả về số phiên đang mở của một đối tác.
func (h *Hub) SubscriberCount(partnerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[partnerID])
}
