// server/internal/api/handlers/websocket_handler.go
package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"quickmeds-api-server/internal/auth"
	"quickmeds-api-server/internal/models"
	"quickmeds-api-server/internal/socket"
)

// Thời gian chờ tối đa cho một tin nhắn từ client.
const pongWait = 30 * time.Second

// pingPeriod phải ngắn hơn pongWait để kịp giữ kết nối sống.
const pingPeriod = 20 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	Hub  *socket.Hub
	Auth *auth.Service
}

// ServeWs mở stream offer cho một đối tác giao hàng.
// Client giữ kết nối; server đẩy offer bất đồng bộ và ping định kỳ.
func (h *WebSocketHandler) ServeWs(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
		return
	}

	claims, err := h.Auth.Parse(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}
	if claims.Role != models.RoleDelivery || claims.ActorID == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only delivery partners can subscribe to offers"})
		return
	}
	partnerID := claims.ActorID

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	sub := h.Hub.Subscribe(partnerID)
	defer func() {
		h.Hub.Unsubscribe(sub)
		conn.Close()
	}()

	// Heartbeat: client ping thì gia hạn deadline và trả pong.
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Vòng lặp đọc chỉ để phát hiện disconnect; client không gửi dữ liệu.
	readClosed := make(chan struct{})
	go func() {
		defer close(readClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("Unexpected close error from partner %s: %v", partnerID, err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case offer, ok := <-sub.Offers():
			if !ok {
				return
			}
			if err := conn.WriteJSON(gin.H{"event": "assignment_offer", "offer": offer}); err != nil {
				log.Printf("Failed to push offer to partner %s: %v", partnerID, err)
				return
			}
		case <-ticker.C:
			// Ping idle giữ transport sống qua các proxy trung gian.
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-readClosed:
			return
		}
	}
}
