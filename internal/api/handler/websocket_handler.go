package handler

import (
	"encoding/json"
	"net/http"
	"parking_reservation/internal/domain"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Cho phép kết nối từ mọi nguồn
	},
}

// WebSocketManager giữ các kết nối đang mở và broadcast event đặt chỗ
// (tạo/hủy, đổi trạng thái chỗ đỗ) cho dashboard theo dõi real-time.
type WebSocketManager struct {
	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
	logger     *zerolog.Logger
	mutex      sync.RWMutex
}

func NewWebSocketManager(logger *zerolog.Logger) *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, 32),
		logger:     logger,
	}
}

func (wsm *WebSocketManager) Start() {
	for {
		select {
		case client := <-wsm.register:
			wsm.mutex.Lock()
			wsm.clients[client] = true
			wsm.mutex.Unlock()
			wsm.logger.Info().Int("total", len(wsm.clients)).Msg("WebSocket client đã kết nối")

		case client := <-wsm.unregister:
			wsm.mutex.Lock()
			if _, ok := wsm.clients[client]; ok {
				delete(wsm.clients, client)
				client.Close()
			}
			wsm.mutex.Unlock()
			wsm.logger.Info().Int("total", len(wsm.clients)).Msg("WebSocket client đã ngắt kết nối")

		case message := <-wsm.broadcast:
			var dead []*websocket.Conn
			wsm.mutex.RLock()
			for client := range wsm.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					wsm.logger.Warn().Err(err).Msg("lỗi ghi tới WebSocket client")
					dead = append(dead, client)
				}
			}
			wsm.mutex.RUnlock()
			wsm.mutex.Lock()
			for _, client := range dead {
				client.Close()
				delete(wsm.clients, client)
			}
			wsm.mutex.Unlock()
		}
	}
}

// BroadcastReservationEvent implement service.ReservationBroadcaster.
func (wsm *WebSocketManager) BroadcastReservationEvent(event domain.ReservationEventNotification) {
	message, err := json.Marshal(event)
	if err != nil {
		wsm.logger.Error().Err(err).Msg("lỗi marshal reservation event")
		return
	}

	select {
	case wsm.broadcast <- message:
	default:
		wsm.logger.Warn().Msg("broadcast channel đầy, bỏ message")
	}
}

type WebSocketHandler struct {
	wsManager *WebSocketManager
	logger    *zerolog.Logger
}

func NewWebSocketHandler(wsManager *WebSocketManager, logger *zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{wsManager: wsManager, logger: logger}
}

// GET /ws
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("không thể upgrade lên WebSocket")
		return
	}

	h.wsManager.register <- conn

	// Giữ kết nối và xử lý disconnect
	go func() {
		defer func() {
			h.wsManager.unregister <- conn
		}()

		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Warn().Err(err).Msg("lỗi WebSocket")
				}
				break
			}
		}
	}()
}
