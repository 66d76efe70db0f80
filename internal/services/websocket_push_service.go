package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"bridge-backend/internal/metrics"
	"bridge-backend/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

// Connection one websocket client of a session address
type Connection struct {
	ID          string          `json:"id"`
	UserAddress string          `json:"user_address"`
	Conn        *websocket.Conn `json:"-"`
	Send        chan []byte     `json:"-"`
}

// NewConnection wraps an upgraded websocket
func NewConnection(userAddress string, conn *websocket.Conn) *Connection {
	return &Connection{
		ID:          uuid.NewString(),
		UserAddress: userAddress,
		Conn:        conn,
		Send:        make(chan []byte, sendBufferSize),
	}
}

// PushMessage message envelope
type PushMessage struct {
	Type        string      `json:"type"`
	Timestamp   string      `json:"timestamp"`
	MessageID   string      `json:"message_id"`
	UserAddress string      `json:"user_address"`
	Data        interface{} `json:"data"`
}

// WebSocketPushService pushes transfer events to the sender's open connections
type WebSocketPushService struct {
	logger    *logrus.Logger
	mutex     sync.RWMutex
	userConns map[string]map[string]*Connection // userAddress -> connID -> conn
}

// NewWebSocketPushService Create WebSocket push service
func NewWebSocketPushService(logger *logrus.Logger) *WebSocketPushService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &WebSocketPushService{
		logger:    logger,
		userConns: make(map[string]map[string]*Connection),
	}
}

// Register adds a connection and greets it
func (s *WebSocketPushService) Register(conn *Connection) {
	s.mutex.Lock()
	if s.userConns[conn.UserAddress] == nil {
		s.userConns[conn.UserAddress] = make(map[string]*Connection)
	}
	s.userConns[conn.UserAddress][conn.ID] = conn
	s.mutex.Unlock()

	metrics.WebSocketConnections.Inc()
	s.logger.WithFields(logrus.Fields{
		"user_address":  conn.UserAddress,
		"connection_id": conn.ID,
	}).Debug("WebSocket connection registered")

	s.send(conn, PushMessage{
		Type:        "connection_established",
		Timestamp:   time.Now().Format(time.RFC3339),
		MessageID:   uuid.NewString(),
		UserAddress: conn.UserAddress,
		Data: map[string]interface{}{
			"connection_id": conn.ID,
		},
	})
}

// Unregister removes a connection and closes its send channel
func (s *WebSocketPushService) Unregister(conn *Connection) {
	s.mutex.Lock()
	conns, ok := s.userConns[conn.UserAddress]
	if !ok {
		s.mutex.Unlock()
		return
	}
	if _, ok := conns[conn.ID]; !ok {
		s.mutex.Unlock()
		return
	}
	delete(conns, conn.ID)
	if len(conns) == 0 {
		delete(s.userConns, conn.UserAddress)
	}
	close(conn.Send)
	s.mutex.Unlock()

	metrics.WebSocketConnections.Dec()
	s.logger.WithFields(logrus.Fields{
		"user_address":  conn.UserAddress,
		"connection_id": conn.ID,
	}).Debug("WebSocket connection unregistered")
}

// ConnectionCount open connections of a user
func (s *WebSocketPushService) ConnectionCount(userAddress string) int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.userConns[userAddress])
}

// PushTransferEvent sends an event to every connection of the user
func (s *WebSocketPushService) PushTransferEvent(userAddress string, event models.TransferEvent) {
	message := PushMessage{
		Type:        "transfer_" + string(event.Status),
		Timestamp:   time.Now().Format(time.RFC3339),
		MessageID:   uuid.NewString(),
		UserAddress: userAddress,
		Data:        event,
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	for _, conn := range s.userConns[userAddress] {
		s.send(conn, message)
	}
}

// send never blocks; a full buffer drops the message
func (s *WebSocketPushService) send(conn *Connection, message PushMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		s.logger.WithError(err).Error("Failed to marshal push message")
		return
	}
	select {
	case conn.Send <- data:
	default:
		s.logger.WithFields(logrus.Fields{
			"user_address":  conn.UserAddress,
			"connection_id": conn.ID,
			"type":          message.Type,
		}).Warn("WebSocket send buffer full, message dropped")
	}
}

// Serve pumps messages for a registered connection until the client goes away
func (s *WebSocketPushService) Serve(conn *Connection) {
	go s.writePump(conn)
	s.readPump(conn)
}

func (s *WebSocketPushService) readPump(conn *Connection) {
	defer func() {
		s.Unregister(conn)
		conn.Conn.Close()
	}()

	conn.Conn.SetReadLimit(4096)
	_ = conn.Conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.Conn.SetPongHandler(func(string) error {
		return conn.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		// clients only listen; anything they send is discarded
		if _, _, err := conn.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *WebSocketPushService) writePump(conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			_ = conn.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
