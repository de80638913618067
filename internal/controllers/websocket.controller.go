package controllers

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"sysmonitor/internal/middleware"
	"sysmonitor/internal/services"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// TokenValidator checks stream access tokens
type TokenValidator interface {
	ValidateToken(token string) (*services.CustomClaims, error)
}

// WebSocketController upgrades clients onto the snapshot stream
type WebSocketController struct {
	hub       *services.WebSocketHub
	auth      TokenValidator
	security  *middleware.SecurityLogger
	validator *middleware.InputValidator
	upgrader  websocket.Upgrader
	log       zerolog.Logger
	nextID    atomic.Uint64
}

// NewWebSocketController creates the controller. A nil auth disables
// token checks entirely.
func NewWebSocketController(hub *services.WebSocketHub, auth TokenValidator, allowedOrigins []string, security *middleware.SecurityLogger, log zerolog.Logger) *WebSocketController {
	return &WebSocketController{
		hub:       hub,
		auth:      auth,
		security:  security,
		validator: middleware.NewInputValidator(),
		log:       log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Non-browser clients send no Origin
				return origin == "" || middleware.OriginAllowed(allowedOrigins, origin)
			},
		},
	}
}

func (wc *WebSocketController) validate(token string) (*services.CustomClaims, error) {
	if !wc.validator.ValidateToken(token) {
		return nil, fmt.Errorf("malformed token")
	}
	return wc.auth.ValidateToken(token)
}

// HandleWebSocket handles incoming WebSocket connections
func (wc *WebSocketController) HandleWebSocket(c *gin.Context) {
	clientName := "anonymous"
	if wc.auth != nil {
		token := c.Query("token")
		if token == "" {
			wc.security.LogFailedAuth(c.ClientIP(), "missing token")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := wc.validate(token)
		if err != nil {
			wc.security.LogFailedAuth(c.ClientIP(), "invalid token: "+err.Error())
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		clientName = claims.ClientName
	}

	ws, err := wc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		wc.log.Warn().Err(err).Str("ip", c.ClientIP()).Msg("upgrade failed")
		return
	}
	wc.security.LogWebSocketConnected(c.ClientIP(), clientName)

	clientID := fmt.Sprintf("%s-%s-%d", c.ClientIP(), clientName, wc.nextID.Add(1))
	client := services.NewClientConnection(clientID, ws)

	if !wc.hub.Register(client) {
		_ = ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		ws.Close()
		return
	}

	go wc.writePump(client)
	go wc.readPump(client, c.ClientIP())
}

// readPump reads messages from the WebSocket client
func (wc *WebSocketController) readPump(client *services.ClientConnection, ip string) {
	defer func() {
		wc.hub.Unregister(client)
		close(client.Close)
		client.Conn.Close()
		wc.security.LogWebSocketDisconnected(ip, client.ID)
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	_ = client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg services.WebSocketMessage
		if err := client.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				wc.log.Warn().Err(err).Str("client", client.ID).Msg("read error")
			}
			return
		}

		switch msg.Type {
		case services.MessageAuth:
			wc.reply(client, wc.authReply(client, msg.Token))

		case services.MessagePing:
			wc.reply(client, services.WebSocketMessage{Type: services.MessagePong, Timestamp: time.Now()})

		case services.MessageSubscribe:
			// Already subscribed; resend the latest snapshot
			if snap := wc.hub.Latest(); snap.Ready() {
				wc.reply(client, services.SnapshotMessage(snap))
			}

		case services.MessageUnsubscribe:
			return

		default:
			wc.log.Debug().Str("client", client.ID).Str("type", msg.Type).Msg("unknown message type")
			wc.reply(client, services.WebSocketMessage{
				Type:      services.MessageError,
				Timestamp: time.Now(),
				Error:     "unknown message type",
			})
		}
	}
}

func (wc *WebSocketController) authReply(client *services.ClientConnection, token string) services.WebSocketMessage {
	if wc.auth == nil {
		return services.WebSocketMessage{Type: services.MessageAuthSuccess, Timestamp: time.Now()}
	}

	claims, err := wc.validate(token)
	if err != nil {
		wc.security.LogFailedAuth(client.ID, "websocket auth message: "+err.Error())
		return services.WebSocketMessage{
			Type:      services.MessageAuthError,
			Timestamp: time.Now(),
			Error:     "invalid token",
		}
	}
	return services.WebSocketMessage{
		Type:      services.MessageAuthSuccess,
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"client_name": claims.ClientName},
	}
}

func (wc *WebSocketController) reply(client *services.ClientConnection, msg services.WebSocketMessage) {
	if !wc.hub.SendMessage(client, msg) {
		wc.log.Debug().Str("client", client.ID).Str("type", msg.Type).Msg("reply dropped")
	}
}

// writePump writes messages to the WebSocket client
func (wc *WebSocketController) writePump(client *services.ClientConnection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteJSON(msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					wc.log.Warn().Err(err).Str("client", client.ID).Msg("write error")
				}
				return
			}

		case <-ticker.C:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-client.Close:
			_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
