package server

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"clipstream/internal/notifications"
	"clipstream/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const wsTicketTTL = 30 * time.Second

// IssueWSTicket handles POST /ws/ticket. It returns a short-lived single-use
// ticket the client presents when opening the websocket, so the JWT never
// appears in a connection URL.
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	userID := currentUserID(c)

	if s.redis == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Realtime service unavailable",
		})
	}

	ticket := uuid.New().String()
	key := fmt.Sprintf("ws_ticket:%s", ticket)
	if err := s.redis.Set(c.Context(), key, fmt.Sprintf("%d", userID), wsTicketTTL).Err(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to issue ticket",
		})
	}

	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(wsTicketTTL.Seconds()),
	})
}

// WebsocketHandler handles WebSocket connections for realtime notifications.
// Clients are auto-subscribed to their private user channel and manage
// content channel subscriptions with {"type":"subscribe","channel":"Video:42"}
// and {"type":"unsubscribe",...} messages.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		observability.ActiveWebSockets.Inc()
		defer observability.ActiveWebSockets.Dec()

		// Get userID from context locals (set by AuthRequired middleware)
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			log.Printf("WebSocket: Unauthenticated connection attempt")
			_ = conn.WriteMessage(websocket.TextMessage,
				[]byte(`{"type":"error","reason":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			log.Printf("WebSocket: Failed to register user %d: %v", userID, err)
			reject, _ := json.Marshal(map[string]string{
				"type":   "error",
				"reason": err.Error(),
			})
			_ = conn.WriteMessage(websocket.TextMessage, reject)
			_ = conn.Close()
			return
		}

		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			var incomingMsg struct {
				Type    string `json:"type"`
				Channel string `json:"channel"`
			}
			if err := json.Unmarshal(message, &incomingMsg); err != nil {
				log.Printf("WebSocket: Invalid message format from user %d", userID)
				return
			}

			switch incomingMsg.Type {
			case "subscribe":
				if err := s.hub.Subscribe(c, incomingMsg.Channel); err != nil {
					response, _ := json.Marshal(map[string]string{
						"type":    "error",
						"channel": incomingMsg.Channel,
						"reason":  err.Error(),
					})
					c.TrySend(response)
					return
				}
				response, _ := json.Marshal(map[string]string{
					"type":    "subscribed",
					"channel": incomingMsg.Channel,
				})
				c.TrySend(response)

			case "unsubscribe":
				s.hub.Unsubscribe(c, incomingMsg.Channel)
				response, _ := json.Marshal(map[string]string{
					"type":    "unsubscribed",
					"channel": incomingMsg.Channel,
				})
				c.TrySend(response)
			}
		}

		// Send welcome message
		welcome, _ := json.Marshal(map[string]interface{}{
			"type":    "connected",
			"channel": notifications.UserChannel(userID),
		})
		client.TrySend(welcome)

		// Start write pump in a goroutine
		go client.WritePump()

		// Read pump runs in the main handler goroutine (blocking)
		client.ReadPump()
	})
}
