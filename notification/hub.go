// Package notification broadcasts build events to WebSocket
// subscribers watching the relay.
package notification

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"telejenkins/shared/message"
)

type client struct {
	conn        *websocket.Conn
	buildNumber string
	clientID    string

	// The websocket connection allows one concurrent writer; every
	// outbound frame goes through writeJSON/writeControl.
	writeMu sync.Mutex
}

func (c *client) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *client) writeControl(messageType int, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(messageType, payload)
}

// Hub fans build events out to connected clients. Clients may scope
// themselves to one build number or receive everything.
type Hub struct {
	clients      map[string]*client
	clientsMutex sync.RWMutex
	upgrader     websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	buildNumber := r.URL.Query().Get("buildNumber")
	clientID := r.URL.Query().Get("clientId")

	if clientID == "" {
		log.Printf("Missing clientId")
		conn.Close()
		return
	}

	c := &client{
		conn:        conn,
		buildNumber: buildNumber, // empty means all builds
		clientID:    clientID,
	}

	h.clientsMutex.Lock()
	h.clients[clientID] = c
	h.clientsMutex.Unlock()

	defer func() {
		h.clientsMutex.Lock()
		delete(h.clients, clientID)
		h.clientsMutex.Unlock()
		conn.Close()
	}()

	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if messageType == websocket.PingMessage {
			c.writeControl(websocket.PongMessage, payload)
		}
	}
}

// BroadcastStatus pushes a build status update to interested clients.
func (h *Hub) BroadcastStatus(statusMsg message.BuildStatusMessage) {
	h.broadcast(statusMsg.BuildNumber, map[string]interface{}{
		"type":        "status",
		"jobName":     statusMsg.JobName,
		"buildNumber": statusMsg.BuildNumber,
		"status":      statusMsg.Status,
		"message":     statusMsg.Message,
		"time":        statusMsg.UpdatedAt,
	})
}

// BroadcastCompletion pushes a finalized build to interested clients.
func (h *Hub) BroadcastCompletion(completionMsg message.BuildCompletionMessage) {
	h.broadcast(completionMsg.BuildNumber, map[string]interface{}{
		"type":        "completion",
		"pipeline":    completionMsg.PipelineName,
		"buildNumber": completionMsg.BuildNumber,
		"buildType":   completionMsg.BuildType,
		"buildUrl":    completionMsg.BuildURL,
		"manifestUrl": completionMsg.ManifestURL,
		"time":        completionMsg.CompletedAt,
	})
}

func (h *Hub) broadcast(buildNumber string, payload map[string]interface{}) {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()

	for clientID, c := range h.clients {
		if c.buildNumber == "" || c.buildNumber == buildNumber {
			if err := c.writeJSON(payload); err != nil {
				log.Printf("Failed to send message to client %s: %v", clientID, err)
				// Client is cleaned up by its connection handler
			}
		}
	}
}
