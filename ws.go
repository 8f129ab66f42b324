package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	nuts "github.com/vaudience/go-nuts"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsHub owns the viewer connections and decides, per viewer, what payload
// to deliver: the current snapshot always, the stop catalog only when the
// viewer's zoom level has reached the threshold.
type wsHub struct {
	registry      *ClientRegistry
	cell          *SnapshotCell
	stops         []Stop
	zoomThreshold int

	mu      sync.Mutex
	clients map[string]*websocket.Conn
}

func newHub(registry *ClientRegistry, cell *SnapshotCell, stops []Stop, zoomThreshold int) *wsHub {
	return &wsHub{
		registry:      registry,
		cell:          cell,
		stops:         stops,
		zoomThreshold: zoomThreshold,
		clients:       make(map[string]*websocket.Conn),
	}
}

func (h *wsHub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}
	clientID := nuts.NID("client", 12)
	h.add(clientID, conn)
	h.registry.Register(clientID)
	log.Printf("client connected: %s", clientID)
	go h.readPump(clientID, conn)

	// First push happens at zoom 0, so it never carries stops; the viewer's
	// first zoom report corrects that immediately.
	h.pushTo(clientID)
}

func (h *wsHub) add(clientID string, c *websocket.Conn) {
	h.mu.Lock()
	h.clients[clientID] = c
	h.mu.Unlock()
}

func (h *wsHub) remove(clientID string) {
	h.mu.Lock()
	delete(h.clients, clientID)
	h.mu.Unlock()
}

// Broadcast pushes an individualized payload to every connected viewer.
// This is per-recipient, not one global message: the stop-inclusion
// decision depends on each viewer's zoom level.
func (h *wsHub) Broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for clientID, conn := range h.clients {
		data := h.payloadFor(h.registry.Zoom(clientID))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(h.clients, clientID)
			h.registry.Unregister(clientID)
		}
	}
}

// pushTo sends one viewer an up-to-date payload from the current snapshot.
func (h *wsHub) pushTo(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.clients[clientID]
	if !ok {
		return
	}
	data := h.payloadFor(h.registry.Zoom(clientID))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		conn.Close()
		delete(h.clients, clientID)
		h.registry.Unregister(clientID)
	}
}

func (h *wsHub) payloadFor(zoom int) []byte {
	buses := h.cell.Current()
	if buses == nil {
		buses = []Vehicle{}
	}
	update := busUpdate{Buses: buses}
	if zoom >= h.zoomThreshold {
		update.Stops = &h.stops
	}
	data, err := json.Marshal(serverEvent{Event: "busUpdate", Data: update})
	if err != nil {
		log.Printf("marshal busUpdate: %v", err)
		return []byte(`{"event":"busUpdate","data":{"buses":[]}}`)
	}
	return data
}

// readPump consumes zoom reports until the connection drops. A zoom report
// updates the registry and triggers an immediate push without waiting for
// the next poll cycle.
func (h *wsHub) readPump(clientID string, c *websocket.Conn) {
	defer func() {
		h.remove(clientID)
		h.registry.Unregister(clientID)
		_ = c.Close()
		log.Printf("client disconnected: %s", clientID)
	}()
	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}
		var ev clientEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			log.Printf("bad client message from %s: %v", clientID, err)
			continue
		}
		if ev.Event == "zoomLevel" {
			h.registry.UpdateZoom(clientID, ev.Data)
			h.pushTo(clientID)
		}
	}
}
