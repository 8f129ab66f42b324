package main

import "sync"

// ClientRegistry tracks each connected viewer's last-reported zoom level.
// State is in-memory and process-lifetime only; viewers re-report zoom on
// reconnect.
type ClientRegistry struct {
	mu   sync.Mutex
	zoom map[string]int
}

func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{zoom: make(map[string]int)}
}

// Register starts tracking a client at zoom 0 if it is not already tracked.
func (r *ClientRegistry) Register(clientID string) {
	r.mu.Lock()
	if _, ok := r.zoom[clientID]; !ok {
		r.zoom[clientID] = 0
	}
	r.mu.Unlock()
}

// UpdateZoom sets a client's zoom level, registering it implicitly.
func (r *ClientRegistry) UpdateZoom(clientID string, zoom int) {
	r.mu.Lock()
	r.zoom[clientID] = zoom
	r.mu.Unlock()
}

// Unregister drops a client; later lookups for it report zoom 0.
func (r *ClientRegistry) Unregister(clientID string) {
	r.mu.Lock()
	delete(r.zoom, clientID)
	r.mu.Unlock()
}

// Zoom returns the client's last-reported zoom level, 0 if unknown.
func (r *ClientRegistry) Zoom(clientID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zoom[clientID]
}
