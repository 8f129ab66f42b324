package main

import "sync"

// SnapshotCell holds the most recently successfully decoded vehicle list.
// Replace is only ever called after a successful poll cycle, so readers
// always see the last good snapshot; a failed cycle leaves it untouched.
type SnapshotCell struct {
	mu       sync.RWMutex
	vehicles []Vehicle
}

func NewSnapshotCell() *SnapshotCell {
	return &SnapshotCell{}
}

func (c *SnapshotCell) Replace(vehicles []Vehicle) {
	c.mu.Lock()
	c.vehicles = vehicles
	c.mu.Unlock()
}

// Current returns the snapshot as published; callers must not mutate it.
func (c *SnapshotCell) Current() []Vehicle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vehicles
}
