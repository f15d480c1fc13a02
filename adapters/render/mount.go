// Package render builds the input objects of the browser visualization
// engines (Chart.js configs, Plotly figures, Mermaid SVG) and the PNG
// rasters offered for download.
package render

import (
	"strings"
	"sync"
	"time"

	"chartcraft/domain/visual"
)

// Instance is what one render leaves on a mount.
type Instance struct {
	Generation uint64        `json:"generation"`
	Family     visual.Family `json:"family"`
	Kind       string        `json:"kind"`
	Title      string        `json:"title,omitempty"`
	// Payload is the engine input: a ChartConfig or a Figure.
	Payload      interface{} `json:"payload,omitempty"`
	SVG          string      `json:"svg,omitempty"`
	Source       string      `json:"source,omitempty"`
	ClientRender bool        `json:"client_render,omitempty"`
	Error        string      `json:"error,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`

	destroyed bool
}

// Destroyed reports whether a later render replaced this instance.
func (i *Instance) Destroyed() bool {
	return i.destroyed
}

// Failed reports whether the engine rejected the input.
func (i *Instance) Failed() bool {
	return i.Error != ""
}

// Mount is a render target that holds at most one live instance. Every
// render destroys the previous instance before the next one is built, so
// two instances never share a mount.
type Mount struct {
	Name string

	mu         sync.Mutex
	current    *Instance
	generation uint64
	touched    time.Time
}

// NewMount creates an empty mount.
func NewMount(name string) *Mount {
	return &Mount{Name: name, touched: time.Now()}
}

// Current returns the live instance, or nil.
func (m *Mount) Current() *Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Clear destroys the live instance and leaves the mount empty.
func (m *Mount) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destroyLocked()
}

// replace destroys the live instance, then builds and installs the next
// one. build runs with the mount locked, so renders on one mount are
// serialized.
func (m *Mount) replace(build func() *Instance) *Instance {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.destroyLocked()
	next := build()
	m.generation++
	next.Generation = m.generation
	next.CreatedAt = time.Now()
	m.touched = next.CreatedAt
	m.current = next
	return next
}

func (m *Mount) idleSince() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.touched
}

func (m *Mount) destroyLocked() {
	if m.current != nil {
		m.current.destroyed = true
		m.current = nil
	}
}

// Mounts hands out one named mount per key, e.g. per session and page.
type Mounts struct {
	mu     sync.Mutex
	mounts map[string]*Mount
}

// NewMounts creates an empty mount registry.
func NewMounts() *Mounts {
	return &Mounts{mounts: make(map[string]*Mount)}
}

// Get returns the mount for key, creating it on first use.
func (r *Mounts) Get(key string) *Mount {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.mounts[key]
	if !ok {
		m = NewMount(key)
		r.mounts[key] = m
	}
	return m
}

// Drop forgets every mount whose key starts with prefix.
func (r *Mounts) Drop(prefix string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.mounts {
		if strings.HasPrefix(key, prefix) {
			delete(r.mounts, key)
		}
	}
}

// Sweep destroys and forgets mounts that have not rendered for longer than
// idle, and returns how many were dropped.
func (r *Mounts) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for key, m := range r.mounts {
		if m.idleSince().Before(cutoff) {
			m.Clear()
			delete(r.mounts, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of mounts.
func (r *Mounts) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.mounts)
}
