// Package workspace is the per-session state behind the chart pages: one
// grid, its edit state and the chart kind last viewed.
package workspace

import (
	"time"

	"chartcraft/domain/core"
	"chartcraft/domain/grid"
)

// DefaultChartKind is shown when a workspace has never opened a chart page.
const DefaultChartKind = "bar"

// Workspace belongs to exactly one browser session.
type Workspace struct {
	ID        core.SessionID `json:"id"`
	Grid      *grid.Grid     `json:"grid"`
	Edit      grid.EditState `json:"edit"`
	ChartKind string         `json:"chart_kind"`
	Version   int64          `json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// New returns a seeded workspace for id.
func New(id core.SessionID, now time.Time) *Workspace {
	return &Workspace{
		ID:        id,
		Grid:      grid.Seed(),
		ChartKind: DefaultChartKind,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch records a mutation.
func (w *Workspace) Touch(now time.Time) {
	w.Version++
	w.UpdatedAt = now
}

// Reset drops every edit and restores the seed grid.
func (w *Workspace) Reset(now time.Time) {
	w.Grid = grid.Seed()
	w.Edit = grid.EditState{}
	w.Touch(now)
}

// Clone returns a deep copy sharing nothing with w.
func (w *Workspace) Clone() *Workspace {
	if w == nil {
		return nil
	}
	c := *w
	if w.Grid != nil {
		c.Grid = w.Grid.Clone()
	}
	if w.Edit.Selected != nil {
		sel := *w.Edit.Selected
		c.Edit.Selected = &sel
	}
	return &c
}

// Expired reports whether w has been idle for longer than ttl.
func (w *Workspace) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(w.UpdatedAt) > ttl
}
