package render

import (
	"context"
	"fmt"

	"chartcraft/domain/grid"
	"chartcraft/domain/visual"
	"chartcraft/internal/errors"
)

// Input carries everything a render may need. Chart kinds read Grid, 3D
// kinds read Grid when set and fall back to sample data, diagram and flow
// kinds read Source.
type Input struct {
	Kind   visual.Kind
	Grid   *grid.Grid
	Source string
}

// Adapter renders every kind of one family.
type Adapter interface {
	Family() visual.Family
	Render(ctx context.Context, m *Mount, in Input) (*Instance, error)
}

// Registry dispatches renders to the adapter of the kind's family.
type Registry struct {
	adapters map[visual.Family]Adapter
}

// NewRegistry builds a registry from adapters; a later adapter for the same
// family replaces an earlier one.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[visual.Family]Adapter)}
	for _, a := range adapters {
		r.adapters[a.Family()] = a
	}
	return r
}

// Render finds the family adapter and renders in onto m.
func (r *Registry) Render(ctx context.Context, m *Mount, in Input) (*Instance, error) {
	a, ok := r.adapters[in.Kind.Family]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("renderer for %s", in.Kind.Family))
	}
	return a.Render(ctx, m, in)
}
