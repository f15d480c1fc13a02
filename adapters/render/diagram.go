package render

import (
	"context"

	"chartcraft/domain/visual"
	"chartcraft/internal/errors"
	"chartcraft/ports"
)

// DiagramErrorPrefix starts every inline compile error shown to the user.
const DiagramErrorPrefix = "Error rendering diagram: "

// DiagramAdapter renders both the diagram and the flow families; they
// differ only in their catalog entries.
type DiagramAdapter struct {
	family   visual.Family
	compiler ports.DiagramCompiler
}

// NewDiagramAdapter creates an adapter for family (diagram or flow) that
// compiles through the shared compiler.
func NewDiagramAdapter(family visual.Family, compiler ports.DiagramCompiler) *DiagramAdapter {
	return &DiagramAdapter{family: family, compiler: compiler}
}

func (a *DiagramAdapter) Family() visual.Family { return a.family }

// Render clears the mount and compiles in.Source as given; a blank source
// fails like any other. A compile failure is not an error of Render: the
// instance carries the message and no SVG. Failed renders are not retried.
func (a *DiagramAdapter) Render(ctx context.Context, m *Mount, in Input) (*Instance, error) {
	if in.Kind.Family != a.family {
		return nil, errors.InvalidInput(string(a.family) + " adapter cannot render " + string(in.Kind.Family))
	}
	source := in.Source

	return m.replace(func() *Instance {
		inst := &Instance{
			Family: a.family,
			Kind:   in.Kind.Slug,
			Title:  in.Kind.Label,
			Source: source,
		}
		out, err := a.compiler.Compile(ctx, source)
		if err != nil {
			inst.Error = DiagramErrorPrefix + compileMessage(err)
			return inst
		}
		inst.SVG = out.SVG
		inst.ClientRender = out.ClientRender
		return inst
	}), nil
}

// compileMessage is the engine's own message without our wrapping.
func compileMessage(err error) string {
	var appErr *errors.AppError
	if errors.As(err, &appErr) && appErr.Code == errors.CodeRenderFailed {
		if appErr.Cause != nil {
			return appErr.Cause.Error()
		}
		return appErr.Message
	}
	return err.Error()
}
