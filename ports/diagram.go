package ports

import "context"

// DiagramOutput is the result of compiling one Mermaid source.
type DiagramOutput struct {
	// SVG is the compiled markup; empty when ClientRender is set
	SVG string `json:"svg,omitempty"`
	// ClientRender asks the page to run Mermaid in the browser on Source
	ClientRender bool   `json:"client_render"`
	Source       string `json:"source"`
}

// DiagramCompiler turns Mermaid source into SVG. One compiler is shared by
// the whole process and initializes its engine once.
type DiagramCompiler interface {
	Name() string
	Compile(ctx context.Context, source string) (DiagramOutput, error)
	Close() error
}
