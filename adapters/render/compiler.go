package render

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"chartcraft/domain/visual"
	"chartcraft/internal/errors"
	"chartcraft/ports"
)

// ClientCompiler leaves compilation to Mermaid in the browser. It only
// rejects sources without a known diagram declaration, so obviously broken
// input gets an immediate message.
type ClientCompiler struct{}

// NewClientCompiler creates the browser passthrough compiler
func NewClientCompiler() *ClientCompiler {
	return &ClientCompiler{}
}

func (c *ClientCompiler) Name() string { return "client" }

// Compile checks the diagram declaration and returns the source for the
// page to render.
func (c *ClientCompiler) Compile(ctx context.Context, source string) (ports.DiagramOutput, error) {
	if strings.TrimSpace(source) == "" {
		return ports.DiagramOutput{}, errors.RenderFailed("diagram compile failed", fmt.Errorf("diagram source is empty"))
	}
	keyword, ok := visual.Header(source)
	if !ok {
		return ports.DiagramOutput{}, errors.RenderFailed("diagram compile failed",
			fmt.Errorf("no diagram type detected for text starting with %q", keyword))
	}
	return ports.DiagramOutput{ClientRender: true, Source: source}, nil
}

func (c *ClientCompiler) Close() error { return nil }

var (
	sharedMu       sync.Mutex
	sharedCompiler ports.DiagramCompiler
)

// SharedCompiler returns the process-wide compiler, running factory the first
// time it is called successfully. Later calls return the same compiler and
// never run factory again.
func SharedCompiler(factory func() (ports.DiagramCompiler, error)) (ports.DiagramCompiler, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if sharedCompiler != nil {
		return sharedCompiler, nil
	}
	c, err := factory()
	if err != nil {
		return nil, err
	}
	sharedCompiler = c
	return c, nil
}

// ResetSharedCompiler closes and forgets the shared compiler.
func ResetSharedCompiler() error {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if sharedCompiler == nil {
		return nil
	}
	err := sharedCompiler.Close()
	sharedCompiler = nil
	return err
}
