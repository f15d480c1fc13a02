package render

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"chartcraft/internal/errors"
	"chartcraft/ports"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodConfig configures the headless compiler.
type RodConfig struct {
	// ChromeBin is the browser binary; empty lets the launcher find or
	// download one.
	ChromeBin string
	// ControlURL connects to an already running browser instead of
	// launching one.
	ControlURL string
	ScriptURL  string
	Timeout    time.Duration
}

// RodCompiler compiles Mermaid source to SVG in one headless Chromium page.
// Mermaid is loaded and initialized once when the compiler is created; each
// Compile only calls mermaid.render. Compiles are serialized on the page.
type RodCompiler struct {
	cfg      RodConfig
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page

	mu      sync.Mutex
	counter int
	closed  bool
}

const loadScriptJS = `(url) => new Promise((resolve, reject) => {
	const s = document.createElement('script');
	s.src = url;
	s.onload = () => resolve(true);
	s.onerror = () => reject(new Error('failed to load ' + url));
	document.head.appendChild(s);
})`

const initializeJS = `() => {
	mermaid.initialize({
		startOnLoad: false,
		theme: 'default',
		securityLevel: 'loose',
		fontFamily: 'monospace',
		flowchart: { diagramPadding: 8, htmlLabels: true, curve: 'basis' }
	});
	return true;
}`

const renderJS = `async (id, source) => {
	try {
		const { svg } = await mermaid.render(id, source);
		return { svg: svg };
	} catch (e) {
		const stray = document.getElementById('d' + id);
		if (stray) stray.remove();
		return { error: String((e && e.message) || e) };
	}
}`

// NewRodCompiler launches (or connects to) Chromium, loads Mermaid and
// initializes it.
func NewRodCompiler(ctx context.Context, cfg RodConfig) (*RodCompiler, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	c := &RodCompiler{cfg: cfg}

	controlURL := cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(true)
		if cfg.ChromeBin != "" {
			l = l.Bin(cfg.ChromeBin)
		}
		url, err := l.Launch()
		if err != nil {
			return nil, errors.ExternalServiceError("chromium", err)
		}
		c.launcher = l
		controlURL = url
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		c.cleanupLauncher()
		return nil, errors.ExternalServiceError("chromium", fmt.Errorf("connect: %w", err))
	}
	c.browser = browser

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		c.Close()
		return nil, errors.ExternalServiceError("chromium", fmt.Errorf("open page: %w", err))
	}
	c.page = page

	initCtx, cancel := context.WithTimeout(ctx, 3*cfg.Timeout)
	defer cancel()

	start := time.Now()
	if _, err := page.Context(initCtx).Evaluate(&rod.EvalOptions{
		JS:           loadScriptJS,
		JSArgs:       []interface{}{cfg.ScriptURL},
		AwaitPromise: true,
	}); err != nil {
		c.Close()
		return nil, errors.ExternalServiceError("mermaid", fmt.Errorf("load %s: %w", cfg.ScriptURL, err))
	}
	if _, err := page.Context(initCtx).Evaluate(&rod.EvalOptions{JS: initializeJS, ByValue: true}); err != nil {
		c.Close()
		return nil, errors.ExternalServiceError("mermaid", fmt.Errorf("initialize: %w", err))
	}
	log.Printf("[RodCompiler] ✅ Mermaid initialized in %.2fms", float64(time.Since(start).Nanoseconds())/1e6)

	return c, nil
}

func (c *RodCompiler) Name() string { return "headless" }

// Compile renders source with mermaid.render.
func (c *RodCompiler) Compile(ctx context.Context, source string) (ports.DiagramOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ports.DiagramOutput{}, errors.InternalError("diagram compiler is closed")
	}
	c.counter++
	id := fmt.Sprintf("mermaid-%d", c.counter)

	renderCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	res, err := c.page.Context(renderCtx).Evaluate(&rod.EvalOptions{
		JS:           renderJS,
		JSArgs:       []interface{}{id, source},
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return ports.DiagramOutput{}, errors.ExternalServiceError("mermaid", err)
	}

	var out struct {
		SVG   string `json:"svg"`
		Error string `json:"error"`
	}
	if err := res.Value.Unmarshal(&out); err != nil {
		return ports.DiagramOutput{}, errors.Wrap(err, "failed to decode mermaid result")
	}
	if out.Error != "" {
		return ports.DiagramOutput{}, errors.RenderFailed("diagram compile failed", fmt.Errorf("%s", out.Error))
	}
	return ports.DiagramOutput{SVG: out.SVG, Source: source}, nil
}

// Close shuts the browser down.
func (c *RodCompiler) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var err error
	if c.browser != nil {
		err = c.browser.Close()
	}
	c.cleanupLauncher()
	return err
}

func (c *RodCompiler) cleanupLauncher() {
	if c.launcher != nil {
		c.launcher.Cleanup()
		c.launcher = nil
	}
}
