package app

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"chartcraft/adapters/render"
	"chartcraft/domain/core"
	"chartcraft/domain/grid"
	"chartcraft/domain/visual"
	"chartcraft/internal/errors"
	"chartcraft/ports"

	"golang.org/x/sync/errgroup"
)

// RenderService renders visualizations onto per-session mounts.
type RenderService struct {
	catalog    *visual.Catalog
	registry   *render.Registry
	mounts     *render.Mounts
	compiler   ports.DiagramCompiler
	rasterizer *render.Rasterizer
	timeout    time.Duration
}

// RenderServiceConfig tunes a RenderService.
type RenderServiceConfig struct {
	Timeout      time.Duration
	RasterWidth  int
	RasterHeight int
}

// WarmupReport counts the default sources compiled at startup.
type WarmupReport struct {
	Compiled int           `json:"compiled"`
	Failed   []string      `json:"failed,omitempty"`
	Elapsed  time.Duration `json:"elapsed"`
}

// NewRenderService wires one adapter per family around the shared
// diagram compiler.
func NewRenderService(catalog *visual.Catalog, compiler ports.DiagramCompiler, cfg RenderServiceConfig) *RenderService {
	return &RenderService{
		catalog: catalog,
		registry: render.NewRegistry(
			render.NewChartAdapter(),
			render.NewPlot3DAdapter(),
			render.NewDiagramAdapter(visual.FamilyDiagram, compiler),
			render.NewDiagramAdapter(visual.FamilyFlow, compiler),
		),
		mounts:     render.NewMounts(),
		compiler:   compiler,
		rasterizer: render.NewRasterizer(cfg.RasterWidth, cfg.RasterHeight),
		timeout:    cfg.Timeout,
	}
}

// Catalog returns the kind catalog the service renders from.
func (s *RenderService) Catalog() *visual.Catalog {
	return s.catalog
}

// CompilerName names the diagram compiler in use.
func (s *RenderService) CompilerName() string {
	return s.compiler.Name()
}

// Render draws in onto the session's mount for the kind, replacing
// whatever the mount showed before.
func (s *RenderService) Render(ctx context.Context, session core.SessionID, in render.Input) (*render.Instance, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.registry.Render(ctx, s.mounts.Get(mountKey(session, in.Kind)), in)
}

// RenderDetached draws in onto a fresh mount that no session owns, for
// stateless API calls.
func (s *RenderService) RenderDetached(ctx context.Context, in render.Input) (*render.Instance, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.registry.Render(ctx, render.NewMount("detached"), in)
}

// Current returns what the session's mount for kind shows, or nil.
func (s *RenderService) Current(session core.SessionID, kind visual.Kind) *render.Instance {
	return s.mounts.Get(mountKey(session, kind)).Current()
}

// DropSession forgets every mount of a session.
func (s *RenderService) DropSession(session core.SessionID) {
	s.mounts.Drop(session.String() + "/")
}

// Sweep drops the mounts of sessions idle for longer than ttl. It lets a
// session janitor expire render state alongside workspaces.
func (s *RenderService) Sweep(ctx context.Context, ttl time.Duration) (int, error) {
	return s.mounts.Sweep(ttl), nil
}

// ChartPNG rasterizes the dataset of a chart kind.
func (s *RenderService) ChartPNG(w io.Writer, kind visual.Kind, ds grid.Dataset) error {
	if kind.Family != visual.FamilyChart {
		return errors.InvalidInput("only chart kinds download as PNG")
	}
	return s.rasterizer.RenderPNG(w, kind, ds)
}

// FlattenUpload composites an uploaded canvas PNG over white.
func (s *RenderService) FlattenUpload(w io.Writer, r io.Reader) error {
	return render.FlattenPNG(w, r)
}

// Warmup compiles the default source of every diagram and flow kind with at
// most limit compiles in flight. Compile failures are logged and reported;
// they do not stop the warmup.
func (s *RenderService) Warmup(ctx context.Context, limit int) (WarmupReport, error) {
	start := time.Now()
	var kinds []visual.Kind
	for _, family := range []visual.Family{visual.FamilyDiagram, visual.FamilyFlow} {
		kinds = append(kinds, s.catalog.Kinds(family)...)
	}

	var (
		mu     sync.Mutex
		report WarmupReport
	)
	if limit < 1 {
		limit = 1
	}
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for _, k := range kinds {
		k := k
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			source, err := visual.DefaultSource(k)
			if err == nil {
				cctx, cancel := context.WithTimeout(egCtx, s.timeoutOrDefault())
				_, err = s.compiler.Compile(cctx, source)
				cancel()
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("[RenderService] ⚠️ Warmup failed for %s/%s: %v", k.Family, k.Slug, err)
				report.Failed = append(report.Failed, string(k.Family)+"/"+k.Slug)
				return nil
			}
			report.Compiled++
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return report, errors.Wrap(err, "diagram warmup interrupted")
	}

	report.Elapsed = time.Since(start)
	log.Printf("[RenderService] 🔥 Warmed %s compiler: %d compiled, %d failed in %v",
		s.compiler.Name(), report.Compiled, len(report.Failed), report.Elapsed)
	return report, nil
}

func (s *RenderService) timeoutOrDefault() time.Duration {
	if s.timeout > 0 {
		return s.timeout
	}
	return 10 * time.Second
}

func mountKey(session core.SessionID, kind visual.Kind) string {
	return session.String() + "/" + string(kind.Family) + "/" + kind.Slug
}
