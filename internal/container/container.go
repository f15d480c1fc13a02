package container

import (
	"context"
	"fmt"
	"log"

	"chartcraft/adapters/excel"
	"chartcraft/adapters/postgres"
	"chartcraft/adapters/render"
	"chartcraft/app"
	"chartcraft/domain/visual"
	"chartcraft/internal/config"
	"chartcraft/internal/errors"
	"chartcraft/internal/migration"
	"chartcraft/internal/session"
	"chartcraft/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB       *sqlx.DB
	Store    ports.SessionStore
	Compiler ports.DiagramCompiler
	Catalog  *visual.Catalog

	// Services
	Workspaces *app.WorkspaceService
	Renders    *app.RenderService

	memory        *session.MemoryStore
	janitor       *session.Janitor
	renderJanitor *session.Janitor
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config:  cfg,
		Catalog: visual.Default(),
	}

	return c, nil
}

// InitWithDatabase connects the postgres session store. The schema is
// migrated before the store is used.
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db

	// Test database connection
	if err := db.PingContext(ctx); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "database connection test failed"))
	}

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return errors.Wrap(err, "database migration failed")
	}

	repo := postgres.NewSessionRepository(db)
	c.Store = repo
	c.janitor = session.NewJanitor(repo, c.Config.Session.TTL, c.Config.Session.SweepInterval)
	c.janitor.Start()
	log.Printf("Container initialized with postgres session store (ttl %v)", c.Config.Session.TTL)
	return nil
}

// InitInMemory keeps workspaces in process memory and starts the janitor
// that drops idle sessions.
func (c *Container) InitInMemory() {
	c.memory = session.NewMemoryStore()
	c.memory.StartJanitor(c.Config.Session.TTL, c.Config.Session.SweepInterval)
	c.Store = c.memory
	log.Printf("Container initialized with in-memory session store (ttl %v)", c.Config.Session.TTL)
}

// InitServices builds the diagram compiler and the services on top of the
// session store. The compiler is created once per process.
func (c *Container) InitServices(ctx context.Context) error {
	if c.Store == nil {
		return fmt.Errorf("session store not initialized")
	}

	compiler, err := render.SharedCompiler(func() (ports.DiagramCompiler, error) {
		return c.newCompiler(ctx)
	})
	if err != nil {
		return errors.Wrap(err, "failed to initialize diagram compiler")
	}
	c.Compiler = compiler

	c.Workspaces = app.NewWorkspaceService(c.Store, c.Catalog, excel.NewCodec(excel.DefaultExcelConfig()))
	c.Renders = app.NewRenderService(c.Catalog, compiler, app.RenderServiceConfig{
		Timeout:      c.Config.Render.Timeout,
		RasterWidth:  c.Config.Render.RasterWidth,
		RasterHeight: c.Config.Render.RasterHeight,
	})

	c.renderJanitor = session.NewJanitor(c.Renders, c.Config.Session.TTL, c.Config.Session.SweepInterval)
	c.renderJanitor.Start()

	log.Printf("Services initialized with %s diagram compiler", compiler.Name())
	return nil
}

func (c *Container) newCompiler(ctx context.Context) (ports.DiagramCompiler, error) {
	if c.Config.Render.Mode != config.RenderModeHeadless {
		return render.NewClientCompiler(), nil
	}
	rod, err := render.NewRodCompiler(ctx, render.RodConfig{
		ChromeBin: c.Config.Render.ChromeBin,
		ScriptURL: c.Config.Render.MermaidScriptURL,
		Timeout:   c.Config.Render.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return rod, nil
}

// Warmup compiles every default diagram source. Failures are logged by the
// render service and never stop startup.
func (c *Container) Warmup(ctx context.Context) {
	if c.Renders == nil {
		return
	}
	if _, err := c.Renders.Warmup(ctx, c.Config.Render.WarmupConcurrency); err != nil {
		log.Printf("Warning: diagram warmup interrupted: %v", err)
	}
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.memory != nil {
		c.memory.Close()
	}
	if c.janitor != nil {
		c.janitor.Close()
	}
	if c.renderJanitor != nil {
		c.renderJanitor.Close()
	}

	if err := render.ResetSharedCompiler(); err != nil {
		log.Printf("Warning: failed to close diagram compiler: %v", err)
	}

	// Close database connection
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
