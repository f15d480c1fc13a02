package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"chartcraft/domain/core"
	"chartcraft/domain/grid"
	"chartcraft/domain/visual"
	"chartcraft/domain/workspace"
	"chartcraft/internal/errors"
	"chartcraft/internal/profiling"
	"chartcraft/ports"
)

// WorkspaceService owns every mutation of a session workspace. Mutations
// run under one lock: load, change, save.
type WorkspaceService struct {
	mu          sync.Mutex
	store       ports.SessionStore
	catalog     *visual.Catalog
	sheets      ports.SpreadsheetCodec
	distributor *profiling.DistributionAnalyzer
	now         func() time.Time
}

// NewWorkspaceService creates a workspace service
func NewWorkspaceService(store ports.SessionStore, catalog *visual.Catalog, sheets ports.SpreadsheetCodec) *WorkspaceService {
	return &WorkspaceService{
		store:       store,
		catalog:     catalog,
		sheets:      sheets,
		distributor: profiling.NewDistributionAnalyzer(),
		now:         time.Now,
	}
}

// Open returns the workspace of id, creating a seeded one when the session
// has none yet. An empty id starts a new session.
func (s *WorkspaceService) Open(ctx context.Context, id core.SessionID) (*workspace.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx, id)
}

// Select puts (row, col) into editing. A pending edit elsewhere is
// committed first and reported in the result.
func (s *WorkspaceService) Select(ctx context.Context, id core.SessionID, row, col int) (*workspace.Workspace, grid.CommitResult, error) {
	var res grid.CommitResult
	ws, err := s.mutate(ctx, id, func(ws *workspace.Workspace) error {
		var err error
		res, err = ws.Edit.Select(ws.Grid, row, col)
		return coordError(err)
	})
	return ws, res, err
}

// Input replaces the pending buffer. The grid is untouched.
func (s *WorkspaceService) Input(ctx context.Context, id core.SessionID, text string) (*workspace.Workspace, error) {
	return s.mutate(ctx, id, func(ws *workspace.Workspace) error {
		ws.Edit.Input(text)
		return nil
	})
}

// Commit writes the buffer and returns to idle. Committing while idle
// changes nothing.
func (s *WorkspaceService) Commit(ctx context.Context, id core.SessionID) (*workspace.Workspace, grid.CommitResult, error) {
	var res grid.CommitResult
	ws, err := s.mutate(ctx, id, func(ws *workspace.Workspace) error {
		res = ws.Edit.Commit(ws.Grid)
		return nil
	})
	return ws, res, err
}

// CommitCell runs select, input and commit on one cell as a single step,
// the way the page posts a cell on blur.
func (s *WorkspaceService) CommitCell(ctx context.Context, id core.SessionID, row, col int, value string) (*workspace.Workspace, grid.CommitResult, error) {
	var res grid.CommitResult
	ws, err := s.mutate(ctx, id, func(ws *workspace.Workspace) error {
		if _, err := ws.Edit.Select(ws.Grid, row, col); err != nil {
			return coordError(err)
		}
		ws.Edit.Input(value)
		res = ws.Edit.Commit(ws.Grid)
		return nil
	})
	if err == nil && res.Growth.Any() {
		log.Printf("[WorkspaceService] 📈 Grid grew to %dx%d after commit at %s", ws.Grid.Rows(), ws.Grid.Cols(), res.At)
	}
	return ws, res, err
}

// SetChartKind remembers the chart kind last shown for the session.
func (s *WorkspaceService) SetChartKind(ctx context.Context, id core.SessionID, slug string) (*workspace.Workspace, error) {
	if _, err := s.catalog.Lookup(visual.FamilyChart, slug); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(ws *workspace.Workspace) error {
		ws.ChartKind = slug
		return nil
	})
}

// Dataset derives the series of kind from the session grid.
func (s *WorkspaceService) Dataset(ctx context.Context, id core.SessionID, kind visual.Kind) (grid.Dataset, error) {
	if kind.Family != visual.FamilyChart {
		return grid.Dataset{}, errors.InvalidInput(fmt.Sprintf("%s kinds are not drawn from the grid", kind.Family))
	}
	ws, err := s.Open(ctx, id)
	if err != nil {
		return grid.Dataset{}, err
	}
	return grid.Transform(ws.Grid, kind.Shape), nil
}

// Summary describes every series the kind would draw.
func (s *WorkspaceService) Summary(ctx context.Context, id core.SessionID, kind visual.Kind) ([]profiling.SeriesSummary, error) {
	ds, err := s.Dataset(ctx, id, kind)
	if err != nil {
		return nil, err
	}
	summaries, err := s.distributor.SummarizeDataset(ds)
	if err != nil {
		return nil, errors.Wrap(err, "failed to summarize series")
	}
	return summaries, nil
}

// Reset restores the seed grid and drops any pending edit.
func (s *WorkspaceService) Reset(ctx context.Context, id core.SessionID) (*workspace.Workspace, error) {
	return s.mutate(ctx, id, func(ws *workspace.Workspace) error {
		ws.Reset(s.now())
		return nil
	})
}

// ImportSpreadsheet replaces the grid with the contents of an xlsx or csv
// upload. A failed import leaves the workspace unchanged.
func (s *WorkspaceService) ImportSpreadsheet(ctx context.Context, id core.SessionID, src io.Reader, name string) (*workspace.Workspace, error) {
	g, err := s.sheets.ReadGrid(src, name)
	if err != nil {
		return nil, err
	}
	ws, err := s.mutate(ctx, id, func(ws *workspace.Workspace) error {
		ws.Grid = g
		ws.Edit.Cancel()
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[WorkspaceService] 📥 Imported %s into session %s (%dx%d)", name, ws.ID, ws.Grid.Rows(), ws.Grid.Cols())
	return ws, nil
}

// ExportSpreadsheet writes the session grid as xlsx.
func (s *WorkspaceService) ExportSpreadsheet(ctx context.Context, id core.SessionID, w io.Writer) error {
	ws, err := s.Open(ctx, id)
	if err != nil {
		return err
	}
	return s.sheets.WriteGrid(w, ws.Grid)
}

// Forget deletes the session workspace.
func (s *WorkspaceService) Forget(ctx context.Context, id core.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "failed to delete workspace")
	}
	return nil
}

// mutate loads the workspace, applies fn and saves it with a new version.
// Nothing is saved when fn fails.
func (s *WorkspaceService) mutate(ctx context.Context, id core.SessionID, fn func(*workspace.Workspace) error) (*workspace.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.loadLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(ws); err != nil {
		return nil, err
	}
	ws.Touch(s.now())
	if err := s.store.Save(ctx, ws); err != nil {
		return nil, errors.Wrap(err, "failed to save workspace")
	}
	return ws.Clone(), nil
}

func (s *WorkspaceService) loadLocked(ctx context.Context, id core.SessionID) (*workspace.Workspace, error) {
	if id == "" {
		id = core.NewSessionID()
	} else {
		ws, err := s.store.Get(ctx, id)
		if err == nil {
			return ws, nil
		}
		if errors.GetCode(err) != errors.CodeNotFound {
			return nil, errors.Wrap(err, "failed to load workspace")
		}
	}

	ws := workspace.New(id, s.now())
	if err := s.store.Save(ctx, ws); err != nil {
		return nil, errors.Wrap(err, "failed to create workspace")
	}
	log.Printf("[WorkspaceService] ✨ Created workspace for session %s", id)
	return ws.Clone(), nil
}

func coordError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, grid.ErrOutOfRange) || errors.Is(err, grid.ErrTooLarge) {
		return errors.InvalidInput(err.Error())
	}
	return err
}
