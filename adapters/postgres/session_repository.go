package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"chartcraft/domain/core"
	"chartcraft/domain/grid"
	"chartcraft/domain/workspace"
	"chartcraft/internal/errors"

	"github.com/jmoiron/sqlx"
)

// workspaceRow mirrors one row of workspace_sessions. JSONB columns travel
// as text; lib/pq would send []byte as bytea.
type workspaceRow struct {
	SessionID string    `db:"session_id"`
	Cells     string    `db:"cells"`
	EditState string    `db:"edit_state"`
	ChartKind string    `db:"chart_kind"`
	Version   int64     `db:"version"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SessionRepository stores workspaces in postgres so sessions survive a
// restart and can be shared by several server processes.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new workspace session repository
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Get loads the workspace for a session
func (r *SessionRepository) Get(ctx context.Context, id core.SessionID) (*workspace.Workspace, error) {
	query := `
		SELECT session_id, cells, edit_state, chart_kind, version, created_at, updated_at
		FROM workspace_sessions
		WHERE session_id = $1`

	var row workspaceRow
	if err := r.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("workspace " + id.String())
		}
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to get workspace"))
	}

	return row.toWorkspace()
}

// Save upserts the workspace
func (r *SessionRepository) Save(ctx context.Context, ws *workspace.Workspace) error {
	if ws == nil || ws.ID == "" {
		return errors.InvalidInput("workspace without an id")
	}
	row, err := fromWorkspace(ws)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO workspace_sessions (session_id, cells, edit_state, chart_kind, version, created_at, updated_at)
		VALUES (:session_id, :cells, :edit_state, :chart_kind, :version, :created_at, :updated_at)
		ON CONFLICT (session_id) DO UPDATE SET
			cells = EXCLUDED.cells,
			edit_state = EXCLUDED.edit_state,
			chart_kind = EXCLUDED.chart_kind,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at`

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to save workspace"))
	}
	return nil
}

// Delete removes a session's workspace
func (r *SessionRepository) Delete(ctx context.Context, id core.SessionID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM workspace_sessions WHERE session_id = $1`, id.String()); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to delete workspace"))
	}
	return nil
}

// Sweep deletes workspaces not updated within ttl
func (r *SessionRepository) Sweep(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().Add(-ttl)
	res, err := r.db.ExecContext(ctx, `DELETE FROM workspace_sessions WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to sweep workspaces"))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(n), nil
}

func fromWorkspace(ws *workspace.Workspace) (*workspaceRow, error) {
	g := ws.Grid
	if g == nil {
		g = grid.Seed()
	}
	cells, err := json.Marshal(g)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal grid")
	}
	edit, err := json.Marshal(ws.Edit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal edit state")
	}
	return &workspaceRow{
		SessionID: ws.ID.String(),
		Cells:     string(cells),
		EditState: string(edit),
		ChartKind: ws.ChartKind,
		Version:   ws.Version,
		CreatedAt: ws.CreatedAt,
		UpdatedAt: ws.UpdatedAt,
	}, nil
}

func (row *workspaceRow) toWorkspace() (*workspace.Workspace, error) {
	id, err := core.ParseSessionID(row.SessionID)
	if err != nil {
		return nil, errors.Wrap(err, "stored workspace has a malformed session id")
	}
	var g grid.Grid
	if err := json.Unmarshal([]byte(row.Cells), &g); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal grid")
	}
	var edit grid.EditState
	if len(row.EditState) > 0 {
		if err := json.Unmarshal([]byte(row.EditState), &edit); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal edit state")
		}
	}
	return &workspace.Workspace{
		ID:        id,
		Grid:      &g,
		Edit:      edit,
		ChartKind: row.ChartKind,
		Version:   row.Version,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
