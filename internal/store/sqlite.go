package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/glxcee/storm-tape/internal/model"
	"github.com/glxcee/storm-tape/internal/probe"
)

const schema = `
CREATE TABLE IF NOT EXISTS stages (
	id           TEXT PRIMARY KEY,
	created_at   INTEGER NOT NULL,
	started_at   INTEGER NOT NULL DEFAULT 0,
	completed_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS files (
	stage_id      TEXT NOT NULL REFERENCES stages(id),
	seq           INTEGER NOT NULL,
	logical_path  TEXT NOT NULL,
	physical_path TEXT NOT NULL,
	state         TEXT NOT NULL,
	started_at    INTEGER NOT NULL DEFAULT 0,
	finished_at   INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (stage_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_files_state ON files(state);
CREATE INDEX IF NOT EXISTS idx_files_stage ON files(stage_id);
`

// writeCmd is one unit of work handed to the writer goroutine. done is nil
// for fire-and-forget submissions.
type writeCmd struct {
	fn   func(*sql.Tx) error
	done chan error
}

// SQLiteStore is the Store implementation backed by an embedded SQLite
// database, opened in WAL mode with a single dedicated writer connection
// and a small pool of read-only connections.
type SQLiteStore struct {
	prober probe.Prober

	writeDB *sql.DB
	readDB  *sql.DB

	queue  chan writeCmd
	wg     sync.WaitGroup
	closed chan struct{}
	once   sync.Once
}

// NewSQLiteStore opens (creating if necessary) the database at path,
// applies the schema, and starts the writer goroutine. prober is used by
// CountRecallable and TakeRecallable to resolve the
// in-progress / on-tape facts that are not themselves stored in SQL.
func NewSQLiteStore(path string, prober probe.Prober, readPoolSize int) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", path)

	writeDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open writer connection: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	if _, err := writeDB.Exec(schema); err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}

	readDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("store: open reader pool: %w", err)
	}
	if readPoolSize <= 0 {
		readPoolSize = 4
	}
	readDB.SetMaxOpenConns(readPoolSize)

	s := &SQLiteStore{
		prober:  prober,
		writeDB: writeDB,
		readDB:  readDB,
		queue:   make(chan writeCmd, 64),
		closed:  make(chan struct{}),
	}

	s.wg.Add(1)
	go s.runWriter()

	return s, nil
}

// runWriter is the DbWriter-equivalent actor: it drains the command
// channel, runs each command in its own transaction against the sole
// writable connection, and reports the result if the caller is waiting.
func (s *SQLiteStore) runWriter() {
	defer s.wg.Done()
	for cmd := range s.queue {
		err := s.runInTx(cmd.fn)
		if cmd.done != nil {
			cmd.done <- err
		}
	}
}

func (s *SQLiteStore) runInTx(fn func(*sql.Tx) error) error {
	tx, err := s.writeDB.Begin()
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// enqueueAndWait submits fn to the writer and blocks until it has run.
func (s *SQLiteStore) enqueueAndWait(fn func(*sql.Tx) error) error {
	done := make(chan error, 1)
	s.queue <- writeCmd{fn: fn, done: done}
	return <-done
}

// Close stops accepting new writes, lets the writer drain whatever is
// already queued, then closes both connections.
func (s *SQLiteStore) Close() error {
	s.once.Do(func() {
		close(s.queue)
		close(s.closed)
	})
	s.wg.Wait()
	werr := s.writeDB.Close()
	rerr := s.readDB.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

func (s *SQLiteStore) Insert(ctx context.Context, stage *model.Stage) error {
	return s.enqueueAndWait(func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stages (id, created_at, started_at, completed_at) VALUES (?, ?, ?, ?)`,
			stage.ID, stage.CreatedAt, stage.StartedAt, stage.CompletedAt,
		); err != nil {
			return fmt.Errorf("store: insert stage: %w", err)
		}
		for i, f := range stage.Files {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO files (stage_id, seq, logical_path, physical_path, state, started_at, finished_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				stage.ID, i, f.LogicalPath, f.PhysicalPath, string(f.State), f.StartedAt, f.FinishedAt,
			); err != nil {
				return fmt.Errorf("store: insert file: %w", err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) Find(ctx context.Context, id string) (*model.Stage, error) {
	row := s.readDB.QueryRowContext(ctx,
		`SELECT created_at, started_at, completed_at FROM stages WHERE id = ?`, id)

	var createdAt, startedAt, completedAt int64
	if err := row.Scan(&createdAt, &startedAt, &completedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: find stage: %w", err)
	}

	rows, err := s.readDB.QueryContext(ctx,
		`SELECT logical_path, physical_path, state, started_at, finished_at
		 FROM files WHERE stage_id = ? ORDER BY seq ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("store: find stage files: %w", err)
	}
	defer rows.Close()

	var files []model.File
	for rows.Next() {
		var f model.File
		var state string
		if err := rows.Scan(&f.LogicalPath, &f.PhysicalPath, &state, &f.StartedAt, &f.FinishedAt); err != nil {
			return nil, fmt.Errorf("store: scan file row: %w", err)
		}
		f.State = model.State(state)
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate file rows: %w", err)
	}

	stage := model.NewStage(id, createdAt, files)
	stage.StartedAt = startedAt
	stage.CompletedAt = completedAt
	return stage, nil
}

func (s *SQLiteStore) UpdateFiles(ctx context.Context, id string, diffs []FileDiff) error {
	return s.enqueueAndWait(func(tx *sql.Tx) error {
		for _, d := range diffs {
			res, err := tx.ExecContext(ctx,
				`UPDATE files SET state = ?, started_at = ?, finished_at = ?
				 WHERE stage_id = ? AND physical_path = ?`,
				string(d.State), d.StartedAt, d.FinishedAt, id, d.PhysicalPath,
			)
			if err != nil {
				return fmt.Errorf("store: update file: %w", err)
			}
			if n, err := res.RowsAffected(); err == nil && n == 0 {
				return fmt.Errorf("store: update file: no row for stage %s path %s", id, d.PhysicalPath)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) UpdateStageTimes(ctx context.Context, id string, startedAt, completedAt int64) error {
	return s.enqueueAndWait(func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE stages SET started_at = ?, completed_at = ? WHERE id = ?`,
			startedAt, completedAt, id,
		)
		if err != nil {
			return fmt.Errorf("store: update stage times: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *SQLiteStore) Erase(ctx context.Context, id string) error {
	return s.enqueueAndWait(func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE stage_id = ?`, id); err != nil {
			return fmt.Errorf("store: erase files: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM stages WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("store: erase stage: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// nonTerminalCandidates is the shared query behind CountRecallable and
// TakeRecallable: file rows in submitted or started
// state, belonging to a stage that has not yet completed, oldest stage
// first.
func (s *SQLiteStore) nonTerminalCandidates(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT f.physical_path
		FROM files f
		JOIN stages st ON st.id = f.stage_id
		WHERE st.completed_at = 0
		  AND f.state IN ('submitted', 'started')
		ORDER BY st.created_at ASC, f.seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: query recallable candidates: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("store: scan candidate row: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func (s *SQLiteStore) CountRecallable(ctx context.Context) (int, error) {
	candidates, err := s.nonTerminalCandidates(ctx, s.readDB)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, p := range candidates {
		inProgress, err := s.prober.IsInProgress(p)
		if err != nil {
			// A probe error leaves the file's recallability undetermined;
			// it is conservatively excluded from this round's count.
			continue
		}
		if !inProgress {
			count++
		}
	}
	return count, nil
}

func (s *SQLiteStore) TakeRecallable(ctx context.Context, n int) ([]string, error) {
	var result []string
	err := s.enqueueAndWait(func(tx *sql.Tx) error {
		candidates, err := s.nonTerminalCandidatesTx(ctx, tx)
		if err != nil {
			return err
		}
		for _, p := range candidates {
			if len(result) >= n {
				break
			}
			inProgress, err := s.prober.IsInProgress(p)
			if err != nil || inProgress {
				// Already handed to the recaller (or undetermined); must
				// not be re-selected by a concurrent take-over round.
				continue
			}
			status := probe.NewStatus(s.prober, p)
			switch status.Locality() {
			case model.LocalityTape, model.LocalityLost:
				result = append(result, p)
			}
		}
		return nil
	})
	return result, err
}

// nonTerminalCandidatesTx is nonTerminalCandidates run against the
// writer's own transaction, used by TakeRecallable so that the selection
// is serialised with every other write (and with concurrent take-overs).
func (s *SQLiteStore) nonTerminalCandidatesTx(ctx context.Context, tx *sql.Tx) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT f.physical_path
		FROM files f
		JOIN stages st ON st.id = f.stage_id
		WHERE st.completed_at = 0
		  AND f.state IN ('submitted', 'started')
		ORDER BY st.created_at ASC, f.seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: query recallable candidates: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("store: scan candidate row: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func (s *SQLiteStore) ListInProgress(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.readDB.QueryContext(ctx, `SELECT f.physical_path FROM files f JOIN stages st ON st.id = f.stage_id
		WHERE f.state = 'started' ORDER BY st.created_at ASC, f.seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		if len(result) >= limit {
			break
		}
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("store: scan in-progress row: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
