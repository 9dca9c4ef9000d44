package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// sweepSchemaVersion is the current sweep archive schema version.
const sweepSchemaVersion = 1

const sweepSchemaV1 = `
CREATE TABLE IF NOT EXISTS schema_info (
    version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sweeps (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    model TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    seed INTEGER NOT NULL,
    start_temp REAL NOT NULL,
    end_temp REAL NOT NULL,
    step_temp REAL NOT NULL,
    samples INTEGER NOT NULL,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sweep_points (
    sweep_id INTEGER NOT NULL REFERENCES sweeps(id) ON DELETE CASCADE,
    idx INTEGER NOT NULL,
    temperature REAL NOT NULL,
    magnetization REAL NOT NULL,
    variance REAL NOT NULL,
    susceptibility REAL NOT NULL,
    binder REAL NOT NULL,
    corr TEXT NOT NULL,  -- JSON array, one value per distance
    PRIMARY KEY (sweep_id, idx)
);
CREATE INDEX IF NOT EXISTS idx_points_sweep ON sweep_points(sweep_id);
`

// SweepDB archives sweep results in a SQLite database.
type SweepDB struct {
	db *sql.DB
}

// SweepMetadata describes one archived sweep.
type SweepMetadata struct {
	ID        int64
	Model     string
	Width     int
	Height    int
	Seed      int64
	StartTemp float64
	EndTemp   float64
	StepTemp  float64
	Samples   int
	CreatedAt time.Time
	Points    int
}

// SweepPointRecord is one archived temperature point.
type SweepPointRecord struct {
	Temp   float64
	Mag    float64
	MagVar float64
	Chi    float64
	Binder float64
	Corr   []float64
}

// OpenSweepDB opens (creating if needed) the sweep archive under dir.
func OpenSweepDB(dir string) (*SweepDB, error) {
	path := filepath.Join(dir, "sweeps.db")
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening sweep archive: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with a single writer

	if err := initSweepSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing sweep archive schema: %w", err)
	}
	return &SweepDB{db: db}, nil
}

func (s *SweepDB) Close() error { return s.db.Close() }

func initSweepSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, sweepSchemaV1); err != nil {
		return err
	}
	var version int
	err := db.QueryRowContext(ctx, `SELECT version FROM schema_info LIMIT 1`).Scan(&version)
	if err == sql.ErrNoRows {
		_, err = db.ExecContext(ctx, `INSERT INTO schema_info (version) VALUES (?)`, sweepSchemaVersion)
		return err
	}
	if err != nil {
		return err
	}
	if version != sweepSchemaVersion {
		return fmt.Errorf("sweep archive schema version %d, expected %d", version, sweepSchemaVersion)
	}
	return nil
}

// SaveSweep stores one sweep with its points and returns the sweep id.
func (s *SweepDB) SaveSweep(ctx context.Context, meta SweepMetadata, points []SweepPointRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	created := meta.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO sweeps (model, width, height, seed, start_temp, end_temp, step_temp, samples, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.Model, meta.Width, meta.Height, meta.Seed,
		meta.StartTemp, meta.EndTemp, meta.StepTemp, meta.Samples,
		created.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("inserting sweep: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sweep_points (sweep_id, idx, temperature, magnetization, variance, susceptibility, binder, corr)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, p := range points {
		corr, err := json.Marshal(p.Corr)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, id, i, p.Temp, p.Mag, p.MagVar, p.Chi, p.Binder, string(corr)); err != nil {
			return 0, fmt.Errorf("inserting sweep point %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListSweeps returns archived sweeps, newest first.
func (s *SweepDB) ListSweeps(ctx context.Context) ([]SweepMetadata, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.model, s.width, s.height, s.seed,
		       s.start_temp, s.end_temp, s.step_temp, s.samples, s.created_at,
		       COUNT(p.sweep_id)
		FROM sweeps s
		LEFT JOIN sweep_points p ON p.sweep_id = s.id
		GROUP BY s.id
		ORDER BY s.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SweepMetadata
	for rows.Next() {
		var m SweepMetadata
		var created string
		if err := rows.Scan(&m.ID, &m.Model, &m.Width, &m.Height, &m.Seed,
			&m.StartTemp, &m.EndTemp, &m.StepTemp, &m.Samples, &created, &m.Points); err != nil {
			return nil, err
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, m)
	}
	return out, rows.Err()
}

// LoadPoints returns one sweep's points in temperature order.
func (s *SweepDB) LoadPoints(ctx context.Context, sweepID int64) ([]SweepPointRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT temperature, magnetization, variance, susceptibility, binder, corr
		FROM sweep_points WHERE sweep_id = ? ORDER BY idx`, sweepID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SweepPointRecord
	for rows.Next() {
		var p SweepPointRecord
		var corr string
		if err := rows.Scan(&p.Temp, &p.Mag, &p.MagVar, &p.Chi, &p.Binder, &corr); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(corr), &p.Corr); err != nil {
			return nil, fmt.Errorf("decoding correlation for sweep %d: %w", sweepID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
