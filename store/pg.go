package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxRows interface {
	Next() bool
	Close()
	Scan(dest ...interface{}) error
	Err() error
}

var _ pgxRows = (pgx.Rows)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS dtrader_run (
    id          UUID PRIMARY KEY,
    script      TEXT NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ,
    error       TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS dtrader_symbol (
    run_id UUID NOT NULL REFERENCES dtrader_run(id) ON DELETE CASCADE,
    name   TEXT NOT NULL,
    type   TEXT NOT NULL,
    value  TEXT NOT NULL,
    PRIMARY KEY (run_id, name)
);
CREATE TABLE IF NOT EXISTS dtrader_chart (
    id       UUID PRIMARY KEY,
    run_id   UUID NOT NULL REFERENCES dtrader_run(id) ON DELETE CASCADE,
    position INT NOT NULL,
    name     TEXT NOT NULL,
    args     TEXT[] NOT NULL
);
`

type pgRepository struct {
	db *pgxpool.Pool
}

func NewPGRepository(db *pgxpool.Pool) Repository {
	return &pgRepository{db: db}
}

// Migrate creates the run tables if they do not exist.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (r *pgRepository) SaveRun(ctx context.Context, run Run) error {
	ctx, cancel := context.WithTimeout(ctx, 4*time.Second)
	defer cancel()
	const upsertRunSQL = `
        INSERT INTO dtrader_run (id, script, started_at, finished_at, error)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (id) DO UPDATE SET
            script      = EXCLUDED.script,
            started_at  = EXCLUDED.started_at,
            finished_at = EXCLUDED.finished_at,
            error       = EXCLUDED.error;
    `
	const upsertSymbolSQL = `
        INSERT INTO dtrader_symbol (run_id, name, type, value)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (run_id, name) DO UPDATE SET
            type  = EXCLUDED.type,
            value = EXCLUDED.value;
    `
	const upsertChartSQL = `
        INSERT INTO dtrader_chart (id, run_id, position, name, args)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (id) DO UPDATE SET
            position = EXCLUDED.position,
            name     = EXCLUDED.name,
            args     = EXCLUDED.args;
    `
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var finished *time.Time
		if !run.FinishedAt.IsZero() {
			finished = &run.FinishedAt
		}
		if _, err := tx.Exec(ctx, upsertRunSQL, run.ID, run.Script, run.StartedAt, finished, run.Err); err != nil {
			return fmt.Errorf("save run %s: %w", run.ID, err)
		}
		for _, s := range run.Symbols {
			if _, err := tx.Exec(ctx, upsertSymbolSQL, run.ID, s.Name, s.Type, s.Value); err != nil {
				return fmt.Errorf("save symbol %s: %w", s.Name, err)
			}
		}
		for i, c := range run.Charts {
			args := c.Args
			if args == nil {
				args = []string{}
			}
			if _, err := tx.Exec(ctx, upsertChartSQL, c.ID, run.ID, i, c.Name, args); err != nil {
				return fmt.Errorf("save chart %s: %w", c.Name, err)
			}
		}
		return nil
	})
}

func (r *pgRepository) GetRun(ctx context.Context, id uuid.UUID) (Run, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var run Run
	var finished *time.Time
	err := r.db.QueryRow(ctx, `
        SELECT id, script, started_at, finished_at, error
        FROM dtrader_run WHERE id = $1
    `, id).Scan(&run.ID, &run.Script, &run.StartedAt, &finished, &run.Err)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, err
	}
	if finished != nil {
		run.FinishedAt = *finished
	}

	var rows pgxRows
	rows, err = r.db.Query(ctx, `SELECT name, type, value FROM dtrader_symbol WHERE run_id = $1 ORDER BY name`, id)
	if err != nil {
		return Run{}, err
	}
	for rows.Next() {
		var s SymbolRecord
		if err := rows.Scan(&s.Name, &s.Type, &s.Value); err != nil {
			rows.Close()
			return Run{}, err
		}
		run.Symbols = append(run.Symbols, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Run{}, err
	}

	rows, err = r.db.Query(ctx, `SELECT id, name, args FROM dtrader_chart WHERE run_id = $1 ORDER BY position`, id)
	if err != nil {
		return Run{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var c ChartRecord
		if err := rows.Scan(&c.ID, &c.Name, &c.Args); err != nil {
			return Run{}, err
		}
		run.Charts = append(run.Charts, c)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	return run, nil
}

func (r *pgRepository) ListRuns(ctx context.Context, limit, offset int) ([]Run, error) {
	limit, offset = page(limit, offset)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var rows pgxRows
	rows, err := r.db.Query(ctx, `
        SELECT id, script, started_at, finished_at, error
        FROM dtrader_run
        ORDER BY started_at DESC LIMIT $1 OFFSET $2
    `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Run, 0)
	for rows.Next() {
		var run Run
		var finished *time.Time
		if err := rows.Scan(&run.ID, &run.Script, &run.StartedAt, &finished, &run.Err); err != nil {
			return nil, err
		}
		if finished != nil {
			run.FinishedAt = *finished
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
