package aggregate

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"entrowatt/pkg/protocol"

	_ "modernc.org/sqlite"
)

// Store persists the aggregate table in SQLite. Rows are keyed by
// (run_id, mode), so re-aggregating the same runs updates in place
// instead of duplicating, so the table stays append-only across
// invocations.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS aggregate_rows (
	run_id        TEXT NOT NULL,
	mode          TEXT NOT NULL,
	session_id    TEXT NOT NULL DEFAULT '',
	fingerprint   TEXT NOT NULL DEFAULT '',
	delta_h_a     REAL NOT NULL DEFAULT 0,
	delta_h_b     REAL NOT NULL DEFAULT 0,
	delta_p_a     REAL NOT NULL DEFAULT 0,
	delta_p_b     REAL NOT NULL DEFAULT 0,
	run_delta_h   REAL NOT NULL DEFAULT 0,
	order_effect  REAL,
	idle_w        REAL,
	gross_avg_w   REAL NOT NULL DEFAULT 0,
	net_avg_w     REAL,
	net_energy_j  REAL,
	duration_s    REAL NOT NULL DEFAULT 0,
	updated_at    TEXT NOT NULL,
	PRIMARY KEY (run_id, mode)
);`

// OpenStore opens or creates the results database at path, creating
// the parent directory if needed.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Upsert writes rows into the table. Existing (run_id, mode) pairs are
// updated in place and keep their original position.
func (s *Store) Upsert(rows []Row) error {
	stmt := `
INSERT INTO aggregate_rows (
	run_id, mode, session_id, fingerprint,
	delta_h_a, delta_h_b, delta_p_a, delta_p_b, run_delta_h, order_effect,
	idle_w, gross_avg_w, net_avg_w, net_energy_j, duration_s, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id, mode) DO UPDATE SET
	session_id   = excluded.session_id,
	fingerprint  = excluded.fingerprint,
	delta_h_a    = excluded.delta_h_a,
	delta_h_b    = excluded.delta_h_b,
	delta_p_a    = excluded.delta_p_a,
	delta_p_b    = excluded.delta_p_b,
	run_delta_h  = excluded.run_delta_h,
	order_effect = excluded.order_effect,
	idle_w       = excluded.idle_w,
	gross_avg_w  = excluded.gross_avg_w,
	net_avg_w    = excluded.net_avg_w,
	net_energy_j = excluded.net_energy_j,
	duration_s   = excluded.duration_s,
	updated_at   = excluded.updated_at`

	for _, r := range rows {
		_, err := s.db.Exec(stmt,
			r.RunID, string(r.Mode), r.SessionID, r.Fingerprint,
			r.DeltaHABits, r.DeltaHBBits, r.DeltaPA, r.DeltaPB, r.RunDeltaH, nullable(r.OrderEffect),
			nullable(r.IdleW), r.GrossAvgW, nullable(r.NetAvgW), nullable(r.NetEnergyJ), r.DurationS,
			time.Now().UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("upsert row %s/%s: %w", r.RunID, r.Mode, err)
		}
	}
	return nil
}

// Rows returns the whole table in first-insertion order, which is the
// order runs were first aggregated in.
func (s *Store) Rows() ([]Row, error) {
	rows, err := s.db.Query(`
SELECT run_id, mode, session_id, fingerprint,
       delta_h_a, delta_h_b, delta_p_a, delta_p_b, run_delta_h, order_effect,
       idle_w, gross_avg_w, net_avg_w, net_energy_j, duration_s
FROM aggregate_rows ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var mode string
		var oe, idle, net, energy sql.NullFloat64
		if err := rows.Scan(&r.RunID, &mode, &r.SessionID, &r.Fingerprint,
			&r.DeltaHABits, &r.DeltaHBBits, &r.DeltaPA, &r.DeltaPB, &r.RunDeltaH, &oe,
			&idle, &r.GrossAvgW, &net, &energy, &r.DurationS); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.Mode = protocol.Mode(mode)
		r.OrderEffect = fromNull(oe)
		r.IdleW = fromNull(idle)
		r.NetAvgW = fromNull(net)
		r.NetEnergyJ = fromNull(energy)
		out = append(out, r)
	}
	return out, rows.Err()
}

// nullable maps NaN to SQL NULL.
func nullable(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func fromNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
