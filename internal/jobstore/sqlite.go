package jobstore

import (
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lead-engine/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	started_at TEXT NOT NULL,
	state      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_started ON jobs (started_at DESC);
`

// SQLite stores snapshots in an embedded database so job history survives
// server restarts. The full snapshot is kept as a JSON column; status and
// start time are lifted out for ordering and pruning.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (and creates if needed) the store at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "jobstore: opening database")
	}
	// modernc sqlite serializes writes itself; one connection avoids
	// SQLITE_BUSY churn under concurrent snapshots.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "jobstore: creating schema")
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Put(state *model.JobState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return eris.Wrap(err, "jobstore: encoding snapshot")
	}
	_, err = s.db.Exec(`
		INSERT INTO jobs (id, status, started_at, state) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET status = excluded.status, state = excluded.state`,
		state.ID, string(state.Status), state.StartedAt.Format(timeLayout), string(data))
	if err != nil {
		return eris.Wrap(err, "jobstore: writing snapshot")
	}
	return nil
}

func (s *SQLite) Get(id string) (*model.JobState, bool) {
	var data string
	err := s.db.QueryRow(`SELECT state FROM jobs WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		zap.L().Error("jobstore: read failed", zap.String("id", id), zap.Error(err))
		return nil, false
	}
	var state model.JobState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		zap.L().Error("jobstore: corrupt snapshot", zap.String("id", id), zap.Error(err))
		return nil, false
	}
	return &state, true
}

func (s *SQLite) List() []*model.JobState {
	rows, err := s.db.Query(`SELECT state FROM jobs ORDER BY started_at DESC, id`)
	if err != nil {
		zap.L().Error("jobstore: list failed", zap.Error(err))
		return nil
	}
	defer rows.Close()

	var out []*model.JobState
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			continue
		}
		var state model.JobState
		if err := json.Unmarshal([]byte(data), &state); err != nil {
			continue
		}
		out = append(out, &state)
	}
	return out
}

func (s *SQLite) PruneFinished(maxKeep int) error {
	_, err := s.db.Exec(`
		DELETE FROM jobs WHERE status != 'running' AND id NOT IN (
			SELECT id FROM jobs WHERE status != 'running'
			ORDER BY started_at DESC, id LIMIT ?
		)`, maxKeep)
	if err != nil {
		return eris.Wrap(err, "jobstore: pruning")
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
