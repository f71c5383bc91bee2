package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a requested commit does not exist.
var ErrNotFound = errors.New("store: not found")

// Store represents the SQLite commit history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at the given path and runs migrations.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer; the IBus frontend records from several D-Bus goroutines.
	db.SetMaxOpenConns(1)

	if err := MigrateDB(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying handle for migration tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

// InsertCommit records a commit and returns its ID. A zero timestamp is
// replaced by the current time.
func (s *Store) InsertCommit(c *Commit) (int64, error) {
	if c.TimestampNs == 0 {
		c.TimestampNs = time.Now().UnixNano()
	}

	result, err := s.db.Exec(`
		INSERT INTO commits (session_id, timestamp_ns, source, code, text)
		VALUES (?, ?, ?, ?, ?)`,
		c.SessionID, c.TimestampNs, string(c.Source), c.Code, c.Text,
	)
	if err != nil {
		return 0, fmt.Errorf("insert commit: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}
	c.ID = id
	return id, nil
}

// GetCommit retrieves a commit by ID.
func (s *Store) GetCommit(id int64) (*Commit, error) {
	var c Commit
	var source string
	var code sql.NullInt64

	err := s.db.QueryRow(`
		SELECT id, session_id, timestamp_ns, source, code, text
		FROM commits WHERE id = ?`, id,
	).Scan(&c.ID, &c.SessionID, &c.TimestampNs, &source, &code, &c.Text)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get commit: %w", err)
	}

	c.Source = Source(source)
	c.Code = nullableInt(code)
	return &c, nil
}

// Recent returns the newest commits, newest first.
func (s *Store) Recent(limit int) ([]Commit, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, timestamp_ns, source, code, text
		FROM commits
		ORDER BY timestamp_ns DESC, id DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent commits: %w", err)
	}
	defer rows.Close()

	return scanCommits(rows)
}

// CommitsBySession returns a session's commits in the order they happened.
func (s *Store) CommitsBySession(sessionID string) ([]Commit, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, timestamp_ns, source, code, text
		FROM commits
		WHERE session_id = ?
		ORDER BY timestamp_ns ASC, id ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query session commits: %w", err)
	}
	defer rows.Close()

	return scanCommits(rows)
}

// TopTexts returns the most frequently committed candidates. Ties are broken
// by the most recent use.
func (s *Store) TopTexts(limit int) ([]TextCount, error) {
	rows, err := s.db.Query(`
		SELECT text, code, COUNT(*) AS n, MAX(timestamp_ns) AS last
		FROM commits
		WHERE source = ?
		GROUP BY text, code
		ORDER BY n DESC, last DESC
		LIMIT ?`, string(SourceCandidate), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query top texts: %w", err)
	}
	defer rows.Close()

	var out []TextCount
	for rows.Next() {
		var tc TextCount
		var code sql.NullInt64
		var last int64
		if err := rows.Scan(&tc.Text, &code, &tc.Count, &last); err != nil {
			return nil, fmt.Errorf("scan top text: %w", err)
		}
		tc.Code = nullableInt(code)
		out = append(out, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top texts: %w", err)
	}
	return out, nil
}

// Prune deletes commits older than before and returns how many were removed.
func (s *Store) Prune(before time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM commits WHERE timestamp_ns < ?`, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune commits: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// GetStats summarises the history table.
func (s *Store) GetStats() (*Stats, error) {
	st := &Stats{BySource: make(map[Source]int64)}

	var oldest, newest sql.NullInt64
	err := s.db.QueryRow(`
		SELECT COUNT(*), COUNT(DISTINCT session_id), MIN(timestamp_ns), MAX(timestamp_ns)
		FROM commits`,
	).Scan(&st.Commits, &st.Sessions, &oldest, &newest)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	st.OldestNs = oldest.Int64
	st.NewestNs = newest.Int64

	rows, err := s.db.Query(`SELECT source, COUNT(*) FROM commits GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("query stats by source: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		var n int64
		if err := rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		st.BySource[Source(source)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}
	return st, nil
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

// scanCommits is a helper to scan commit rows into a slice.
func scanCommits(rows *sql.Rows) ([]Commit, error) {
	var commits []Commit

	for rows.Next() {
		var c Commit
		var source string
		var code sql.NullInt64

		if err := rows.Scan(&c.ID, &c.SessionID, &c.TimestampNs, &source, &code, &c.Text); err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}

		c.Source = Source(source)
		c.Code = nullableInt(code)
		commits = append(commits, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commits: %w", err)
	}

	return commits, nil
}
