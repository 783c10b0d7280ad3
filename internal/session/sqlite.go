package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists sessions so an in-flight quiz survives a process
// restart. Live sessions are cached in memory and written through on Put:
// the cache keeps a single *Session (and therefore a single mutex) per
// user, the table is only read on cache misses after a restart.
type SQLiteStore struct {
	db *sql.DB

	mu    sync.Mutex
	cache map[int64]*Session
}

const sessionsSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	user_id    INTEGER PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session db %s: %w", path, err)
	}
	if _, err := db.Exec(sessionsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init session db: %w", err)
	}
	return &SQLiteStore{db: db, cache: make(map[int64]*Session)}, nil
}

func (st *SQLiteStore) Close() error {
	return st.db.Close()
}

func (st *SQLiteStore) Get(userID int64) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.cache[userID]; ok {
		return s, true
	}

	var data string
	err := st.db.QueryRow(`SELECT data FROM sessions WHERE user_id = ?`, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		return nil, false
	}
	var r Record
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, false
	}
	s := FromRecord(r)
	st.cache[userID] = s
	return s, true
}

func (st *SQLiteStore) Put(s *Session) error {
	s.Lock()
	r := s.Record()
	s.Unlock()

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	st.mu.Lock()
	st.cache[s.UserID] = s
	st.mu.Unlock()

	_, err = st.db.Exec(
		`INSERT INTO sessions (user_id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		r.UserID, string(data), r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

func (st *SQLiteStore) Delete(userID int64) error {
	st.mu.Lock()
	delete(st.cache, userID)
	st.mu.Unlock()

	if _, err := st.db.Exec(`DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (st *SQLiteStore) PruneIdle(maxIdle time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxIdle)

	st.mu.Lock()
	for id, s := range st.cache {
		s.Lock()
		idle := s.UpdatedAt.Before(cutoff)
		s.Unlock()
		if idle {
			delete(st.cache, id)
		}
	}
	st.mu.Unlock()

	res, err := st.db.Exec(`DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
