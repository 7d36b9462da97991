package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// MetaQueriesHash is the metadata key holding the fingerprint of the query
// set that produced the cached results.
const MetaQueriesHash = "queries_hash"

// --- File operations ---

// upsertFileTx inserts or updates the row for f.Path and sets f.ID. When
// the stored hash differs from f.Hash the file's analyses are dropped.
func upsertFileTx(tx *sql.Tx, f *File) (int64, error) {
	if f.LastAnalyzed.IsZero() {
		f.LastAnalyzed = time.Now()
	}

	var prevHash string
	err := tx.QueryRow("SELECT hash FROM files WHERE path = ?", f.Path).Scan(&prevHash)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("upsert file: lookup: %w", err)
	}
	stale := err == nil && prevHash != f.Hash

	var id int64
	err = tx.QueryRow(
		`INSERT INTO files (path, language, hash, line_count, last_analyzed) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   language = excluded.language,
		   hash = excluded.hash,
		   line_count = excluded.line_count,
		   last_analyzed = excluded.last_analyzed
		 RETURNING id`,
		f.Path, f.Language, f.Hash, f.LineCount, f.LastAnalyzed,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert file: %w", err)
	}
	if stale {
		if _, err := tx.Exec("DELETE FROM analyses WHERE file_id = ?", id); err != nil {
			return 0, fmt.Errorf("upsert file: drop stale analyses: %w", err)
		}
	}
	f.ID = id
	return id, nil
}

// Prune deletes cached files under prefix whose path is not in present and
// returns how many were removed. An empty prefix matches every file.
func (s *Store) Prune(prefix string, present []string) (int, error) {
	keep := make(map[string]bool, len(present))
	for _, p := range present {
		keep[p] = true
	}

	rows, err := s.db.Query("SELECT path FROM files")
	if err != nil {
		return 0, fmt.Errorf("prune: list: %w", err)
	}
	var gone []any
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return 0, fmt.Errorf("prune: scan: %w", err)
		}
		if strings.HasPrefix(p, prefix) && !keep[p] {
			gone = append(gone, p)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("prune: list: %w", err)
	}
	if len(gone) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("prune: begin: %w", err)
	}
	defer tx.Rollback()

	in := placeholderList(len(gone))
	if _, err := tx.Exec("DELETE FROM analyses WHERE file_id IN (SELECT id FROM files WHERE path IN ("+in+"))", gone...); err != nil {
		return 0, fmt.Errorf("prune: analyses: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM files WHERE path IN ("+in+")", gone...); err != nil {
		return 0, fmt.Errorf("prune: files: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("prune: commit: %w", err)
	}
	return len(gone), nil
}

// --- Analysis operations ---

// Lookup returns the cached result for path when its stored hash equals
// hash. A miss returns nil, nil.
func (s *Store) Lookup(path, hash, kind string) ([]byte, error) {
	var data string
	err := s.db.QueryRow(
		`SELECT a.result_json FROM analyses a
		 JOIN files f ON f.id = a.file_id
		 WHERE f.path = ? AND f.hash = ? AND a.kind = ?`,
		path, hash, kind,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", path, err)
	}
	return []byte(data), nil
}

// Save writes one entry.
func (s *Store) Save(e Entry) error {
	return s.SaveAll([]Entry{e})
}

// SaveAll writes entries within a single transaction.
func (s *Store) SaveAll(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save: begin: %w", err)
	}
	defer tx.Rollback()

	for i := range entries {
		e := &entries[i]
		id, err := upsertFileTx(tx, &e.File)
		if err != nil {
			return fmt.Errorf("save %s: %w", e.File.Path, err)
		}
		if _, err := tx.Exec(
			"INSERT OR REPLACE INTO analyses (file_id, kind, result_json) VALUES (?, ?, ?)",
			id, e.Kind, string(e.Data),
		); err != nil {
			return fmt.Errorf("save %s: analysis: %w", e.File.Path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save: commit: %w", err)
	}
	return nil
}

// --- Metadata ---

// Metadata returns the value for key and whether it was set.
func (s *Store) Metadata(key string) (string, bool, error) {
	var v string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("metadata %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}

// EnsureQueriesHash resets the cache when the recorded query fingerprint
// differs from hash, then records hash. It reports whether a reset happened.
func (s *Store) EnsureQueriesHash(hash string) (bool, error) {
	prev, ok, err := s.Metadata(MetaQueriesHash)
	if err != nil {
		return false, err
	}
	if ok && prev == hash {
		return false, nil
	}
	reset := false
	if ok {
		if err := s.Reset(); err != nil {
			return false, err
		}
		reset = true
	}
	if err := s.SetMetadata(MetaQueriesHash, hash); err != nil {
		return false, err
	}
	return reset, nil
}

// Stats counts cached rows.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	if err := s.db.QueryRow("SELECT COUNT(*) FROM files").Scan(&st.Files); err != nil {
		return st, fmt.Errorf("stats: files: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM analyses").Scan(&st.Analyses); err != nil {
		return st, fmt.Errorf("stats: analyses: %w", err)
	}
	return st, nil
}
