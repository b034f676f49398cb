package catalog

import (
	"fmt"
)

// Entry is one published document together with its outgoing links.
type Entry struct {
	Name     string
	Path     string
	Kind     string
	Checksum string
	Links    []string
}

// Reset empties the catalog before a fresh run.
func (db *DB) Reset() error {
	if _, err := db.conn.Exec(`DELETE FROM links; DELETE FROM documents;`); err != nil {
		return fmt.Errorf("catalog: reset: %w", err)
	}
	return nil
}

// RecordAll upserts entries and replaces their links within one transaction.
func (db *DB) RecordAll(entries []Entry) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	docStmt, err := tx.Prepare(`
		INSERT INTO documents (name, path, kind, checksum)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			path     = excluded.path,
			kind     = excluded.kind,
			checksum = excluded.checksum
	`)
	if err != nil {
		return fmt.Errorf("catalog: prepare document upsert: %w", err)
	}
	defer docStmt.Close()

	linkStmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("catalog: prepare link insert: %w", err)
	}
	defer linkStmt.Close()

	for _, e := range entries {
		kind := e.Kind
		if kind == "" {
			kind = KindPage
		}
		if _, err := docStmt.Exec(e.Name, e.Path, kind, e.Checksum); err != nil {
			return fmt.Errorf("catalog: upsert %s: %w", e.Name, err)
		}
		if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, e.Name); err != nil {
			return fmt.Errorf("catalog: clear links %s: %w", e.Name, err)
		}
		for _, target := range e.Links {
			if _, err := linkStmt.Exec(e.Name, target); err != nil {
				return fmt.Errorf("catalog: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// MissingTargets returns link targets that no recorded document answers to,
// in ascending order. Comparison is case-insensitive.
func (db *DB) MissingTargets() ([]string, error) {
	rows, err := db.conn.Query(`
		SELECT MIN(l.target) FROM links l
		LEFT JOIN documents d ON d.name = l.target
		WHERE d.name IS NULL
		GROUP BY l.target
		ORDER BY l.target COLLATE NOCASE
	`)
	if err != nil {
		return nil, fmt.Errorf("catalog: missing targets: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Checksums returns the recorded checksum of every document, keyed by path.
func (db *DB) Checksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("catalog: checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var path, sum string
		if err := rows.Scan(&path, &sum); err != nil {
			return nil, err
		}
		out[path] = sum
	}
	return out, rows.Err()
}

// Backlinks returns the names of documents linking to target.
func (db *DB) Backlinks(target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM links WHERE target = ? ORDER BY source`, target)
	if err != nil {
		return nil, fmt.Errorf("catalog: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Count returns the number of recorded documents of kind, or of all kinds
// when kind is empty.
func (db *DB) Count(kind string) (int, error) {
	var n int
	var err error
	if kind == "" {
		err = db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&n)
	} else {
		err = db.conn.QueryRow(`SELECT count(*) FROM documents WHERE kind = ?`, kind).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("catalog: count: %w", err)
	}
	return n, nil
}
