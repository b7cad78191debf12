package index

import (
	"fmt"
	"time"
)

// ModRow represents a row in the mods table.
type ModRow struct {
	ID       string
	Name     string
	Version  string
	Author   string
	Priority int
	// Position is the mod's place in the resolved load order.
	Position int
	LoadedAt time.Time
}

// SearchResult represents one content search hit.
type SearchResult struct {
	Key     string
	Snippet string
}

// UpsertMod inserts or replaces a mod row.
func (db *DB) UpsertMod(m ModRow) error {
	_, err := db.conn.Exec(`
		INSERT INTO mods (id, name, version, author, priority, position, loaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name      = excluded.name,
			version   = excluded.version,
			author    = excluded.author,
			priority  = excluded.priority,
			position  = excluded.position,
			loaded_at = excluded.loaded_at
	`, m.ID, m.Name, m.Version, m.Author, m.Priority, m.Position, m.LoadedAt)
	if err != nil {
		return fmt.Errorf("index: upsert mod: %w", err)
	}
	return nil
}

// DeleteMod removes a mod row.
func (db *DB) DeleteMod(id string) error {
	if _, err := db.conn.Exec(`DELETE FROM mods WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete mod: %w", err)
	}
	return nil
}

// GetMod returns a mod row by id, or nil when absent.
func (db *DB) GetMod(id string) (*ModRow, error) {
	var m ModRow
	err := db.conn.QueryRow(`
		SELECT id, name, version, author, priority, position, loaded_at
		FROM mods WHERE id = ?
	`, id).Scan(&m.ID, &m.Name, &m.Version, &m.Author, &m.Priority, &m.Position, &m.LoadedAt)
	if err != nil {
		return nil, nil // absent is not an error
	}
	return &m, nil
}

// ListMods returns every mod row in load-order position.
func (db *DB) ListMods() ([]ModRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, name, version, author, priority, position, loaded_at
		FROM mods ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("index: list mods: %w", err)
	}
	defer rows.Close()

	var out []ModRow
	for rows.Next() {
		var m ModRow
		if err := rows.Scan(&m.ID, &m.Name, &m.Version, &m.Author, &m.Priority, &m.Position, &m.LoadedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AllModIDs returns every indexed mod id.
func (db *DB) AllModIDs() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT id FROM mods`)
	if err != nil {
		return nil, fmt.Errorf("index: all mod ids: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// UpsertDocument inserts or replaces a content document and its FTS
// entry within a transaction.
func (db *DB) UpsertDocument(key, checksum, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO documents (key, checksum, body)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			checksum = excluded.checksum,
			body     = excluded.body
	`, key, checksum, body)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, key, body); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteDocument removes a content document and its FTS entry.
func (db *DB) DeleteDocument(key string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, key)
	_, _ = tx.Exec(`DELETE FROM documents WHERE key = ?`, key)
	return tx.Commit()
}

// GetDocument returns a document body by key, or empty string if absent.
func (db *DB) GetDocument(key string) (string, error) {
	var body string
	err := db.conn.QueryRow(`SELECT body FROM documents WHERE key = ?`, key).Scan(&body)
	if err != nil {
		return "", nil
	}
	return body, nil
}

// AllChecksums returns key → checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT key, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var k, cs string
		if err := rows.Scan(&k, &cs); err != nil {
			return nil, err
		}
		out[k] = cs
	}
	return out, rows.Err()
}
