package index

import (
	"log/slog"

	"github.com/starford/othala/internal/checksum"
	"github.com/starford/othala/internal/content"
)

// Sync brings the index in line with a completed load pass:
//   - the given mod rows (already carrying load-order positions) are
//     upserted and stale mod rows deleted
//   - new/changed content documents are upserted, stale ones deleted
func Sync(db *DB, mods []ModRow, store *content.Store, logger *slog.Logger) error {
	indexed, err := db.AllModIDs()
	if err != nil {
		return err
	}

	loaded := make(map[string]struct{}, len(mods))
	for _, row := range mods {
		loaded[row.ID] = struct{}{}
		if err := db.UpsertMod(row); err != nil {
			logger.Warn("sync: upsert mod failed", slog.String("id", row.ID), slog.String("error", err.Error()))
		}
	}
	for id := range indexed {
		if _, ok := loaded[id]; !ok {
			if err := db.DeleteMod(id); err != nil {
				logger.Warn("sync: delete mod failed", slog.String("id", id), slog.String("error", err.Error()))
			}
		}
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	current := make(map[string]struct{})
	for _, key := range store.Keys() {
		current[key] = struct{}{}
		doc, ok := store.Get(key)
		if !ok {
			continue
		}
		body := doc.Encode()
		cs := checksum.Sum(body)
		if checksums[key] == cs {
			continue
		}
		if err := db.UpsertDocument(key, cs, string(body)); err != nil {
			logger.Warn("sync: upsert document failed", slog.String("key", key), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed document", slog.String("key", key))
		}
	}

	// Remove stale entries.
	for key := range checksums {
		if _, ok := current[key]; !ok {
			if err := db.DeleteDocument(key); err != nil {
				logger.Warn("sync: delete document failed", slog.String("key", key), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale document", slog.String("key", key))
			}
		}
	}

	return nil
}
