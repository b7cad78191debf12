// Package modservice exposes the load result to the inspection
// surfaces (REST API, MCP tools) as read-mostly query operations.
package modservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/content"
	"github.com/starford/othala/internal/index"
	"github.com/starford/othala/internal/loader"
	"github.com/starford/othala/internal/manifest"
)

// ModSummary is a lightweight item in a mod list response.
type ModSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Version  string `json:"version"`
	Author   string `json:"author,omitempty"`
	Priority int    `json:"priority"`
	Position int    `json:"position"`
	Patches  int    `json:"patches"`
}

// ModDetail is the full representation of a loaded mod.
type ModDetail struct {
	Manifest *manifest.Manifest `json:"manifest"`
	Position int                `json:"position"`
	Patches  int                `json:"patches"`
}

// Service coordinates loader, content store, and index queries.
type Service struct {
	loader *loader.Loader
	store  *content.Store
	db     *index.DB
	logger *slog.Logger
}

// NewService creates a new mod query service.
func NewService(l *loader.Loader, store *content.Store, db *index.DB, logger *slog.Logger) *Service {
	return &Service{loader: l, store: store, db: db, logger: logger}
}

// ListMods returns every loaded mod in load order.
func (s *Service) ListMods(_ context.Context) ([]ModSummary, error) {
	order := s.loader.LoadOrder()
	out := make([]ModSummary, 0, len(order))
	for pos, id := range order {
		m, err := s.loader.Manifest(id)
		if err != nil {
			continue
		}
		patches, _ := s.loader.Patches(id)
		out = append(out, ModSummary{
			ID:       m.ID,
			Name:     m.Name,
			Version:  m.Version,
			Author:   m.Author,
			Priority: m.Priority,
			Position: pos,
			Patches:  len(patches),
		})
	}
	return out, nil
}

// GetMod returns the full detail of one loaded mod.
func (s *Service) GetMod(_ context.Context, id string) (*ModDetail, error) {
	m, err := s.loader.Manifest(id)
	if err != nil {
		return nil, apperr.ErrNotFound
	}
	patches, _ := s.loader.Patches(id)
	pos := 0
	for i, oid := range s.loader.LoadOrder() {
		if oid == id {
			pos = i
			break
		}
	}
	return &ModDetail{Manifest: m, Position: pos, Patches: len(patches)}, nil
}

// LoadOrder returns the resolved load order of the current session.
func (s *Service) LoadOrder(_ context.Context) []string {
	return s.loader.LoadOrder()
}

// GetDocument returns the patched content document for key.
func (s *Service) GetDocument(_ context.Context, key string) (json.RawMessage, error) {
	doc, ok := s.store.Get(key)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return doc.Encode(), nil
}

// DocumentKeys returns every content key in the store.
func (s *Service) DocumentKeys(_ context.Context) []string {
	return s.store.Keys()
}

// Search delegates full-text content search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Reload reloads one mod and resyncs the index.
func (s *Service) Reload(_ context.Context, id string) error {
	if err := s.loader.Reload(id); err != nil {
		return err
	}
	return s.Resync()
}

// Resync mirrors the loader's current state into the index.
func (s *Service) Resync() error {
	return index.Sync(s.db, ModRows(s.loader), s.store, s.logger)
}

// ModRows converts the loader's loaded set into index rows carrying
// load-order positions.
func ModRows(l *loader.Loader) []index.ModRow {
	order := l.LoadOrder()
	now := time.Now()
	out := make([]index.ModRow, 0, len(order))
	for pos, id := range order {
		m, err := l.Manifest(id)
		if err != nil {
			continue
		}
		out = append(out, index.ModRow{
			ID:       m.ID,
			Name:     m.Name,
			Version:  m.Version,
			Author:   m.Author,
			Priority: m.Priority,
			Position: pos,
			LoadedAt: now,
		})
	}
	return out
}
