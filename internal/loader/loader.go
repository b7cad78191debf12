// Package loader orchestrates the mod lifecycle: discovery, dependency
// resolution, patch application against the shared content store, and
// the unload/reload/query operations.
package loader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/content"
	"github.com/starford/othala/internal/manifest"
	"github.com/starford/othala/internal/patch"
	"github.com/starford/othala/internal/scripting"
)

// EventCallback is called after observable lifecycle changes. kind is
// one of "mod.loaded", "mod.unloaded", "mod.skipped", "patch.failed";
// id is the mod id involved.
type EventCallback func(kind, id string)

// Mod is one loaded mod: its validated manifest plus the patches parsed
// and cached for it, kept until unload.
type Mod struct {
	Manifest *manifest.Manifest
	Patches  []*patch.Patch

	scripts []scripting.Instance
}

// Loader owns the loaded-mod set and is the sole writer of the content
// store during a load pass.
type Loader struct {
	root   string
	store  *content.Store
	engine scripting.Engine
	logger *slog.Logger
	cb     EventCallback

	mu    sync.Mutex
	mods  map[string]*Mod
	order []string
}

// New creates a loader rooted at the mods directory, which must exist.
func New(root string, store *content.Store, engine scripting.Engine, logger *slog.Logger) (*Loader, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("loader: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("loader: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("loader: root is not a directory: %s", abs)
	}
	if engine == nil {
		engine = scripting.NopEngine{}
	}
	return &Loader{
		root:   abs,
		store:  store,
		engine: engine,
		logger: logger,
		mods:   map[string]*Mod{},
	}, nil
}

// OnEvent registers the lifecycle event callback. Must be called before
// LoadAll.
func (l *Loader) OnEvent(cb EventCallback) { l.cb = cb }

func (l *Loader) emit(kind, id string) {
	if l.cb != nil {
		l.cb(kind, id)
	}
}

// Root returns the absolute mods root directory.
func (l *Loader) Root() string { return l.root }

// Store returns the shared content store.
func (l *Loader) Store() *content.Store { return l.store }

// modPath resolves rel against the mod directory, rejecting absolute
// paths and traversal outside the directory.
func modPath(dir, rel string) (string, error) {
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("loader: path escapes mod directory: %s", rel)
	}
	return filepath.Join(dir, cleaned), nil
}

// --- query operations (pure lookups) ---

// IsLoaded reports whether the mod with the given id is loaded.
func (l *Loader) IsLoaded(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.mods[id]
	return ok
}

// Manifest returns the manifest of a loaded mod.
func (l *Loader) Manifest(id string) (*manifest.Manifest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.mods[id]
	if !ok {
		return nil, fmt.Errorf("loader: %q: %w", id, apperr.ErrNotLoaded)
	}
	return m.Manifest, nil
}

// Patches returns the cached patches of a loaded mod.
func (l *Loader) Patches(id string) ([]*patch.Patch, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.mods[id]
	if !ok {
		return nil, fmt.Errorf("loader: %q: %w", id, apperr.ErrNotLoaded)
	}
	return m.Patches, nil
}

// ContentFolders returns the content-type → folder mapping of a loaded mod.
func (l *Loader) ContentFolders(id string) (map[string]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.mods[id]
	if !ok {
		return nil, fmt.Errorf("loader: %q: %w", id, apperr.ErrNotLoaded)
	}
	return m.Manifest.ContentFolders, nil
}

// LoadOrder returns the ids of loaded mods in the order they loaded.
func (l *Loader) LoadOrder() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// --- unload / reload ---

// Unload invokes every script instance's unload hook and removes the
// mod's patches and manifest from the loaded set. Content the mod
// contributed stays in the store for the rest of the session.
func (l *Loader) Unload(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unloadLocked(id)
}

func (l *Loader) unloadLocked(id string) error {
	m, ok := l.mods[id]
	if !ok {
		return fmt.Errorf("loader: %q: %w", id, apperr.ErrNotLoaded)
	}
	for _, inst := range m.scripts {
		inst.Unload()
	}
	delete(l.mods, id)
	for i, oid := range l.order {
		if oid == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	l.logger.Info("mod unloaded", slog.String("id", id))
	l.emit("mod.unloaded", id)
	return nil
}

// Reload unloads the mod (if loaded) and runs the single-mod load path
// for it again. Dependencies are not re-resolved; the mod keeps its
// position at the end of the load order.
func (l *Loader) Reload(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.mods[id]; ok {
		if err := l.unloadLocked(id); err != nil {
			return err
		}
	}

	manifests, err := l.Discover()
	if err != nil {
		return err
	}
	for _, m := range manifests {
		if m.ID == id {
			l.loadLocked(m)
			return nil
		}
	}
	return fmt.Errorf("loader: reload %q: %w", id, apperr.ErrNotFound)
}

// UnloadAll unloads every mod, last loaded first, and clears the
// content store. Used by the watch-mode full reload.
func (l *Loader) UnloadAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.order) - 1; i >= 0; i-- {
		_ = l.unloadLocked(l.order[i])
	}
	l.store.Reset()
}
