package loader

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/othala/internal/document"
	"github.com/starford/othala/internal/manifest"
	"github.com/starford/othala/internal/patch"
	"github.com/starford/othala/internal/resolver"
	"github.com/starford/othala/internal/scripting"
)

// readConcurrency bounds the parallel raw-content reads within one mod.
const readConcurrency = 8

// Discover scans the mods root for subdirectories containing a manifest
// file and returns the validated manifests in directory-name order.
// Directories without a manifest and manifests that fail to parse or
// validate are skipped; discovery itself only fails on IO errors at the
// root.
func (l *Loader) Discover() ([]*manifest.Manifest, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("loader: read mods root: %w", err)
	}

	var out []*manifest.Manifest
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(l.root, e.Name())
		data, err := os.ReadFile(filepath.Join(dir, manifest.Filename))
		if err != nil {
			l.logger.Debug("discover: no manifest, skipping",
				slog.String("dir", e.Name()))
			continue
		}
		m, err := manifest.Parse(data, dir)
		if err != nil {
			l.logger.Warn("discover: invalid manifest, skipping mod",
				slog.String("dir", e.Name()),
				slog.String("error", err.Error()))
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// LoadAll discovers all mods, resolves their load order, and loads each
// in turn. A resolution failure (missing hard dependency or cycle) is
// fatal and loads nothing; per-mod failures after that point are logged
// and skipped.
func (l *Loader) LoadAll() error {
	manifests, err := l.Discover()
	if err != nil {
		return err
	}

	ordered, err := resolver.Resolve(manifests)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range ordered {
		l.loadLocked(m)
	}
	l.logger.Info("mods loaded",
		slog.Int("count", len(l.order)),
		slog.Int("documents", l.store.Len()))
	return nil
}

// loadLocked runs the single-mod load path: duplicate check, patch
// caching, content registration, patch application, script dispatch.
// Failures inside one mod never stop the next.
func (l *Loader) loadLocked(m *manifest.Manifest) {
	if _, ok := l.mods[m.ID]; ok {
		// First-loaded wins; the duplicate's content is dropped. Logged
		// as a structured event because silently losing mod content is
		// a common source of confusion.
		l.logger.Warn("duplicate mod id, skipping",
			slog.String("id", m.ID),
			slog.String("dir", m.Dir))
		l.emit("mod.skipped", m.ID)
		return
	}

	mod := &Mod{Manifest: m}
	mod.Patches = l.loadPatches(m)
	l.loadContent(m)
	l.applyPatches(m.ID, mod.Patches)
	mod.scripts = l.loadScripts(m)

	l.mods[m.ID] = mod
	l.order = append(l.order, m.ID)
	l.logger.Info("mod loaded",
		slog.String("id", m.ID),
		slog.String("version", m.Version),
		slog.Int("patches", len(mod.Patches)))
	l.emit("mod.loaded", m.ID)
}

// loadPatches parses and caches every patch file named by the manifest.
// Each entry may be a file or a directory of *.json patch files. A file
// that fails to parse or shape-validate is skipped, not fatal.
func (l *Loader) loadPatches(m *manifest.Manifest) []*patch.Patch {
	var out []*patch.Patch
	for _, entry := range m.Patches {
		p, err := modPath(m.Dir, entry)
		if err != nil {
			l.logger.Warn("patches: bad path, skipping",
				slog.String("id", m.ID), slog.String("path", entry),
				slog.String("error", err.Error()))
			continue
		}
		for _, file := range jsonFiles(p) {
			data, err := os.ReadFile(file)
			if err != nil {
				l.logger.Warn("patches: read failed, skipping file",
					slog.String("id", m.ID), slog.String("file", file),
					slog.String("error", err.Error()))
				continue
			}
			pt, err := patch.Parse(data)
			if err != nil {
				l.logger.Warn("patches: parse failed, skipping file",
					slog.String("id", m.ID), slog.String("file", file),
					slog.String("error", err.Error()))
				continue
			}
			out = append(out, pt)
		}
	}
	return out
}

// loadContent registers the mod's content folders and merges their raw
// documents into the store. Reads are parallel (read-only, independent
// files) but the merge completes before any patch applies, and the
// merge order is deterministic.
func (l *Loader) loadContent(m *manifest.Manifest) {
	types := make([]string, 0, len(m.ContentFolders))
	for t := range m.ContentFolders {
		types = append(types, t)
	}
	sort.Strings(types)

	type rawDoc struct {
		key string
		doc *document.Node
	}

	var (
		docsMu sync.Mutex
		docs   []rawDoc
	)
	g := errgroup.Group{}
	g.SetLimit(readConcurrency)

	for _, contentType := range types {
		folder, err := modPath(m.Dir, m.ContentFolders[contentType])
		if err != nil {
			l.logger.Warn("content: bad folder, skipping",
				slog.String("id", m.ID), slog.String("type", contentType),
				slog.String("error", err.Error()))
			continue
		}
		for _, file := range jsonFiles(folder) {
			g.Go(func() error {
				data, err := os.ReadFile(file)
				if err != nil {
					l.logger.Warn("content: read failed, skipping file",
						slog.String("id", m.ID), slog.String("file", file),
						slog.String("error", err.Error()))
					return nil
				}
				doc, err := document.Decode(data)
				if err != nil {
					l.logger.Warn("content: decode failed, skipping file",
						slog.String("id", m.ID), slog.String("file", file),
						slog.String("error", err.Error()))
					return nil
				}
				rel, err := filepath.Rel(folder, file)
				if err != nil {
					return nil
				}
				docsMu.Lock()
				docs = append(docs, rawDoc{key: contentKey(contentType, rel), doc: doc})
				docsMu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()

	sort.Slice(docs, func(i, j int) bool { return docs[i].key < docs[j].key })
	for _, d := range docs {
		// A later mod shipping a raw document for an existing key
		// overrides it wholesale; patching is the non-destructive path.
		l.store.Put(d.key, d.doc)
	}
}

// applyPatches applies the mod's cached patches to the shared store.
// An execution failure aborts that one patch (already-applied operations
// stay applied) and loading moves on.
func (l *Loader) applyPatches(id string, patches []*patch.Patch) {
	for _, pt := range patches {
		doc, ok := l.store.Get(pt.Target)
		if !ok {
			l.logger.Warn("patch: target not in content cache",
				slog.String("id", id), slog.String("target", pt.Target))
			l.emit("patch.failed", id)
			continue
		}
		doc, err := patch.Apply(doc, pt)
		if err != nil {
			l.logger.Warn("patch: apply failed",
				slog.String("id", id), slog.String("target", pt.Target),
				slog.String("error", err.Error()))
			l.emit("patch.failed", id)
		}
		// Apply mutates in place; hand ownership back to the cache
		// explicitly so partially-applied documents are kept too.
		_ = l.store.Replace(pt.Target, doc)
	}
}

// loadScripts dispatches the mod's scripts to the scripting engine and
// keeps the instances for unload hooks.
func (l *Loader) loadScripts(m *manifest.Manifest) []scripting.Instance {
	var out []scripting.Instance
	for _, rel := range m.Scripts {
		inst, err := l.engine.Load(m.Dir, rel)
		if err != nil {
			l.logger.Warn("script: load failed, skipping",
				slog.String("id", m.ID), slog.String("script", rel),
				slog.String("error", err.Error()))
			continue
		}
		if inst == nil {
			continue
		}
		if err := l.engine.Initialize(inst, scripting.Context{ModID: m.ID, Store: l.store}); err != nil {
			l.logger.Warn("script: initialize failed",
				slog.String("id", m.ID), slog.String("script", rel),
				slog.String("error", err.Error()))
			continue
		}
		out = append(out, inst)
	}
	return out
}

// jsonFiles returns path itself if it is a .json file, or every .json
// file under it (sorted by path) if it is a directory.
func jsonFiles(path string) []string {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	if !info.IsDir() {
		if strings.HasSuffix(path, ".json") {
			return []string{path}
		}
		return nil
	}
	var out []string
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		out = append(out, p)
		return nil
	})
	sort.Strings(out)
	return out
}

// contentKey derives the cache key for a content file: the content type
// plus the file's path inside the folder, extension trimmed, using
// forward slashes. "content/items" + "swords/iron.json" → "items/swords/iron".
func contentKey(contentType, rel string) string {
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, ".json")
	return contentType + "/" + rel
}
