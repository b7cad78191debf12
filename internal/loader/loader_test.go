package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/content"
	"github.com/starford/othala/internal/resolver"
	"github.com/starford/othala/internal/scripting"
	"github.com/starford/othala/internal/testutil"
)

func write(t *testing.T, root, rel, data string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newLoader(t *testing.T, root string, engine scripting.Engine) (*Loader, *content.Store) {
	t.Helper()
	store := content.NewStore()
	l, err := New(root, store, engine, testutil.DiscardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l, store
}

// baseMod writes a mod with one content document and returns its id.
func baseMod(t *testing.T, root string) {
	t.Helper()
	write(t, root, "base/mod.json", `{
		"id": "base", "name": "Base", "version": "1.0.0",
		"contentFolders": {"items": "content/items"}
	}`)
	write(t, root, "base/content/items/sword.json",
		`{"name":"Sword","damage":5,"tags":["melee"]}`)
}

func TestLoadAllAppliesPatchesInOrder(t *testing.T) {
	root := t.TempDir()
	baseMod(t, root)
	write(t, root, "sharper/mod.json", `{
		"id": "sharper", "name": "Sharper Blades", "version": "1.0.0",
		"dependencies": ["base"],
		"patches": ["patches"]
	}`)
	write(t, root, "sharper/patches/sword.json", `{
		"target": "items/sword",
		"operations": [
			{"op": "replace", "path": "/damage", "value": 12},
			{"op": "add", "path": "/tags/-", "value": "sharp"}
		]
	}`)

	l, store := newLoader(t, root, nil)
	if err := l.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	doc, ok := store.Get("items/sword")
	if !ok {
		t.Fatal("items/sword not in store")
	}
	want := `{"name":"Sword","damage":12,"tags":["melee","sharp"]}`
	if got := string(doc.Encode()); got != want {
		t.Errorf("doc = %s, want %s", got, want)
	}

	order := l.LoadOrder()
	if len(order) != 2 || order[0] != "base" || order[1] != "sharper" {
		t.Errorf("order = %v", order)
	}
}

func TestLaterModPatchesEarlierModsPatchedContent(t *testing.T) {
	root := t.TempDir()
	baseMod(t, root)
	write(t, root, "a-buff/mod.json", `{
		"id": "buff", "name": "Buff", "version": "1.0.0",
		"dependencies": ["base"], "patches": ["patches"]
	}`)
	write(t, root, "a-buff/patches/p.json", `{
		"target": "items/sword",
		"operations": [{"op": "replace", "path": "/damage", "value": 10}]
	}`)
	write(t, root, "z-nerf/mod.json", `{
		"id": "nerf", "name": "Nerf", "version": "1.0.0",
		"loadAfter": ["buff"], "patches": ["patches"]
	}`)
	write(t, root, "z-nerf/patches/p.json", `{
		"target": "items/sword",
		"operations": [
			{"op": "test", "path": "/damage", "value": 10},
			{"op": "replace", "path": "/damage", "value": 8}
		]
	}`)

	l, store := newLoader(t, root, nil)
	if err := l.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	doc, _ := store.Get("items/sword")
	if got := string(doc.Encode()); got != `{"name":"Sword","damage":8,"tags":["melee"]}` {
		t.Errorf("layered doc = %s", got)
	}
}

func TestResolutionFailureLoadsNothing(t *testing.T) {
	root := t.TempDir()
	baseMod(t, root)
	write(t, root, "broken/mod.json", `{
		"id": "broken", "name": "Broken", "version": "1.0.0",
		"dependencies": ["not-installed"]
	}`)

	l, store := newLoader(t, root, nil)
	err := l.LoadAll()
	var missing *resolver.MissingDependencyError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingDependencyError", err)
	}
	if len(l.LoadOrder()) != 0 {
		t.Errorf("no mod may load on resolution failure: %v", l.LoadOrder())
	}
	if store.Len() != 0 {
		t.Errorf("content store should be empty, has %d docs", store.Len())
	}
}

func TestDuplicateIDFirstWins(t *testing.T) {
	root := t.TempDir()
	write(t, root, "one/mod.json", `{"id":"dup","name":"One","version":"1.0.0","contentFolders":{"data":"content"}}`)
	write(t, root, "one/content/d.json", `{"from":"one"}`)
	write(t, root, "two/mod.json", `{"id":"dup","name":"Two","version":"2.0.0","contentFolders":{"data":"content"}}`)
	write(t, root, "two/content/d.json", `{"from":"two"}`)

	var skipped []string
	l, store := newLoader(t, root, nil)
	l.OnEvent(func(kind, id string) {
		if kind == "mod.skipped" {
			skipped = append(skipped, id)
		}
	})
	if err := l.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	if got := l.LoadOrder(); len(got) != 1 || got[0] != "dup" {
		t.Fatalf("order = %v", got)
	}
	m, err := l.Manifest("dup")
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "One" {
		t.Errorf("first-loaded should win, got %q", m.Name)
	}
	doc, _ := store.Get("data/d")
	if got := string(doc.Encode()); got != `{"from":"one"}` {
		t.Errorf("content = %s", got)
	}
	if len(skipped) != 1 || skipped[0] != "dup" {
		t.Errorf("skipped events = %v", skipped)
	}
}

func TestInvalidManifestSkippedOthersLoad(t *testing.T) {
	root := t.TempDir()
	baseMod(t, root)
	write(t, root, "bad/mod.json", `{"name":"no id","version":"nope"}`)
	write(t, root, "empty-dir/readme.txt", "not a mod")

	l, _ := newLoader(t, root, nil)
	if err := l.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if got := l.LoadOrder(); len(got) != 1 || got[0] != "base" {
		t.Errorf("order = %v", got)
	}
}

func TestBadPatchFileSkippedRestApplies(t *testing.T) {
	root := t.TempDir()
	baseMod(t, root)
	write(t, root, "fix/mod.json", `{
		"id":"fix","name":"Fix","version":"1.0.0",
		"dependencies":["base"],"patches":["patches"]
	}`)
	write(t, root, "fix/patches/a-broken.json", `{not json`)
	write(t, root, "fix/patches/b-good.json", `{
		"target": "items/sword",
		"operations": [{"op": "replace", "path": "/damage", "value": 7}]
	}`)

	l, store := newLoader(t, root, nil)
	if err := l.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	patches, err := l.Patches("fix")
	if err != nil {
		t.Fatal(err)
	}
	if len(patches) != 1 {
		t.Fatalf("cached patches = %d, want 1", len(patches))
	}
	doc, _ := store.Get("items/sword")
	if got := string(doc.Encode()); got != `{"name":"Sword","damage":7,"tags":["melee"]}` {
		t.Errorf("doc = %s", got)
	}
}

func TestFailingPatchKeepsLoadingAndKeepsPartialResult(t *testing.T) {
	root := t.TempDir()
	baseMod(t, root)
	write(t, root, "risky/mod.json", `{
		"id":"risky","name":"Risky","version":"1.0.0",
		"dependencies":["base"],"patches":["patches"]
	}`)
	// Second operation targets a missing key: the first stays applied.
	write(t, root, "risky/patches/p.json", `{
		"target": "items/sword",
		"operations": [
			{"op": "replace", "path": "/damage", "value": 99},
			{"op": "remove", "path": "/no-such-key"}
		]
	}`)

	var patchFailures int
	l, store := newLoader(t, root, nil)
	l.OnEvent(func(kind, id string) {
		if kind == "patch.failed" {
			patchFailures++
		}
	})
	if err := l.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if !l.IsLoaded("risky") {
		t.Error("mod with a failing patch must still load")
	}
	if patchFailures != 1 {
		t.Errorf("patch.failed events = %d", patchFailures)
	}
	doc, _ := store.Get("items/sword")
	if got := string(doc.Encode()); got != `{"name":"Sword","damage":99,"tags":["melee"]}` {
		t.Errorf("partial result = %s", got)
	}
}

func TestPatchTargetMissingIsNotFatal(t *testing.T) {
	root := t.TempDir()
	write(t, root, "solo/mod.json", `{"id":"solo","name":"Solo","version":"1.0.0","patches":["patches"]}`)
	write(t, root, "solo/patches/p.json", `{
		"target": "nothing/here",
		"operations": [{"op": "add", "path": "/x", "value": 1}]
	}`)

	l, _ := newLoader(t, root, nil)
	if err := l.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if !l.IsLoaded("solo") {
		t.Error("solo should load despite missing patch target")
	}
}

func TestNewModContentAddsDocument(t *testing.T) {
	root := t.TempDir()
	baseMod(t, root)
	write(t, root, "extra/mod.json", `{
		"id":"extra","name":"Extra","version":"1.0.0",
		"contentFolders": {"items": "stuff"}
	}`)
	write(t, root, "extra/stuff/shield.json", `{"name":"Shield","block":3}`)

	l, store := newLoader(t, root, nil)
	if err := l.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if _, ok := store.Get("items/shield"); !ok {
		t.Errorf("keys = %v", store.Keys())
	}
	folders, err := l.ContentFolders("extra")
	if err != nil {
		t.Fatal(err)
	}
	if folders["items"] != "stuff" {
		t.Errorf("folders = %v", folders)
	}
}

// fakeEngine records script lifecycle calls.
type fakeEngine struct {
	loaded   []string
	unloaded int
}

type fakeInstance struct {
	engine *fakeEngine
}

func (f *fakeInstance) Unload() { f.engine.unloaded++ }

func (f *fakeEngine) Load(modDir, relPath string) (scripting.Instance, error) {
	if filepath.Base(relPath) == "broken.lua" {
		return nil, fmt.Errorf("compile error")
	}
	f.loaded = append(f.loaded, relPath)
	return &fakeInstance{engine: f}, nil
}

func (f *fakeEngine) Initialize(inst scripting.Instance, ctx scripting.Context) error {
	return nil
}

func TestLaterModRawDocumentOverridesEarlier(t *testing.T) {
	root := t.TempDir()
	baseMod(t, root)
	write(t, root, "override/mod.json", `{
		"id":"override","name":"Override","version":"1.0.0",
		"dependencies": ["base"],
		"contentFolders": {"items": "content/items"}
	}`)
	write(t, root, "override/content/items/sword.json",
		`{"name":"Claymore","damage":20}`)

	l, store := newLoader(t, root, nil)
	if err := l.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	doc, ok := store.Get("items/sword")
	if !ok {
		t.Fatalf("keys = %v", store.Keys())
	}
	if got := string(doc.Encode()); got != `{"name":"Claymore","damage":20}` {
		t.Errorf("got %s, want the later mod's document wholesale", got)
	}
}

func TestScriptsDispatchedAndUnloadHookRuns(t *testing.T) {
	root := t.TempDir()
	write(t, root, "scripted/mod.json", `{
		"id":"scripted","name":"Scripted","version":"1.0.0",
		"scripts": ["scripts/init.lua", "scripts/broken.lua", "scripts/extra.lua"]
	}`)

	engine := &fakeEngine{}
	l, _ := newLoader(t, root, engine)
	if err := l.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(engine.loaded) != 2 {
		t.Errorf("loaded scripts = %v", engine.loaded)
	}

	if err := l.Unload("scripted"); err != nil {
		t.Fatalf("Unload: %v", err)
	}
	if engine.unloaded != 2 {
		t.Errorf("unload hooks ran %d times, want 2", engine.unloaded)
	}
	if l.IsLoaded("scripted") {
		t.Error("still loaded after Unload")
	}
	if _, err := l.Manifest("scripted"); !errors.Is(err, apperr.ErrNotLoaded) {
		t.Errorf("Manifest after unload: %v", err)
	}
}

func TestUnloadUnknownMod(t *testing.T) {
	root := t.TempDir()
	l, _ := newLoader(t, root, nil)
	if err := l.Unload("ghost"); !errors.Is(err, apperr.ErrNotLoaded) {
		t.Errorf("err = %v", err)
	}
}

func TestReload(t *testing.T) {
	root := t.TempDir()
	baseMod(t, root)

	l, _ := newLoader(t, root, nil)
	if err := l.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	// Manifest edit picked up by reload.
	write(t, root, "base/mod.json", `{
		"id": "base", "name": "Base Renamed", "version": "1.1.0",
		"contentFolders": {"items": "content/items"}
	}`)
	if err := l.Reload("base"); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	m, err := l.Manifest("base")
	if err != nil {
		t.Fatal(err)
	}
	if m.Version != "1.1.0" || m.Name != "Base Renamed" {
		t.Errorf("manifest = %+v", m)
	}

	if err := l.Reload("ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("reload of unknown mod: %v", err)
	}
}

func TestNewRejectsMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope"), content.NewStore(), nil, testutil.DiscardLogger())
	if err == nil {
		t.Error("expected error for missing root")
	}
}
