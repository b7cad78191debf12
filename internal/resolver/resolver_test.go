package resolver

import (
	"errors"
	"testing"

	"github.com/starford/othala/internal/manifest"
)

func mod(id string, priority int, deps, after, before []string) *manifest.Manifest {
	return &manifest.Manifest{
		ID:           id,
		Name:         id,
		Version:      "1.0.0",
		Priority:     priority,
		Dependencies: deps,
		LoadAfter:    after,
		LoadBefore:   before,
	}
}

func ids(mods []*manifest.Manifest) []string {
	out := make([]string, len(mods))
	for i, m := range mods {
		out[i] = m.ID
	}
	return out
}

func assertOrder(t *testing.T, got []*manifest.Manifest, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("order = %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("order = %v, want %v", g, want)
		}
	}
}

func position(t *testing.T, mods []*manifest.Manifest, id string) int {
	t.Helper()
	for i, m := range mods {
		if m.ID == id {
			return i
		}
	}
	t.Fatalf("mod %q not in order %v", id, ids(mods))
	return -1
}

func TestHardDependenciesPrecedeDependents(t *testing.T) {
	out, err := Resolve([]*manifest.Manifest{
		mod("c", 0, []string{"b"}, nil, nil),
		mod("b", 0, []string{"a"}, nil, nil),
		mod("a", 0, nil, nil, nil),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	assertOrder(t, out, "a", "b", "c")
}

func TestDiamondGraph(t *testing.T) {
	out, err := Resolve([]*manifest.Manifest{
		mod("top", 0, []string{"left", "right"}, nil, nil),
		mod("left", 0, []string{"base"}, nil, nil),
		mod("right", 0, []string{"base"}, nil, nil),
		mod("base", 0, nil, nil, nil),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if position(t, out, "base") != 0 {
		t.Errorf("base should load first: %v", ids(out))
	}
	if position(t, out, "top") != 3 {
		t.Errorf("top should load last: %v", ids(out))
	}
}

func TestEqualPriorityKeepsDiscoveryOrder(t *testing.T) {
	out, err := Resolve([]*manifest.Manifest{
		mod("third", 0, nil, nil, nil),
		mod("first", 0, nil, nil, nil),
		mod("second", 0, nil, nil, nil),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	assertOrder(t, out, "third", "first", "second")
}

func TestPriorityOrdersVisitation(t *testing.T) {
	out, err := Resolve([]*manifest.Manifest{
		mod("late", 10, nil, nil, nil),
		mod("early", -10, nil, nil, nil),
		mod("mid", 0, nil, nil, nil),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	assertOrder(t, out, "early", "mid", "late")
}

func TestDependencyBeatsPriority(t *testing.T) {
	// "dep" has the highest priority value but must still load before
	// the mod that depends on it.
	out, err := Resolve([]*manifest.Manifest{
		mod("app", -10, []string{"dep"}, nil, nil),
		mod("dep", 100, nil, nil, nil),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	assertOrder(t, out, "dep", "app")
}

func TestMissingDependencyIsFatal(t *testing.T) {
	_, err := Resolve([]*manifest.Manifest{
		mod("a", 0, []string{"ghost"}, nil, nil),
		mod("b", 0, nil, nil, nil),
	})
	var missing *MissingDependencyError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingDependencyError", err)
	}
	if missing.Mod != "a" || missing.Dependency != "ghost" {
		t.Errorf("error names %q/%q", missing.Mod, missing.Dependency)
	}
}

func TestCycleIsFatal(t *testing.T) {
	_, err := Resolve([]*manifest.Manifest{
		mod("a", 0, []string{"b"}, nil, nil),
		mod("b", 0, []string{"a"}, nil, nil),
	})
	var circular *CircularDependencyError
	if !errors.As(err, &circular) {
		t.Fatalf("err = %v, want CircularDependencyError", err)
	}
}

func TestSelfDependencyIsFatal(t *testing.T) {
	_, err := Resolve([]*manifest.Manifest{
		mod("a", 0, []string{"a"}, nil, nil),
	})
	var circular *CircularDependencyError
	if !errors.As(err, &circular) {
		t.Fatalf("err = %v, want CircularDependencyError", err)
	}
}

func TestLoadAfterHonoredWhenPresent(t *testing.T) {
	out, err := Resolve([]*manifest.Manifest{
		mod("tweaks", 0, nil, []string{"base"}, nil),
		mod("base", 5, nil, nil, nil),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	assertOrder(t, out, "base", "tweaks")
}

func TestLoadAfterAbsentIsIgnored(t *testing.T) {
	out, err := Resolve([]*manifest.Manifest{
		mod("tweaks", 0, nil, []string{"not-installed"}, nil),
	})
	if err != nil {
		t.Fatalf("absent loadAfter must not fail: %v", err)
	}
	assertOrder(t, out, "tweaks")
}

func TestLoadAfterCycleIsFatal(t *testing.T) {
	_, err := Resolve([]*manifest.Manifest{
		mod("a", 0, nil, []string{"b"}, nil),
		mod("b", 0, nil, []string{"a"}, nil),
	})
	var circular *CircularDependencyError
	if !errors.As(err, &circular) {
		t.Fatalf("err = %v, want CircularDependencyError", err)
	}
}

// loadBefore is parsed and stored but deliberately not consulted; this
// pins that a loadBefore hint does not reorder anything.
func TestLoadBeforeIsIgnored(t *testing.T) {
	out, err := Resolve([]*manifest.Manifest{
		mod("wants-first", 0, nil, nil, []string{"other"}),
		mod("other", -1, nil, nil, nil),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// If loadBefore were honored, wants-first would precede other.
	assertOrder(t, out, "other", "wants-first")
}

func TestDuplicateIDsBindToFirstOccurrence(t *testing.T) {
	first := mod("dup", 0, nil, nil, nil)
	second := mod("dup", 0, nil, nil, nil)
	out, err := Resolve([]*manifest.Manifest{
		first,
		second,
		mod("user", 0, []string{"dup"}, nil, nil),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// Both occurrences appear; the loader skips the later one. The
	// dependent must come after the first occurrence.
	if position(t, out, "user") < position(t, out, "dup") {
		t.Errorf("user before dup: %v", ids(out))
	}
	if len(out) != 3 {
		t.Errorf("len = %d", len(out))
	}
}
