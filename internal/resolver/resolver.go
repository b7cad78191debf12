// Package resolver computes the total mod load order from hard
// dependencies, soft loadAfter hints, and priority.
package resolver

import (
	"fmt"
	"sort"

	"github.com/starford/othala/internal/manifest"
)

// MissingDependencyError is fatal: a mod names a hard dependency that
// was not discovered at all.
type MissingDependencyError struct {
	Mod        string
	Dependency string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("resolver: mod %q depends on %q, which is not present", e.Mod, e.Dependency)
}

// CircularDependencyError is fatal: following hard dependencies (or
// present loadAfter hints) from Mod leads back to a mod still being
// visited.
type CircularDependencyError struct {
	Mod string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("resolver: circular dependency involving mod %q", e.Mod)
}

// Visit marks for the depth-first walk.
const (
	unvisited = iota
	visiting
	done
)

// Resolve orders the discovered manifests so that every hard dependency
// precedes its dependent and every loadAfter reference that exists
// precedes the mod naming it. The walk visits mods by ascending
// priority, ties keeping discovery order, which makes the result
// deterministic for a fixed input.
//
// Either fatal error means the caller must load nothing.
func Resolve(mods []*manifest.Manifest) ([]*manifest.Manifest, error) {
	ordered := make([]*manifest.Manifest, len(mods))
	copy(ordered, mods)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	// Duplicate ids can reach the resolver; lookups bind to the first
	// occurrence in visitation order, and the loader skips the later
	// duplicate after ordering.
	byID := make(map[string]int, len(ordered))
	for i, m := range ordered {
		if _, ok := byID[m.ID]; !ok {
			byID[m.ID] = i
		}
	}

	marks := make([]int, len(ordered))
	out := make([]*manifest.Manifest, 0, len(ordered))

	var visit func(i int) error
	visit = func(i int) error {
		m := ordered[i]
		marks[i] = visiting

		for _, dep := range m.Dependencies {
			j, ok := byID[dep]
			if !ok {
				return &MissingDependencyError{Mod: m.ID, Dependency: dep}
			}
			switch marks[j] {
			case unvisited:
				if err := visit(j); err != nil {
					return err
				}
			case visiting:
				return &CircularDependencyError{Mod: m.ID}
			}
		}

		// Soft ordering: recurse only when the referenced mod exists;
		// absence is never an error.
		for _, after := range m.LoadAfter {
			j, ok := byID[after]
			if !ok {
				continue
			}
			switch marks[j] {
			case unvisited:
				if err := visit(j); err != nil {
					return err
				}
			case visiting:
				return &CircularDependencyError{Mod: m.ID}
			}
		}

		marks[i] = done
		out = append(out, m)
		return nil
	}

	for i := range ordered {
		if marks[i] == unvisited {
			if err := visit(i); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
