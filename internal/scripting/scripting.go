// Package scripting defines the boundary to the external behavior-script
// runtime. The engine compiles and runs mod scripts; this subsystem only
// hands paths over and invokes unload hooks.
package scripting

import "github.com/starford/othala/internal/content"

// Context is passed to every script on initialization.
type Context struct {
	ModID string
	Store *content.Store
}

// Instance is one loaded script. Unload is invoked when the owning mod
// is unloaded.
type Instance interface {
	Unload()
}

// Engine loads and initializes scripts referenced by a mod manifest.
type Engine interface {
	// Load compiles the script at relPath inside modDir. A nil instance
	// with nil error means the engine chose to skip the script.
	Load(modDir, relPath string) (Instance, error)
	// Initialize runs the script's entry point with the given context.
	Initialize(inst Instance, ctx Context) error
}

// NopEngine ignores all scripts. It is the default when no runtime is
// plugged in.
type NopEngine struct{}

func (NopEngine) Load(string, string) (Instance, error) { return nil, nil }
func (NopEngine) Initialize(Instance, Context) error    { return nil }
