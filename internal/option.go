package internal

import "github.com/starford/othala/internal/scripting"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	engine scripting.Engine
	mcp    bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithScripting sets the engine used to run mod scripts. When unset,
// script entries in manifests are ignored.
func WithScripting(engine scripting.Engine) Option {
	return func(a *application) {
		a.engine = engine
	}
}

// WithMCP switches the application into MCP stdio server mode instead
// of serving HTTP.
func WithMCP(enabled bool) Option {
	return func(a *application) {
		a.mcp = enabled
	}
}
