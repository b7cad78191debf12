// Package manifest parses and validates the per-mod manifest record.
package manifest

import (
	"encoding/json"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Filename is the manifest file expected in every mod directory.
const Filename = "mod.json"

// versionRe requires a semantic major.minor.patch prefix; suffixes such
// as "-beta" after the third number are allowed.
var versionRe = regexp.MustCompile(`^\d+\.\d+\.\d+`)

// Manifest describes one mod. Unknown fields in the file are ignored
// and field names match case-insensitively (encoding/json semantics).
type Manifest struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Author       string   `json:"author,omitempty"`
	Version      string   `json:"version"`
	Description  string   `json:"description,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`

	// LoadBefore is accepted and stored but not consulted when ordering;
	// only LoadAfter influences the resolver. See the resolver tests.
	LoadBefore []string `json:"loadBefore,omitempty"`
	LoadAfter  []string `json:"loadAfter,omitempty"`

	// Priority orders the resolver's initial visitation: lower loads
	// earlier, ties keep discovery order.
	Priority int `json:"priority,omitempty"`

	Scripts     []string `json:"scripts,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Patches     []string `json:"patches,omitempty"`

	// ContentFolders maps a content type to a folder path relative to
	// the mod directory.
	ContentFolders map[string]string `json:"contentFolders,omitempty"`

	// Dir is the resolved mod directory, stamped during parsing.
	Dir string `json:"-"`
}

// Validate checks the invariants every manifest must satisfy. A failure
// rejects this one manifest; discovery of other mods continues.
func (m *Manifest) Validate() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.ID, validation.Required),
		validation.Field(&m.Name, validation.Required),
		validation.Field(&m.Version, validation.Required, validation.Match(versionRe)),
	)
}

// Parse decodes raw manifest bytes, validates them, and stamps the
// manifest with its mod directory.
func Parse(data []byte, dir string) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: parse: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest: validate: %w", err)
	}
	m.Dir = dir
	return &m, nil
}
