// Package patch implements parsing, validation, and application of the
// structured patch operations mods use to rewrite content documents:
// the add/remove/replace/move/copy/test operation set over pointer paths.
package patch

import (
	"encoding/json"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Operation kinds.
const (
	OpAdd     = "add"
	OpRemove  = "remove"
	OpReplace = "replace"
	OpMove    = "move"
	OpCopy    = "copy"
	OpTest    = "test"
)

// Operation is a single patch step.
type Operation struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	From  string          `json:"from,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Patch is an ordered list of operations against one content document,
// identified by Target (a content-document key).
type Patch struct {
	Target      string      `json:"target"`
	Description string      `json:"description,omitempty"`
	Operations  []Operation `json:"operations"`
}

func pointerString(value interface{}) error {
	s, _ := value.(string)
	if !strings.HasPrefix(s, "/") {
		return fmt.Errorf("must start with /")
	}
	return nil
}

// Validate checks the operation's shape: a known op kind, a path
// starting with "/", value present for add/replace/test, and from
// present for move/copy.
func (o Operation) Validate() error {
	if err := validation.ValidateStruct(&o,
		validation.Field(&o.Op, validation.Required,
			validation.In(OpAdd, OpRemove, OpReplace, OpMove, OpCopy, OpTest)),
		validation.Field(&o.Path, validation.Required, validation.By(pointerString)),
	); err != nil {
		return err
	}
	switch o.Op {
	case OpAdd, OpReplace, OpTest:
		if len(o.Value) == 0 {
			return fmt.Errorf("op %q requires value", o.Op)
		}
	case OpMove, OpCopy:
		if err := pointerString(o.From); err != nil {
			return fmt.Errorf("op %q requires from: %w", o.Op, err)
		}
	}
	return nil
}

// Validate checks the patch's shape, including every operation.
func (p *Patch) Validate() error {
	if err := validation.ValidateStruct(p,
		validation.Field(&p.Target, validation.Required),
	); err != nil {
		return err
	}
	for i, op := range p.Operations {
		if err := op.Validate(); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return nil
}

// Parse decodes and shape-validates a patch file. A failure here skips
// the whole file; execution failures are reported per patch by Apply.
func Parse(data []byte) (*Patch, error) {
	var p Patch
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("patch: parse: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("patch: validate: %w", err)
	}
	return &p, nil
}
