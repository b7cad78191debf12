package patch

import (
	"bytes"
	"fmt"

	"github.com/starford/othala/internal/document"
)

// Apply executes the patch against doc, strictly in operation order;
// each operation sees the effects of the ones before it. The first
// failing operation aborts the remainder, but operations already
// applied stay applied: the document is mutated in place and returned
// even on error, so callers needing isolation must clone first.
func Apply(doc *document.Node, p *Patch) (*document.Node, error) {
	for i, op := range p.Operations {
		if err := op.Validate(); err != nil {
			return doc, fmt.Errorf("patch: operation %d: %w", i, err)
		}
		if err := applyOp(doc, op); err != nil {
			return doc, fmt.Errorf("patch: operation %d (%s %s): %w", i, op.Op, op.Path, err)
		}
	}
	return doc, nil
}

func applyOp(doc *document.Node, op Operation) error {
	path, err := document.ParsePointer(op.Path)
	if err != nil {
		return err
	}

	switch op.Op {
	case OpAdd:
		value, err := document.Decode(op.Value)
		if err != nil {
			return err
		}
		return add(doc, path, value)

	case OpRemove:
		return remove(doc, path)

	case OpReplace:
		value, err := document.Decode(op.Value)
		if err != nil {
			return err
		}
		return replace(doc, path, value)

	case OpMove:
		from, err := document.ParsePointer(op.From)
		if err != nil {
			return err
		}
		moved, err := from.Resolve(doc)
		if err != nil {
			return err
		}
		// Remove before adding so a move within one array accounts for
		// the index shift the removal causes.
		if err := remove(doc, from); err != nil {
			return err
		}
		return add(doc, path, moved)

	case OpCopy:
		from, err := document.ParsePointer(op.From)
		if err != nil {
			return err
		}
		src, err := from.Resolve(doc)
		if err != nil {
			return err
		}
		return add(doc, path, src.Clone())

	case OpTest:
		actual, err := path.Resolve(doc)
		if err != nil {
			return err
		}
		want, err := document.Decode(op.Value)
		if err != nil {
			return err
		}
		if !bytes.Equal(actual.Encode(), want.Encode()) {
			return fmt.Errorf("test mismatch: have %s, want %s", actual.Encode(), want.Encode())
		}
		return nil

	default:
		return fmt.Errorf("unknown op %q", op.Op)
	}
}

// add inserts value at path: object keys are inserted or overwritten,
// array indices must be in [0, len] with "-" meaning append.
func add(doc *document.Node, path document.Pointer, value *document.Node) error {
	parent, key, err := path.Parent(doc)
	if err != nil {
		return err
	}
	switch parent.Kind() {
	case document.KindObject:
		parent.Set(key, value)
		return nil
	case document.KindArray:
		i, err := document.ArrayIndex(key, parent.Len(), true)
		if err != nil {
			return err
		}
		return parent.InsertAt(i, value)
	default:
		return fmt.Errorf("cannot add to %s", parent.Kind())
	}
}

// remove deletes the value at path, which must exist.
func remove(doc *document.Node, path document.Pointer) error {
	parent, key, err := path.Parent(doc)
	if err != nil {
		return err
	}
	switch parent.Kind() {
	case document.KindObject:
		if !parent.Delete(key) {
			return fmt.Errorf("key %q not found", key)
		}
		return nil
	case document.KindArray:
		i, err := document.ArrayIndex(key, parent.Len(), false)
		if err != nil {
			return err
		}
		return parent.RemoveAt(i)
	default:
		return fmt.Errorf("cannot remove from %s", parent.Kind())
	}
}

// replace swaps the value at path, which must already exist: unlike
// add, replace never grows a container. An object key keeps its
// position in the canonical encoding; an array element is swapped at
// its index.
func replace(doc *document.Node, path document.Pointer, value *document.Node) error {
	parent, key, err := path.Parent(doc)
	if err != nil {
		return err
	}
	switch parent.Kind() {
	case document.KindObject:
		if _, ok := parent.Get(key); !ok {
			return fmt.Errorf("key %q not found", key)
		}
		parent.Set(key, value)
		return nil
	case document.KindArray:
		i, err := document.ArrayIndex(key, parent.Len(), false)
		if err != nil {
			return err
		}
		if err := parent.RemoveAt(i); err != nil {
			return err
		}
		return parent.InsertAt(i, value)
	default:
		return fmt.Errorf("cannot replace in %s", parent.Kind())
	}
}
