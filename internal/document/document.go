// Package document implements the tree model that mod patches operate on:
// a tagged union of ordered objects, arrays, and scalar leaves, with
// order-preserving JSON decoding and a canonical encoder used for
// byte-for-byte comparisons.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind discriminates the three node shapes.
type Kind int

const (
	KindObject Kind = iota
	KindArray
	KindScalar
)

// String returns a human-readable kind name for error messages.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "scalar"
	}
}

// Node is a single tree node. Exactly one of the three shapes is active,
// selected by kind. Object keys keep insertion order.
type Node struct {
	kind   Kind
	keys   []string
	fields map[string]*Node
	items  []*Node
	scalar json.RawMessage
}

// NewObject returns an empty object node.
func NewObject() *Node {
	return &Node{kind: KindObject, fields: map[string]*Node{}}
}

// NewArray returns an empty array node.
func NewArray() *Node {
	return &Node{kind: KindArray}
}

// NewScalar returns a scalar node holding raw, which must be a single
// marshaled JSON scalar (string, number, bool, or null).
func NewScalar(raw json.RawMessage) *Node {
	return &Node{kind: KindScalar, scalar: raw}
}

// Kind returns the node's shape.
func (n *Node) Kind() Kind { return n.kind }

// Decode parses JSON bytes into a Node, preserving object key order.
func Decode(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	n, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("document: decode: %w", err)
	}
	// Reject trailing garbage after the first value.
	if dec.More() {
		return nil, fmt.Errorf("document: decode: unexpected trailing data")
	}
	return n, nil
}

func decodeValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is not a string: %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			// Consume '}'.
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			arr := NewArray()
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr.Append(val)
			}
			// Consume ']'.
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string:
		raw, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return NewScalar(raw), nil
	case json.Number:
		return NewScalar(json.RawMessage(t.String())), nil
	case bool:
		if t {
			return NewScalar(json.RawMessage("true")), nil
		}
		return NewScalar(json.RawMessage("false")), nil
	case nil:
		return NewScalar(json.RawMessage("null")), nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

// Encode renders the node as canonical JSON: no extra whitespace, object
// keys in stored order. Two equal documents always encode to equal bytes.
func (n *Node) Encode() []byte {
	var buf bytes.Buffer
	n.encode(&buf)
	return buf.Bytes()
}

func (n *Node) encode(buf *bytes.Buffer) {
	switch n.kind {
	case KindObject:
		buf.WriteByte('{')
		for i, k := range n.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			n.fields[k].encode(buf)
		}
		buf.WriteByte('}')
	case KindArray:
		buf.WriteByte('[')
		for i, item := range n.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			item.encode(buf)
		}
		buf.WriteByte(']')
	default:
		buf.Write(n.scalar)
	}
}

// MarshalJSON implements json.Marshaler using the canonical encoding.
func (n *Node) MarshalJSON() ([]byte, error) {
	return n.Encode(), nil
}

// Equal reports whether two nodes have identical canonical encodings.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	return bytes.Equal(n.Encode(), other.Encode())
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	switch n.kind {
	case KindObject:
		out := NewObject()
		for _, k := range n.keys {
			out.Set(k, n.fields[k].Clone())
		}
		return out
	case KindArray:
		out := NewArray()
		for _, item := range n.items {
			out.Append(item.Clone())
		}
		return out
	default:
		raw := make(json.RawMessage, len(n.scalar))
		copy(raw, n.scalar)
		return NewScalar(raw)
	}
}

// --- object operations ---

// Get returns the value for key on an object node.
func (n *Node) Get(key string) (*Node, bool) {
	if n.kind != KindObject {
		return nil, false
	}
	v, ok := n.fields[key]
	return v, ok
}

// Set inserts or overwrites key on an object node, preserving the
// position of existing keys and appending new ones.
func (n *Node) Set(key string, value *Node) {
	if n.kind != KindObject {
		return
	}
	if _, ok := n.fields[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.fields[key] = value
}

// Delete removes key from an object node. It reports whether the key
// was present.
func (n *Node) Delete(key string) bool {
	if n.kind != KindObject {
		return false
	}
	if _, ok := n.fields[key]; !ok {
		return false
	}
	delete(n.fields, key)
	for i, k := range n.keys {
		if k == key {
			n.keys = append(n.keys[:i], n.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the object's keys in stored order.
func (n *Node) Keys() []string {
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// --- array operations ---

// Len returns the number of elements of an array node, or the number of
// keys of an object node.
func (n *Node) Len() int {
	switch n.kind {
	case KindArray:
		return len(n.items)
	case KindObject:
		return len(n.keys)
	default:
		return 0
	}
}

// Index returns the element at i of an array node.
func (n *Node) Index(i int) (*Node, bool) {
	if n.kind != KindArray || i < 0 || i >= len(n.items) {
		return nil, false
	}
	return n.items[i], true
}

// Append adds value at the end of an array node.
func (n *Node) Append(value *Node) {
	if n.kind != KindArray {
		return
	}
	n.items = append(n.items, value)
}

// InsertAt inserts value at index i of an array node, shifting later
// elements right. i must be in [0, len].
func (n *Node) InsertAt(i int, value *Node) error {
	if n.kind != KindArray {
		return fmt.Errorf("document: insert into %s", n.kind)
	}
	if i < 0 || i > len(n.items) {
		return fmt.Errorf("document: insert index %d out of range [0,%d]", i, len(n.items))
	}
	n.items = append(n.items, nil)
	copy(n.items[i+1:], n.items[i:])
	n.items[i] = value
	return nil
}

// RemoveAt deletes the element at index i of an array node.
func (n *Node) RemoveAt(i int) error {
	if n.kind != KindArray {
		return fmt.Errorf("document: remove from %s", n.kind)
	}
	if i < 0 || i >= len(n.items) {
		return fmt.Errorf("document: remove index %d out of range [0,%d)", i, len(n.items))
	}
	n.items = append(n.items[:i], n.items[i+1:]...)
	return nil
}

// Scalar returns the raw JSON bytes of a scalar node.
func (n *Node) Scalar() json.RawMessage {
	return n.scalar
}
