package document

import (
	"fmt"
	"strconv"
	"strings"
)

// Pointer is a parsed slash-delimited path into a document. The empty
// pointer addresses the document root.
type Pointer struct {
	raw      string
	segments []string
}

// ParsePointer parses a pointer string. The string must be empty or
// start with "/". Each segment is unescaped by replacing "~0" with "~"
// and then "~1" with "/". The two replacements are independent passes,
// so the segment "~01" decodes to "/" where RFC 6901 would give "~1"
// (see the pointer tests, which pin this behavior).
func ParsePointer(s string) (Pointer, error) {
	if s == "" {
		return Pointer{raw: s}, nil
	}
	if !strings.HasPrefix(s, "/") {
		return Pointer{}, fmt.Errorf("document: pointer %q must start with /", s)
	}
	parts := strings.Split(s, "/")[1:]
	segments := make([]string, len(parts))
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~0", "~")
		p = strings.ReplaceAll(p, "~1", "/")
		segments[i] = p
	}
	return Pointer{raw: s, segments: segments}, nil
}

// String returns the original pointer text.
func (p Pointer) String() string { return p.raw }

// IsRoot reports whether the pointer addresses the document root.
func (p Pointer) IsRoot() bool { return len(p.segments) == 0 }

// Segments returns the unescaped path segments.
func (p Pointer) Segments() []string {
	out := make([]string, len(p.segments))
	copy(out, p.segments)
	return out
}

// Resolve walks root and returns the value the pointer addresses.
// A missing key, an out-of-range index, or descending into a scalar is
// a path-not-found error.
func (p Pointer) Resolve(root *Node) (*Node, error) {
	cur := root
	for _, seg := range p.segments {
		next, err := step(cur, seg)
		if err != nil {
			return nil, fmt.Errorf("document: pointer %q: %w", p.raw, err)
		}
		cur = next
	}
	return cur, nil
}

// Parent walks root to the container holding the pointer's final
// segment and returns (parent, final segment). The final segment is not
// checked for existence; callers decide whether it must exist (remove,
// replace) or may be created (add). The root pointer has no parent.
func (p Pointer) Parent(root *Node) (*Node, string, error) {
	if p.IsRoot() {
		return nil, "", fmt.Errorf("document: pointer %q has no parent", p.raw)
	}
	cur := root
	for _, seg := range p.segments[:len(p.segments)-1] {
		next, err := step(cur, seg)
		if err != nil {
			return nil, "", fmt.Errorf("document: pointer %q: %w", p.raw, err)
		}
		cur = next
	}
	return cur, p.segments[len(p.segments)-1], nil
}

// step descends one segment into a container node.
func step(n *Node, seg string) (*Node, error) {
	switch n.Kind() {
	case KindObject:
		v, ok := n.Get(seg)
		if !ok {
			return nil, fmt.Errorf("key %q not found", seg)
		}
		return v, nil
	case KindArray:
		i, err := ArrayIndex(seg, n.Len(), false)
		if err != nil {
			return nil, err
		}
		v, _ := n.Index(i)
		return v, nil
	default:
		return nil, fmt.Errorf("cannot descend into scalar at %q", seg)
	}
}

// ArrayIndex parses seg as an array index for a container of the given
// length. When allowAppend is true (add context), the literal segment
// "-" and the index equal to length are accepted, denoting append.
func ArrayIndex(seg string, length int, allowAppend bool) (int, error) {
	if seg == "-" {
		if !allowAppend {
			return 0, fmt.Errorf("index %q only valid when adding", seg)
		}
		return length, nil
	}
	i, err := strconv.Atoi(seg)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid array index %q", seg)
	}
	max := length
	if !allowAppend {
		max = length - 1
	}
	if i > max {
		return 0, fmt.Errorf("array index %d out of range (len %d)", i, length)
	}
	return i, nil
}
