package content

import (
	"errors"
	"testing"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/document"
)

func mustDecode(t *testing.T, s string) *document.Node {
	t.Helper()
	doc, err := document.Decode([]byte(s))
	if err != nil {
		t.Fatalf("Decode(%q): %v", s, err)
	}
	return doc
}

func TestAddAndGet(t *testing.T) {
	s := NewStore()
	doc := mustDecode(t, `{"damage":5}`)

	if err := s.Add("items/sword", doc); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, ok := s.Get("items/sword")
	if !ok || got != doc {
		t.Errorf("Get returned %v, %v", got, ok)
	}
	if _, ok := s.Get("items/ghost"); ok {
		t.Error("Get for absent key should report false")
	}
}

func TestAddDuplicateKey(t *testing.T) {
	s := NewStore()
	_ = s.Add("k", mustDecode(t, `1`))

	err := s.Add("k", mustDecode(t, `2`))
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate Add error = %v, want ErrAlreadyExists", err)
	}
}

func TestReplace(t *testing.T) {
	s := NewStore()
	_ = s.Add("k", mustDecode(t, `1`))

	repl := mustDecode(t, `2`)
	if err := s.Replace("k", repl); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got, _ := s.Get("k")
	if got != repl {
		t.Error("Replace did not swap the document")
	}

	err := s.Replace("missing", repl)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Replace missing key error = %v, want ErrNotFound", err)
	}
}

func TestPutOverridesUnconditionally(t *testing.T) {
	s := NewStore()
	s.Put("k", mustDecode(t, `1`))
	override := mustDecode(t, `2`)
	s.Put("k", override)

	got, _ := s.Get("k")
	if got != override {
		t.Error("Put did not override")
	}
}

func TestKeysSortedAndReset(t *testing.T) {
	s := NewStore()
	_ = s.Add("b/two", mustDecode(t, `2`))
	_ = s.Add("a/one", mustDecode(t, `1`))

	keys := s.Keys()
	if len(keys) != 2 || keys[0] != "a/one" || keys[1] != "b/two" {
		t.Errorf("keys = %v", keys)
	}
	if s.Len() != 2 {
		t.Errorf("len = %d", s.Len())
	}

	s.Reset()
	if s.Len() != 0 {
		t.Errorf("len after reset = %d", s.Len())
	}
}
