package manifest

import "testing"

func TestParseValid(t *testing.T) {
	m, err := Parse([]byte(`{
		"id": "core-weapons",
		"name": "Core Weapons",
		"author": "someone",
		"version": "1.2.3",
		"dependencies": ["base"],
		"loadAfter": ["balance"],
		"loadBefore": ["overhaul"],
		"priority": -5,
		"scripts": ["scripts/init.lua"],
		"patches": ["patches"],
		"contentFolders": {"items": "content/items"}
	}`), "/mods/core-weapons")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.ID != "core-weapons" || m.Priority != -5 {
		t.Errorf("parsed %+v", m)
	}
	if m.Dir != "/mods/core-weapons" {
		t.Errorf("Dir = %q", m.Dir)
	}
	if len(m.LoadBefore) != 1 || m.LoadBefore[0] != "overhaul" {
		t.Errorf("LoadBefore = %v", m.LoadBefore)
	}
	if m.ContentFolders["items"] != "content/items" {
		t.Errorf("ContentFolders = %v", m.ContentFolders)
	}
}

func TestParseCaseInsensitiveAndUnknownFields(t *testing.T) {
	m, err := Parse([]byte(`{
		"ID": "x",
		"NAME": "X",
		"Version": "0.1.0-beta",
		"totallyUnknown": {"nested": true}
	}`), "/mods/x")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.ID != "x" || m.Name != "X" {
		t.Errorf("case-insensitive match failed: %+v", m)
	}
}

func TestVersionSuffixAllowed(t *testing.T) {
	if _, err := Parse([]byte(`{"id":"a","name":"A","version":"1.0.0-rc1"}`), ""); err != nil {
		t.Errorf("suffix after major.minor.patch should pass: %v", err)
	}
}

func TestRejects(t *testing.T) {
	cases := map[string]string{
		"missing id":      `{"name":"A","version":"1.0.0"}`,
		"missing name":    `{"id":"a","version":"1.0.0"}`,
		"missing version": `{"id":"a","name":"A"}`,
		"short version":   `{"id":"a","name":"A","version":"1.0"}`,
		"non-numeric":     `{"id":"a","name":"A","version":"one.two.three"}`,
		"unparsable":      `{not json`,
	}
	for name, src := range cases {
		if _, err := Parse([]byte(src), ""); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
