package mcpserver

// ManifestFormatContract describes the manifest file every mod
// directory must carry. LLM consumers authoring or debugging mods
// should follow it.
const ManifestFormatContract = `# Othala Mod Manifest Contract

Every mod lives in its own directory under the mods root and MUST carry
a ` + "`mod.json`" + ` manifest.

## Structure

` + "```" + `json
{
  "id": "core-weapons",            // REQUIRED - unique mod id
  "name": "Core Weapons",          // REQUIRED - display name
  "author": "someone",
  "version": "1.2.3",              // REQUIRED - must start with major.minor.patch
  "description": "Adds weapons.",
  "dependencies": ["base"],        // hard deps: must exist, load first
  "loadAfter": ["balance"],        // soft hint: honored when present
  "loadBefore": ["overhaul"],      // accepted but not consulted (see Rules)
  "priority": 0,                   // lower loads earlier; ties keep discovery order
  "scripts": ["scripts/init.lua"],
  "permissions": [],
  "patches": ["patches"],          // patch files or folders of *.json
  "contentFolders": {"items": "content/items"}
}
` + "```" + `

## Rules

1. **id and name are required.** A manifest missing either is skipped.
2. **version** must match ` + "`major.minor.patch`" + ` at its start;
   suffixes such as ` + "`1.2.3-beta`" + ` are fine.
3. **dependencies** are hard: a missing dependency aborts the whole
   load, and a dependency cycle does too.
4. **loadAfter** is soft: referencing an absent mod is not an error.
5. **loadBefore** is currently parsed but not consulted when ordering.
6. **Duplicate ids**: the first mod in resolved order wins; later
   duplicates are skipped with a warning.
7. Unknown fields are ignored; field names match case-insensitively.

## Patch files

` + "```" + `json
{
  "target": "items/sword",
  "description": "sharpen",
  "operations": [
    {"op": "test",    "path": "/damage", "value": 5},
    {"op": "replace", "path": "/damage", "value": 12},
    {"op": "add",     "path": "/tags/-", "value": "sharp"}
  ]
}
` + "```" + `

- ` + "`op`" + ` is one of add, remove, replace, move, copy, test.
- ` + "`path`" + ` (and ` + "`from`" + ` for move/copy) is a slash-delimited
  pointer; ` + "`~1`" + ` escapes ` + "`/`" + ` and ` + "`~0`" + ` escapes ` + "`~`" + `
  inside a segment; ` + "`-`" + ` appends to an array in add context.
- add/replace/test require ` + "`value`" + `; move/copy require ` + "`from`" + `.
- Operations run in order; the first failure aborts the rest of that
  patch but keeps what already applied.
`
