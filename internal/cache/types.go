// Package cache persists per-model embeddings of manual pages.
//
// One file per model maps each command to the paragraphs of its manual page
// (split by a delimiter) and one vector per paragraph.
package cache

import (
	"sort"
	"time"
)

// Entry is the cached corpus of one command.
type Entry struct {
	Delimiter  string
	Paragraphs []string
	Vectors    [][]float32
}

// Dim returns the vector dimension of the entry (0 when it has no vectors).
func (e *Entry) Dim() int {
	if e == nil || len(e.Vectors) == 0 {
		return 0
	}
	return len(e.Vectors[0])
}

// ModelCache holds every cached command for one embedding model.
type ModelCache struct {
	Model     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Commands  map[string]*Entry

	dirty bool
}

// NewModelCache returns an empty cache for model.
func NewModelCache(model string) *ModelCache {
	now := time.Now().UTC().Truncate(time.Second)
	return &ModelCache{
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
		Commands:  map[string]*Entry{},
	}
}

// Entry returns the cached entry for command.
func (m *ModelCache) Entry(command string) (*Entry, bool) {
	e, ok := m.Commands[command]
	return e, ok
}

// Put stores e under command, replacing any previous entry, and marks the
// cache dirty.
func (m *ModelCache) Put(command string, e *Entry) {
	if m.Commands == nil {
		m.Commands = map[string]*Entry{}
	}
	m.Commands[command] = e
	m.dirty = true
}

// Dirty reports whether the in-memory cache differs from the last persisted file.
func (m *ModelCache) Dirty() bool { return m.dirty }

// Names returns the cached command names, sorted.
func (m *ModelCache) Names() []string {
	out := make([]string, 0, len(m.Commands))
	for k := range m.Commands {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// CommandsFor returns the sorted names of commands cached with delimiter.
func (m *ModelCache) CommandsFor(delimiter string) []string {
	var out []string
	for _, name := range m.Names() {
		if m.Commands[name].Delimiter == delimiter {
			out = append(out, name)
		}
	}
	return out
}
