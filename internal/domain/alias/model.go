package alias

import (
	"fmt"
	"strings"
)

// Source names a data provider whose spellings need mapping onto canonical names.
type Source string

const (
	SourceFPL       Source = "fpl"
	SourceUnderstat Source = "understat"
	SourceFBref     Source = "fbref"
)

type Entity string

const (
	EntityPlayer Entity = "player"
	EntityTeam   Entity = "team"
)

type key struct {
	source Source
	entity Entity
}

// Table maps provider-specific spellings onto canonical names. Lookups are
// exact on the trimmed name; anything not listed passes through unchanged.
type Table struct {
	entries map[key]map[string]string
}

func NewTable() *Table {
	return &Table{entries: make(map[key]map[string]string)}
}

// Set records from -> to for the source and entity, replacing any earlier mapping.
func (t *Table) Set(source Source, entity Entity, from, to string) error {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if source == "" || entity == "" {
		return fmt.Errorf("alias source and entity are required")
	}
	if from == "" || to == "" {
		return fmt.Errorf("alias %s/%s has empty name", source, entity)
	}
	k := key{source: source, entity: entity}
	if t.entries[k] == nil {
		t.entries[k] = make(map[string]string)
	}
	t.entries[k][from] = to
	return nil
}

func (t *Table) Normalize(source Source, entity Entity, name string) string {
	name = strings.TrimSpace(name)
	if t == nil {
		return name
	}
	if to, ok := t.entries[key{source: source, entity: entity}][name]; ok {
		return to
	}
	return name
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, m := range t.entries {
		n += len(m)
	}
	return n
}
