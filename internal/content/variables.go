package content

import (
	"fmt"
	"sync"
)

type VariableType string

const (
	VariableTypeBoolean VariableType = "boolean"
	VariableTypeInteger VariableType = "integer"
	VariableTypeString  VariableType = "string"
)

// variableRecord is shared by the three variable kinds. TextId is the
// human-readable identifier scripts embed in text, e.g. "gold".
type variableRecord struct {
	Base

	TextId string       `json:"text_id"`
	Type   VariableType `json:"type,omitempty"`
}

func (v *variableRecord) VariableTextId() string { return v.TextId }

type PlayerVariableRecord struct{ variableRecord }

func (v *PlayerVariableRecord) RecordKind() Kind { return KindPlayerVariable }

type ServerVariableRecord struct {
	variableRecord

	Value string `json:"value,omitempty"`
}

func (v *ServerVariableRecord) RecordKind() Kind { return KindServerVariable }

type GuildVariableRecord struct{ variableRecord }

func (v *GuildVariableRecord) RecordKind() Kind { return KindGuildVariable }

// Variable is any of the three variable kinds.
type Variable interface {
	Record
	VariableTextId() string
}

var variablePlaceholders = map[Kind][2]string{
	KindPlayerVariable: {"playervar{%s}", "playerswitch{%s}"},
	KindServerVariable: {"globalvar{%s}", "globalswitch{%s}"},
	KindGuildVariable:  {"guildvar{%s}", "guildswitch{%s}"},
}

// VariableIndex maps formatted text placeholders back to variable
// records, in both the value ("var") and switch forms. It is rebuilt
// wholesale whenever any variable's text identifier may have changed.
type VariableIndex struct {
	mu       sync.RWMutex
	vars     map[string]Variable
	switches map[string]Variable
}

func NewVariableIndex() *VariableIndex {
	return &VariableIndex{
		vars:     map[string]Variable{},
		switches: map[string]Variable{},
	}
}

// Rebuild replaces both placeholder tables from the three variable
// lookups held by the registry.
func (vi *VariableIndex) Rebuild(reg *Registry) {
	vars := map[string]Variable{}
	switches := map[string]Variable{}

	for kind, formats := range variablePlaceholders {
		desc, err := reg.Get(kind)
		if err != nil {
			continue
		}
		for _, rec := range desc.Lookup.Values() {
			v, ok := rec.(Variable)
			if !ok || v.VariableTextId() == "" {
				continue
			}
			vars[fmt.Sprintf(formats[0], v.VariableTextId())] = v
			switches[fmt.Sprintf(formats[1], v.VariableTextId())] = v
		}
	}

	vi.mu.Lock()
	vi.vars = vars
	vi.switches = switches
	vi.mu.Unlock()
}

// Variable resolves a value-form placeholder such as "globalvar{gold}".
func (vi *VariableIndex) Variable(placeholder string) (Variable, bool) {
	vi.mu.RLock()
	defer vi.mu.RUnlock()

	v, ok := vi.vars[placeholder]
	return v, ok
}

// Switch resolves a switch-form placeholder such as "globalswitch{gold}".
func (vi *VariableIndex) Switch(placeholder string) (Variable, bool) {
	vi.mu.RLock()
	defer vi.mu.RUnlock()

	v, ok := vi.switches[placeholder]
	return v, ok
}
