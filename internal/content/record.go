package content

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInvalidId   = errors.New("invalid record id")
	ErrUnknownKind = errors.New("unknown content kind")
)

// Record is one authored game object. Every kind embeds Base, so the
// loader, the CRUD path and the migrator can treat all kinds uniformly
// through the registry.
type Record interface {
	RecordId() uuid.UUID
	RecordKind() Kind
	RecordName() string
	ParentFolder() uuid.UUID
	SetParentFolder(uuid.UUID)

	// Hydration setters for the load path. The id is immutable once a
	// record is cached; these exist so identity columns win over a
	// stale json body.
	SetRecordId(uuid.UUID)
	SetRecordName(string)
}

// Base carries the attributes shared by every content kind. The id is
// assigned at creation and never changes; the kind is fixed by the
// concrete type.
type Base struct {
	Id       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	FolderId uuid.UUID `json:"folder_id,omitempty"`
}

func (b *Base) RecordId() uuid.UUID          { return b.Id }
func (b *Base) RecordName() string           { return b.Name }
func (b *Base) ParentFolder() uuid.UUID      { return b.FolderId }
func (b *Base) SetParentFolder(id uuid.UUID) { b.FolderId = id }
func (b *Base) SetRecordId(id uuid.UUID)     { b.Id = id }
func (b *Base) SetRecordName(name string)    { b.Name = name }
