package models

import "github.com/google/uuid"

// Owned is implemented by every record that belongs to exactly one user.
type Owned interface {
	PrimaryKey() uuid.UUID
	AssignID(uuid.UUID)
	OwnedBy() uint
	AssignOwner(uint)
}

// Ownership holds the identity columns shared by user-owned records.
// Both are server-assigned: whatever a client sends for them is overwritten.
type Ownership struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OwnerID uint      `json:"owner" gorm:"not null;index"`
}

func (o Ownership) PrimaryKey() uuid.UUID   { return o.ID }
func (o *Ownership) AssignID(id uuid.UUID)  { o.ID = id }
func (o Ownership) OwnedBy() uint           { return o.OwnerID }
func (o *Ownership) AssignOwner(owner uint) { o.OwnerID = owner }

// Defaulter fills in column defaults before a payload is decoded on top.
type Defaulter interface {
	SetDefaults()
}

// Checker validates rules the binding tags cannot express.
type Checker interface {
	Check() error
}

// NewID returns a time-ordered UUID so that ordering by id follows insertion order.
func NewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}
