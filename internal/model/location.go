package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Location is a node in a location tree. A location whose ID equals its
// RootID is a root: the head of its own tree and the unit of tenancy.
// Every other location hangs under a parent in the same tree.
type Location struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string     `json:"name" gorm:"type:varchar(255);not null"`
	ParentID  *uuid.UUID `json:"parent_id" gorm:"type:uuid;index"`
	RootID    uuid.UUID  `json:"root_id" gorm:"type:uuid;index;not null"`
	Notes     *string    `json:"notes" gorm:"type:text"`
	CreatedAt time.Time  `json:"created_at"`

	// Relations (cascade: deleting a root removes its whole tree)
	Parent *Location `json:"-" gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
	Root   *Location `json:"-" gorm:"foreignKey:RootID;constraint:OnDelete:CASCADE"`
}

// IsRoot reports whether the location heads its own tree
func (l *Location) IsRoot() bool {
	return l.ID == l.RootID
}

func (l *Location) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
