package model

import (
	"github.com/google/uuid"
)

// UserRoot grants a user access to one root's tree. It is the unit of
// tenancy: a non-admin user can only act within roots granted here.
type UserRoot struct {
	UserID uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	RootID uuid.UUID `json:"root_id" gorm:"type:uuid;primaryKey"`

	// Relations
	User *User     `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Root *Location `json:"-" gorm:"foreignKey:RootID;constraint:OnDelete:CASCADE"`
}
