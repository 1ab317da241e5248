package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRole is the coarse authorization role of a user
type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

// User represents the user model stored in the database
type User struct {
	ID                 uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email              string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash       string    `json:"-" gorm:"type:varchar(255);not null"`
	Role               UserRole  `json:"role" gorm:"type:varchar(20);not null;default:'USER'"`
	IsActive           bool      `json:"is_active" gorm:"not null;default:true"`
	MustChangePassword bool      `json:"must_change_password" gorm:"not null;default:false"`
	CreatedAt          time.Time `json:"created_at"`
}

// IsAdmin reports whether the user carries the administrative role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
