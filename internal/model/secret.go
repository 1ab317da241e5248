package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SecretType classifies a stored secret
type SecretType string

const (
	SecretPassword SecretType = "PASSWORD"
	SecretToken    SecretType = "TOKEN"
	SecretAPIKey   SecretType = "API_KEY"
	SecretOther    SecretType = "OTHER"
)

// Valid reports whether the secret type is a known value
func (t SecretType) Valid() bool {
	switch t {
	case SecretPassword, SecretToken, SecretAPIKey, SecretOther:
		return true
	}
	return false
}

// Secret is an encrypted credential scoped to a root, optionally linked
// to a device in the same root
type Secret struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	RootID         uuid.UUID  `json:"root_id" gorm:"type:uuid;index;not null"`
	Type           SecretType `json:"type" gorm:"type:varchar(20);not null"`
	Name           string     `json:"name" gorm:"type:varchar(255);not null"`
	EncryptedValue string     `json:"-" gorm:"type:text;not null"`
	LinkedDeviceID *uuid.UUID `json:"linked_device_id" gorm:"type:uuid"`
	Notes          *string    `json:"notes" gorm:"type:text"`
	CreatedAt      time.Time  `json:"created_at"`

	// Relations
	Root         *Location `json:"-" gorm:"foreignKey:RootID;constraint:OnDelete:CASCADE"`
	LinkedDevice *Device   `json:"-" gorm:"foreignKey:LinkedDeviceID;constraint:OnDelete:SET NULL"`
}

func (s *Secret) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
