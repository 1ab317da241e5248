package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Interface is a physical or logical port of a device
type Interface struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	DeviceID  uuid.UUID `json:"device_id" gorm:"type:uuid;index;not null"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Type      string    `json:"type" gorm:"type:varchar(100);not null"`
	MAC       *string   `json:"mac" gorm:"column:mac;type:varchar(64)"`
	Notes     *string   `json:"notes" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Device *Device `json:"-" gorm:"foreignKey:DeviceID;constraint:OnDelete:CASCADE"`
}

func (i *Interface) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
