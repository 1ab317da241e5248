package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WifiNetwork is a Wi-Fi network served in a space. The password is
// stored encrypted and only handed out by the reveal endpoint.
type WifiNetwork struct {
	ID                uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	RootID            uuid.UUID  `json:"root_id" gorm:"type:uuid;index;not null"`
	SpaceID           uuid.UUID  `json:"space_id" gorm:"type:uuid;index;not null"`
	SSID              string     `json:"ssid" gorm:"column:ssid;type:varchar(255);not null"`
	PasswordEncrypted string     `json:"-" gorm:"type:text;not null"`
	Security          string     `json:"security" gorm:"type:varchar(100);not null"`
	VlanID            *uuid.UUID `json:"vlan_id" gorm:"type:uuid"`
	Notes             *string    `json:"notes" gorm:"type:text"`
	CreatedAt         time.Time  `json:"created_at"`

	// Relations
	Root  *Location `json:"-" gorm:"foreignKey:RootID;constraint:OnDelete:CASCADE"`
	Space *Location `json:"-" gorm:"foreignKey:SpaceID;constraint:OnDelete:CASCADE"`
	Vlan  *Vlan     `json:"-" gorm:"foreignKey:VlanID;constraint:OnDelete:SET NULL"`
}

func (w *WifiNetwork) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
