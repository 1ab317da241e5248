package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Device is a piece of hardware placed in a space (any location of the
// root's tree). Receiver devices terminate short-range connection
// technologies; the supports_* flags are meaningful only when IsReceiver
// is true.
type Device struct {
	ID                   uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	RootID               uuid.UUID `json:"root_id" gorm:"type:uuid;index;not null"`
	SpaceID              uuid.UUID `json:"space_id" gorm:"type:uuid;index;not null"`
	Name                 string    `json:"name" gorm:"type:varchar(255);not null"`
	Type                 string    `json:"type" gorm:"type:varchar(100);not null"`
	Vendor               *string   `json:"vendor" gorm:"type:varchar(100)"`
	Model                *string   `json:"model" gorm:"type:varchar(100)"`
	Serial               *string   `json:"serial" gorm:"type:varchar(255)"`
	Notes                *string   `json:"notes" gorm:"type:text"`
	IsReceiver           bool      `json:"is_receiver" gorm:"not null;default:false"`
	SupportsWifi         bool      `json:"supports_wifi" gorm:"not null;default:false"`
	SupportsEthernet     bool      `json:"supports_ethernet" gorm:"not null;default:false"`
	SupportsZigbee       bool      `json:"supports_zigbee" gorm:"not null;default:false"`
	SupportsMatterThread bool      `json:"supports_matter_thread" gorm:"not null;default:false"`
	SupportsBluetooth    bool      `json:"supports_bluetooth" gorm:"not null;default:false"`
	SupportsBLE          bool      `json:"supports_ble" gorm:"column:supports_ble;not null;default:false"`
	CreatedAt            time.Time `json:"created_at"`

	// Relations
	Root  *Location `json:"-" gorm:"foreignKey:RootID;constraint:OnDelete:CASCADE"`
	Space *Location `json:"-" gorm:"foreignKey:SpaceID;constraint:OnDelete:CASCADE"`
}

func (d *Device) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
