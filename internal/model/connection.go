package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConnectionTechnology tags the physical or wireless technology of a
// connection. VLAN and receiver requirements are gated per technology.
type ConnectionTechnology string

const (
	TechnologyEthernet          ConnectionTechnology = "ETHERNET"
	TechnologyFiber             ConnectionTechnology = "FIBER"
	TechnologyWifi              ConnectionTechnology = "WIFI"
	TechnologyZigbee            ConnectionTechnology = "ZIGBEE"
	TechnologyMatterOverThread  ConnectionTechnology = "MATTER_OVER_THREAD"
	TechnologyBluetooth         ConnectionTechnology = "BLUETOOTH"
	TechnologyBLE               ConnectionTechnology = "BLE"
	TechnologySerial            ConnectionTechnology = "SERIAL"
	TechnologyOther             ConnectionTechnology = "OTHER"
)

// Valid reports whether the technology is a known value
func (t ConnectionTechnology) Valid() bool {
	switch t {
	case TechnologyEthernet, TechnologyFiber, TechnologyWifi, TechnologyZigbee,
		TechnologyMatterOverThread, TechnologyBluetooth, TechnologyBLE,
		TechnologySerial, TechnologyOther:
		return true
	}
	return false
}

// Connection links two interfaces of devices in the same root. The VLAN
// and receiver references are cleared, not cascaded, when the referenced
// entity goes away.
type Connection struct {
	ID              uuid.UUID            `json:"id" gorm:"type:uuid;primaryKey"`
	RootID          uuid.UUID            `json:"root_id" gorm:"type:uuid;index;not null"`
	FromInterfaceID uuid.UUID            `json:"from_interface_id" gorm:"type:uuid;not null"`
	ToInterfaceID   uuid.UUID            `json:"to_interface_id" gorm:"type:uuid;not null"`
	ReceiverID      *uuid.UUID           `json:"receiver_id" gorm:"type:uuid;index"`
	Technology      ConnectionTechnology `json:"technology" gorm:"type:varchar(32);not null"`
	VlanID          *uuid.UUID           `json:"vlan_id" gorm:"type:uuid"`
	Notes           *string              `json:"notes" gorm:"type:text"`
	CreatedAt       time.Time            `json:"created_at"`

	// Relations
	Root          *Location  `json:"-" gorm:"foreignKey:RootID;constraint:OnDelete:CASCADE"`
	FromInterface *Interface `json:"-" gorm:"foreignKey:FromInterfaceID;constraint:OnDelete:CASCADE"`
	ToInterface   *Interface `json:"-" gorm:"foreignKey:ToInterfaceID;constraint:OnDelete:CASCADE"`
	Receiver      *Device    `json:"-" gorm:"foreignKey:ReceiverID;constraint:OnDelete:SET NULL"`
	Vlan          *Vlan      `json:"-" gorm:"foreignKey:VlanID;constraint:OnDelete:SET NULL"`
}

func (c *Connection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
