package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vlan represents a VLAN defined within one root. The VLAN number is
// unique per root, not globally.
type Vlan struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	RootID       uuid.UUID `json:"root_id" gorm:"type:uuid;index;not null;uniqueIndex:uq_vlans_root_vlan"`
	VlanID       int       `json:"vlan_id" gorm:"column:vlan_id;not null;uniqueIndex:uq_vlans_root_vlan"`
	Name         string    `json:"name" gorm:"type:varchar(255);not null"`
	SubnetMask   string    `json:"subnet_mask" gorm:"type:varchar(64);not null"`
	IPRangeStart string    `json:"ip_range_start" gorm:"type:varchar(64);not null"`
	IPRangeEnd   string    `json:"ip_range_end" gorm:"type:varchar(64);not null"`
	Notes        *string   `json:"notes" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`

	// Relations
	Root *Location `json:"-" gorm:"foreignKey:RootID;constraint:OnDelete:CASCADE"`
}

func (v *Vlan) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
