package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DietaryTag string

const (
	DietaryUnset  DietaryTag = ""
	DietaryVeg    DietaryTag = "veg"
	DietaryNonVeg DietaryTag = "non-veg"
	DietaryVegan  DietaryTag = "vegan"
)

func (d DietaryTag) Valid() bool {
	switch d {
	case DietaryUnset, DietaryVeg, DietaryNonVeg, DietaryVegan:
		return true
	}
	return false
}

// MenuItem has two independent switches: IsAvailable is flipped by the
// kitchen during service, the lifecycle archives the item for good.
type MenuItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CafeID      uint            `gorm:"not null;index" json:"cafe_id"`
	Cafe        Cafe            `gorm:"foreignKey:CafeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	CategoryID  *uint           `gorm:"index" json:"category_id"`
	Category    *Category       `gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"category,omitempty"`
	Name        string          `gorm:"type:varchar(150);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	ImageURL    string          `gorm:"type:varchar(500)" json:"image_url"`
	Price       decimal.Decimal `gorm:"type:decimal(8,2);not null" json:"price"`
	Dietary     DietaryTag      `gorm:"type:varchar(16)" json:"dietary"`
	IsAvailable bool            `gorm:"not null" json:"is_available"`
	IsSpecial   bool            `gorm:"not null;index" json:"is_special"`
	SoftDelete
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// Orderable reports whether a customer can put the item on an order right now.
func (m MenuItem) Orderable() bool {
	return m.IsActive() && m.IsAvailable
}
