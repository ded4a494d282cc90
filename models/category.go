package models

import "time"

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CafeID    uint      `gorm:"not null;uniqueIndex:idx_categories_cafe_name" json:"cafe_id"`
	Cafe      Cafe      `gorm:"foreignKey:CafeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_categories_cafe_name" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
