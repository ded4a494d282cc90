package models

import "time"

// Table is a physical table. QRToken is generated once and never rewritten.
type Table struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	CafeID    uint   `gorm:"not null;uniqueIndex:idx_tables_cafe_number" json:"cafe_id"`
	Cafe      Cafe   `gorm:"foreignKey:CafeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Number    int    `gorm:"not null;uniqueIndex:idx_tables_cafe_number" json:"number"`
	QRToken   string `gorm:"type:varchar(64);uniqueIndex;not null" json:"qr_token"`
	SoftDelete
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
