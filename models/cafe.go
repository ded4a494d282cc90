package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cafe struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Slug        string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Name        string          `gorm:"type:varchar(150);not null" json:"name"`
	Tagline     string          `gorm:"type:varchar(255)" json:"tagline"`
	BannerURL   string          `gorm:"type:varchar(500)" json:"banner_url"`
	Rating      decimal.Decimal `gorm:"type:decimal(3,2);not null;default:0" json:"rating"`
	ReviewCount int             `gorm:"not null;default:0" json:"review_count"`
	OwnerID     string          `gorm:"type:varchar(200);index" json:"owner_id"`
	SoftDelete
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
