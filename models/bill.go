package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Bill freezes the amount of an order at payment time, so later menu price
// changes never alter what the customer was charged.
type Bill struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;uniqueIndex" json:"order_id"`
	Number    string          `gorm:"type:varchar(40);uniqueIndex;not null" json:"number"`
	Amount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	IssuedAt  time.Time       `gorm:"not null" json:"issued_at"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null" json:"updated_at"`
}

// BillNumber formats the printed bill number, e.g. BILL/20260101/000042.
func BillNumber(orderID uint, issuedAt time.Time) string {
	return fmt.Sprintf("BILL/%s/%06d", issuedAt.Format("20060102"), orderID)
}
