package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusServed    OrderStatus = "served"
	OrderStatusCompleted OrderStatus = "completed"
)

// orderStatusSequence is the only path an order can take. There is no
// cancel or void state.
var orderStatusSequence = []OrderStatus{
	OrderStatusPending,
	OrderStatusAccepted,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusServed,
	OrderStatusCompleted,
}

// OrderStatuses returns the canonical status sequence in order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(orderStatusSequence))
	copy(out, orderStatusSequence)
	return out
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range orderStatusSequence {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

func (s OrderStatus) position() int {
	for i, st := range orderStatusSequence {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the immediate successor of s, false for completed or unknown statuses.
func (s OrderStatus) Next() (OrderStatus, bool) {
	i := s.position()
	if i < 0 || i == len(orderStatusSequence)-1 {
		return "", false
	}
	return orderStatusSequence[i+1], true
}

func (s OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	n, ok := s.Next()
	return ok && n == next
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted
}

type PaymentMethod string

const (
	PaymentCounter PaymentMethod = "counter"
	PaymentOnline  PaymentMethod = "online"
)

func (p PaymentMethod) Valid() bool {
	return p == PaymentCounter || p == PaymentOnline
}

type Order struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	PublicID            string          `gorm:"type:varchar(36);uniqueIndex;not null" json:"public_id"`
	TableID             uint            `gorm:"not null;index" json:"table_id"`
	Table               Table           `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	CafeID              uint            `gorm:"not null;index" json:"cafe_id"`
	Cafe                Cafe            `gorm:"foreignKey:CafeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Status              OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentMethod       PaymentMethod   `gorm:"type:varchar(20);not null;default:'counter'" json:"payment_method"`
	TotalPrice          decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total_price"`
	Paid                bool            `gorm:"not null;default:false" json:"paid"`
	SpecialInstructions string          `gorm:"type:text" json:"special_instructions"`
	SessionToken        string          `gorm:"type:varchar(64);index" json:"-"`
	PrepMinutes         *int            `json:"prep_minutes,omitempty"`
	Items               []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	Bill                *Bill           `gorm:"foreignKey:OrderID" json:"bill,omitempty"`
	SoftDelete
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// RecalculateTotal sums quantity x unit price over the items and stores it.
func (o *Order) RecalculateTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	o.TotalPrice = total
	return total
}
