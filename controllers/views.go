package controllers

import (
	"time"

	"github.com/yeremiapane/cafe-ordering/models"
	"github.com/yeremiapane/cafe-ordering/services"
)

type CafeInfoView struct {
	ID          uint   `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Tagline     string `json:"tagline"`
	BannerURL   string `json:"banner_url"`
	Rating      string `json:"rating"`
	ReviewCount int    `json:"review_count"`
}

func newCafeInfoView(cafe *models.Cafe) CafeInfoView {
	return CafeInfoView{
		ID:          cafe.ID,
		Slug:        cafe.Slug,
		Name:        cafe.Name,
		Tagline:     cafe.Tagline,
		BannerURL:   cafe.BannerURL,
		Rating:      cafe.Rating.StringFixed(1),
		ReviewCount: cafe.ReviewCount,
	}
}

// CafeView is the staff shape, with lifecycle and owner.
type CafeView struct {
	CafeInfoView
	OwnerID   string    `json:"owner_id"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newCafeView(cafe *models.Cafe) CafeView {
	return CafeView{
		CafeInfoView: newCafeInfoView(cafe),
		OwnerID:      cafe.OwnerID,
		IsActive:     cafe.IsActive(),
		CreatedAt:    cafe.CreatedAt,
		UpdatedAt:    cafe.UpdatedAt,
	}
}

type SpecialItemsResponse struct {
	Success bool                    `json:"success"`
	Items   []services.MenuItemView `json:"items"`
}

// MenuPageResponse is keyed by the category name of the page.
type MenuPageResponse map[string][]services.MenuItemView

type TableView struct {
	ID        uint      `json:"id"`
	CafeID    uint      `json:"cafe_id"`
	Number    int       `json:"number"`
	QRToken   string    `json:"qr_token"`
	MenuURL   string    `json:"menu_url,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type TableScanView struct {
	TableNumber int    `json:"table_number"`
	CafeSlug    string `json:"cafe_slug"`
	CafeName    string `json:"cafe_name"`
}

type CategoryView struct {
	ID     uint   `json:"id"`
	CafeID uint   `json:"cafe_id"`
	Name   string `json:"name"`
}

func newCategoryView(cat *models.Category) CategoryView {
	return CategoryView{ID: cat.ID, CafeID: cat.CafeID, Name: cat.Name}
}

type MenuItemAdminView struct {
	ID           uint              `json:"id"`
	CafeID       uint              `json:"cafe_id"`
	CategoryID   *uint             `json:"category_id"`
	CategoryName string            `json:"category_name,omitempty"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	ImageURL     string            `json:"image_url"`
	Price        string            `json:"price"`
	Dietary      models.DietaryTag `json:"dietary"`
	IsAvailable  bool              `json:"is_available"`
	IsSpecial    bool              `json:"is_special"`
	IsActive     bool              `json:"is_active"`
	CreatedAt    time.Time         `json:"created_at"`
}

func newMenuItemAdminView(it *models.MenuItem) MenuItemAdminView {
	v := MenuItemAdminView{
		ID:          it.ID,
		CafeID:      it.CafeID,
		CategoryID:  it.CategoryID,
		Name:        it.Name,
		Description: it.Description,
		ImageURL:    it.ImageURL,
		Price:       it.Price.StringFixed(2),
		Dietary:     it.Dietary,
		IsAvailable: it.IsAvailable,
		IsSpecial:   it.IsSpecial,
		IsActive:    it.IsActive(),
		CreatedAt:   it.CreatedAt,
	}
	if it.Category != nil {
		v.CategoryName = it.Category.Name
	}
	return v
}

type OrderItemView struct {
	ID         uint   `json:"id"`
	MenuItemID uint   `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	LineTotal  string `json:"line_total"`
}

type BillView struct {
	Number   string     `json:"number"`
	Amount   string     `json:"amount"`
	IssuedAt time.Time  `json:"issued_at"`
	PaidAt   *time.Time `json:"paid_at,omitempty"`
}

type OrderView struct {
	ID                  uint                 `json:"id"`
	PublicID            string               `json:"public_id"`
	CafeID              uint                 `json:"cafe_id"`
	TableID             uint                 `json:"table_id"`
	TableNumber         int                  `json:"table_number"`
	Status              models.OrderStatus   `json:"status"`
	NextStatus          models.OrderStatus   `json:"next_status,omitempty"`
	PaymentMethod       models.PaymentMethod `json:"payment_method"`
	TotalPrice          string               `json:"total_price"`
	Paid                bool                 `json:"paid"`
	SpecialInstructions string               `json:"special_instructions"`
	PrepMinutes         *int                 `json:"prep_minutes,omitempty"`
	SessionToken        string               `json:"session_token,omitempty"`
	IsActive            bool                 `json:"is_active"`
	Items               []OrderItemView      `json:"items"`
	Bill                *BillView            `json:"bill,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

func newOrderView(o *models.Order) OrderView {
	v := OrderView{
		ID:                  o.ID,
		PublicID:            o.PublicID,
		CafeID:              o.CafeID,
		TableID:             o.TableID,
		TableNumber:         o.Table.Number,
		Status:              o.Status,
		PaymentMethod:       o.PaymentMethod,
		TotalPrice:          o.TotalPrice.StringFixed(2),
		Paid:                o.Paid,
		SpecialInstructions: o.SpecialInstructions,
		PrepMinutes:         o.PrepMinutes,
		IsActive:            o.IsActive(),
		Items:               make([]OrderItemView, 0, len(o.Items)),
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
	if next, ok := o.Status.Next(); ok {
		v.NextStatus = next
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, OrderItemView{
			ID:         it.ID,
			MenuItemID: it.MenuItemID,
			Name:       it.MenuItem.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice.StringFixed(2),
			LineTotal:  it.LineTotal().StringFixed(2),
		})
	}
	if o.Bill != nil {
		v.Bill = &BillView{
			Number:   o.Bill.Number,
			Amount:   o.Bill.Amount.StringFixed(2),
			IssuedAt: o.Bill.IssuedAt,
			PaidAt:   o.Bill.PaidAt,
		}
	}
	return v
}

type OrderSummaryView struct {
	ID         uint               `json:"id"`
	PublicID   string             `json:"public_id"`
	Status     models.OrderStatus `json:"status"`
	TotalPrice string             `json:"total_price"`
	Paid       bool               `json:"paid"`
	ItemCount  int                `json:"item_count"`
	CreatedAt  time.Time          `json:"created_at"`
}

func newOrderSummaryView(o *models.Order) OrderSummaryView {
	count := 0
	for _, it := range o.Items {
		count += it.Quantity
	}
	return OrderSummaryView{
		ID:         o.ID,
		PublicID:   o.PublicID,
		Status:     o.Status,
		TotalPrice: o.TotalPrice.StringFixed(2),
		Paid:       o.Paid,
		ItemCount:  count,
		CreatedAt:  o.CreatedAt,
	}
}

type OrderListView struct {
	Orders []OrderView `json:"orders"`
	Total  int64       `json:"total"`
	Page   int         `json:"page"`
	Limit  int         `json:"limit"`
}

type OrderStatsView struct {
	TotalRevenue      string                       `json:"total_revenue"`
	TotalOrders       int64                        `json:"total_orders"`
	AverageOrderValue string                       `json:"average_order_value"`
	Pending           int64                        `json:"pending"`
	ByStatus          map[models.OrderStatus]int64 `json:"by_status"`
}

func newOrderStatsView(st *services.OrderStats) OrderStatsView {
	return OrderStatsView{
		TotalRevenue:      st.Revenue.StringFixed(2),
		TotalOrders:       st.Orders,
		AverageOrderValue: st.Average.StringFixed(2),
		Pending:           st.Pending(),
		ByStatus:          st.ByStatus,
	}
}

type MenuStatsView struct {
	TotalItems      int64 `json:"total_items"`
	AvailableItems  int64 `json:"available_items"`
	SpecialItems    int64 `json:"special_items"`
	ArchivedItems   int64 `json:"archived_items"`
	TotalCategories int64 `json:"total_categories"`
	TotalTags       int   `json:"total_tags"`
}
