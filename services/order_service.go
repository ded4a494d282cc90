package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-ordering/events"
	"github.com/yeremiapane/cafe-ordering/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MaxSpecialInstructions = 500
	MaxSessionToken        = 64
	DefaultOrderPageSize   = 20
	MaxOrderPageSize       = 100
	MaxPrepMinutes         = 240

	publishTimeout = 5 * time.Second
)

type OrderLine struct {
	MenuItemID uint `json:"menu_item_id"`
	Quantity   int  `json:"quantity"`
}

// CreateOrderInput identifies the table either by id or by the token printed
// in its QR code. TableID wins when both are set. SessionToken ties the order
// to the customer's device; a fresh one is issued when empty.
type CreateOrderInput struct {
	TableID             uint
	QRToken             string
	Items               []OrderLine
	PaymentMethod       models.PaymentMethod
	SpecialInstructions string
	SessionToken        string
}

// OrderUpdate is one staff change. Everything set lands in a single
// transaction or nothing does.
type OrderUpdate struct {
	Status      *string
	MarkPaid    bool
	PrepMinutes *int
}

type OrderFilter struct {
	CafeID          uint
	TableID         uint
	Statuses        []models.OrderStatus
	IncludeInactive bool
	Page            int
	Limit           int
}

// Window returns the page and page size ListOrders will actually use.
func (f OrderFilter) Window() (page, limit int) {
	limit = f.Limit
	if limit <= 0 {
		limit = DefaultOrderPageSize
	}
	if limit > MaxOrderPageSize {
		limit = MaxOrderPageSize
	}
	page = f.Page
	if page < 1 {
		page = 1
	}
	return page, limit
}

type OrderService struct {
	db        *gorm.DB
	publisher events.Publisher
	log       *logrus.Logger
}

func NewOrderService(db *gorm.DB, publisher events.Publisher, log *logrus.Logger) *OrderService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &OrderService{db: db, publisher: publisher, log: log}
}

// CreateOrder validates the lines against the table's cafe, snapshots unit
// prices and stores the order with its items in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	method := in.PaymentMethod
	if method == "" {
		method = models.PaymentCounter
	}
	if !method.Valid() {
		return nil, invalid("payment_method", "must be %q or %q", models.PaymentCounter, models.PaymentOnline)
	}
	instructions := strings.TrimSpace(in.SpecialInstructions)
	if utf8.RuneCountInString(instructions) > MaxSpecialInstructions {
		return nil, invalid("special_instructions", "must be at most %d characters", MaxSpecialInstructions)
	}
	session := strings.TrimSpace(in.SessionToken)
	if len(session) > MaxSessionToken {
		return nil, invalid("session_token", "must be at most %d characters", MaxSessionToken)
	}
	if session == "" {
		session = uuid.NewString()
	}
	if len(in.Items) == 0 {
		return nil, invalid("items", "at least one item is required")
	}
	for i, line := range in.Items {
		if line.Quantity <= 0 {
			return nil, invalid(fmt.Sprintf("items[%d].quantity", i), "must be greater than zero")
		}
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		table, err := s.resolveTable(tx, in.TableID, in.QRToken)
		if err != nil {
			return err
		}

		ids := make([]uint, 0, len(in.Items))
		for _, line := range in.Items {
			ids = append(ids, line.MenuItemID)
		}
		var menuItems []models.MenuItem
		if err := tx.Where("id IN ?", ids).Find(&menuItems).Error; err != nil {
			return fmt.Errorf("load menu items: %w", err)
		}
		byID := make(map[uint]models.MenuItem, len(menuItems))
		for _, mi := range menuItems {
			byID[mi.ID] = mi
		}

		items := make([]models.OrderItem, 0, len(in.Items))
		for i, line := range in.Items {
			field := fmt.Sprintf("items[%d].menu_item_id", i)
			mi, ok := byID[line.MenuItemID]
			if !ok {
				return invalid(field, "menu item %d does not exist", line.MenuItemID)
			}
			if mi.CafeID != table.CafeID {
				return invalid(field, "menu item %d does not belong to this cafe", line.MenuItemID)
			}
			if !mi.Orderable() {
				return invalid(field, "menu item %d is not available", line.MenuItemID)
			}
			items = append(items, models.OrderItem{
				MenuItemID: mi.ID,
				Quantity:   line.Quantity,
				UnitPrice:  mi.Price,
			})
		}

		order = models.Order{
			PublicID:            uuid.NewString(),
			TableID:             table.ID,
			CafeID:              table.CafeID,
			Status:              models.OrderStatusPending,
			PaymentMethod:       method,
			SpecialInstructions: instructions,
			SessionToken:        session,
			Items:               items,
			SoftDelete:          models.SoftDelete{Lifecycle: models.LifecycleActive},
		}
		order.RecalculateTotal()

		if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
		}
		if err := tx.Omit("Order", "MenuItem").Create(&order.Items).Error; err != nil {
			return fmt.Errorf("create order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := s.GetOrder(ctx, order.ID, models.StaffView)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"order_id": created.ID,
		"table_id": created.TableID,
		"cafe_id":  created.CafeID,
		"total":    created.TotalPrice.StringFixed(2),
	}).Info("order created")
	s.publish(ctx, events.OrderCreated, created)
	return created, nil
}

// TransitionStatus moves an order one step forward. The write only lands if
// the stored status is still the one that was validated.
func (s *OrderService) TransitionStatus(ctx context.Context, orderID uint, next string) (*models.Order, error) {
	return s.UpdateOrder(ctx, orderID, OrderUpdate{Status: &next})
}

// MarkPaid flags the order as paid and freezes its bill. Calling it again is a
// no-op.
func (s *OrderService) MarkPaid(ctx context.Context, orderID uint) (*models.Order, error) {
	return s.UpdateOrder(ctx, orderID, OrderUpdate{MarkPaid: true})
}

// SetPrepTime records the kitchen's estimate. An accepted order moves to
// preparing in the same write.
func (s *OrderService) SetPrepTime(ctx context.Context, orderID uint, minutes int) (*models.Order, error) {
	return s.UpdateOrder(ctx, orderID, OrderUpdate{PrepMinutes: &minutes})
}

func (s *OrderService) UpdateOrder(ctx context.Context, orderID uint, upd OrderUpdate) (*models.Order, error) {
	var target models.OrderStatus
	if upd.Status != nil {
		st, ok := models.ParseOrderStatus(*upd.Status)
		if !ok {
			return nil, invalid("status", "unknown status %q", *upd.Status)
		}
		target = st
	}
	if upd.PrepMinutes != nil {
		if *upd.PrepMinutes < 1 || *upd.PrepMinutes > MaxPrepMinutes {
			return nil, invalid("prep_minutes", "must be between 1 and %d", MaxPrepMinutes)
		}
		if target != "" && target != models.OrderStatusPreparing {
			return nil, invalid("prep_minutes", "can only be set together with status %q", models.OrderStatusPreparing)
		}
	}
	if target == "" && !upd.MarkPaid && upd.PrepMinutes == nil {
		return nil, invalid("status", "nothing to update")
	}

	changed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Order
		if err := tx.Scopes(models.CustomerVisible).First(&current, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("order", orderID)
			}
			return fmt.Errorf("load order %d: %w", orderID, err)
		}

		// prep time alone nudges an accepted order into preparing
		if upd.PrepMinutes != nil && target == "" && current.Status != models.OrderStatusPreparing {
			target = models.OrderStatusPreparing
		}

		now := time.Now()
		fields := map[string]interface{}{}
		if target != "" {
			if current.Status == target {
				return &ConflictError{Message: fmt.Sprintf("order %d is already %s", orderID, target)}
			}
			if !current.Status.CanAdvanceTo(target) {
				return &InvalidTransitionError{From: current.Status, To: target}
			}
			fields["status"] = target
		}
		if upd.PrepMinutes != nil {
			fields["prep_minutes"] = *upd.PrepMinutes
		}
		if len(fields) > 0 {
			fields["updated_at"] = now
			res := tx.Model(&models.Order{}).
				Scopes(models.CustomerVisible).
				Where("id = ? AND status = ?", orderID, current.Status).
				Updates(fields)
			if res.Error != nil {
				return fmt.Errorf("update order %d: %w", orderID, res.Error)
			}
			if res.RowsAffected == 0 {
				return &ConflictError{Message: fmt.Sprintf("order %d changed concurrently", orderID)}
			}
			changed = true
		}

		if upd.MarkPaid {
			flipped, err := s.pay(tx, &current, now)
			if err != nil {
				return err
			}
			changed = changed || flipped
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.GetOrder(ctx, orderID, models.StaffView)
	if err != nil {
		return nil, err
	}
	if changed {
		s.log.WithFields(logrus.Fields{
			"order_id": orderID,
			"status":   order.Status,
			"paid":     order.Paid,
		}).Info("order updated")
		s.publish(ctx, events.OrderUpdated, order)
	}
	return order, nil
}

// pay flips the paid flag and issues the bill. A bill that already exists,
// even one inserted by a racing caller, is kept as is.
func (s *OrderService) pay(tx *gorm.DB, order *models.Order, now time.Time) (bool, error) {
	flipped := false
	if !order.Paid {
		res := tx.Model(&models.Order{}).
			Scopes(models.CustomerVisible).
			Where("id = ? AND paid = ?", order.ID, false).
			Updates(map[string]interface{}{"paid": true, "updated_at": now})
		if res.Error != nil {
			return false, fmt.Errorf("mark order %d paid: %w", order.ID, res.Error)
		}
		flipped = res.RowsAffected == 1
	}

	bill := models.Bill{
		OrderID:  order.ID,
		Number:   models.BillNumber(order.ID, now),
		Amount:   order.TotalPrice,
		IssuedAt: now,
		PaidAt:   &now,
	}
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&bill).Error
	if err != nil {
		return false, fmt.Errorf("issue bill for order %d: %w", order.ID, err)
	}
	return flipped, nil
}

// SoftDelete archives an order. Completed orders are kept for the books.
func (s *OrderService) SoftDelete(ctx context.Context, orderID uint) error {
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(models.CustomerVisible).First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("order", orderID)
			}
			return fmt.Errorf("load order %d: %w", orderID, err)
		}
		if order.Status.IsTerminal() {
			return &ConflictError{Message: fmt.Sprintf("order %d is completed and cannot be deleted", orderID)}
		}
		return archiveOrder(tx, &order, "status = ?", order.Status)
	})
	if err != nil {
		return err
	}

	s.log.WithField("order_id", orderID).Info("order archived")
	s.publish(ctx, events.OrderDeleted, &order)
	return nil
}

// CancelOrder lets the customer who placed an order take it back while the
// kitchen has not picked it up and nothing has been paid.
func (s *OrderService) CancelOrder(ctx context.Context, publicID, sessionToken string) error {
	if _, err := uuid.Parse(publicID); err != nil || sessionToken == "" {
		return notFound("order", publicID)
	}
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Scopes(models.CustomerVisible).
			Where("public_id = ? AND session_token = ?", publicID, sessionToken).
			First(&order).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("order", publicID)
			}
			return fmt.Errorf("load order %s: %w", publicID, err)
		}
		if order.Status != models.OrderStatusPending || order.Paid {
			return &ConflictError{Message: fmt.Sprintf("order %s can no longer be cancelled", publicID)}
		}
		return archiveOrder(tx, &order, "status = ? AND paid = ?", models.OrderStatusPending, false)
	})
	if err != nil {
		return err
	}

	s.log.WithField("order_id", order.ID).Info("order cancelled by customer")
	s.publish(ctx, events.OrderDeleted, &order)
	return nil
}

// archiveOrder flips the lifecycle as long as guard still matches the row.
func archiveOrder(tx *gorm.DB, order *models.Order, guard string, args ...interface{}) error {
	res := tx.Model(&models.Order{}).
		Scopes(models.CustomerVisible).
		Where("id = ?", order.ID).
		Where(guard, args...).
		Updates(map[string]interface{}{"lifecycle": models.LifecycleInactive, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("archive order %d: %w", order.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return &ConflictError{Message: fmt.Sprintf("order %d changed concurrently", order.ID)}
	}
	order.Archive()
	return nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uint, visibility models.Visibility) (*models.Order, error) {
	return s.findOrder(ctx, visibility, "id = ?", orderID)
}

// GetOrderByPublicID backs the customer bill page, so archived orders are hidden.
func (s *OrderService) GetOrderByPublicID(ctx context.Context, publicID string) (*models.Order, error) {
	if _, err := uuid.Parse(publicID); err != nil {
		return nil, notFound("order", publicID)
	}
	return s.findOrder(ctx, models.CustomerView, "public_id = ?", publicID)
}

func (s *OrderService) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	page, limit := filter.Window()

	q := s.db.WithContext(ctx).Model(&models.Order{})
	if !filter.IncludeInactive {
		q = q.Scopes(models.CustomerVisible)
	}
	if filter.CafeID != 0 {
		q = q.Where("cafe_id = ?", filter.CafeID)
	}
	if filter.TableID != 0 {
		q = q.Where("table_id = ?", filter.TableID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	var orders []models.Order
	err := q.Scopes(preloadOrder).
		Order("created_at DESC").Order("id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// ActiveOrdersForTable lists what a seated customer still has open. Only
// orders placed under the same session token are returned, so the next party
// at the table does not see the previous one's orders.
func (s *OrderService) ActiveOrdersForTable(ctx context.Context, qrToken, sessionToken string) ([]models.Order, error) {
	db := s.db.WithContext(ctx)
	table, err := s.resolveTable(db, 0, qrToken)
	if err != nil {
		return nil, err
	}

	orders := []models.Order{}
	if sessionToken == "" {
		return orders, nil
	}
	err = db.Scopes(models.CustomerVisible, preloadOrder).
		Where("table_id = ? AND session_token = ? AND status <> ?", table.ID, sessionToken, models.OrderStatusCompleted).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list active orders for table %d: %w", table.ID, err)
	}
	return orders, nil
}

func (s *OrderService) findOrder(ctx context.Context, visibility models.Visibility, query string, arg interface{}) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Scopes(visibility.Scope(), preloadOrder).
		Where(query, arg).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("order", arg)
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	return &order, nil
}

// resolveTable returns an active table of an active cafe.
func (s *OrderService) resolveTable(db *gorm.DB, tableID uint, qrToken string) (*models.Table, error) {
	var (
		table models.Table
		key   interface{}
	)
	q := db.Scopes(models.CustomerVisible).Preload("Cafe")
	switch {
	case tableID != 0:
		key = tableID
		q = q.Where("id = ?", tableID)
	case qrToken != "":
		key = qrToken
		q = q.Where("qr_token = ?", qrToken)
	default:
		return nil, invalid("table_id", "table_id or qr_token is required")
	}
	if err := q.First(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("table", key)
		}
		return nil, fmt.Errorf("load table: %w", err)
	}
	if !table.Cafe.IsActive() {
		return nil, notFound("table", key)
	}
	return &table, nil
}

func (s *OrderService) publish(ctx context.Context, eventType string, order *models.Order) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pctx, events.FromOrder(eventType, order)); err != nil {
		s.log.WithFields(logrus.Fields{
			"event":    eventType,
			"order_id": order.ID,
		}).Errorf("failed to publish order event: %v", err)
	}
}

func preloadOrder(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		Preload("Items.MenuItem").
		Preload("Table").
		Preload("Cafe").
		Preload("Bill")
}
