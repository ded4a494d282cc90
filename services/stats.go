package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/cafe-ordering/models"
	"gorm.io/gorm"
)

// StatsRange names the reporting windows of the staff dashboard.
type StatsRange string

const (
	RangeToday StatsRange = "today"
	RangeWeek  StatsRange = "week"
	RangeMonth StatsRange = "month"
	RangeAll   StatsRange = "all"
)

type StatsFilter struct {
	CafeID uint
	Since  time.Time
	Until  time.Time
}

// StatsWindow turns a range name or a single day (YYYY-MM-DD) into bounds.
// A day wins over the range. Zero bounds mean open ended.
func StatsWindow(rng StatsRange, day string, now time.Time) (since, until time.Time, err error) {
	if day != "" {
		d, err := time.ParseInLocation("2006-01-02", day, now.Location())
		if err != nil {
			return since, until, invalid("date", "must be YYYY-MM-DD")
		}
		return d, d.AddDate(0, 0, 1), nil
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch rng {
	case "", RangeToday:
		return midnight, time.Time{}, nil
	case RangeWeek:
		return midnight.AddDate(0, 0, -6), time.Time{}, nil
	case RangeMonth:
		return midnight.AddDate(0, 0, -29), time.Time{}, nil
	case RangeAll:
		return time.Time{}, time.Time{}, nil
	}
	return since, until, invalid("range", "must be today, week, month or all")
}

type statusAggregate struct {
	Status  models.OrderStatus
	Count   int64
	Revenue decimal.NullDecimal
}

type OrderStats struct {
	Revenue  decimal.Decimal
	Orders   int64
	Average  decimal.Decimal
	ByStatus map[models.OrderStatus]int64
}

func (st OrderStats) Pending() int64 {
	return st.ByStatus[models.OrderStatusPending]
}

// CafeStats aggregates the active orders of a cafe created inside the window.
func (s *OrderService) CafeStats(ctx context.Context, filter StatsFilter) (*OrderStats, error) {
	if err := cafeExists(s.db.WithContext(ctx), filter.CafeID); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Model(&models.Order{}).
		Scopes(models.CustomerVisible).
		Where("cafe_id = ?", filter.CafeID)
	if !filter.Since.IsZero() {
		q = q.Where("created_at >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("created_at < ?", filter.Until)
	}
	q = q.Session(&gorm.Session{})

	var rows []statusAggregate
	err := q.Select("status, COUNT(*) AS count, SUM(total_price) AS revenue").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate orders of cafe %d: %w", filter.CafeID, err)
	}

	stats := &OrderStats{
		Revenue:  decimal.Zero,
		Average:  decimal.Zero,
		ByStatus: make(map[models.OrderStatus]int64, len(rows)),
	}
	for _, r := range rows {
		stats.ByStatus[r.Status] = r.Count
		stats.Orders += r.Count
		if r.Revenue.Valid {
			stats.Revenue = stats.Revenue.Add(r.Revenue.Decimal)
		}
	}
	stats.Revenue = stats.Revenue.Round(2)
	if stats.Orders > 0 {
		stats.Average = stats.Revenue.Div(decimal.NewFromInt(stats.Orders)).Round(2)
	}
	return stats, nil
}

type MenuStats struct {
	TotalItems      int64
	AvailableItems  int64
	SpecialItems    int64
	ArchivedItems   int64
	TotalCategories int64
	TotalTags       int
}

// MenuStats counts the menu of a cafe for the staff dashboard.
func (s *MenuService) MenuStats(ctx context.Context, cafeID uint) (*MenuStats, error) {
	db := s.db.WithContext(ctx)
	if err := cafeExists(db, cafeID); err != nil {
		return nil, err
	}

	var items []models.MenuItem
	if err := db.Where("cafe_id = ?", cafeID).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load menu items of cafe %d: %w", cafeID, err)
	}
	stats := &MenuStats{}
	tags := map[string]struct{}{}
	for _, it := range items {
		if !it.IsActive() {
			stats.ArchivedItems++
			continue
		}
		stats.TotalItems++
		if it.IsAvailable {
			stats.AvailableItems++
		}
		if it.IsSpecial {
			stats.SpecialItems++
		}
		for _, tag := range itemTags(it) {
			tags[tag] = struct{}{}
		}
	}
	stats.TotalTags = len(tags)

	if err := db.Model(&models.Category{}).Where("cafe_id = ?", cafeID).Count(&stats.TotalCategories).Error; err != nil {
		return nil, fmt.Errorf("count categories of cafe %d: %w", cafeID, err)
	}
	return stats, nil
}

func cafeExists(db *gorm.DB, cafeID uint) error {
	if cafeID == 0 {
		return invalid("cafe_id", "is required")
	}
	var cafe models.Cafe
	if err := db.Select("id").First(&cafe, cafeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("cafe", cafeID)
		}
		return fmt.Errorf("load cafe %d: %w", cafeID, err)
	}
	return nil
}
