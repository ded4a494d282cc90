package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-ordering/models"
	"gorm.io/gorm"
)

const (
	TagVegan      = "Vegan"
	TagVeg        = "Veg"
	TagBestseller = "Bestseller"
)

type MenuConfig struct {
	DisplayRating    float64
	FallbackCategory string
	SpecialLimit     int
	MaxSpecialLimit  int
}

func DefaultMenuConfig() MenuConfig {
	return MenuConfig{
		DisplayRating:    4.7,
		FallbackCategory: "Uncategorized",
		SpecialLimit:     6,
		MaxSpecialLimit:  24,
	}
}

func (c MenuConfig) withDefaults() MenuConfig {
	d := DefaultMenuConfig()
	if c.DisplayRating <= 0 {
		c.DisplayRating = d.DisplayRating
	}
	if strings.TrimSpace(c.FallbackCategory) == "" {
		c.FallbackCategory = d.FallbackCategory
	}
	if c.SpecialLimit <= 0 {
		c.SpecialLimit = d.SpecialLimit
	}
	if c.MaxSpecialLimit <= 0 {
		c.MaxSpecialLimit = d.MaxSpecialLimit
	}
	if c.SpecialLimit > c.MaxSpecialLimit {
		c.SpecialLimit = c.MaxSpecialLimit
	}
	return c
}

type MenuItemView struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Price       string   `json:"price"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	Rating      float64  `json:"rating"`
	Tags        []string `json:"tags"`
	IsSpecial   bool     `json:"isSpecial"`
	IsAvailable bool     `json:"available"`
}

type MenuSection struct {
	Category string         `json:"category"`
	Items    []MenuItemView `json:"items"`
}

// MenuPage is one whole category. Exhausted is set once the index runs past
// the last category, and every other field is then zero.
type MenuPage struct {
	Category  string
	Index     int
	Items     []MenuItemView
	HasMore   bool
	Total     int
	Exhausted bool
}

type MenuService struct {
	db    *gorm.DB
	cfg   MenuConfig
	cache MenuCache
	log   *logrus.Logger
}

// NewMenuService builds the customer menu reader. cache may be nil.
func NewMenuService(db *gorm.DB, cfg MenuConfig, cache MenuCache, log *logrus.Logger) *MenuService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &MenuService{db: db, cfg: cfg.withDefaults(), cache: cache, log: log}
}

func (s *MenuService) Config() MenuConfig {
	return s.cfg
}

func (s *MenuService) CafeInfo(ctx context.Context, slug string) (*models.Cafe, error) {
	var cafe models.Cafe
	err := s.db.WithContext(ctx).Scopes(models.CustomerVisible).Where("slug = ?", slug).First(&cafe).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("cafe", slug)
		}
		return nil, fmt.Errorf("load cafe %q: %w", slug, err)
	}
	return &cafe, nil
}

// SpecialItems returns the newest special items of a cafe, at most limit of
// them. A non-positive limit means the configured default.
func (s *MenuService) SpecialItems(ctx context.Context, slug string, limit int) ([]MenuItemView, error) {
	cafe, err := s.CafeInfo(ctx, slug)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.cfg.SpecialLimit
	}
	if limit > s.cfg.MaxSpecialLimit {
		limit = s.cfg.MaxSpecialLimit
	}

	var items []models.MenuItem
	err = s.db.WithContext(ctx).
		Scopes(models.CustomerVisible).
		Where("cafe_id = ? AND is_special = ?", cafe.ID, true).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("load special items for cafe %d: %w", cafe.ID, err)
	}

	views := make([]MenuItemView, 0, len(items))
	for _, it := range items {
		views = append(views, s.itemView(it))
	}
	return views, nil
}

// MenuPage returns the category at index in the sorted category list.
func (s *MenuService) MenuPage(ctx context.Context, slug string, index int) (*MenuPage, error) {
	if index < 0 {
		return nil, invalid("category_index", "must not be negative")
	}
	cafe, err := s.CafeInfo(ctx, slug)
	if err != nil {
		return nil, err
	}
	sections, err := s.sections(ctx, cafe.ID)
	if err != nil {
		return nil, err
	}

	if index >= len(sections) {
		return &MenuPage{Exhausted: true}, nil
	}
	section := sections[index]
	return &MenuPage{
		Category: section.Category,
		Index:    index,
		Items:    section.Items,
		HasMore:  index+1 < len(sections),
		Total:    len(sections),
	}, nil
}

// Categories lists the names MenuPage indexes into, in the same order.
func (s *MenuService) Categories(ctx context.Context, slug string) ([]string, error) {
	cafe, err := s.CafeInfo(ctx, slug)
	if err != nil {
		return nil, err
	}
	sections, err := s.sections(ctx, cafe.ID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(sections))
	for _, sec := range sections {
		names = append(names, sec.Category)
	}
	return names, nil
}

// InvalidateCafe drops the cached menu of a cafe. Failures are logged only,
// the entry still expires with its TTL.
func (s *MenuService) InvalidateCafe(ctx context.Context, cafeID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, cafeID); err != nil {
		s.log.WithField("cafe_id", cafeID).Errorf("menu cache invalidate failed: %v", err)
	}
}

func (s *MenuService) sections(ctx context.Context, cafeID uint) ([]MenuSection, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, cafeID)
		if err != nil {
			s.log.WithField("cafe_id", cafeID).Errorf("menu cache read failed: %v", err)
		} else if ok {
			return cached, nil
		}
	}

	var items []models.MenuItem
	err := s.db.WithContext(ctx).
		Scopes(models.CustomerVisible).
		Preload("Category").
		Where("cafe_id = ?", cafeID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("load menu items for cafe %d: %w", cafeID, err)
	}
	sections := s.compose(items)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cafeID, sections); err != nil {
			s.log.WithField("cafe_id", cafeID).Errorf("menu cache write failed: %v", err)
		}
	}
	return sections, nil
}

// compose groups items by category name and sorts both levels.
func (s *MenuService) compose(items []models.MenuItem) []MenuSection {
	groups := make(map[string][]models.MenuItem)
	for _, it := range items {
		name := s.cfg.FallbackCategory
		if it.Category != nil && it.Category.Name != "" {
			name = it.Category.Name
		}
		groups[name] = append(groups[name], it)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	sections := make([]MenuSection, 0, len(names))
	for _, name := range names {
		group := groups[name]
		sort.SliceStable(group, func(i, j int) bool {
			return displayBefore(group[i], group[j])
		})
		views := make([]MenuItemView, 0, len(group))
		for _, it := range group {
			views = append(views, s.itemView(it))
		}
		sections = append(sections, MenuSection{Category: name, Items: views})
	}
	return sections
}

// displayBefore puts items with a picture first, then tagged items, then id order.
func displayBefore(a, b models.MenuItem) bool {
	ai, bi := a.ImageURL != "", b.ImageURL != ""
	if ai != bi {
		return ai
	}
	at, bt := len(itemTags(a)) > 0, len(itemTags(b)) > 0
	if at != bt {
		return at
	}
	return a.ID < b.ID
}

func itemTags(it models.MenuItem) []string {
	tags := []string{}
	switch it.Dietary {
	case models.DietaryVegan:
		tags = append(tags, TagVegan)
	case models.DietaryVeg:
		tags = append(tags, TagVeg)
	}
	if it.IsSpecial {
		tags = append(tags, TagBestseller)
	}
	return tags
}

func (s *MenuService) itemView(it models.MenuItem) MenuItemView {
	return MenuItemView{
		ID:          it.ID,
		Name:        it.Name,
		Price:       it.Price.StringFixed(2),
		Description: it.Description,
		ImageURL:    it.ImageURL,
		Rating:      s.cfg.DisplayRating,
		Tags:        itemTags(it),
		IsSpecial:   it.IsSpecial,
		IsAvailable: it.IsAvailable,
	}
}
