package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-ordering/models"
)

func newMenuService(t *testing.T) (*MenuService, models.Cafe, func(name, price string, opts ...itemOpt) models.MenuItem) {
	db := newTestDB(t)
	cafe := seedCafe(t, db, "brew-haven")
	svc := NewMenuService(db, DefaultMenuConfig(), nil, quietLogger())
	add := func(name, price string, opts ...itemOpt) models.MenuItem {
		return seedItem(t, db, cafe, name, price, opts...)
	}
	return svc, cafe, add
}

func itemNames(items []MenuItemView) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func TestMenuPageWalksCategories(t *testing.T) {
	db := newTestDB(t)
	cafe := seedCafe(t, db, "brew-haven")
	snacks := seedCategory(t, db, cafe, "Snacks")
	beverages := seedCategory(t, db, cafe, "Beverages")
	seedItem(t, db, cafe, "Fries", "40.00", withCategory(snacks))
	seedItem(t, db, cafe, "Espresso", "35.00", withCategory(beverages))
	seedItem(t, db, cafe, "Cold Brew", "45.00", withCategory(beverages))
	seedItem(t, db, cafe, "Old Tea", "10.00", withCategory(beverages), archived())
	seedItem(t, db, cafe, "Nachos", "55.00", withCategory(snacks), unavailable())

	svc := NewMenuService(db, DefaultMenuConfig(), nil, quietLogger())
	ctx := context.Background()

	first, err := svc.MenuPage(ctx, "brew-haven", 0)
	require.NoError(t, err)
	assert.Equal(t, "Beverages", first.Category)
	assert.Equal(t, []string{"Espresso", "Cold Brew"}, itemNames(first.Items))
	assert.True(t, first.HasMore)
	assert.Equal(t, 2, first.Total)

	second, err := svc.MenuPage(ctx, "brew-haven", 1)
	require.NoError(t, err)
	assert.Equal(t, "Snacks", second.Category)
	assert.Equal(t, []string{"Fries", "Nachos"}, itemNames(second.Items), "unavailable items stay listed")
	assert.False(t, second.Items[1].IsAvailable)
	assert.False(t, second.HasMore)

	done, err := svc.MenuPage(ctx, "brew-haven", 2)
	require.NoError(t, err)
	assert.True(t, done.Exhausted)
	assert.Empty(t, done.Items)
}

func TestMenuPagesPartitionActiveItems(t *testing.T) {
	db := newTestDB(t)
	cafe := seedCafe(t, db, "brew-haven")
	cats := []models.Category{
		seedCategory(t, db, cafe, "Desserts"),
		seedCategory(t, db, cafe, "Beverages"),
		seedCategory(t, db, cafe, "Mains"),
	}
	want := map[uint]bool{}
	for i := 0; i < 11; i++ {
		var opts []itemOpt
		if i%4 != 3 {
			opts = append(opts, withCategory(cats[i%3]))
		}
		if i%5 == 0 {
			opts = append(opts, withImage("https://img.example/x.png"))
		}
		it := seedItem(t, db, cafe, "item", "12.00", opts...)
		want[it.ID] = true
	}
	seedItem(t, db, cafe, "archived", "9.00", withCategory(cats[0]), archived())
	other := seedCafe(t, db, "elsewhere")
	seedItem(t, db, other, "foreign", "9.00")

	svc := NewMenuService(db, DefaultMenuConfig(), nil, quietLogger())
	ctx := context.Background()

	seen := map[uint]bool{}
	for index := 0; ; index++ {
		page, err := svc.MenuPage(ctx, "brew-haven", index)
		require.NoError(t, err)
		if page.Exhausted {
			assert.Equal(t, 4, index)
			break
		}
		for _, it := range page.Items {
			assert.False(t, seen[it.ID], "item %d listed twice", it.ID)
			seen[it.ID] = true
		}
	}
	assert.Equal(t, want, seen)
}

func TestMenuPageFallbackCategory(t *testing.T) {
	db := newTestDB(t)
	cafe := seedCafe(t, db, "brew-haven")
	named := seedCategory(t, db, cafe, "Uncategorized")
	seedItem(t, db, cafe, "Loose", "5.00")
	seedItem(t, db, cafe, "Filed", "5.00", withCategory(named))
	ctx := context.Background()

	svc := NewMenuService(db, MenuConfig{}, nil, quietLogger())
	names, err := svc.Categories(ctx, "brew-haven")
	require.NoError(t, err)
	assert.Equal(t, []string{"Uncategorized"}, names, "merged with the real category of the same name")

	page, err := svc.MenuPage(ctx, "brew-haven", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Loose", "Filed"}, itemNames(page.Items))

	custom := NewMenuService(db, MenuConfig{FallbackCategory: "Other"}, nil, quietLogger())
	names, err = custom.Categories(ctx, "brew-haven")
	require.NoError(t, err)
	assert.Equal(t, []string{"Other", "Uncategorized"}, names)
}

func TestMenuPageItemOrdering(t *testing.T) {
	svc, _, add := newMenuService(t)
	plain := add("Plain", "10.00")
	tagged := add("Tagged", "10.00", dietary(models.DietaryVegan))
	pictured := add("Pictured", "10.00", withImage("https://img.example/p.png"))
	both := add("Both", "10.00", withImage("https://img.example/b.png"), special())
	nonVeg := add("Chicken", "10.00", dietary(models.DietaryNonVeg))

	page, err := svc.MenuPage(context.Background(), "brew-haven", 0)
	require.NoError(t, err)
	ids := make([]uint, 0, len(page.Items))
	for _, it := range page.Items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []uint{both.ID, pictured.ID, tagged.ID, plain.ID, nonVeg.ID}, ids)

	byName := map[string]MenuItemView{}
	for _, it := range page.Items {
		byName[it.Name] = it
	}
	assert.Equal(t, []string{TagBestseller}, byName["Both"].Tags)
	assert.Equal(t, []string{TagVegan}, byName["Tagged"].Tags)
	assert.NotNil(t, byName["Plain"].Tags)
	assert.Empty(t, byName["Chicken"].Tags)
	assert.Equal(t, 4.7, byName["Plain"].Rating)
	assert.Equal(t, "10.00", byName["Plain"].Price)
}

func TestMenuPageErrors(t *testing.T) {
	db := newTestDB(t)
	cafe := seedCafe(t, db, "closed")
	seedItem(t, db, cafe, "Espresso", "35.00")
	require.NoError(t, db.Model(&cafe).Update("lifecycle", models.LifecycleInactive).Error)
	svc := NewMenuService(db, DefaultMenuConfig(), nil, quietLogger())
	ctx := context.Background()

	_, err := svc.MenuPage(ctx, "closed", 0)
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf), "inactive cafe")

	_, err = svc.MenuPage(ctx, "nowhere", 0)
	assert.True(t, errors.As(err, &nf))

	_, err = svc.MenuPage(ctx, "closed", -1)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = svc.SpecialItems(ctx, "closed", 3)
	assert.True(t, errors.As(err, &nf))
}

func TestMenuPageEmptyCafe(t *testing.T) {
	svc, _, _ := newMenuService(t)
	page, err := svc.MenuPage(context.Background(), "brew-haven", 0)
	require.NoError(t, err)
	assert.True(t, page.Exhausted)
}

func TestSpecialItems(t *testing.T) {
	svc, _, add := newMenuService(t)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		add("special", "20.00", special(), createdAt(base.Add(time.Duration(i)*time.Minute)))
	}
	newest := add("newest", "20.00", special(), createdAt(base.Add(time.Hour)))
	add("archived special", "20.00", special(), archived(), createdAt(base.Add(2*time.Hour)))
	add("regular", "20.00", createdAt(base.Add(3*time.Hour)))
	ctx := context.Background()

	items, err := svc.SpecialItems(ctx, "brew-haven", 0)
	require.NoError(t, err)
	require.Len(t, items, 6)
	assert.Equal(t, newest.ID, items[0].ID)
	for _, it := range items {
		assert.True(t, it.IsSpecial)
		assert.Contains(t, it.Tags, TagBestseller)
	}

	items, err = svc.SpecialItems(ctx, "brew-haven", 3)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	items, err = svc.SpecialItems(ctx, "brew-haven", 500)
	require.NoError(t, err)
	assert.Len(t, items, 24)
}

func TestSpecialItemsTieBreaksOnID(t *testing.T) {
	svc, _, add := newMenuService(t)
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	first := add("first", "20.00", special(), createdAt(at))
	second := add("second", "20.00", special(), createdAt(at))

	items, err := svc.SpecialItems(context.Background(), "brew-haven", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, first.ID, items[1].ID)
}

func TestMenuConfigDefaults(t *testing.T) {
	cfg := MenuConfig{SpecialLimit: 50, MaxSpecialLimit: 10}.withDefaults()
	assert.Equal(t, 10, cfg.SpecialLimit)
	assert.Equal(t, "Uncategorized", cfg.FallbackCategory)
	assert.Equal(t, 4.7, cfg.DisplayRating)
}
