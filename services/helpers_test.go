package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-ordering/database"
	"github.com/yeremiapane/cafe-ordering/events"
	"github.com/yeremiapane/cafe-ordering/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database with a single connection.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func seedCafe(t *testing.T, db *gorm.DB, slug string) models.Cafe {
	t.Helper()
	cafe := models.Cafe{Slug: slug, Name: strings.ToUpper(slug), Rating: decimal.RequireFromString("4.50")}
	require.NoError(t, db.Create(&cafe).Error)
	return cafe
}

func seedTable(t *testing.T, db *gorm.DB, cafe models.Cafe, number int) models.Table {
	t.Helper()
	table := models.Table{CafeID: cafe.ID, Number: number, QRToken: uuid.NewString()}
	require.NoError(t, db.Omit("Cafe").Create(&table).Error)
	return table
}

func seedCategory(t *testing.T, db *gorm.DB, cafe models.Cafe, name string) models.Category {
	t.Helper()
	cat := models.Category{CafeID: cafe.ID, Name: name}
	require.NoError(t, db.Omit("Cafe").Create(&cat).Error)
	return cat
}

type itemOpt func(*models.MenuItem)

func withCategory(cat models.Category) itemOpt {
	return func(it *models.MenuItem) { it.CategoryID = &cat.ID }
}

func withImage(url string) itemOpt {
	return func(it *models.MenuItem) { it.ImageURL = url }
}

func special() itemOpt {
	return func(it *models.MenuItem) { it.IsSpecial = true }
}

func dietary(tag models.DietaryTag) itemOpt {
	return func(it *models.MenuItem) { it.Dietary = tag }
}

func unavailable() itemOpt {
	return func(it *models.MenuItem) { it.IsAvailable = false }
}

func archived() itemOpt {
	return func(it *models.MenuItem) { it.Lifecycle = models.LifecycleInactive }
}

func createdAt(ts time.Time) itemOpt {
	return func(it *models.MenuItem) { it.CreatedAt = ts }
}

func seedItem(t *testing.T, db *gorm.DB, cafe models.Cafe, name, price string, opts ...itemOpt) models.MenuItem {
	t.Helper()
	item := models.MenuItem{
		CafeID:      cafe.ID,
		Name:        name,
		Price:       decimal.RequireFromString(price),
		IsAvailable: true,
	}
	for _, opt := range opts {
		opt(&item)
	}
	require.NoError(t, db.Omit("Cafe", "Category").Create(&item).Error)
	return item
}
