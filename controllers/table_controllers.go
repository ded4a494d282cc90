package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yeremiapane/cafe-ordering/models"
	"github.com/yeremiapane/cafe-ordering/services"
	"github.com/yeremiapane/cafe-ordering/utils"
	"gorm.io/gorm"
)

type TableController struct {
	DB *gorm.DB
	QR services.QRGenerator
}

func NewTableController(db *gorm.DB, qr services.QRGenerator) *TableController {
	return &TableController{DB: db, QR: qr}
}

// ScanTable -> resolves a QR token to its table and cafe
func (tc *TableController) ScanTable(c *gin.Context) {
	token := c.Param("qr_token")
	var table models.Table
	err := tc.DB.Scopes(models.CustomerVisible).Preload("Cafe").Where("qr_token = ?", token).First(&table).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = &services.NotFoundError{Resource: "table", Key: token}
		}
		respondServiceError(c, err)
		return
	}
	if !table.Cafe.IsActive() {
		respondServiceError(c, &services.NotFoundError{Resource: "table", Key: token})
		return
	}
	utils.RespondJSON(c, http.StatusOK, "", TableScanView{
		TableNumber: table.Number,
		CafeSlug:    table.Cafe.Slug,
		CafeName:    table.Cafe.Name,
	})
}

// CreateTable -> adds a table, the QR token is generated here and never changes
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		CafeID uint `json:"cafe_id" binding:"required"`
		Number int  `json:"number" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var cafe models.Cafe
	if err := tc.DB.Scopes(models.CustomerVisible).First(&cafe, req.CafeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = &services.ValidationError{Field: "cafe_id", Message: fmt.Sprintf("cafe %d does not exist", req.CafeID)}
		}
		respondServiceError(c, err)
		return
	}
	if err := tc.ensureNumberFree(req.CafeID, req.Number, 0); err != nil {
		respondServiceError(c, err)
		return
	}

	table := models.Table{
		CafeID:  cafe.ID,
		Cafe:    cafe,
		Number:  req.Number,
		QRToken: uuid.NewString(),
	}
	if err := tc.DB.Omit("Cafe").Create(&table).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("New table created: cafe=%d number=%d", table.CafeID, table.Number)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", tc.view(&table))
}

// GetAllTables -> tables of a cafe when cafe_id is given, else all
func (tc *TableController) GetAllTables(c *gin.Context) {
	cafeID, err := queryUint(c, "cafe_id")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	q := tc.DB.Preload("Cafe").Order("cafe_id ASC").Order("number ASC")
	if cafeID != 0 {
		q = q.Where("cafe_id = ?", cafeID)
	}
	var tables []models.Table
	if err := q.Find(&tables).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	views := make([]TableView, 0, len(tables))
	for i := range tables {
		views = append(views, tc.view(&tables[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", views)
}

func (tc *TableController) GetTable(c *gin.Context) {
	table, ok := tc.loadTable(c)
	if !ok {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", tc.view(table))
}

// UpdateTable -> only the number can change
func (tc *TableController) UpdateTable(c *gin.Context) {
	table, ok := tc.loadTable(c)
	if !ok {
		return
	}
	var req struct {
		Number int `json:"number" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if err := tc.ensureNumberFree(table.CafeID, req.Number, table.ID); err != nil {
		respondServiceError(c, err)
		return
	}
	if err := tc.DB.Model(table).Update("number", req.Number).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	table.Number = req.Number

	utils.InfoLogger.Printf("Table %d renumbered to %d", table.ID, table.Number)
	utils.RespondJSON(c, http.StatusOK, "Table updated", tc.view(table))
}

// DeleteTable -> archive; scanning its QR code answers 404 afterwards
func (tc *TableController) DeleteTable(c *gin.Context) {
	table, ok := tc.loadTable(c)
	if !ok {
		return
	}
	if err := tc.DB.Model(table).Update("lifecycle", models.LifecycleInactive).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	utils.InfoLogger.Printf("Table %d archived", table.ID)
	c.Status(http.StatusNoContent)
}

// TableQRCode -> PNG of the customer menu link for the table
func (tc *TableController) TableQRCode(c *gin.Context) {
	table, ok := tc.loadTable(c)
	if !ok {
		return
	}
	png, err := tc.QR.Generate(table.Cafe.Slug, table.QRToken)
	if err != nil {
		respondServiceError(c, fmt.Errorf("generate qr for table %d: %w", table.ID, err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s-table-%d.png"`, table.Cafe.Slug, table.Number))
	c.Data(http.StatusOK, "image/png", png)
}

func (tc *TableController) loadTable(c *gin.Context) (*models.Table, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	var table models.Table
	if err := tc.DB.Preload("Cafe").First(&table, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = &services.NotFoundError{Resource: "table", Key: id}
		}
		respondServiceError(c, err)
		return nil, false
	}
	return &table, true
}

func (tc *TableController) ensureNumberFree(cafeID uint, number int, exceptID uint) error {
	var count int64
	err := tc.DB.Model(&models.Table{}).
		Where("cafe_id = ? AND number = ? AND id <> ?", cafeID, number, exceptID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return &services.ConflictError{Message: fmt.Sprintf("table %d already exists in cafe %d", number, cafeID)}
	}
	return nil
}

func (tc *TableController) view(t *models.Table) TableView {
	v := TableView{
		ID:        t.ID,
		CafeID:    t.CafeID,
		Number:    t.Number,
		QRToken:   t.QRToken,
		IsActive:  t.IsActive(),
		CreatedAt: t.CreatedAt,
	}
	if tc.QR != nil && t.Cafe.Slug != "" {
		v.MenuURL = tc.QR.TableURL(t.Cafe.Slug, t.QRToken)
	}
	return v
}
