package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/cafe-ordering/models"
	"github.com/yeremiapane/cafe-ordering/services"
	"github.com/yeremiapane/cafe-ordering/utils"
	"gorm.io/gorm"
)

type MenuController struct {
	DB   *gorm.DB
	Menu *services.MenuService
}

func NewMenuController(db *gorm.DB, menu *services.MenuService) *MenuController {
	return &MenuController{DB: db, Menu: menu}
}

// nullableID tells an absent field apart from an explicit null.
type nullableID struct {
	Set   bool
	Value *uint
}

func (n *nullableID) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v uint
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

type menuItemRequest struct {
	CafeID      uint             `json:"cafe_id"`
	CategoryID  nullableID       `json:"category_id"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	ImageURL    *string          `json:"image_url"`
	Price       *decimal.Decimal `json:"price"`
	Dietary     *string          `json:"dietary"`
	IsAvailable *bool            `json:"is_available"`
	IsSpecial   *bool            `json:"is_special"`
}

// GetAllMenus -> staff list of menu items, archived included
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	cafeID, err := queryUint(c, "cafe_id")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	q := mc.DB.Preload("Category").Order("id ASC")
	if cafeID != 0 {
		q = q.Where("cafe_id = ?", cafeID)
	}
	var items []models.MenuItem
	if err := q.Find(&items).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	views := make([]MenuItemAdminView, 0, len(items))
	for i := range items {
		views = append(views, newMenuItemAdminView(&items[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", views)
}

func (mc *MenuController) GetMenuByID(c *gin.Context) {
	item, ok := mc.loadItem(c)
	if !ok {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu detail", newMenuItemAdminView(item))
}

// CreateMenu
func (mc *MenuController) CreateMenu(c *gin.Context) {
	var req menuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.CafeID == 0 {
		respondServiceError(c, &services.ValidationError{Field: "cafe_id", Message: "is required"})
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		respondServiceError(c, &services.ValidationError{Field: "name", Message: "is required"})
		return
	}
	if req.Price == nil {
		respondServiceError(c, &services.ValidationError{Field: "price", Message: "is required"})
		return
	}
	var cafes int64
	if err := mc.DB.Model(&models.Cafe{}).Where("id = ?", req.CafeID).Count(&cafes).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	if cafes == 0 {
		respondServiceError(c, &services.ValidationError{Field: "cafe_id", Message: fmt.Sprintf("cafe %d does not exist", req.CafeID)})
		return
	}

	item := models.MenuItem{CafeID: req.CafeID, IsAvailable: true}
	if err := mc.apply(&item, req); err != nil {
		respondServiceError(c, err)
		return
	}
	if err := mc.DB.Omit("Cafe", "Category").Create(&item).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	mc.Menu.InvalidateCafe(c.Request.Context(), item.CafeID)

	utils.InfoLogger.Printf("Menu item %d created in cafe %d", item.ID, item.CafeID)
	utils.RespondJSON(c, http.StatusCreated, "Menu created", newMenuItemAdminView(&item))
}

// UpdateMenu -> partial update, "category_id": null clears the category
func (mc *MenuController) UpdateMenu(c *gin.Context) {
	item, ok := mc.loadItem(c)
	if !ok {
		return
	}
	var req menuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.CafeID != 0 && req.CafeID != item.CafeID {
		respondServiceError(c, &services.ValidationError{Field: "cafe_id", Message: "cannot be changed"})
		return
	}
	if err := mc.apply(item, req); err != nil {
		respondServiceError(c, err)
		return
	}

	err := mc.DB.Model(item).Select(
		"category_id", "name", "description", "image_url", "price",
		"dietary", "is_available", "is_special",
	).Updates(item).Error
	if err != nil {
		respondServiceError(c, err)
		return
	}
	mc.Menu.InvalidateCafe(c.Request.Context(), item.CafeID)
	utils.RespondJSON(c, http.StatusOK, "Menu updated", newMenuItemAdminView(item))
}

// DeleteMenu -> archive; past orders keep pointing at it
func (mc *MenuController) DeleteMenu(c *gin.Context) {
	item, ok := mc.loadItem(c)
	if !ok {
		return
	}
	if err := mc.DB.Model(item).Update("lifecycle", models.LifecycleInactive).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	mc.Menu.InvalidateCafe(c.Request.Context(), item.CafeID)
	c.Status(http.StatusNoContent)
}

// RestoreMenu -> bring an archived item back on the menu
func (mc *MenuController) RestoreMenu(c *gin.Context) {
	item, ok := mc.loadItem(c)
	if !ok {
		return
	}
	err := mc.DB.Model(item).Updates(map[string]interface{}{
		"lifecycle":    models.LifecycleActive,
		"is_available": true,
	}).Error
	if err != nil {
		respondServiceError(c, err)
		return
	}
	item.Lifecycle = models.LifecycleActive
	item.IsAvailable = true
	mc.Menu.InvalidateCafe(c.Request.Context(), item.CafeID)

	utils.InfoLogger.Printf("Menu item %d restored in cafe %d", item.ID, item.CafeID)
	utils.RespondJSON(c, http.StatusOK, "Menu restored", newMenuItemAdminView(item))
}

// MenuStats -> item and category counts of one cafe
func (mc *MenuController) MenuStats(c *gin.Context) {
	cafeID, err := queryUint(c, "cafe_id")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	stats, err := mc.Menu.MenuStats(c.Request.Context(), cafeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu stats", MenuStatsView(*stats))
}

func (mc *MenuController) loadItem(c *gin.Context) (*models.MenuItem, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	var item models.MenuItem
	if err := mc.DB.Preload("Category").First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = &services.NotFoundError{Resource: "menu item", Key: id}
		}
		respondServiceError(c, err)
		return nil, false
	}
	return &item, true
}

func (mc *MenuController) apply(item *models.MenuItem, req menuItemRequest) error {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return &services.ValidationError{Field: "name", Message: "must not be empty"}
		}
		item.Name = name
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.ImageURL != nil {
		item.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			return &services.ValidationError{Field: "price", Message: "must be greater than zero"}
		}
		item.Price = req.Price.Round(2)
	}
	if req.Dietary != nil {
		tag := models.DietaryTag(*req.Dietary)
		if !tag.Valid() {
			return &services.ValidationError{Field: "dietary", Message: "must be veg, non-veg, vegan or empty"}
		}
		item.Dietary = tag
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	if req.IsSpecial != nil {
		item.IsSpecial = *req.IsSpecial
	}
	if req.CategoryID.Set {
		if req.CategoryID.Value == nil {
			item.CategoryID = nil
			item.Category = nil
			return nil
		}
		var category models.Category
		err := mc.DB.Where("id = ? AND cafe_id = ?", *req.CategoryID.Value, item.CafeID).First(&category).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &services.ValidationError{Field: "category_id", Message: fmt.Sprintf("category %d does not exist in this cafe", *req.CategoryID.Value)}
		}
		if err != nil {
			return err
		}
		item.CategoryID = &category.ID
		item.Category = &category
	}
	return nil
}
