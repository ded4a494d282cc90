package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-ordering/models"
	"github.com/yeremiapane/cafe-ordering/services"
	"github.com/yeremiapane/cafe-ordering/utils"
	"gorm.io/gorm"
)

type MenuCategoryController struct {
	DB   *gorm.DB
	Menu *services.MenuService
}

func NewMenuCategoryController(db *gorm.DB, menu *services.MenuService) *MenuCategoryController {
	return &MenuCategoryController{DB: db, Menu: menu}
}

// GetAllCategories
func (mcc *MenuCategoryController) GetAllCategories(c *gin.Context) {
	cafeID, err := queryUint(c, "cafe_id")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	q := mcc.DB.Order("cafe_id ASC").Order("name ASC")
	if cafeID != 0 {
		q = q.Where("cafe_id = ?", cafeID)
	}
	var categories []models.Category
	if err := q.Find(&categories).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	views := make([]CategoryView, 0, len(categories))
	for i := range categories {
		views = append(views, newCategoryView(&categories[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "All menu categories", views)
}

// CreateCategory
func (mcc *MenuCategoryController) CreateCategory(c *gin.Context) {
	var body struct {
		CafeID uint   `json:"cafe_id" binding:"required"`
		Name   string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		respondServiceError(c, &services.ValidationError{Field: "name", Message: "must not be empty"})
		return
	}

	var cafes int64
	if err := mcc.DB.Model(&models.Cafe{}).Where("id = ?", body.CafeID).Count(&cafes).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	if cafes == 0 {
		respondServiceError(c, &services.ValidationError{Field: "cafe_id", Message: fmt.Sprintf("cafe %d does not exist", body.CafeID)})
		return
	}
	if err := mcc.ensureNameFree(body.CafeID, name, 0); err != nil {
		respondServiceError(c, err)
		return
	}

	category := models.Category{CafeID: body.CafeID, Name: name}
	if err := mcc.DB.Omit("Cafe").Create(&category).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	mcc.Menu.InvalidateCafe(c.Request.Context(), category.CafeID)
	utils.RespondJSON(c, http.StatusCreated, "Category created", newCategoryView(&category))
}

// UpdateCategory -> rename
func (mcc *MenuCategoryController) UpdateCategory(c *gin.Context) {
	category, ok := mcc.loadCategory(c)
	if !ok {
		return
	}
	var body struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		respondServiceError(c, &services.ValidationError{Field: "name", Message: "must not be empty"})
		return
	}
	if err := mcc.ensureNameFree(category.CafeID, name, category.ID); err != nil {
		respondServiceError(c, err)
		return
	}
	if err := mcc.DB.Model(category).Update("name", name).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	category.Name = name
	mcc.Menu.InvalidateCafe(c.Request.Context(), category.CafeID)
	utils.RespondJSON(c, http.StatusOK, "Category updated", newCategoryView(category))
}

// DeleteCategory -> items of the category stay, uncategorized
func (mcc *MenuCategoryController) DeleteCategory(c *gin.Context) {
	category, ok := mcc.loadCategory(c)
	if !ok {
		return
	}
	err := mcc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.MenuItem{}).Where("category_id = ?", category.ID).Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Category{}, category.ID).Error
	})
	if err != nil {
		respondServiceError(c, fmt.Errorf("delete category %d: %w", category.ID, err))
		return
	}
	mcc.Menu.InvalidateCafe(c.Request.Context(), category.CafeID)
	c.Status(http.StatusNoContent)
}

func (mcc *MenuCategoryController) loadCategory(c *gin.Context) (*models.Category, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	var category models.Category
	if err := mcc.DB.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = &services.NotFoundError{Resource: "category", Key: id}
		}
		respondServiceError(c, err)
		return nil, false
	}
	return &category, true
}

func (mcc *MenuCategoryController) ensureNameFree(cafeID uint, name string, exceptID uint) error {
	var count int64
	err := mcc.DB.Model(&models.Category{}).
		Where("cafe_id = ? AND name = ? AND id <> ?", cafeID, name, exceptID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return &services.ConflictError{Message: fmt.Sprintf("category %q already exists", name)}
	}
	return nil
}
