package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/cafe-ordering/middlewares"
	"github.com/yeremiapane/cafe-ordering/models"
	"github.com/yeremiapane/cafe-ordering/services"
	"github.com/yeremiapane/cafe-ordering/utils"
	"gorm.io/gorm"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

const (
	HeaderCategoryIndex = "X-Category-Index"
	HeaderCategoryCount = "X-Category-Count"
	HeaderHasMore       = "X-Has-More"
)

type CafeController struct {
	DB   *gorm.DB
	Menu *services.MenuService
}

func NewCafeController(db *gorm.DB, menu *services.MenuService) *CafeController {
	return &CafeController{DB: db, Menu: menu}
}

// CafeInfo -> public header of the cafe page
func (cc *CafeController) CafeInfo(c *gin.Context) {
	cafe, err := cc.Menu.CafeInfo(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "", newCafeInfoView(cafe))
}

// SpecialItems -> newest special items, bounded
func (cc *CafeController) SpecialItems(c *gin.Context) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	items, err := cc.Menu.SpecialItems(c.Request.Context(), c.Param("slug"), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SpecialItemsResponse{Success: true, Items: items})
}

// MenuPage -> one category per request, 204 once the categories run out
func (cc *CafeController) MenuPage(c *gin.Context) {
	index, err := queryInt(c, "category_index", 0)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	page, err := cc.Menu.MenuPage(c.Request.Context(), c.Param("slug"), index)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if page.Exhausted {
		c.Status(http.StatusNoContent)
		return
	}

	c.Header(HeaderCategoryIndex, strconv.Itoa(page.Index))
	c.Header(HeaderCategoryCount, strconv.Itoa(page.Total))
	c.Header(HeaderHasMore, strconv.FormatBool(page.HasMore))
	c.JSON(http.StatusOK, MenuPageResponse{page.Category: page.Items})
}

// Categories -> category names in page order
func (cc *CafeController) Categories(c *gin.Context) {
	names, err := cc.Menu.Categories(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "", names)
}

type cafeRequest struct {
	Slug        *string          `json:"slug"`
	Name        *string          `json:"name"`
	Tagline     *string          `json:"tagline"`
	BannerURL   *string          `json:"banner_url"`
	Rating      *decimal.Decimal `json:"rating"`
	ReviewCount *int             `json:"review_count"`
}

// CreateCafe -> staff registers a cafe
func (cc *CafeController) CreateCafe(c *gin.Context) {
	var req cafeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Slug == nil || !slugPattern.MatchString(*req.Slug) {
		respondServiceError(c, &services.ValidationError{Field: "slug", Message: "must be lowercase letters, digits and single dashes"})
		return
	}
	if req.Name == nil || *req.Name == "" {
		respondServiceError(c, &services.ValidationError{Field: "name", Message: "is required"})
		return
	}

	var existing int64
	if err := cc.DB.Model(&models.Cafe{}).Where("slug = ?", *req.Slug).Count(&existing).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	if existing > 0 {
		respondServiceError(c, &services.ConflictError{Message: fmt.Sprintf("slug %q is taken", *req.Slug)})
		return
	}

	cafe := models.Cafe{
		Slug:    *req.Slug,
		Name:    *req.Name,
		OwnerID: c.GetString(middlewares.OwnerIDKey),
	}
	if err := applyCafeFields(&cafe, req); err != nil {
		respondServiceError(c, err)
		return
	}
	if err := cc.DB.Create(&cafe).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("New cafe created: %s", cafe.Slug)
	utils.RespondJSON(c, http.StatusCreated, "Cafe created", newCafeView(&cafe))
}

// GetAllCafes -> staff list, archived included
func (cc *CafeController) GetAllCafes(c *gin.Context) {
	var cafes []models.Cafe
	if err := cc.DB.Order("id ASC").Find(&cafes).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	views := make([]CafeView, 0, len(cafes))
	for i := range cafes {
		views = append(views, newCafeView(&cafes[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "List of cafes", views)
}

func (cc *CafeController) GetCafe(c *gin.Context) {
	cafe, ok := cc.loadCafe(c)
	if !ok {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cafe detail", newCafeView(cafe))
}

// UpdateCafe -> the slug is printed in QR codes and cannot change
func (cc *CafeController) UpdateCafe(c *gin.Context) {
	cafe, ok := cc.loadCafe(c)
	if !ok {
		return
	}
	var req cafeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Slug != nil && *req.Slug != cafe.Slug {
		respondServiceError(c, &services.ValidationError{Field: "slug", Message: "cannot be changed"})
		return
	}
	if req.Name != nil {
		if *req.Name == "" {
			respondServiceError(c, &services.ValidationError{Field: "name", Message: "must not be empty"})
			return
		}
		cafe.Name = *req.Name
	}
	if err := applyCafeFields(cafe, req); err != nil {
		respondServiceError(c, err)
		return
	}
	if err := cc.DB.Save(cafe).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	cc.Menu.InvalidateCafe(c.Request.Context(), cafe.ID)
	utils.RespondJSON(c, http.StatusOK, "Cafe updated", newCafeView(cafe))
}

// DeleteCafe -> archive; its public pages answer 404 afterwards
func (cc *CafeController) DeleteCafe(c *gin.Context) {
	cafe, ok := cc.loadCafe(c)
	if !ok {
		return
	}
	if err := cc.DB.Model(cafe).Update("lifecycle", models.LifecycleInactive).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	cc.Menu.InvalidateCafe(c.Request.Context(), cafe.ID)
	utils.InfoLogger.Printf("Cafe %d archived", cafe.ID)
	c.Status(http.StatusNoContent)
}

func (cc *CafeController) loadCafe(c *gin.Context) (*models.Cafe, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	var cafe models.Cafe
	if err := cc.DB.First(&cafe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = &services.NotFoundError{Resource: "cafe", Key: id}
		}
		respondServiceError(c, err)
		return nil, false
	}
	return &cafe, true
}

func applyCafeFields(cafe *models.Cafe, req cafeRequest) error {
	if req.Tagline != nil {
		cafe.Tagline = *req.Tagline
	}
	if req.BannerURL != nil {
		cafe.BannerURL = *req.BannerURL
	}
	if req.Rating != nil {
		if req.Rating.IsNegative() || req.Rating.GreaterThan(decimal.NewFromInt(5)) {
			return &services.ValidationError{Field: "rating", Message: "must be between 0 and 5"}
		}
		cafe.Rating = *req.Rating
	}
	if req.ReviewCount != nil {
		if *req.ReviewCount < 0 {
			return &services.ValidationError{Field: "review_count", Message: "must not be negative"}
		}
		cafe.ReviewCount = *req.ReviewCount
	}
	return nil
}
