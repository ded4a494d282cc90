package controllers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-ordering/services"
	"github.com/yeremiapane/cafe-ordering/utils"
)

type BillController struct {
	Orders         *services.OrderService
	CurrencySymbol string
}

func NewBillController(orders *services.OrderService, currencySymbol string) *BillController {
	return &BillController{Orders: orders, CurrencySymbol: currencySymbol}
}

// GetBill -> customer bill page by public id
func (bc *BillController) GetBill(c *gin.Context) {
	order, err := bc.Orders.GetOrderByPublicID(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill", newOrderView(order))
}

// GetBillPDF -> printable bill
func (bc *BillController) GetBillPDF(c *gin.Context) {
	order, err := bc.Orders.GetOrderByPublicID(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := services.RenderBillPDF(&buf, order, &order.Cafe, bc.CurrencySymbol); err != nil {
		respondServiceError(c, fmt.Errorf("render bill %s: %w", order.PublicID, err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="bill-%s.pdf"`, order.PublicID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
