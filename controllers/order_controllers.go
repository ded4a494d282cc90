package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-ordering/models"
	"github.com/yeremiapane/cafe-ordering/services"
	"github.com/yeremiapane/cafe-ordering/utils"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

type createOrderRequest struct {
	TableID             uint                 `json:"table_id"`
	QRToken             string               `json:"qr_token"`
	Items               []services.OrderLine `json:"items"`
	PaymentMethod       string               `json:"payment_method"`
	SpecialInstructions string               `json:"special_instructions"`
}

type updateOrderRequest struct {
	Status      *string `json:"status"`
	Paid        *bool   `json:"paid"`
	PrepMinutes *int    `json:"prep_minutes"`
}

// SessionHeader carries the customer session issued with the first order.
const SessionHeader = "X-Session-Token"

// CreateOrder -> customer places an order from a table
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.CreateOrder(c.Request.Context(), services.CreateOrderInput{
		TableID:             req.TableID,
		QRToken:             req.QRToken,
		Items:               req.Items,
		PaymentMethod:       models.PaymentMethod(req.PaymentMethod),
		SpecialInstructions: req.SpecialInstructions,
		SessionToken:        c.GetHeader(SessionHeader),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	view := newOrderView(order)
	view.SessionToken = order.SessionToken
	c.Header(SessionHeader, order.SessionToken)
	utils.RespondJSON(c, http.StatusCreated, "Order created", view)
}

// CancelOrder -> customer withdraws a pending, unpaid order
func (oc *OrderController) CancelOrder(c *gin.Context) {
	session := c.GetHeader(SessionHeader)
	if session == "" {
		utils.RespondError(c, http.StatusUnauthorized, ErrMissingSession)
		return
	}
	if err := oc.Orders.CancelOrder(c.Request.Context(), c.Param("public_id"), session); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ActiveOrders -> open orders of this customer's session at the table
func (oc *OrderController) ActiveOrders(c *gin.Context) {
	orders, err := oc.Orders.ActiveOrdersForTable(c.Request.Context(), c.Param("qr_token"), c.GetHeader(SessionHeader))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	views := make([]OrderSummaryView, 0, len(orders))
	for i := range orders {
		views = append(views, newOrderSummaryView(&orders[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "Active orders", views)
}

// ListOrders -> staff order board
func (oc *OrderController) ListOrders(c *gin.Context) {
	filter, err := orderFilterFromQuery(c)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	orders, total, err := oc.Orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	page, limit := filter.Window()
	view := OrderListView{Orders: make([]OrderView, 0, len(orders)), Total: total, Page: page, Limit: limit}
	for i := range orders {
		view.Orders = append(view.Orders, newOrderView(&orders[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", view)
}

// GetOrderByID -> staff detail, archived orders included
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := oc.Orders.GetOrder(c.Request.Context(), id, models.StaffView)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", newOrderView(order))
}

// UpdateOrder -> advance status and/or mark paid
func (oc *OrderController) UpdateOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Status == nil && req.Paid == nil && req.PrepMinutes == nil {
		utils.RespondError(c, http.StatusBadRequest, ErrNothingToSet)
		return
	}
	if req.Paid != nil && !*req.Paid {
		respondServiceError(c, &services.ValidationError{Field: "paid", Message: "a paid order cannot be marked unpaid"})
		return
	}

	order, err := oc.Orders.UpdateOrder(c.Request.Context(), id, services.OrderUpdate{
		Status:      req.Status,
		MarkPaid:    req.Paid != nil,
		PrepMinutes: req.PrepMinutes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order updated", newOrderView(order))
}

// CafeStats -> revenue and order counts for the dashboard
func (oc *OrderController) CafeStats(c *gin.Context) {
	cafeID, err := queryUint(c, "cafe_id")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	since, until, err := services.StatsWindow(services.StatsRange(c.Query("range")), c.Query("date"), time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	stats, err := oc.Orders.CafeStats(c.Request.Context(), services.StatsFilter{CafeID: cafeID, Since: since, Until: until})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cafe stats", newOrderStatsView(stats))
}

// DeleteOrder -> archive an order that has not been completed
func (oc *OrderController) DeleteOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := oc.Orders.SoftDelete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func orderFilterFromQuery(c *gin.Context) (services.OrderFilter, error) {
	var (
		filter services.OrderFilter
		err    error
	)
	if filter.CafeID, err = queryUint(c, "cafe_id"); err != nil {
		return filter, err
	}
	if filter.TableID, err = queryUint(c, "table_id"); err != nil {
		return filter, err
	}
	if filter.Page, err = queryInt(c, "page", 1); err != nil {
		return filter, err
	}
	if filter.Limit, err = queryInt(c, "limit", services.DefaultOrderPageSize); err != nil {
		return filter, err
	}
	filter.IncludeInactive = c.Query("include_inactive") == "true" || c.Query("include_inactive") == "1"

	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, ok := models.ParseOrderStatus(strings.TrimSpace(part))
			if !ok {
				return filter, &services.ValidationError{Field: "status", Message: "unknown status " + part}
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	return filter, nil
}
