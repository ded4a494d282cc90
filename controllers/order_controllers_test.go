package controllers_test

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-ordering/controllers"
	"github.com/yeremiapane/cafe-ordering/models"
	"gorm.io/gorm"
)

type orderSetup struct {
	*testServer
	cafeID uint
	table  idView
	itemA  uint
	itemB  uint
}

func newOrderSetup(t *testing.T) *orderSetup {
	s := setupTestServer(t)
	cafeID := s.createCafe("brew-haven")
	return &orderSetup{
		testServer: s,
		cafeID:     cafeID,
		table:      s.createTable(cafeID, 4),
		itemA:      s.createItem(gin.H{"cafe_id": cafeID, "name": "Latte", "price": "50.00"}),
		itemB:      s.createItem(gin.H{"cafe_id": cafeID, "name": "Croissant", "price": "30.00"}),
	}
}

const guestSession = "guest-device-1"

func (o *orderSetup) placeOrder(t *testing.T) controllers.OrderView {
	w := o.guest(guestSession, http.MethodPost, "/orders/create/", gin.H{
		"table_id": o.table.ID,
		"items": []gin.H{
			{"menu_item_id": o.itemA, "quantity": 2},
			{"menu_item_id": o.itemB, "quantity": 1},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order controllers.OrderView
	decode(t, w, &order)
	return order
}

func TestCreateOrderEndpoint(t *testing.T) {
	o := newOrderSetup(t)

	order := o.placeOrder(t)
	assert.Equal(t, "130.00", order.TotalPrice)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.OrderStatusAccepted, order.NextStatus)
	assert.Equal(t, 4, order.TableNumber)
	assert.Equal(t, models.PaymentCounter, order.PaymentMethod)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "100.00", order.Items[0].LineTotal)
	assert.Nil(t, order.Bill)
	assert.Equal(t, guestSession, order.SessionToken)
}

func TestCreateOrderByQRToken(t *testing.T) {
	o := newOrderSetup(t)
	w := o.public(http.MethodPost, "/orders/create/", gin.H{
		"qr_token":       o.table.QRToken,
		"payment_method": "online",
		"items":          []gin.H{{"menu_item_id": o.itemB, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order controllers.OrderView
	decode(t, w, &order)
	assert.Equal(t, "60.00", order.TotalPrice)
	assert.Equal(t, models.PaymentOnline, order.PaymentMethod)
	assert.Len(t, order.SessionToken, 36, "a session is issued to new guests")
	assert.Equal(t, order.SessionToken, w.Header().Get(controllers.SessionHeader))
}

func TestCreateOrderRejections(t *testing.T) {
	o := newOrderSetup(t)
	other := o.createCafe("elsewhere")
	foreign := o.createItem(gin.H{"cafe_id": other, "name": "Foreign", "price": "10.00"})

	cases := []struct {
		name string
		body gin.H
		code int
	}{
		{"zero quantity", gin.H{"table_id": o.table.ID, "items": []gin.H{{"menu_item_id": o.itemA, "quantity": 0}}}, http.StatusBadRequest},
		{"no items", gin.H{"table_id": o.table.ID, "items": []gin.H{}}, http.StatusBadRequest},
		{"cross cafe", gin.H{"table_id": o.table.ID, "items": []gin.H{{"menu_item_id": foreign, "quantity": 1}}}, http.StatusBadRequest},
		{"unknown table", gin.H{"table_id": 999, "items": []gin.H{{"menu_item_id": o.itemA, "quantity": 1}}}, http.StatusNotFound},
		{"unknown token", gin.H{"qr_token": "nope", "items": []gin.H{{"menu_item_id": o.itemA, "quantity": 1}}}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := o.public(http.MethodPost, "/orders/create/", tc.body)
			assert.Equal(t, tc.code, w.Code, w.Body.String())
			assert.False(t, decode(t, w, nil).Success)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/orders/create/", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	o.router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUpdateOrderLifecycle(t *testing.T) {
	o := newOrderSetup(t)
	order := o.placeOrder(t)
	path := fmt.Sprintf("/orders/update/%d/", order.ID)

	w := o.public(http.MethodPatch, path, gin.H{"status": "accepted"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = o.staff(http.MethodPatch, path, gin.H{"status": "ready"})
	assert.Equal(t, http.StatusConflict, w.Code, "skipping a step")

	w = o.staff(http.MethodPatch, path, gin.H{"status": "pending"})
	assert.Equal(t, http.StatusConflict, w.Code, "already pending")

	w = o.staff(http.MethodPatch, path, gin.H{"status": "cancelled"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = o.staff(http.MethodPatch, path, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = o.staff(http.MethodPatch, path, gin.H{"paid": false})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = o.staff(http.MethodPut, path, gin.H{"status": "accepted"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated controllers.OrderView
	decode(t, w, &updated)
	assert.Equal(t, models.OrderStatusAccepted, updated.Status)

	w = o.staff(http.MethodPatch, path, gin.H{"status": "preparing", "paid": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &updated)
	assert.Equal(t, models.OrderStatusPreparing, updated.Status)
	assert.True(t, updated.Paid)
	require.NotNil(t, updated.Bill)
	assert.Equal(t, "130.00", updated.Bill.Amount)

	assert.Equal(t, http.StatusNotFound, o.staff(http.MethodPatch, "/orders/update/999/", gin.H{"status": "accepted"}).Code)
}

func TestDeleteOrder(t *testing.T) {
	o := newOrderSetup(t)
	open := o.placeOrder(t)
	done := o.placeOrder(t)
	require.NoError(t, o.db.Model(&models.Order{}).Where("id = ?", done.ID).Update("status", models.OrderStatusCompleted).Error)

	w := o.staff(http.MethodDelete, fmt.Sprintf("/orders/delete/%d/", done.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = o.staff(http.MethodDelete, fmt.Sprintf("/orders/delete/%d/", open.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = o.staff(http.MethodDelete, fmt.Sprintf("/orders/delete/%d/", open.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = o.staff(http.MethodGet, fmt.Sprintf("/orders/%d/", open.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, "staff can still audit it")
	var view controllers.OrderView
	decode(t, w, &view)
	assert.False(t, view.IsActive)

	assert.Equal(t, http.StatusNotFound, o.public(http.MethodGet, fmt.Sprintf("/bill/%s/", open.PublicID), nil).Code)
}

func TestListOrdersEndpoint(t *testing.T) {
	o := newOrderSetup(t)
	first := o.placeOrder(t)
	second := o.placeOrder(t)
	o.staff(http.MethodPatch, fmt.Sprintf("/orders/update/%d/", second.ID), gin.H{"status": "accepted"})
	o.staff(http.MethodDelete, fmt.Sprintf("/orders/delete/%d/", first.ID), nil)

	w := o.staff(http.MethodGet, fmt.Sprintf("/orders/?cafe_id=%d", o.cafeID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list controllers.OrderListView
	decode(t, w, &list)
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 20, list.Limit)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, second.ID, list.Orders[0].ID)

	w = o.staff(http.MethodGet, "/orders/?include_inactive=true&limit=1&page=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	assert.Equal(t, int64(2), list.Total)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, first.ID, list.Orders[0].ID)

	w = o.staff(http.MethodGet, "/orders/?status=pending", nil)
	decode(t, w, &list)
	assert.Equal(t, int64(0), list.Total)

	assert.Equal(t, http.StatusBadRequest, o.staff(http.MethodGet, "/orders/?status=lost", nil).Code)
	assert.Equal(t, http.StatusBadRequest, o.staff(http.MethodGet, "/orders/?cafe_id=x", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, o.public(http.MethodGet, "/orders/", nil).Code)
}

func TestActiveOrdersEndpoint(t *testing.T) {
	o := newOrderSetup(t)
	o.placeOrder(t)

	path := fmt.Sprintf("/orders/active/%s/", o.table.QRToken)
	w := o.guest(guestSession, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summaries []controllers.OrderSummaryView
	decode(t, w, &summaries)
	require.Len(t, summaries, 1)
	assert.Equal(t, 3, summaries[0].ItemCount)
	assert.Equal(t, "130.00", summaries[0].TotalPrice)

	for _, w := range []*httptest.ResponseRecorder{
		o.guest("next-party", http.MethodGet, path, nil),
		o.public(http.MethodGet, path, nil),
	} {
		require.Equal(t, http.StatusOK, w.Code)
		summaries = nil
		decode(t, w, &summaries)
		assert.Empty(t, summaries, "orders of another session stay hidden")
	}

	assert.Equal(t, http.StatusNotFound, o.public(http.MethodGet, "/orders/active/unknown/", nil).Code)
}

func TestBillEndpoints(t *testing.T) {
	o := newOrderSetup(t)
	order := o.placeOrder(t)

	w := o.public(http.MethodGet, fmt.Sprintf("/bill/%s/", order.PublicID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var bill controllers.OrderView
	decode(t, w, &bill)
	assert.Nil(t, bill.Bill, "no bill before payment")

	o.staff(http.MethodPatch, fmt.Sprintf("/orders/update/%d/", order.ID), gin.H{"paid": true})

	w = o.public(http.MethodGet, fmt.Sprintf("/bill/%s/", order.PublicID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &bill)
	require.NotNil(t, bill.Bill)
	assert.Contains(t, bill.Bill.Number, fmt.Sprintf("%06d", order.ID))

	w = o.public(http.MethodGet, fmt.Sprintf("/bill/%s/pdf/", order.PublicID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	assert.Equal(t, http.StatusNotFound, o.public(http.MethodGet, "/bill/not-a-uuid/", nil).Code)
}

func TestUpdateOrderAllOrNothing(t *testing.T) {
	o := newOrderSetup(t)
	order := o.placeOrder(t)
	failed := false
	require.NoError(t, o.db.Callback().Create().Before("gorm:create").Register("test:fail_bill", func(tx *gorm.DB) {
		if !failed && tx.Statement.Table == "bills" {
			failed = true
			tx.AddError(errors.New("disk full"))
		}
	}))

	w := o.staff(http.MethodPatch, fmt.Sprintf("/orders/update/%d/", order.ID), gin.H{"status": "accepted", "paid": true})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var stored models.Order
	require.NoError(t, o.db.First(&stored, order.ID).Error)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
	assert.False(t, stored.Paid)
}

func TestUpdateOrderPrepMinutes(t *testing.T) {
	o := newOrderSetup(t)
	order := o.placeOrder(t)
	path := fmt.Sprintf("/orders/update/%d/", order.ID)
	require.Equal(t, http.StatusOK, o.staff(http.MethodPatch, path, gin.H{"status": "accepted"}).Code)

	w := o.staff(http.MethodPatch, path, gin.H{"prep_minutes": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = o.staff(http.MethodPatch, path, gin.H{"prep_minutes": 12})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated controllers.OrderView
	decode(t, w, &updated)
	assert.Equal(t, models.OrderStatusPreparing, updated.Status)
	require.NotNil(t, updated.PrepMinutes)
	assert.Equal(t, 12, *updated.PrepMinutes)
	assert.Empty(t, updated.SessionToken, "only the create response carries the session")
}

func TestCancelOrderEndpoint(t *testing.T) {
	o := newOrderSetup(t)
	order := o.placeOrder(t)
	kept := o.placeOrder(t)
	o.staff(http.MethodPatch, fmt.Sprintf("/orders/update/%d/", kept.ID), gin.H{"status": "accepted"})

	path := fmt.Sprintf("/orders/cancel/%s/", order.PublicID)
	assert.Equal(t, http.StatusUnauthorized, o.public(http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, o.guest("someone-else", http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNoContent, o.guest(guestSession, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, o.public(http.MethodGet, fmt.Sprintf("/bill/%s/", order.PublicID), nil).Code)

	w := o.guest(guestSession, http.MethodDelete, fmt.Sprintf("/orders/cancel/%s/", kept.PublicID), nil)
	assert.Equal(t, http.StatusConflict, w.Code, "the kitchen already accepted it")
}

func TestCafeStatsEndpoint(t *testing.T) {
	o := newOrderSetup(t)
	order := o.placeOrder(t)
	o.placeOrder(t)
	o.staff(http.MethodPatch, fmt.Sprintf("/orders/update/%d/", order.ID), gin.H{"status": "accepted"})

	w := o.staff(http.MethodGet, fmt.Sprintf("/orders/stats/?cafe_id=%d&range=all", o.cafeID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stats controllers.OrderStatsView
	decode(t, w, &stats)
	assert.Equal(t, "260.00", stats.TotalRevenue)
	assert.Equal(t, int64(2), stats.TotalOrders)
	assert.Equal(t, "130.00", stats.AverageOrderValue)
	assert.Equal(t, int64(1), stats.Pending)

	assert.Equal(t, http.StatusBadRequest, o.staff(http.MethodGet, fmt.Sprintf("/orders/stats/?cafe_id=%d&range=year", o.cafeID), nil).Code)
	assert.Equal(t, http.StatusBadRequest, o.staff(http.MethodGet, "/orders/stats/", nil).Code)
	assert.Equal(t, http.StatusNotFound, o.staff(http.MethodGet, "/orders/stats/?cafe_id=999", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, o.public(http.MethodGet, "/orders/stats/", nil).Code)
}
