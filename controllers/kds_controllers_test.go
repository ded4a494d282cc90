package controllers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-ordering/events"
)

func TestKDSStreamsOrderEvents(t *testing.T) {
	s := setupTestServer(t)
	cafeID := s.createCafe("brew-haven")
	table := s.createTable(cafeID, 1)
	itemID := s.createItem(gin.H{"cafe_id": cafeID, "name": "Latte", "price": "50.00"})

	srv := httptest.NewServer(s.router)
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/kds/ws?token=" + s.token

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/kds/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	w := s.public(http.MethodPost, "/orders/create/", gin.H{
		"table_id": table.ID,
		"items":    []gin.H{{"menu_item_id": itemID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var evt events.Event
	require.NoError(t, json.Unmarshal(data, &evt))
	assert.Equal(t, events.OrderCreated, evt.Type)
	assert.Equal(t, cafeID, evt.CafeID)
	assert.Equal(t, "pending", string(evt.Status))
}

func TestKDSRequiresUpgrade(t *testing.T) {
	s := setupTestServer(t)
	w := s.staff(http.MethodGet, "/kds/ws", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
