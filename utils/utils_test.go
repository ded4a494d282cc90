package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCurrency(t *testing.T) {
	cases := map[string]string{
		"0":          "Rs 0.00",
		"5":          "Rs 5.00",
		"130":        "Rs 130.00",
		"1000":       "Rs 1,000.00",
		"15000.5":    "Rs 15,000.50",
		"1234567.89": "Rs 1,234,567.89",
		"-2500.1":    "-Rs 2,500.10",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatCurrency(decimal.RequireFromString(in), "Rs "), in)
	}
}

func TestOwnerTokenRoundTrip(t *testing.T) {
	secret := []byte("kitchen-secret")
	token, err := GenerateOwnerToken(secret, "owner-7", time.Hour)
	require.NoError(t, err)

	ownerID, err := ParseOwnerToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "owner-7", ownerID)

	_, err = ParseOwnerToken([]byte("other-secret"), token)
	assert.Error(t, err)

	_, err = ParseOwnerToken(secret, token+"x")
	assert.Error(t, err)
}

func TestOwnerTokenExpired(t *testing.T) {
	secret := []byte("kitchen-secret")
	token, err := GenerateOwnerToken(secret, "owner-7", -time.Minute)
	require.NoError(t, err)

	_, err = ParseOwnerToken(secret, token)
	assert.Error(t, err)
}

func TestGenerateOwnerTokenRejectsEmptyInput(t *testing.T) {
	_, err := GenerateOwnerToken(nil, "owner", time.Hour)
	assert.Error(t, err)
	_, err = GenerateOwnerToken([]byte("s"), "", time.Hour)
	assert.Error(t, err)
}

func TestInitLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	InitLogger(LogConfig{Level: "debug", Format: "json", File: path})
	t.Cleanup(func() { InitLogger(LogConfig{Level: "panic"}) })

	assert.Equal(t, logrus.DebugLevel, InfoLogger.GetLevel())
	assert.Equal(t, logrus.ErrorLevel, ErrorLogger.GetLevel())

	InfoLogger.WithField("order_id", 12).Info("order created")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &line))
	assert.Equal(t, "order created", line["msg"])
	assert.EqualValues(t, 12, line["order_id"])
}

func TestInitLoggerUnknownLevel(t *testing.T) {
	InitLogger(LogConfig{Level: "chatty"})
	assert.Equal(t, logrus.InfoLevel, InfoLogger.GetLevel())
}

func TestRespondHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RespondJSON(c, http.StatusCreated, "created", gin.H{"id": 1})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"created","data":{"id":1}}`, w.Body.String())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	RespondAbort(c, http.StatusNotFound, errors.New("order 4 not found"))
	assert.True(t, c.IsAborted())
	assert.JSONEq(t, `{"success":false,"message":"order 4 not found"}`, w.Body.String())
}
