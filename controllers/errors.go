package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-ordering/services"
	"github.com/yeremiapane/cafe-ordering/utils"
	"gorm.io/gorm"
)

var (
	ErrInternal     = errors.New("internal server error")
	ErrNothingToSet = errors.New("nothing to update")

	ErrMissingSession = errors.New("missing session token")
)

// respondServiceError maps the service error taxonomy onto HTTP. Anything
// unexpected is logged and hidden from the client.
func respondServiceError(c *gin.Context, err error) {
	var (
		notFound   *services.NotFoundError
		validation *services.ValidationError
		transition *services.InvalidTransitionError
		conflict   *services.ConflictError
	)
	switch {
	case errors.As(err, &notFound):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.As(err, &validation):
		utils.RespondError(c, http.StatusBadRequest, err)
	case errors.As(err, &transition), errors.As(err, &conflict):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.RespondError(c, http.StatusNotFound, errors.New("record not found"))
	default:
		utils.ErrorLogger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error(err)
		utils.RespondError(c, http.StatusInternalServerError, ErrInternal)
	}
}

// paramID reads a positive numeric path parameter, answering 400 otherwise.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

// queryUint reads an optional numeric query parameter. Zero means absent.
func queryUint(c *gin.Context, name string) (uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, &services.ValidationError{Field: name, Message: "must be a positive integer"}
	}
	return uint(v), nil
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &services.ValidationError{Field: name, Message: "must be an integer"}
	}
	return v, nil
}
