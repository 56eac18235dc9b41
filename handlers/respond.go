package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"meramarket/models"
	"meramarket/services/admin"
	"meramarket/services/auth"
	"meramarket/services/billing"
	"meramarket/services/integrations"
	"meramarket/services/interest"
	"meramarket/services/listings"
	"meramarket/services/payments"
	"meramarket/services/storage"
	"meramarket/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// errorStatus maps service errors to HTTP statuses. Anything unknown is a
// server error.
var errorStatus = []struct {
	err    error
	status int
}{
	{auth.ErrInvalidCredentials, http.StatusUnauthorized},
	{auth.ErrUnauthorized, http.StatusUnauthorized},
	{auth.ErrSuspended, http.StatusForbidden},
	{auth.ErrUserExists, http.StatusConflict},
	{auth.ErrUserNotFound, http.StatusNotFound},
	{auth.ErrWeakPassword, http.StatusBadRequest},
	{auth.ErrInvalidOTP, http.StatusBadRequest},
	{auth.ErrInvalidRole, http.StatusBadRequest},

	{listings.ErrNotFound, http.StatusNotFound},
	{listings.ErrForbidden, http.StatusForbidden},
	{listings.ErrInvalidState, http.StatusConflict},
	{listings.ErrInvalidInput, http.StatusBadRequest},

	{payments.ErrNotFound, http.StatusNotFound},
	{payments.ErrInvalidState, http.StatusConflict},
	{payments.ErrInvalidPayment, http.StatusBadRequest},
	{payments.ErrDeclined, http.StatusPaymentRequired},
	{payments.ErrGatewayMismatch, http.StatusConflict},
	{payments.ErrConflict, http.StatusConflict},

	{billing.ErrInvalidPricing, http.StatusBadRequest},
	{billing.ErrForbidden, http.StatusForbidden},
	{billing.ErrAlreadyActive, http.StatusConflict},
	{billing.ErrNotPayable, http.StatusConflict},

	{interest.ErrForbidden, http.StatusForbidden},
	{interest.ErrOwnListing, http.StatusBadRequest},
	{interest.ErrEmptyMessage, http.StatusBadRequest},
	{interest.ErrMessageLength, http.StatusBadRequest},
	{interest.ErrNotAvailable, http.StatusConflict},

	{storage.ErrNotFound, http.StatusNotFound},
	{storage.ErrInvalidName, http.StatusBadRequest},

	{admin.ErrForbidden, http.StatusForbidden},
	{admin.ErrSelfAction, http.StatusBadRequest},

	{integrations.ErrUnknownCategory, http.StatusBadRequest},
	{integrations.ErrUnknownProvider, http.StatusBadRequest},
}

// respondError writes the response for a failed service call.
func respondError(c *gin.Context, message string, err error) {
	var contact *listings.ContactInfoError
	if errors.As(err, &contact) {
		utils.JSONViolations(c, "Contact details are not allowed in "+contact.Field, contact.Violations)
		return
	}

	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			utils.JSONError(c, e.status, message, err.Error())
			return
		}
	}
	getLogger(c).Error(message, zap.Error(err))
	utils.JSONError(c, http.StatusInternalServerError, message, err.Error())
}

// bindPage reads page and limit from the query string.
func bindPage(c *gin.Context) models.PageRequest {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return models.PageRequest{Page: page, Limit: limit}.Normalize()
}

// bindNear reads lat, lng and radius (km) from the query string.
func bindNear(c *gin.Context) (*models.GeoFilter, error) {
	rawLat, rawLng := c.Query("lat"), c.Query("lng")
	if rawLat == "" && rawLng == "" {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return nil, errors.New("invalid lat")
	}
	lng, err := strconv.ParseFloat(rawLng, 64)
	if err != nil {
		return nil, errors.New("invalid lng")
	}
	radius := 10.0
	if raw := c.Query("radius"); raw != "" {
		if radius, err = strconv.ParseFloat(raw, 64); err != nil || radius <= 0 {
			return nil, errors.New("invalid radius")
		}
	}
	return &models.GeoFilter{Lat: lat, Lng: lng, RadiusKm: radius}, nil
}

func badRequest(c *gin.Context, err error) {
	utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
}
