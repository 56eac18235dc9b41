package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meramarket/config"
	"meramarket/handlers"
	"meramarket/providers"
	"meramarket/services/auth"
	"meramarket/services/sanitize"
	"meramarket/utils"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.Logger = zap.NewNop()

	cfg := &config.Config{
		AppName:         "Mera Local Market",
		SelectionStore:  "memory",
		InterestStore:   "memory",
		JWTSecret:       "routes-test-secret",
		LocalStorageDir: t.TempDir(),
		PublicBaseURL:   "http://localhost:8080",
	}
	svc, err := providers.Build(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close(context.Background()) })

	r := gin.New()
	r.Use(utils.ErrorHandler())
	RegisterRoutes(r, handlers.NewHandlerBundle(svc))
	return r
}

func do(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func signup(t *testing.T, r http.Handler, email string) (token, userID string) {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    email,
		"password": "secret1",
		"name":     "Priya Sharma",
		"phone":    "+919812345678",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	return body["token"].(string), body["user"].(map[string]any)["id"].(string)
}

func adminToken(t *testing.T, r http.Handler) string {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    auth.MockAdminEmail,
		"password": auth.MockAdminPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)["token"].(string)
}

func tableListing() map[string]any {
	return map[string]any{
		"title":       "Wooden study table",
		"description": "Solid teak table, lightly used.",
		"price":       3500,
		"category":    "home-garden",
		"subcategory": "furniture",
		"location":    map[string]any{"lat": 28.61, "lng": 77.2, "city": "New Delhi"},
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Mera Local Market")
}

func TestListingLifecycleThroughListingFee(t *testing.T) {
	r := newTestRouter(t)
	token, userID := signup(t, r, "priya@example.com")

	w := do(t, r, http.MethodPost, "/api/listings", token, tableListing())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	listing := decode(t, w)
	id := listing["id"].(string)
	assert.Equal(t, "draft", listing["status"])
	assert.Equal(t, userID, listing["sellerId"])

	w = do(t, r, http.MethodPost, "/api/listings/"+id+"/publish", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "pending_payment", decode(t, w)["status"])

	w = do(t, r, http.MethodGet, "/api/listings/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "unpaid listings are not public")
	w = do(t, r, http.MethodGet, "/api/listings/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 0, decode(t, w)["views"])

	w = do(t, r, http.MethodPost, "/api/billing/purchase", token, map[string]any{
		"product":   "listing_fee",
		"listingId": id,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	receipt := decode(t, w)
	assert.Equal(t, "completed", receipt["payment"].(map[string]any)["status"])
	assert.Equal(t, "active", receipt["listing"].(map[string]any)["status"])

	w = do(t, r, http.MethodGet, "/api/listings/mine", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	w = do(t, r, http.MethodGet, "/api/payments", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])
}

func TestListingWithContactInfoIsRejected(t *testing.T) {
	r := newTestRouter(t)
	token, _ := signup(t, r, "seller@example.com")

	body := tableListing()
	body["description"] = "Call me on 9876543210 or mail seller@example.com"
	w := do(t, r, http.MethodPost, "/api/listings", token, body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	errs := decode(t, w)["errors"].([]any)
	assert.Contains(t, errs, "Email addresses are not allowed")
	assert.Contains(t, errs, "Phone numbers are not allowed")
}

func TestListingDetailHidesContactsUntilPass(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/listings/listing-1", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decode(t, w)
	assert.Equal(t, sanitize.ContactPlaceholder, view["sellerPhone"])
	assert.Equal(t, true, view["contactsHidden"])

	token, _ := signup(t, r, "buyer@example.com")
	w = do(t, r, http.MethodPost, "/api/billing/purchase", token, map[string]any{"product": "contact_pass"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/billing/status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode(t, w)
	assert.Equal(t, true, status["contactPassActive"])
	assert.EqualValues(t, 15, status["daysRemaining"])

	w = do(t, r, http.MethodGet, "/api/listings/listing-1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "+919876543210", decode(t, w)["sellerPhone"])
}

func TestInterestsAndQuestions(t *testing.T) {
	r := newTestRouter(t)
	token, _ := signup(t, r, "buyer@example.com")

	w := do(t, r, http.MethodPost, "/api/listings/listing-1/interests", token, map[string]string{
		"message": "Is this still available? WhatsApp me at 9876501234",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/listings/listing-1/interests", token, map[string]string{
		"message": "Is this still available?",
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/listings/listing-1/interests", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodPost, "/api/listings/listing-1/questions", token, map[string]string{
		"message": "Can I see it at www.example.com?",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	q := decode(t, w)
	assert.Equal(t, true, q["redacted"])
	assert.Contains(t, q["text"], sanitize.LinkPlaceholder)

	w = do(t, r, http.MethodGet, "/api/listings/listing-1/questions", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/admin/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, _ := signup(t, r, "user@example.com")
	w = do(t, r, http.MethodGet, "/api/admin/stats", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodGet, "/api/admin/stats", adminToken(t, r), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 2, decode(t, w)["totalUsers"])
}

func TestAdminIntegrationSwitchFallsBackToMock(t *testing.T) {
	r := newTestRouter(t)
	token := adminToken(t, r)

	w := do(t, r, http.MethodPut, "/api/admin/integrations/payments", token, map[string]string{"provider": "stripe"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sel := decode(t, w)
	assert.Equal(t, "mock", sel["active"])
	assert.Equal(t, []any{"STRIPE_KEY"}, sel["missingKeys"])
	assert.NotEmpty(t, sel["warning"])

	w = do(t, r, http.MethodPut, "/api/admin/integrations/weather", token, map[string]string{"provider": "mock"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPut, "/api/admin/integrations/payments", token, map[string]string{"provider": "paypal"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/admin/integrations", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["categories"], 5)
}

func TestAdminPricingUpdate(t *testing.T) {
	r := newTestRouter(t)
	token := adminToken(t, r)

	w := do(t, r, http.MethodPut, "/api/admin/pricing", token, map[string]int{"contactPassPrice": 30})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/billing/pricing", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 30, decode(t, w)["contactPassPrice"])

	w = do(t, r, http.MethodPut, "/api/admin/pricing", token, map[string]int{"listingPrice": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStorageUploadAndOwnership(t *testing.T) {
	r := newTestRouter(t)
	token, userID := signup(t, r, "uploader@example.com")
	other, _ := signup(t, r, "other@example.com")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "table photo.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("not really a jpeg"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/storage/upload/listings", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	obj := decode(t, w)
	id := obj["id"].(string)
	assert.True(t, strings.HasPrefix(id, "listings/"+userID+"/"), id)
	assert.True(t, strings.HasSuffix(id, "table-photo.jpg"), id)

	w = do(t, r, http.MethodDelete, "/api/storage/object?id="+id, other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodDelete, "/api/storage/object?id="+id, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodPost, "/api/storage/upload/secrets", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGeoRoutes(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/geo/locate", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "New Delhi", decode(t, w)["city"])

	w = do(t, r, http.MethodGet, "/api/geo/distance?lat1=28.6139&lng1=77.2090&lat2=28.6139&lng2=77.2090", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["distanceKm"])

	w = do(t, r, http.MethodGet, "/api/geo/distance?lat1=x", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
