package handlers

import (
	"bytes"
	"database/sql/driver"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/onedaypage/backend/internal/config"
	"github.com/onedaypage/backend/internal/cookiestore"
	"github.com/onedaypage/backend/internal/middleware"
	"github.com/onedaypage/backend/internal/models"
	"github.com/onedaypage/backend/internal/services"
	"github.com/onedaypage/backend/pkg/downloadtoken"
	"github.com/onedaypage/backend/pkg/logger"
	"gorm.io/gorm"
)

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T, mutators ...func(cfg *config.Config)) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		gosqlite.MustRegisterScalarFunction("NOW", 0, func(ctx *gosqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			return time.Now().UTC(), nil
		})
		logger.Init()
		downloadtoken.Configure("test-secret", 15*time.Minute)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := db.AutoMigrate(&models.Page{}, &models.Message{}, &models.Photo{}); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	cfg := &config.Config{
		Page: config.PageConfig{
			Lifetime:     24 * time.Hour,
			SecretLength: 32,
			PhotoQuota:   5,
			PublicView:   true,
		},
		Cookie: config.CookieConfig{
			Name:       "edit_page_access_token",
			MaxAge:     24 * time.Hour,
			Secure:     false,
			SingleSlot: false,
		},
	}
	for _, mutate := range mutators {
		mutate(cfg)
	}

	cookies := cookiestore.New(cfg.Cookie)
	accessService := services.NewAccessService(db)
	pageService := services.NewPageService(db, nil, cfg.Page)

	pagesHandler := NewPagesHandler(db, pageService, accessService, cookies, cfg.Page)
	messagesHandler := NewMessagesHandler(db)
	photosHandler := NewPhotosHandler(db, nil)
	editHandler := NewEditHandler(accessService, cookies)

	editAuth := middleware.NewEditAuthMiddleware(accessService, cookies)

	app := fiber.New()
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))

	app.Get("/edit/:id", editHandler.Enter)

	api := app.Group("/api")
	api.Post("/pages", pagesHandler.Create)
	api.Get("/pages/:id/access", pagesHandler.CheckAccess)
	api.Put("/pages/:id", editAuth.RequireEditAccess, pagesHandler.Update)
	api.Post("/pages/:id/rotate", editAuth.RequireEditAccess, pagesHandler.Rotate)
	api.Delete("/pages/:id", editAuth.RequireEditAccess, pagesHandler.Delete)

	api.Delete("/pages/:id/messages/:messageId", editAuth.RequireEditAccess, messagesHandler.Delete)
	api.Post("/pages/:id/photos", editAuth.RequireEditAccess, photosHandler.Upload)
	api.Delete("/pages/:id/photos/:photoId", editAuth.RequireEditAccess, photosHandler.Delete)

	publicRoutes := api.Group("/public/pages")
	publicRoutes.Get("/:id", pagesHandler.PublicGet)
	publicRoutes.Get("/:id/messages", messagesHandler.List)
	publicRoutes.Post("/:id/messages", messagesHandler.Create)
	publicRoutes.Get("/:id/photos", photosHandler.List)

	api.Get("/photos/:photoId/download", photosHandler.Download)

	return &testEnv{app: app, db: db}
}

func seedPage(t *testing.T, db *gorm.DB, secret string, expiresAt time.Time) *models.Page {
	t.Helper()

	page := &models.Page{
		Secret:     secret,
		ExpiresAt:  expiresAt,
		Title:      "Happy Birthday",
		Theme:      models.PageThemeConfetti,
		PhotoQuota: 5,
	}
	if err := db.Create(page).Error; err != nil {
		t.Fatalf("failed seeding page: %v", err)
	}
	return page
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func dataField(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object in response, got %+v", body)
	}
	return data
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func editCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "edit_page_access_token" {
			return cookie
		}
	}
	return nil
}

func cookieHeader(cookie *http.Cookie) map[string]string {
	return map[string]string{"Cookie": cookie.Name + "=" + cookie.Value}
}

func cookieValueFor(t *testing.T, pageID, secret string) string {
	t.Helper()
	return cookieValueForEntries(t, cookiestore.Entry{
		PageID:    pageID,
		Secret:    secret,
		CreatedAt: time.Now().UnixMilli(),
	})
}

func cookieValueForEntries(t *testing.T, entries ...cookiestore.Entry) string {
	t.Helper()
	return base64.RawURLEncoding.EncodeToString(mustJSON(t, entries))
}

func decodeCredentialEntries(t *testing.T, value string) []cookiestore.Entry {
	t.Helper()
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		t.Fatalf("cookie value is not base64url: %v", err)
	}
	var entries []cookiestore.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("cookie value is not an entry list: %v", err)
	}
	return entries
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed marshaling %T: %v", v, err)
	}
	return data
}
