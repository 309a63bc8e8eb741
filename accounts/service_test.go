package accounts

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/infothings/auth/gateway"
	"github.com/infothings/auth/models"
)

func testService(t *testing.T) (*Service, *fiber.App) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Account{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logger := logrus.New()
	logger.Out = io.Discard

	service := &Service{
		Db:     db,
		Logger: logger,
		Config: models.Config{
			AppURL:      "http://localhost:3000",
			AccessTTL:   15 * time.Minute,
			RefreshTTL:  168 * time.Hour,
			MailTimeout: time.Second,
		},
	}
	service.Strategy = &gateway.JWTStrategy{
		Auth: &gateway.JWTAuth{
			Key:        []byte("0123456789abcdef"),
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 168 * time.Hour,
		},
		Lookup: service.LookupPrincipal,
	}

	app := fiber.New()
	app.Post("/signup", service.Signup)
	app.Post("/email", service.RequestVerifyCode)
	app.Post("/verify", service.ConfirmVerifyCode)
	app.Post("/login", service.Login)
	app.Get("/userInfo", gateway.AuthMiddleware(service.Strategy), service.UserInfo)
	app.Post("/logout", service.Logout)
	app.Get("/auth/:provider", service.OAuthRedirect)
	app.Get("/auth/:provider/callback", service.OAuthCallback)
	return service, app
}

func postJSON(t *testing.T, app *fiber.App, target string, body interface{}, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("POST %s: %v", target, err)
	}
	return resp
}

func getWithCookies(t *testing.T, app *fiber.App, target string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("GET %s: %v", target, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func responseCookie(resp *http.Response, name string) *http.Cookie {
	for _, ck := range resp.Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

// pendingCode reads the verification code straight from the store, standing
// in for the email the user would have received.
func pendingCode(t *testing.T, db *gorm.DB, email string) string {
	t.Helper()
	account, err := models.GetAccountByEmailAndProvider(email, "", db)
	if err != nil {
		t.Fatalf("no pending account for %s: %v", email, err)
	}
	return account.VerifyToken
}
