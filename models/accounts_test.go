package models

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&Account{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestAccount_Password(t *testing.T) {
	account := Account{Password: "super-secret-1"}
	if err := account.HashPassword(); err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if account.Password != "" {
		t.Error("plaintext password must be cleared after hashing")
	}
	if account.PasswordHash == "super-secret-1" {
		t.Error("password stored in the clear")
	}
	if !account.CheckPassword("super-secret-1") {
		t.Error("CheckPassword() rejected the right password")
	}
	if account.CheckPassword("wrong-password") {
		t.Error("CheckPassword() accepted the wrong password")
	}
}

func TestNewVerifyCode(t *testing.T) {
	hex6 := regexp.MustCompile(`^[0-9a-f]{6}$`)
	code, err := NewVerifyCode()
	if err != nil {
		t.Fatalf("NewVerifyCode() error = %v", err)
	}
	if !hex6.MatchString(code) {
		t.Errorf("NewVerifyCode() = %q, want 6 lowercase hex chars", code)
	}
	again, _ := NewVerifyCode()
	if code == again {
		t.Errorf("two codes came out identical: %q", code)
	}
}

func TestAccount_VerifyCodeFresh(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		account Account
		want    bool
	}{
		{"fresh", Account{VerifyToken: "abc123", VerifyIssuedAt: now.Add(-time.Minute)}, true},
		{"at_boundary", Account{VerifyToken: "abc123", VerifyIssuedAt: now.Add(-VerifyCodeTTL)}, true},
		{"stale", Account{VerifyToken: "abc123", VerifyIssuedAt: now.Add(-VerifyCodeTTL - time.Second)}, false},
		{"no_token", Account{VerifyIssuedAt: now}, false},
		{"never_issued", Account{VerifyToken: "abc123"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.account.VerifyCodeFresh(now); got != tt.want {
				t.Errorf("VerifyCodeFresh() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpsertPending(t *testing.T) {
	db := testDB(t)
	first, err := UpsertPending("a@x.com", "aaaaaa", time.Now(), db)
	if err != nil {
		t.Fatalf("UpsertPending() error = %v", err)
	}

	// a second request for the same email supersedes the code in place
	second, err := UpsertPending("a@x.com", "bbbbbb", time.Now(), db)
	if err != nil {
		t.Fatalf("UpsertPending() again error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("second request created a new row: %d then %d", first.ID, second.ID)
	}
	got, err := GetAccountByEmailAndProvider("a@x.com", "", db)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.VerifyToken != "bbbbbb" {
		t.Errorf("VerifyToken = %q, want the superseding code", got.VerifyToken)
	}
}

func TestPromotePending(t *testing.T) {
	db := testDB(t)
	if _, err := UpsertPending("a@x.com", "aaaaaa", time.Now(), db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rows, err := PromotePending("a@x.com", "$2a$10$hash", db)
	if err != nil {
		t.Fatalf("PromotePending() error = %v", err)
	}
	if rows != 1 {
		t.Fatalf("rows = %d, want 1", rows)
	}
	got, err := GetAccountByEmail("a@x.com", db)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Provider != ProviderEmail {
		t.Errorf("Provider = %q, want %q", got.Provider, ProviderEmail)
	}
	if got.VerifyToken != "" {
		t.Error("verification code must be cleared on promotion")
	}
	if !got.Verified {
		t.Error("promoted account must be verified")
	}

	// promoting twice finds no pending row left
	rows, err = PromotePending("a@x.com", "$2a$10$hash", db)
	if err != nil {
		t.Fatalf("PromotePending() twice error = %v", err)
	}
	if rows != 0 {
		t.Errorf("rows = %d, want 0 on second promotion", rows)
	}
}

func TestOwnedEmailIsUniqueAcrossProviders(t *testing.T) {
	db := testDB(t)
	owner := Account{Email: "a@x.com", Provider: ProviderEmail, PasswordHash: "$2a$10$hash", Verified: true}
	if err := db.Create(&owner).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	rival := Account{Email: "a@x.com", Provider: ProviderGoogle, GoogleID: "sub-123", Verified: true}
	if err := db.Create(&rival).Error; !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("second owner for the email: err = %v, want ErrDuplicatedKey", err)
	}

	// a pending row for an owned email is outside the owner partition
	pending := Account{Email: "a@x.com", VerifyToken: "aaaaaa", VerifyIssuedAt: time.Now()}
	if err := db.Create(&pending).Error; err != nil {
		t.Errorf("pending row blocked by the owner index: %v", err)
	}
}

func TestPromotePending_BlockedByExistingOwner(t *testing.T) {
	db := testDB(t)
	if _, err := UpsertPending("a@x.com", "aaaaaa", time.Now(), db); err != nil {
		t.Fatalf("seed pending: %v", err)
	}
	owner := Account{Email: "a@x.com", Provider: ProviderGoogle, GoogleID: "sub-123", Verified: true}
	if err := db.Create(&owner).Error; err != nil {
		t.Fatalf("seed owner: %v", err)
	}

	_, err := PromotePending("a@x.com", "$2a$10$hash", db)
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("promotion under an existing owner: err = %v, want ErrDuplicatedKey", err)
	}
	// the email still has exactly one owner
	var owners int64
	db.Model(&Account{}).Where("email = ? AND provider <> ''", "a@x.com").Count(&owners)
	if owners != 1 {
		t.Errorf("owners = %d, want 1", owners)
	}
}

func TestGetAccountByEmail_SkipsPending(t *testing.T) {
	db := testDB(t)
	if _, err := UpsertPending("a@x.com", "aaaaaa", time.Now(), db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := GetAccountByEmail("a@x.com", db); err != gorm.ErrRecordNotFound {
		t.Errorf("pending account leaked through owner lookup: err = %v", err)
	}
}

func TestGetAccountByProviderID(t *testing.T) {
	db := testDB(t)
	seed := Account{Email: "g@x.com", Provider: ProviderGoogle, GoogleID: "sub-123", Verified: true}
	if err := db.Create(&seed).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := GetAccountByProviderID(ProviderGoogle, "sub-123", db)
	if err != nil {
		t.Fatalf("GetAccountByProviderID() error = %v", err)
	}
	if got.Email != "g@x.com" {
		t.Errorf("Email = %q, want g@x.com", got.Email)
	}
	if _, err := GetAccountByProviderID(ProviderKakao, "sub-123", db); err != gorm.ErrRecordNotFound {
		t.Errorf("wrong provider column matched: err = %v", err)
	}
	if _, err := GetAccountByProviderID("Unknown", "sub-123", db); err != gorm.ErrRecordNotFound {
		t.Errorf("unknown provider: err = %v, want ErrRecordNotFound", err)
	}
}
