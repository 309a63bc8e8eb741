// Package models contains the account records persisted by the auth service
// and the queries the handlers run against them. Email lookups are
// exact-match: the stored casing is the casing compared against.
package models

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Credential origins. An empty provider marks a pending account that has
// requested email verification but has not finished signup.
const (
	ProviderEmail  = "Email"
	ProviderGoogle = "Google"
	ProviderKakao  = "Kakao"
)

const (
	// VerifyCodeTTL bounds how long an emailed verification code stays valid.
	VerifyCodeTTL = 180 * time.Second

	bcryptCost = 10
)

// Account is one identity record. A given email may appear at most once per
// provider and has at most one non-pending owner; the partial unique index
// on email backstops every racing writer, promotion included.
type Account struct {
	gorm.Model
	Email          string    `json:"email" binding:"required,email" gorm:"size:191;index:idx_email_provider,unique;index:idx_email_owner,unique,where:provider <> ''"`
	Password       string    `json:"password,omitempty" binding:"omitempty,min=8" gorm:"-"`
	PasswordHash   string    `json:"-"`
	Provider       string    `json:"provider" gorm:"size:16;index:idx_email_provider,unique"`
	GoogleID       string    `json:"-" gorm:"size:64;index:idx_google_id,unique,where:google_id <> ''"`
	KakaoID        string    `json:"-" gorm:"size:64;index:idx_kakao_id,unique,where:kakao_id <> ''"`
	VerifyToken    string    `json:"-" gorm:"size:6"`
	VerifyIssuedAt time.Time `json:"-"`
	Verified       bool      `json:"verified" gorm:"default:false"`
}

// HashPassword replaces the transient Password with its bcrypt hash.
func (a *Account) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcryptCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hashed)
	a.Password = ""
	return nil
}

// CheckPassword compares a candidate password against the stored hash.
func (a *Account) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

// VerifyCodeFresh reports whether the stored verification code was issued
// within the TTL as of now.
func (a *Account) VerifyCodeFresh(now time.Time) bool {
	if a.VerifyToken == "" || a.VerifyIssuedAt.IsZero() {
		return false
	}
	return now.Sub(a.VerifyIssuedAt) <= VerifyCodeTTL
}

// NewVerifyCode returns a 6 hex character code for email ownership proof.
func NewVerifyCode() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GetAccountByEmail retrieves the account owning email under any non-pending
// provider. Returns gorm.ErrRecordNotFound when the email is free.
func GetAccountByEmail(email string, db *gorm.DB) (Account, error) {
	var account Account
	err := db.Where("email = ? AND provider <> ''", email).First(&account).Error
	return account, err
}

// GetAccountByEmailAndProvider retrieves the account for an exact
// (email, provider) pair. provider may be empty to address pending accounts.
func GetAccountByEmailAndProvider(email, provider string, db *gorm.DB) (Account, error) {
	var account Account
	err := db.Where("email = ? AND provider = ?", email, provider).First(&account).Error
	return account, err
}

// GetAccountByID loads an account by primary key.
func GetAccountByID(id uint, db *gorm.DB) (Account, error) {
	var account Account
	err := db.First(&account, id).Error
	return account, err
}

// GetAccountByProviderID looks an account up by its external identity key.
func GetAccountByProviderID(provider, providerID string, db *gorm.DB) (Account, error) {
	var account Account
	column := ""
	switch provider {
	case ProviderGoogle:
		column = "google_id"
	case ProviderKakao:
		column = "kakao_id"
	default:
		return account, gorm.ErrRecordNotFound
	}
	err := db.Where(column+" = ?", providerID).First(&account).Error
	return account, err
}

// UpsertPending creates or refreshes the pending account for email, storing a
// new verification code. Any previous code for the same email is superseded.
// The insert goes first; a duplicate means a pending row already exists (or a
// concurrent request just created one) and the code is refreshed in place.
func UpsertPending(email, code string, now time.Time, db *gorm.DB) (Account, error) {
	account := Account{Email: email, VerifyToken: code, VerifyIssuedAt: now}
	err := db.Create(&account).Error
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return account, err
	}
	existing, err := GetAccountByEmailAndProvider(email, "", db)
	if err != nil {
		return existing, err
	}
	err = db.Model(&existing).Updates(map[string]any{
		"verify_token":     code,
		"verify_issued_at": now,
		"verified":         false,
	}).Error
	return existing, err
}

// PromotePending turns a pending account into a local Email account with the
// given password hash, clearing the verification code. Returns the number of
// rows updated; zero means no pending account existed for the email.
func PromotePending(email, passwordHash string, db *gorm.DB) (int64, error) {
	res := db.Model(&Account{}).
		Where("email = ? AND provider = ''", email).
		Updates(map[string]any{
			"password_hash": passwordHash,
			"provider":      ProviderEmail,
			"verify_token":  "",
			"verified":      true,
		})
	return res.RowsAffected, res.Error
}
