package accounts

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/infothings/auth/apperr"
	"github.com/infothings/auth/models"
	"github.com/infothings/auth/oauth"
)

// resolveFederated reconciles a provider's identity assertion with the
// account store: an email already owned by the same provider logs in, an
// email owned by another provider is rejected naming the true owner, and an
// unknown email gets a fresh provider-verified account. Emails are never
// silently re-owned across providers.
func (s *Service) resolveFederated(id oauth.Identity) (models.Account, error) {
	account, err := models.GetAccountByEmail(id.Email, s.Db)
	if err == nil {
		if account.Provider != id.Provider {
			return models.Account{}, providerMismatch(account.Provider)
		}
		// idempotent login; backfill the external key if an older record
		// predates it
		if providerIDOf(&account, id.Provider) == "" {
			if err := s.setProviderID(&account, id); err != nil {
				return models.Account{}, apperr.Wrap(err, apperr.ErrDatabase, "")
			}
		}
		return account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Account{}, apperr.Wrap(err, apperr.ErrDatabase, "")
	}

	// email ownership was proven by the provider; no password ever exists
	// on this path
	account = models.Account{
		Email:    id.Email,
		Provider: id.Provider,
		Verified: true,
	}
	assignProviderID(&account, id)
	if err := s.Db.Create(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// concurrent duplicate callback; settle on whoever won
			return s.relookup(id)
		}
		return models.Account{}, apperr.Wrap(err, apperr.ErrDatabase, "")
	}
	return account, nil
}

// relookup resolves a lost creation race as an ordinary login or, when the
// email ended up under another provider, as the usual mismatch rejection.
func (s *Service) relookup(id oauth.Identity) (models.Account, error) {
	if account, err := models.GetAccountByProviderID(id.Provider, id.ProviderID, s.Db); err == nil {
		return account, nil
	}
	account, err := models.GetAccountByEmail(id.Email, s.Db)
	if err != nil {
		return models.Account{}, apperr.Wrap(err, apperr.ErrDatabase, "")
	}
	if account.Provider != id.Provider {
		return models.Account{}, providerMismatch(account.Provider)
	}
	return account, nil
}

func (s *Service) setProviderID(account *models.Account, id oauth.Identity) error {
	assignProviderID(account, id)
	column := "google_id"
	if id.Provider == models.ProviderKakao {
		column = "kakao_id"
	}
	return s.Db.Model(account).Update(column, id.ProviderID).Error
}

func assignProviderID(account *models.Account, id oauth.Identity) {
	switch id.Provider {
	case models.ProviderGoogle:
		account.GoogleID = id.ProviderID
	case models.ProviderKakao:
		account.KakaoID = id.ProviderID
	}
}

func providerIDOf(account *models.Account, provider string) string {
	switch provider {
	case models.ProviderGoogle:
		return account.GoogleID
	case models.ProviderKakao:
		return account.KakaoID
	}
	return ""
}

func providerMismatch(owner string) error {
	err := apperr.WithFields(apperr.ErrProviderMismatch, map[string]any{"provider": owner})
	err.Message = fmt.Sprintf("this email is registered via %s, please log in with the method you first used", owner)
	return err
}
