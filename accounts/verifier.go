package accounts

import (
	"errors"

	"gorm.io/gorm"

	"github.com/infothings/auth/apperr"
	"github.com/infothings/auth/models"
)

// verifyCredentials checks a local email+password pair. Lookup is restricted
// to provider=Email: accounts created through federation are never password
// authenticable. Read-only; the caller decides how much failure detail to
// expose.
func (s *Service) verifyCredentials(email, password string) (models.Account, error) {
	account, err := models.GetAccountByEmailAndProvider(email, models.ProviderEmail, s.Db)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Account{}, apperr.ErrNoAccount
	}
	if err != nil {
		return models.Account{}, apperr.Wrap(err, apperr.ErrDatabase, "")
	}
	if !account.CheckPassword(password) {
		return models.Account{}, apperr.ErrWrongPassword
	}
	return account, nil
}

// loginFailure collapses account-not-found and wrong-password into one
// unified message unless the deployment opted into detailed errors. The
// unified default closes the account-enumeration gap on /login.
func (s *Service) loginFailure(err error) error {
	if s.Config.LoginDetailErrors {
		return err
	}
	if errors.Is(err, apperr.ErrNoAccount) || errors.Is(err, apperr.ErrWrongPassword) {
		return apperr.ErrInvalidCredentials
	}
	return err
}
