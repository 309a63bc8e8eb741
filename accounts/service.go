// Package accounts contains the HTTP surface of the auth service: local
// signup with emailed verification codes, login, session introspection,
// logout, and the federated OAuth callbacks.
package accounts

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/infothings/auth/apperr"
	"github.com/infothings/auth/gateway"
	"github.com/infothings/auth/mail"
	"github.com/infothings/auth/models"
	"github.com/infothings/auth/oauth"
)

// Service carries the collaborators every handler needs.
type Service struct {
	Db        *gorm.DB
	Logger    *logrus.Logger
	Config    models.Config
	Strategy  gateway.CredentialStrategy
	Mailer    *mail.Mailer
	Providers *oauth.Registry
}

// LookupPrincipal re-confirms a credential's principal against the live
// account store. Used by the credential strategies; wire it into whichever
// strategy the deployment selects.
func (s *Service) LookupPrincipal(ctx context.Context, id uint) (gateway.Principal, error) {
	account, err := models.GetAccountByID(id, s.Db.WithContext(ctx))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return gateway.Principal{}, apperr.ErrCredentialsInvalid
	}
	if err != nil {
		return gateway.Principal{}, apperr.Wrap(err, apperr.ErrDatabase, "")
	}
	return gateway.Principal{
		ID:       account.ID,
		Email:    account.Email,
		Provider: account.Provider,
	}, nil
}
