package accounts

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/infothings/auth/apperr"
	"github.com/infothings/auth/models"
)

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type verifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Token string `json:"token" binding:"required,len=6"`
}

// RequestVerifyCode starts the local signup flow. When the email is already
// owned, it answers with the owning provider so the client can steer the
// user to the right login method. Otherwise a pending account with a fresh
// code is written and the code is mailed out of band; a new request for the
// same email supersedes any earlier code.
func (s *Service) RequestVerifyCode(c *fiber.Ctx) error {
	var req emailRequest
	if err := bindJSON(c, &req); err != nil {
		return fail(c, err)
	}

	existing, err := models.GetAccountByEmail(req.Email, s.Db)
	if err == nil {
		return c.Status(http.StatusOK).JSON(fiber.Map{"provider": existing.Provider})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, apperr.Wrap(err, apperr.ErrDatabase, ""))
	}

	code, err := models.NewVerifyCode()
	if err != nil {
		return fail(c, apperr.Wrap(err, apperr.ErrInternal, ""))
	}
	if _, err := models.UpsertPending(req.Email, code, time.Now(), s.Db); err != nil {
		return fail(c, apperr.Wrap(err, apperr.ErrDatabase, ""))
	}

	// the pending row is already committed: a slow or failing mail send must
	// not fail the request, the code simply never arrives
	s.sendVerifyCode(req.Email, code)

	return c.Status(http.StatusOK).JSON(fiber.Map{"result": "Check your email for verification code"})
}

func (s *Service) sendVerifyCode(email, code string) {
	if s.Mailer == nil {
		s.Logger.WithField("email", email).Warn("mailer not configured, verification code not sent")
		return
	}
	timeout := s.Config.MailTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	go func() {
		done := make(chan error, 1)
		go func() { done <- s.Mailer.SendVerifyCode(email, code) }()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		select {
		case err := <-done:
			if err != nil {
				s.Logger.WithField("email", email).WithError(err).Warn("verification mail failed")
			}
		case <-ctx.Done():
			s.Logger.WithField("email", email).Warn("verification mail timed out")
		}
	}()
}

// ConfirmVerifyCode closes the email-ownership proof. The code must match a
// pending account for the email and be younger than the TTL; a stale code is
// rejected even when it matches exactly.
func (s *Service) ConfirmVerifyCode(c *fiber.Ctx) error {
	var req verifyRequest
	if err := bindJSON(c, &req); err != nil {
		return fail(c, err)
	}

	account, err := models.GetAccountByEmailAndProvider(req.Email, "", s.Db)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, apperr.ErrInvalidToken)
	}
	if err != nil {
		return fail(c, apperr.Wrap(err, apperr.ErrDatabase, ""))
	}
	if account.VerifyToken == "" || account.VerifyToken != req.Token {
		return fail(c, apperr.ErrInvalidToken)
	}
	if !account.VerifyCodeFresh(time.Now()) {
		return fail(c, apperr.ErrTokenExpired)
	}

	if err := s.Db.Model(&account).Update("verified", true).Error; err != nil {
		return fail(c, apperr.Wrap(err, apperr.ErrDatabase, ""))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"result": "User verified"})
}
