package accounts

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/infothings/auth/apperr"
	"github.com/infothings/auth/gateway"
	"github.com/infothings/auth/models"
)

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Remember bool   `json:"remember"`
}

// Signup registers a local email+password account. With the verified-email
// flow (default) only a pending account that requested a code can be
// promoted; the direct variant creates the account outright when the email
// is free.
func (s *Service) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := bindJSON(c, &req); err != nil {
		return fail(c, err)
	}

	if s.Config.DirectSignup {
		return s.signupDirect(c, req)
	}

	if existing, err := models.GetAccountByEmail(req.Email, s.Db); err == nil {
		return fail(c, apperr.WithFields(apperr.ErrEmailRegistered, fiber.Map{"provider": existing.Provider}))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, apperr.Wrap(err, apperr.ErrDatabase, ""))
	}

	account := models.Account{Password: req.Password}
	if err := account.HashPassword(); err != nil {
		return fail(c, apperr.Wrap(err, apperr.ErrInternal, ""))
	}
	rows, err := models.PromotePending(req.Email, account.PasswordHash, s.Db)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// an owner appeared since the pre-check; the email-owner index
			// blocked the promotion
			return fail(c, apperr.ErrEmailRegistered)
		}
		return fail(c, apperr.Wrap(err, apperr.ErrDatabase, ""))
	}
	if rows == 0 {
		return fail(c, apperr.ErrSignupNotAllowed)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"result": "Signup success"})
}

func (s *Service) signupDirect(c *fiber.Ctx, req signupRequest) error {
	if existing, err := models.GetAccountByEmail(req.Email, s.Db); err == nil {
		return fail(c, apperr.WithFields(apperr.ErrEmailRegistered, fiber.Map{"provider": existing.Provider}))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, apperr.Wrap(err, apperr.ErrDatabase, ""))
	}

	account := models.Account{
		Email:    req.Email,
		Password: req.Password,
		Provider: models.ProviderEmail,
		Verified: true,
	}
	if err := account.HashPassword(); err != nil {
		return fail(c, apperr.Wrap(err, apperr.ErrInternal, ""))
	}
	if err := s.Db.Create(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a creation race; same outcome as the pre-check
			return fail(c, apperr.ErrEmailRegistered)
		}
		return fail(c, apperr.Wrap(err, apperr.ErrDatabase, ""))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"result": "Signup success"})
}

// Login verifies a local credential pair and attaches a fresh artifact to
// the response through the configured strategy.
func (s *Service) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		return fail(c, err)
	}

	account, err := s.verifyCredentials(req.Email, req.Password)
	if err != nil {
		s.Logger.WithFields(map[string]interface{}{
			"request_id": gateway.RequestIDFromCtx(c),
			"code":       apperr.Code(err),
		}).Info("login rejected")
		return fail(c, s.loginFailure(err))
	}

	principal := gateway.Principal{ID: account.ID, Email: account.Email, Provider: account.Provider}
	if err := s.Strategy.Issue(c, principal, req.Remember); err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"result":   "Login success",
		"email":    account.Email,
		"provider": account.Provider,
	})
}

// UserInfo reports the authenticated principal, silently renewing an
// expired access token when the strategy allows it. Behind AuthMiddleware
// the principal is already in the request locals.
func (s *Service) UserInfo(c *fiber.Ctx) error {
	principal, ok := gateway.PrincipalFromCtx(c)
	if !ok {
		var err error
		principal, err = s.Strategy.Validate(c)
		if err != nil {
			return fail(c, err)
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"result":   "Login success",
		"email":    principal.Email,
		"provider": principal.Provider,
	})
}

// Logout destroys the presented credential. Logging out twice is fine.
func (s *Service) Logout(c *fiber.Ctx) error {
	if err := s.Strategy.Destroy(c); err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"result": "Logged Out Successfully"})
}
