package gateway

import (
	"github.com/gofiber/fiber/v2"

	"github.com/infothings/auth/apperr"
)

// AuthMiddleware rejects requests without a valid credential and stores the
// recovered principal in the request locals for downstream handlers.
func AuthMiddleware(strategy CredentialStrategy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := strategy.Validate(c)
		if err != nil {
			return c.Status(apperr.Status(err)).JSON(apperr.Payload(err))
		}
		c.Locals("account_id", p.ID)
		c.Locals("email", p.Email)
		c.Locals("provider", p.Provider)
		return c.Next()
	}
}

// PrincipalFromCtx returns the principal set by AuthMiddleware, if any.
func PrincipalFromCtx(c *fiber.Ctx) (Principal, bool) {
	id, ok := c.Locals("account_id").(uint)
	if !ok || id == 0 {
		return Principal{}, false
	}
	email, _ := c.Locals("email").(string)
	provider, _ := c.Locals("provider").(string)
	return Principal{ID: id, Email: email, Provider: provider}, true
}

// NoCache stops clients from replaying authenticated pages after logout.
func NoCache() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Next()
	}
}
