package accounts

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/infothings/auth/apperr"
	"github.com/infothings/auth/gateway"
)

const stateCookie = "oauth_state"

// OAuthRedirect sends the browser to the provider's consent page, pinning a
// state nonce in a short-lived cookie for the callback to check.
func (s *Service) OAuthRedirect(c *fiber.Ctx) error {
	provider, err := s.Providers.Get(c.Params("provider"))
	if err != nil {
		return fail(c, apperr.Wrap(err, apperr.ErrUnknownProvider, ""))
	}

	state := uuid.NewString()
	cookies := s.cookieConfig()
	cookies.Set(c, stateCookie, state, time.Now().Add(10*time.Minute))
	return c.Redirect(provider.AuthCodeURL(state), fiber.StatusFound)
}

// OAuthCallback finishes the federated flow: state check, code exchange,
// account resolution and artifact issuance, then a redirect back to the app.
// Failures also redirect, carrying a machine-readable error so the client
// can explain what happened.
func (s *Service) OAuthCallback(c *fiber.Ctx) error {
	provider, err := s.Providers.Get(c.Params("provider"))
	if err != nil {
		return fail(c, apperr.Wrap(err, apperr.ErrUnknownProvider, ""))
	}

	cookies := s.cookieConfig()
	expected := c.Cookies(stateCookie)
	cookies.Clear(c, stateCookie)
	if expected == "" || c.Query("state") != expected {
		return s.redirectError(c, apperr.ErrExchangeFailed)
	}
	if providerErr := c.Query("error"); providerErr != "" {
		s.Logger.WithField("provider", provider.Name()).WithField("error", providerErr).
			Info("oauth consent denied")
		return s.redirectError(c, apperr.ErrExchangeFailed)
	}
	code := c.Query("code")
	if code == "" {
		return s.redirectError(c, apperr.ErrExchangeFailed)
	}

	identity, err := provider.Exchange(c.UserContext(), code)
	if err != nil {
		s.Logger.WithField("provider", provider.Name()).WithError(err).Warn("oauth exchange failed")
		return s.redirectError(c, apperr.ErrExchangeFailed)
	}

	account, err := s.resolveFederated(identity)
	if err != nil {
		return s.redirectError(c, err)
	}

	principal := gateway.Principal{ID: account.ID, Email: account.Email, Provider: account.Provider}
	if err := s.Strategy.Issue(c, principal, false); err != nil {
		return s.redirectError(c, err)
	}
	return c.Redirect(s.Config.AppURL, fiber.StatusFound)
}

// redirectError bounces the browser back to the app with the failure code
// (and, for provider collisions, the owning provider) in the query string.
func (s *Service) redirectError(c *fiber.Ctx, err error) error {
	target, parseErr := url.Parse(s.Config.AppURL)
	if parseErr != nil {
		return fail(c, err)
	}
	q := target.Query()
	q.Set("error", apperr.Code(err))
	if e, ok := apperr.As(err); ok {
		if owner, ok := e.Fields["provider"].(string); ok {
			q.Set("provider", owner)
		}
		if e.Message != "" {
			q.Set("message", e.Message)
		}
	}
	target.RawQuery = q.Encode()
	return c.Redirect(target.String(), fiber.StatusFound)
}

func (s *Service) cookieConfig() gateway.CookieConfig {
	return gateway.CookieConfig{
		Domain:   s.Config.CookieDomain,
		SameSite: s.Config.CookieSameSite,
		Secure:   s.Config.CookieSecure,
	}
}
