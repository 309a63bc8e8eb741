package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/infothings/auth/apperr"
	"github.com/infothings/auth/session"
)

// Principal is the authenticated identity recovered from a credential.
type Principal struct {
	ID       uint
	Email    string
	Provider string
}

// PrincipalLookup re-confirms a principal against the live account store.
// It must return apperr.ErrCredentialsInvalid when the account is gone.
type PrincipalLookup func(ctx context.Context, id uint) (Principal, error)

// CredentialStrategy converts a verified principal into a transportable
// artifact and back. One implementation is chosen per deployment.
type CredentialStrategy interface {
	// Issue attaches a fresh credential for the principal to the response.
	Issue(c *fiber.Ctx, p Principal, remember bool) error
	// Validate recovers the principal from the request, transparently
	// renewing a near-dead credential where the strategy allows it.
	Validate(c *fiber.Ctx) (Principal, error)
	// Destroy invalidates the request's credential. Idempotent.
	Destroy(c *fiber.Ctx) error
}

// JWTStrategy transports the credential as an access/refresh cookie pair.
// Only the access token ever auto-renews; a dead refresh token means a new
// login. The short access TTL bounds the damage of a leaked token while the
// refresh token keeps "remember me" convenient.
type JWTStrategy struct {
	Auth    *JWTAuth
	Cookies CookieConfig
	Lookup  PrincipalLookup
}

func (s *JWTStrategy) Issue(c *fiber.Ctx, p Principal, remember bool) error {
	access, err := s.Auth.GenerateAccess(p.ID, p.Email)
	if err != nil {
		return apperr.Wrap(err, apperr.ErrInternal, "")
	}
	// no Expires: the access cookie dies with the browser session
	s.Cookies.Set(c, AccessCookie, access, time.Time{})

	if remember {
		refresh, err := s.Auth.GenerateRefresh(p.ID, p.Email)
		if err != nil {
			return apperr.Wrap(err, apperr.ErrInternal, "")
		}
		s.Cookies.Set(c, RefreshCookie, refresh, time.Now().Add(s.Auth.RefreshTTL))
	}
	return nil
}

func (s *JWTStrategy) Validate(c *fiber.Ctx) (Principal, error) {
	access := c.Cookies(AccessCookie)
	refresh := c.Cookies(RefreshCookie)
	if access == "" && refresh == "" {
		return Principal{}, apperr.ErrCredentialsMissing
	}

	if access != "" {
		claims, err := s.Auth.VerifyJWT(access)
		if err == nil {
			return s.confirm(c, claims)
		}
		if !errors.Is(err, ErrTokenExpired) && refresh == "" {
			return Principal{}, apperr.ErrCredentialsInvalid
		}
		// expired access falls through to the refresh path
	}

	if refresh == "" {
		return Principal{}, apperr.ErrCredentialsExpired
	}
	claims, err := s.Auth.VerifyJWT(refresh)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return Principal{}, apperr.ErrCredentialsExpired
		}
		return Principal{}, apperr.ErrCredentialsInvalid
	}
	p, cerr := s.confirm(c, claims)
	if cerr != nil {
		return Principal{}, cerr
	}
	// silent renewal: a new access token only, never a new refresh token
	renewed, err := s.Auth.GenerateAccess(p.ID, p.Email)
	if err != nil {
		return Principal{}, apperr.Wrap(err, apperr.ErrInternal, "")
	}
	s.Cookies.Set(c, AccessCookie, renewed, time.Time{})
	return p, nil
}

// confirm re-checks the claims against a live account; a deleted account or
// changed email invalidates every outstanding token for it.
func (s *JWTStrategy) confirm(c *fiber.Ctx, claims *TokenClaims) (Principal, error) {
	p, err := s.Lookup(c.UserContext(), claims.UserID)
	if err != nil {
		return Principal{}, err
	}
	if p.Email != claims.Email {
		return Principal{}, apperr.ErrCredentialsInvalid
	}
	return p, nil
}

func (s *JWTStrategy) Destroy(c *fiber.Ctx) error {
	if c.Cookies(RefreshCookie) != "" {
		s.Cookies.Clear(c, RefreshCookie)
	}
	s.Cookies.Clear(c, AccessCookie)
	return nil
}

// SessionStrategy transports the credential as an opaque session id backed
// by a server-side store record.
type SessionStrategy struct {
	Store   session.Store
	Cookies CookieConfig
	Lookup  PrincipalLookup
	// RememberTTL is the absolute session lifetime when the caller asked to
	// stay logged in. SessionTTL is the idle window for browser-session
	// logins; Validate slides it on activity.
	RememberTTL time.Duration
	SessionTTL  time.Duration
}

func (s *SessionStrategy) Issue(c *fiber.Ctx, p Principal, remember bool) error {
	id, err := session.NewID()
	if err != nil {
		return apperr.Wrap(err, apperr.ErrInternal, "")
	}
	now := time.Now()
	ttl := s.SessionTTL
	if remember {
		ttl = s.RememberTTL
	}
	rec := session.Session{
		ID:        id,
		AccountID: p.ID,
		Remember:  remember,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.Store.Create(c.UserContext(), rec); err != nil {
		return apperr.Wrap(err, apperr.ErrInternal, "")
	}
	expires := time.Time{}
	if remember {
		expires = rec.ExpiresAt
	}
	s.Cookies.Set(c, SessionCookie, id, expires)
	return nil
}

func (s *SessionStrategy) Validate(c *fiber.Ctx) (Principal, error) {
	id := c.Cookies(SessionCookie)
	if id == "" {
		return Principal{}, apperr.ErrCredentialsMissing
	}
	rec, err := s.Store.Get(c.UserContext(), id)
	if err != nil {
		return Principal{}, apperr.Wrap(err, apperr.ErrInternal, "")
	}
	if rec == nil {
		return Principal{}, apperr.ErrCredentialsExpired
	}
	now := time.Now()
	if rec.Expired(now) {
		_ = s.Store.Delete(c.UserContext(), id)
		return Principal{}, apperr.ErrCredentialsExpired
	}
	if !rec.Remember {
		// slide the idle window; a failed refresh only shortens the session
		rec.ExpiresAt = now.Add(s.SessionTTL)
		_ = s.Store.Create(c.UserContext(), *rec)
	}
	return s.Lookup(c.UserContext(), rec.AccountID)
}

func (s *SessionStrategy) Destroy(c *fiber.Ctx) error {
	if id := c.Cookies(SessionCookie); id != "" {
		if err := s.Store.Delete(c.UserContext(), id); err != nil {
			return apperr.Wrap(err, apperr.ErrInternal, "")
		}
	}
	s.Cookies.Clear(c, SessionCookie)
	return nil
}
