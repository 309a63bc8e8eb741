package gateway

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Cookie names used by the two strategies.
const (
	AccessCookie  = "access_jwt"
	RefreshCookie = "refresh_jwt"
	SessionCookie = "session_id"
)

// CookieConfig fixes the transport attributes of every auth cookie for a
// deployment. SameSite/Secure are deliberately configuration, not code.
type CookieConfig struct {
	Domain   string
	SameSite string
	Secure   bool
}

// Set issues an HttpOnly cookie; a zero expires makes it a browser-session
// cookie.
func (cc CookieConfig) Set(c *fiber.Ctx, name, value string, expires time.Time) {
	cookie := &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cc.Domain,
		HTTPOnly: true,
		Secure:   cc.Secure,
		SameSite: cc.SameSite,
	}
	if !expires.IsZero() {
		cookie.Expires = expires
	}
	c.Cookie(cookie)
}

// Clear expires the named cookie on the client.
func (cc CookieConfig) Clear(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   cc.Domain,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   cc.Secure,
		SameSite: cc.SameSite,
	})
}
