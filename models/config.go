package models

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config carries every deployment knob the service reads. Values come from
// the environment, optionally seeded from a .env file.
type Config struct {
	Port    string `env:"PORT" envDefault:"4000"`
	IsDebug bool   `env:"DEBUG" envDefault:"false"`
	// AppURL is where oauth callbacks redirect the browser back to.
	AppURL string `env:"APP_URL" envDefault:"http://localhost:3000"`

	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"auth.db"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// Strategy selects the credential transport: "jwt" issues an
	// access/refresh cookie pair, "session" a server-side session cookie.
	Strategy   string        `env:"AUTH_STRATEGY" envDefault:"jwt"`
	JWTSecret  string        `env:"JWT_SECRET"`
	AccessTTL  time.Duration `env:"ACCESS_TTL" envDefault:"15m"`
	RefreshTTL time.Duration `env:"REFRESH_TTL" envDefault:"168h"`
	// SessionTTL is the idle window of a browser-session login in session
	// mode; activity slides it. Remember logins use RefreshTTL as an
	// absolute lifetime instead.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	CookieDomain   string `env:"COOKIE_DOMAIN" envDefault:"localhost"`
	CookieSameSite string `env:"COOKIE_SAMESITE" envDefault:"Lax"`
	CookieSecure   bool   `env:"COOKIE_SECURE" envDefault:"true"`

	// DirectSignup skips the emailed verification code and lets /signup
	// create the account outright.
	DirectSignup bool `env:"DIRECT_SIGNUP" envDefault:"false"`
	// LoginDetailErrors restores the variant that tells callers whether the
	// email or the password was wrong. Default keeps the unified message to
	// avoid account enumeration.
	LoginDetailErrors bool `env:"LOGIN_DETAIL_ERRORS" envDefault:"false"`

	SMTPHost     string        `env:"SMTP_HOST"`
	SMTPPort     int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string        `env:"SMTP_USERNAME"`
	SMTPPassword string        `env:"SMTP_PASSWORD"`
	MailSender   string        `env:"MAIL_SENDER"`
	MailTimeout  time.Duration `env:"MAIL_TIMEOUT" envDefault:"10s"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`
	KakaoClientID      string `env:"KAKAO_CLIENT_ID"`
	KakaoClientSecret  string `env:"KAKAO_CLIENT_SECRET"`
	KakaoRedirectURL   string `env:"KAKAO_REDIRECT_URL"`
}

// LoadConfig reads configuration from the environment. A missing .env file
// is not an error.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
