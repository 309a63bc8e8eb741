package main

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/infothings/auth/accounts"
	"github.com/infothings/auth/gateway"
	"github.com/infothings/auth/mail"
	"github.com/infothings/auth/models"
	"github.com/infothings/auth/oauth"
	"github.com/infothings/auth/session"
	"github.com/infothings/auth/store"
)

var logger = logrus.New()

func main() {
	cfg, err := models.LoadConfig()
	if err != nil {
		logger.Fatalf("unable to parse config: %v", err)
	}
	configureLogger(cfg)

	db, err := store.Open(cfg.DatabaseDSN, cfg.IsDebug)
	if err != nil {
		logger.Fatalf("unable to open account store: %v", err)
	}

	service := &accounts.Service{
		Db:        db,
		Logger:    logger,
		Config:    cfg,
		Mailer:    newMailer(cfg),
		Providers: newProviders(cfg),
	}
	service.Strategy = newStrategy(cfg, service)

	app := newApp(service)
	logger.WithField("port", cfg.Port).WithField("strategy", cfg.Strategy).Info("auth service starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}

func newApp(service *accounts.Service) *fiber.App {
	app := fiber.New()
	app.Use(gateway.RequestID())
	app.Use(gateway.RequestLogger(service.Logger))
	app.Use(gateway.NoCache())

	app.Post("/signup", service.Signup)
	app.Post("/email", service.RequestVerifyCode)
	app.Post("/verify", service.ConfirmVerifyCode)
	app.Post("/login", service.Login)
	app.Get("/userInfo", gateway.AuthMiddleware(service.Strategy), service.UserInfo)
	app.Post("/logout", service.Logout)
	app.Get("/auth/:provider", service.OAuthRedirect)
	app.Get("/auth/:provider/callback", service.OAuthCallback)
	return app
}

// newStrategy picks the credential transport for this deployment. The
// selection is fixed at construction; nothing reads it from the environment
// afterwards.
func newStrategy(cfg models.Config, service *accounts.Service) gateway.CredentialStrategy {
	cookies := gateway.CookieConfig{
		Domain:   cfg.CookieDomain,
		SameSite: cfg.CookieSameSite,
		Secure:   cfg.CookieSecure,
	}
	if strings.EqualFold(cfg.Strategy, "session") {
		var sessions session.Store
		if cfg.RedisAddr != "" {
			sessions = session.NewRedisStore(redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
			}))
		} else {
			logger.Warn("no redis configured, sessions are process-local")
			sessions = session.NewMemoryStore()
		}
		return &gateway.SessionStrategy{
			Store:       sessions,
			Cookies:     cookies,
			Lookup:      service.LookupPrincipal,
			RememberTTL: cfg.RefreshTTL,
			SessionTTL:  cfg.SessionTTL,
		}
	}
	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required for the jwt strategy")
	}
	return &gateway.JWTStrategy{
		Auth: &gateway.JWTAuth{
			Key:        []byte(cfg.JWTSecret),
			AccessTTL:  cfg.AccessTTL,
			RefreshTTL: cfg.RefreshTTL,
		},
		Cookies: cookies,
		Lookup:  service.LookupPrincipal,
	}
}

func newMailer(cfg models.Config) *mail.Mailer {
	mailer, err := mail.New(mail.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		Sender:   cfg.MailSender,
	})
	if err != nil {
		logger.Warnf("mail disabled: %v", err)
		return nil
	}
	return mailer
}

func newProviders(cfg models.Config) *oauth.Registry {
	var list []oauth.Provider
	if cfg.GoogleClientID != "" {
		list = append(list, oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL))
	}
	if cfg.KakaoClientID != "" {
		list = append(list, oauth.NewKakao(cfg.KakaoClientID, cfg.KakaoClientSecret, cfg.KakaoRedirectURL))
	}
	return oauth.NewRegistry(list...)
}
