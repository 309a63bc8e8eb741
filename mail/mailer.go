// Package mail delivers the signup verification codes. Delivery is
// best-effort: a failed or slow send is logged by the caller and never fails
// the signup request that triggered it.
package mail

import (
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SendDialer sends messages over SMTP; gomail.Dialer implements it.
type SendDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer composes and sends transactional auth mail.
type Mailer struct {
	dialer SendDialer
	sender string
}

// Config carries the SMTP settings for outbound mail.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

// New builds a Mailer over a real SMTP dialer. Returns an error when the
// config cannot possibly deliver mail.
func New(cfg Config) (*Mailer, error) {
	if cfg.Host == "" || cfg.Sender == "" {
		return nil, errors.New("mail: host and sender are required")
	}
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &Mailer{dialer: dialer, sender: cfg.Sender}, nil
}

// NewWithDialer builds a Mailer over a caller-supplied dialer. Used by tests
// and by deployments with custom transport.
func NewWithDialer(dialer SendDialer, sender string) *Mailer {
	return &Mailer{dialer: dialer, sender: sender}
}

// SendVerifyCode emails the 6-character signup verification code.
func (m *Mailer) SendVerifyCode(to, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your signup verification code")
	msg.SetBody("text/plain", fmt.Sprintf("Your verification code is %s. It expires in 3 minutes.", code))
	return m.dialer.DialAndSend(msg)
}
