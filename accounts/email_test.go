package accounts

import (
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/infothings/auth/mail"
	"github.com/infothings/auth/models"
)

type fakeDialer struct {
	mu   sync.Mutex
	sent int
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent += len(m)
	return nil
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sent
}

func TestRequestVerifyCode_OwnedEmail(t *testing.T) {
	service, app := testService(t)
	seed := models.Account{Email: "g@x.com", Provider: models.ProviderGoogle, Verified: true}
	if err := service.Db.Create(&seed).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp := postJSON(t, app, "/email", map[string]string{"email": "g@x.com"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	// the client steers the user to the method they first used
	if body["provider"] != models.ProviderGoogle {
		t.Errorf("provider = %v, want %s", body["provider"], models.ProviderGoogle)
	}
	if _, err := models.GetAccountByEmailAndProvider("g@x.com", "", service.Db); err == nil {
		t.Error("owned email must not grow a pending account")
	}
}

func TestRequestVerifyCode_SupersedesEarlierCode(t *testing.T) {
	service, app := testService(t)

	postJSON(t, app, "/email", map[string]string{"email": "a@x.com"})
	first := pendingCode(t, service.Db, "a@x.com")
	postJSON(t, app, "/email", map[string]string{"email": "a@x.com"})
	second := pendingCode(t, service.Db, "a@x.com")
	if first == second {
		t.Fatal("second request did not rotate the code")
	}

	// the superseded code no longer verifies
	resp := postJSON(t, app, "/verify", map[string]string{"email": "a@x.com", "token": first})
	if body := decodeBody(t, resp); body["code"] != "invalid_token" {
		t.Errorf("code = %v, want invalid_token", body["code"])
	}
	resp = postJSON(t, app, "/verify", map[string]string{"email": "a@x.com", "token": second})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("fresh code rejected: status = %d", resp.StatusCode)
	}
}

func TestRequestVerifyCode_MailFailureDoesNotFailRequest(t *testing.T) {
	service, app := testService(t)
	service.Mailer = mail.NewWithDialer(&fakeDialer{err: errors.New("smtp down")}, "auth@example.com")

	resp := postJSON(t, app, "/email", map[string]string{"email": "a@x.com"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 even when mail fails", resp.StatusCode)
	}
	// the pending row was still written; signup can proceed once the user
	// gets a working code
	if code := pendingCode(t, service.Db, "a@x.com"); len(code) != 6 {
		t.Errorf("pending code = %q, want 6 chars", code)
	}
}

func TestRequestVerifyCode_SendsMail(t *testing.T) {
	service, app := testService(t)
	dialer := &fakeDialer{}
	service.Mailer = mail.NewWithDialer(dialer, "auth@example.com")

	resp := postJSON(t, app, "/email", map[string]string{"email": "a@x.com"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	// delivery is async; give the goroutine a moment
	deadline := time.Now().Add(2 * time.Second)
	for dialer.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if dialer.count() != 1 {
		t.Errorf("sent = %d messages, want 1", dialer.count())
	}
}

func TestConfirmVerifyCode_Failures(t *testing.T) {
	service, app := testService(t)
	postJSON(t, app, "/email", map[string]string{"email": "a@x.com"})
	code := pendingCode(t, service.Db, "a@x.com")

	t.Run("unknown_email", func(t *testing.T) {
		resp := postJSON(t, app, "/verify", map[string]string{"email": "b@x.com", "token": code})
		if body := decodeBody(t, resp); body["code"] != "invalid_token" {
			t.Errorf("code = %v, want invalid_token", body["code"])
		}
	})

	t.Run("wrong_token", func(t *testing.T) {
		wrong := "000000"
		if wrong == code {
			wrong = "ffffff"
		}
		resp := postJSON(t, app, "/verify", map[string]string{"email": "a@x.com", "token": wrong})
		if body := decodeBody(t, resp); body["code"] != "invalid_token" {
			t.Errorf("code = %v, want invalid_token", body["code"])
		}
	})

	t.Run("stale_token", func(t *testing.T) {
		stale := time.Now().Add(-models.VerifyCodeTTL - time.Second)
		err := service.Db.Model(&models.Account{}).
			Where("email = ? AND provider = ''", "a@x.com").
			Update("verify_issued_at", stale).Error
		if err != nil {
			t.Fatalf("age the code: %v", err)
		}
		resp := postJSON(t, app, "/verify", map[string]string{"email": "a@x.com", "token": code})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
		if body := decodeBody(t, resp); body["code"] != "token_expired" {
			t.Errorf("code = %v, want token_expired", body["code"])
		}
	})
}
