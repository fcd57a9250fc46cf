package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"MediNotify/internal/models"
)

func TestResendSendSuccess(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/emails" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "re_123"})
	}))
	defer srv.Close()

	r := &Resend{APIKey: "key", Domain: "pharmacy.test", BaseURL: srv.URL, Client: srv.Client()}
	id, err := r.Send(context.Background(), Message{
		To:      "jane@example.com",
		Subject: "Order confirmed",
		HTML:    "<p>hi</p>",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != "re_123" {
		t.Fatalf("id = %q", id)
	}
	if gotAuth != "Bearer key" {
		t.Fatalf("auth = %q", gotAuth)
	}
	if gotBody["from"] != "orders@pharmacy.test" {
		t.Fatalf("from = %v", gotBody["from"])
	}
}

func TestResendFallbackSender(t *testing.T) {
	r := &Resend{APIKey: "key"}
	if from := r.from(Message{}); from != resendFallbackFrom {
		t.Fatalf("from = %q", from)
	}
}

func TestResendNon2xxIsSendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid to address"}`))
	}))
	defer srv.Close()

	r := &Resend{APIKey: "key", BaseURL: srv.URL, Client: srv.Client()}
	_, err := r.Send(context.Background(), Message{To: "bad"})

	var sendErr *SendError
	if !errors.As(err, &sendErr) {
		t.Fatalf("expected SendError, got %v", err)
	}
	if sendErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", sendErr.Status)
	}
	if !strings.Contains(sendErr.Body, "invalid to address") {
		t.Fatalf("body = %q", sendErr.Body)
	}
}

func TestMailgunSendSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/pharmacy.test/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "api" || pass != "mg-key" {
			t.Errorf("basic auth = %q/%q", user, pass)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("multipart: %v", err)
		}
		if got := r.FormValue("to"); got != "jane@example.com" {
			t.Errorf("to = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "<mg.123>"})
	}))
	defer srv.Close()

	m := &Mailgun{APIKey: "mg-key", Domain: "pharmacy.test", BaseURL: srv.URL, Client: srv.Client()}
	id, err := m.Send(context.Background(), Message{To: "jane@example.com", Subject: "s", HTML: "<p/>"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != "<mg.123>" {
		t.Fatalf("id = %q", id)
	}
}

func TestMailgunNon2xxIsSendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := &Mailgun{APIKey: "bad", Domain: "d", BaseURL: srv.URL, Client: srv.Client()}
	_, err := m.Send(context.Background(), Message{To: "x@y.z"})

	var sendErr *SendError
	if !errors.As(err, &sendErr) {
		t.Fatalf("expected SendError, got %v", err)
	}
	if sendErr.Provider != models.ProviderMailgun {
		t.Fatalf("provider = %s", sendErr.Provider)
	}
}

func TestFromConfig(t *testing.T) {
	cases := []struct {
		name    string
		cfg     models.ProviderConfig
		wantErr bool
	}{
		{
			name: "resend ok",
			cfg: models.ProviderConfig{
				ProviderType: models.ProviderResend,
				Settings:     map[string]string{"api_key": "k"},
			},
		},
		{
			name:    "resend missing key",
			cfg:     models.ProviderConfig{ProviderType: models.ProviderResend},
			wantErr: true,
		},
		{
			name: "mailgun ok",
			cfg: models.ProviderConfig{
				ProviderType: models.ProviderMailgun,
				Settings:     map[string]string{"api_key": "k", "domain": "d"},
			},
		},
		{
			name: "mailgun missing domain",
			cfg: models.ProviderConfig{
				ProviderType: models.ProviderMailgun,
				Settings:     map[string]string{"api_key": "k"},
			},
			wantErr: true,
		},
		{
			name: "smtp ok",
			cfg: models.ProviderConfig{
				ProviderType: models.ProviderSMTP,
				Settings:     map[string]string{"host": "localhost", "port": "1025"},
			},
		},
		{
			name:    "unknown type",
			cfg:     models.ProviderConfig{ProviderType: "carrier-pigeon"},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := FromConfig(tc.cfg, Options{})
			if tc.wantErr {
				var cfgErr *ConfigError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("expected ConfigError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s == nil {
				t.Fatal("nil sender")
			}
		})
	}
}
