package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/role"
)

func newBackend(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL + "/"}, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestAuthenticate(t *testing.T) {
	var gotReq loginRequest
	var gotRequestID string
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotRequestID = r.Header.Get("X-Request-Id")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"userId":"u-9","email":"ada@example.com","name":"Ada","role":3,"identityId":"iid-9"}`))
	})

	ctx := goSession.WithRequestID(context.Background(), "req-1")
	id, err := c.Authenticate(ctx, goSession.Credentials{Email: "ada@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if id.UserID != "u-9" || id.Role != role.Manager || id.IdentityID != "iid-9" {
		t.Fatalf("unexpected identity %+v", id)
	}
	if gotReq.Email != "ada@example.com" || gotReq.Password != "pw" {
		t.Fatalf("unexpected request body %+v", gotReq)
	}
	if gotRequestID != "req-1" {
		t.Fatalf("request id not forwarded: %q", gotRequestID)
	}
}

func TestAuthenticateRejected(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		_, err := c.Authenticate(context.Background(), goSession.Credentials{Email: "a@b.c", Password: "x"})
		if !errors.Is(err, goSession.ErrInvalidCredentials) {
			t.Fatalf("status %d: expected ErrInvalidCredentials, got %v", status, err)
		}
	}
}

func TestAuthenticateUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{name: "server error", handler: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}, want: ErrUnexpectedStatus},
		{name: "garbage body", handler: func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		}, want: ErrBadResponse},
		{name: "undefined role", handler: func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"userId":"u","email":"e","name":"n","role":7,"identityId":"i"}`))
		}, want: ErrBadResponse},
		{name: "missing user id", handler: func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"email":"e","name":"n","role":1,"identityId":"i"}`))
		}, want: ErrBadResponse},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newBackend(t, tc.handler)
			_, err := c.Authenticate(context.Background(), goSession.Credentials{Email: "a@b.c", Password: "x"})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if errors.Is(err, goSession.ErrInvalidCredentials) {
				t.Fatal("availability failures must not look like rejected credentials")
			}
		})
	}
}

func TestAuthenticateUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: url}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := c.Authenticate(context.Background(), goSession.Credentials{Email: "a", Password: "b"}); err == nil || errors.Is(err, goSession.ErrInvalidCredentials) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8080", "ftp://example.com", "/relative"} {
		if _, err := New(Config{BaseURL: raw}, nil); !errors.Is(err, ErrInvalidBaseURL) {
			t.Fatalf("%q: expected ErrInvalidBaseURL, got %v", raw, err)
		}
	}
}
