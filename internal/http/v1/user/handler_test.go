package user

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/janisto/tms-platform/internal/entity"
	"github.com/janisto/tms-platform/internal/platform/auth"
	"github.com/janisto/tms-platform/internal/platform/database"
	"github.com/janisto/tms-platform/internal/repository"
	"github.com/janisto/tms-platform/internal/service/crud"
	usersvc "github.com/janisto/tms-platform/internal/service/user"
	"github.com/janisto/tms-platform/internal/testutil"
)

type fixture struct {
	server      *testutil.Server
	issuer      *auth.Issuer
	users       *crud.Service[entity.User]
	clientUsers *crud.Service[entity.ClientUser]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := repository.New[entity.User](testutil.OpenSQLite(t, database.Auth))
	if err != nil {
		t.Fatalf("repository: %v", err)
	}
	issuer, err := auth.NewIssuer("handler-secret", time.Hour, "tms")
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	f := &fixture{
		server:      testutil.NewServer(t, ""),
		issuer:      issuer,
		users:       crud.New[entity.User](repo),
		clientUsers: crud.New[entity.ClientUser](crud.NewMemoryStore[entity.ClientUser]()),
	}
	f.server.API.UseMiddleware(auth.NewAuthMiddleware(f.server.API, issuer))
	Register(f.server.API, f.server.Pipeline, usersvc.New(f.users, f.clientUsers, issuer))
	return f
}

func (f *fixture) seed(t *testing.T, sid, email, name, password string) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.clientUsers.Create(ctx, map[string]any{
		"user_sid": sid, "user_email": email, "user_name": name, "user_status": true,
	}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	hash, err := usersvc.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if _, err := f.users.Create(ctx, map[string]any{"user_sid": sid, "user_password": hash}); err != nil {
		t.Fatalf("seed account: %v", err)
	}
}

func (f *fixture) login(t *testing.T, body string) (int, map[string]any) {
	t.Helper()
	resp, payload := f.server.Do(t, testutil.Request{
		Method: http.MethodPost,
		Target: "/v1/user/login?lang=EN",
		Body:   body,
	})
	return resp.Code, payload
}

func TestLoginSuccess(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "u-1", "jane@example.com", "jane", "s3cret")

	for _, body := range []string{
		`{"email":"jane@example.com","password":"s3cret"}`,
		`{"username":"jane","password":"s3cret"}`,
	} {
		code, payload := f.login(t, body)
		if code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %v", body, code, payload)
		}
		if payload["status_code"] != "0000" || payload["message"] != "Success login" {
			t.Fatalf("unexpected envelope %v", payload)
		}
		data := payload["data"].(map[string]any)
		if data["user_sid"] != "u-1" || data["token_type"] != "Bearer" {
			t.Fatalf("unexpected data %v", data)
		}
		claims, err := f.issuer.Verify(context.Background(), data["access_token"].(string))
		if err != nil {
			t.Fatalf("issued token does not verify: %v", err)
		}
		if claims.UserSid() != "u-1" || claims.Email != "jane@example.com" {
			t.Fatalf("unexpected claims %+v", claims)
		}
	}
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "u-1", "jane@example.com", "jane", "s3cret")

	tests := []struct {
		name       string
		body       string
		status     int
		statusCode string
		message    string
	}{
		{"wrong password", `{"email":"jane@example.com","password":"nope"}`, http.StatusUnauthorized, "0400", "Invalid username or password"},
		{"unknown email", `{"email":"joe@example.com","password":"s3cret"}`, http.StatusNotFound, "0404", "User not found"},
		{"no identity", `{"password":"s3cret"}`, http.StatusBadRequest, "0400", "Property email is required"},
		{"no password", `{"email":"jane@example.com"}`, http.StatusBadRequest, "0400", "Property password is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, payload := f.login(t, tt.body)
			if code != tt.status {
				t.Fatalf("expected %d, got %d: %v", tt.status, code, payload)
			}
			if payload["status_code"] != tt.statusCode || payload["message"] != tt.message {
				t.Fatalf("unexpected envelope %v", payload)
			}
			if _, ok := payload["data"]; ok {
				t.Fatalf("error envelope must not carry data")
			}
		})
	}
}

func TestGetUserRequiresToken(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "u-1", "jane@example.com", "jane", "s3cret")

	resp, body := f.server.Get(t, "/v1/user/u-1?lang=EN")

	testutil.ExpectEnvelope(t, resp, body, http.StatusUnauthorized, "0400")
	if body["message"] != "Token is required" {
		t.Fatalf("unexpected message %v", body["message"])
	}
}

func TestGetUser(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "u-1", "jane@example.com", "jane", "s3cret")
	token, _, err := f.issuer.Issue("u-1", "jane@example.com", "jane")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	bearer := map[string]string{"Authorization": "Bearer " + token}

	resp, body := f.server.Do(t, testutil.Request{Method: http.MethodGet, Target: "/v1/user/u-1", Headers: bearer})
	testutil.ExpectEnvelope(t, resp, body, http.StatusOK, "0000")
	data := body["data"].(map[string]any)
	if data["user_email"] != "jane@example.com" || data["user_status"] != true {
		t.Fatalf("unexpected data %v", data)
	}
	if _, ok := data["user_password"]; ok {
		t.Fatal("password must never be rendered")
	}

	resp, body = f.server.Do(t, testutil.Request{Method: http.MethodGet, Target: "/v1/user/u-2?lang=EN", Headers: bearer})
	testutil.ExpectEnvelope(t, resp, body, http.StatusNotFound, "0404")
	if body["message"] != "User not found" {
		t.Fatalf("unexpected message %v", body["message"])
	}
}
