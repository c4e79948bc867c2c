// Package user authenticates client users and looks up their profiles.
// Accounts live in the auth grouping while profiles live in the client
// grouping, so every operation does at most one round trip per grouping.
package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/janisto/tms-platform/internal/apperr"
	"github.com/janisto/tms-platform/internal/entity"
	"github.com/janisto/tms-platform/internal/platform/auth"
	"github.com/janisto/tms-platform/internal/repository"
	"github.com/janisto/tms-platform/internal/service/crud"
)

// LoginParams identify a user by email or, when set, by username.
type LoginParams struct {
	Email    string
	Username string
	Password string
}

// Session is the result of a successful login.
type Session struct {
	UserSid     string
	AccessToken string
	ExpiresAt   time.Time
}

// Service implements login and profile lookup.
type Service struct {
	users       *crud.Service[entity.User]
	clientUsers *crud.Service[entity.ClientUser]
	issuer      *auth.Issuer
}

// New returns a user service. users reads the auth grouping and clientUsers
// the client grouping.
func New(users *crud.Service[entity.User], clientUsers *crud.Service[entity.ClientUser], issuer *auth.Issuer) *Service {
	return &Service{users: users, clientUsers: clientUsers, issuer: issuer}
}

// Login checks the credentials and issues an access token. An unknown email or
// username and a profile without an account are UserNotFound; a wrong password
// is InvalidCredentials.
func (s *Service) Login(ctx context.Context, p LoginParams) (*Session, error) {
	where := repository.Where{"user_email": strings.TrimSpace(p.Email)}
	if p.Username != "" {
		where = repository.Where{"user_name": strings.TrimSpace(p.Username)}
	}
	profile, err := s.clientUsers.FindOne(ctx, where)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apperr.New(apperr.UserNotFound)
	}

	account, err := s.users.FindByPk(ctx, profile.UserSid)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperr.New(apperr.UserNotFound)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.UserPassword), []byte(p.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, apperr.New(apperr.InvalidCredentials, apperr.WithMessage("Password is incorrect"))
		}
		return nil, apperr.Wrap(apperr.InternalError, err)
	}

	token, exp, err := s.issuer.Issue(account.UserSid, profile.UserEmail, profile.UserName)
	if err != nil {
		return nil, apperr.Wrap(apperr.InternalError, err)
	}
	return &Session{UserSid: account.UserSid, AccessToken: token, ExpiresAt: exp}, nil
}

// GetBySid returns the client profile of a user.
func (s *Service) GetBySid(ctx context.Context, sid string) (*entity.ClientUser, error) {
	profile, err := s.clientUsers.FindByPk(ctx, sid)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apperr.New(apperr.UserNotFound)
	}
	return profile, nil
}

// HashPassword returns the bcrypt hash stored in user_password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
