// Package user serves login and user profile endpoints of the tms service.
package user

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/janisto/tms-platform/internal/entity"
	"github.com/janisto/tms-platform/internal/message"
	"github.com/janisto/tms-platform/internal/platform/auth"
	applog "github.com/janisto/tms-platform/internal/platform/logging"
	"github.com/janisto/tms-platform/internal/platform/respond"
	usersvc "github.com/janisto/tms-platform/internal/service/user"
)

var tags = []string{"User"}

// Register wires user routes into the provided API router. The profile
// operation requires a bearer token; the auth middleware must be installed on
// hapi for it to be enforced.
func Register(hapi huma.API, p *respond.Pipeline, svc *usersvc.Service) {
	h := &handler{svc: svc}

	respond.Register(hapi, p, respond.Route{
		OperationID:    "login",
		Method:         http.MethodPost,
		Path:           "/v1/user/login",
		Summary:        "Log in",
		Description:    "Checks the credentials and returns a bearer access token.",
		Tags:           tags,
		SuccessTag:     message.LoginSuccess,
		SuccessMessage: "Success login",
	}, h.login)

	respond.Register(hapi, p, respond.Route{
		OperationID:    "get-user",
		Method:         http.MethodGet,
		Path:           "/v1/user/{sid}",
		Summary:        "Get Data User",
		Tags:           tags,
		SuccessMessage: "Success get data user",
		Security:       auth.Security,
	}, h.get)
}

type handler struct {
	svc *usersvc.Service
}

func (h *handler) login(ctx context.Context, in *LoginInput) (*respond.Reply[LoginData], error) {
	session, err := h.svc.Login(ctx, usersvc.LoginParams{
		Email:    in.Body.Email,
		Username: in.Body.Username,
		Password: in.Body.Password,
	})
	if err != nil {
		applog.LogWarn(ctx, "login rejected", zap.String("email", in.Body.Email), zap.String("username", in.Body.Username))
		return nil, err
	}
	applog.LogInfo(ctx, "user logged in", zap.String("user_sid", session.UserSid))
	return respond.OK(LoginData{
		UserSid:     session.UserSid,
		AccessToken: session.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(session.ExpiresAt).Round(time.Second) / time.Second),
		ExpiresAt:   session.ExpiresAt,
	}), nil
}

func (h *handler) get(ctx context.Context, in *GetInput) (*respond.Reply[entity.ClientUser], error) {
	if claims := auth.ClaimsFromContext(ctx); claims != nil {
		applog.LogInfo(ctx, "user profile requested", zap.String("caller", claims.UserSid()), zap.String("user_sid", in.Sid))
	}
	u, err := h.svc.GetBySid(ctx, in.Sid)
	if err != nil {
		return nil, err
	}
	return respond.OK(*u), nil
}
