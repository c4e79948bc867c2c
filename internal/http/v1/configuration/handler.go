// Package configuration serves client roles and service settings of the
// centralize service.
package configuration

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/janisto/tms-platform/internal/entity"
	"github.com/janisto/tms-platform/internal/message"
	applog "github.com/janisto/tms-platform/internal/platform/logging"
	"github.com/janisto/tms-platform/internal/platform/respond"
	configsvc "github.com/janisto/tms-platform/internal/service/configuration"
)

// Register wires configuration routes into the provided API router.
func Register(hapi huma.API, p *respond.Pipeline, svc *configsvc.Service) {
	h := &handler{svc: svc}

	respond.Register(hapi, p, respond.Route{
		OperationID:    "list-client-roles",
		Method:         http.MethodGet,
		Path:           "/v1/client/{code}/roles",
		Summary:        "Get the roles of a client",
		Tags:           []string{"Client"},
		SuccessTag:     message.DataAvailable,
		SuccessMessage: "Success get client roles",
	}, h.clientRoles)

	respond.Register(hapi, p, respond.Route{
		OperationID:    "list-service-configuration",
		Method:         http.MethodGet,
		Path:           "/v1/service/{code}/configuration",
		Summary:        "Get the active settings of a service",
		Tags:           []string{"Service"},
		SuccessTag:     message.DataAvailable,
		SuccessMessage: "Success get service configuration",
	}, h.serviceConfiguration)
}

type handler struct {
	svc *configsvc.Service
}

func (h *handler) clientRoles(ctx context.Context, in *ClientInput) (*respond.Reply[[]entity.ClientRole], error) {
	roles, err := h.svc.ClientRolesByClientCode(ctx, in.Code)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []entity.ClientRole{}
	}
	applog.LogInfo(ctx, "client roles loaded", zap.String("client_code", in.Code), zap.Int("count", len(roles)))
	return respond.OK(roles), nil
}

func (h *handler) serviceConfiguration(ctx context.Context, in *ServiceInput) (*respond.Reply[[]entity.ServiceConfiguration], error) {
	settings, err := h.svc.ServiceConfigurations(ctx, in.Code)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = []entity.ServiceConfiguration{}
	}
	return respond.OK(settings), nil
}
