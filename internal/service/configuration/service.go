// Package configuration serves client roles and service settings to the
// centralize API.
package configuration

import (
	"context"

	"github.com/janisto/tms-platform/internal/apperr"
	"github.com/janisto/tms-platform/internal/entity"
	"github.com/janisto/tms-platform/internal/repository"
	"github.com/janisto/tms-platform/internal/service/crud"
)

// Service reads the client and product groupings. Lookups that span two tables
// take two round trips because a grouping never joins across databases.
type Service struct {
	clients  *crud.Service[entity.Client]
	roles    *crud.Service[entity.ClientRole]
	services *crud.Service[entity.Service]
	settings *crud.Service[entity.ServiceConfiguration]
}

// New returns a configuration service.
func New(
	clients *crud.Service[entity.Client],
	roles *crud.Service[entity.ClientRole],
	services *crud.Service[entity.Service],
	settings *crud.Service[entity.ServiceConfiguration],
) *Service {
	return &Service{clients: clients, roles: roles, services: services, settings: settings}
}

// ClientRolesByClientCode returns the roles of the client with code. An unknown
// code is DataNotFound; a client without roles yields an empty slice.
func (s *Service) ClientRolesByClientCode(ctx context.Context, code string) ([]entity.ClientRole, error) {
	client, err := s.clients.FindOne(ctx, repository.Where{"client_code": code})
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, apperr.New(apperr.DataNotFound, apperr.WithMessage("Client "+code+" not found"))
	}
	return s.roles.FindAll(ctx, repository.Where{"client_sid": client.ClientSid}, repository.FindOptions{})
}

// ServiceConfigurations returns the active settings of the service with code.
func (s *Service) ServiceConfigurations(ctx context.Context, serviceCode string) ([]entity.ServiceConfiguration, error) {
	svc, err := s.services.FindOne(ctx, repository.Where{"service_code": serviceCode})
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, apperr.New(apperr.DataNotFound, apperr.WithMessage("Service "+serviceCode+" not found"))
	}
	return s.settings.FindAll(ctx, repository.Where{
		"service_sid":                  svc.ServiceSid,
		"service_configuration_status": true,
	}, repository.FindOptions{})
}
