// Package client manages tenants in the client grouping.
package client

import (
	"context"

	"github.com/janisto/tms-platform/internal/apperr"
	"github.com/janisto/tms-platform/internal/entity"
	"github.com/janisto/tms-platform/internal/repository"
	"github.com/janisto/tms-platform/internal/service/crud"
)

// TestProcedure is the diagnostic stored procedure shipped with the client schema.
const TestProcedure = "sp_Test"

// CreateParams are the columns accepted when creating a client.
type CreateParams struct {
	ClientName string
	ClientCode string
	ClientID   string
	ClientKey  string
	ClientUID  string
}

// Service wraps the generic client service with domain lookups.
type Service struct {
	*crud.Service[entity.Client]
}

// New returns a client service over svc.
func New(svc *crud.Service[entity.Client]) *Service {
	return &Service{Service: svc}
}

// All returns every client in id order.
func (s *Service) All(ctx context.Context) ([]entity.Client, error) {
	return s.FindAll(ctx, nil, repository.FindOptions{})
}

// List returns up to limit+1 clients with an id above afterID. The extra row
// tells the caller whether another page exists.
func (s *Service) List(ctx context.Context, afterID int64, limit int) ([]entity.Client, error) {
	return s.FindAll(ctx, nil, repository.FindOptions{AfterID: afterID, Limit: limit + 1})
}

// CreateClient inserts a client, leaving optional columns unset when empty.
func (s *Service) CreateClient(ctx context.Context, p CreateParams) (*entity.Client, error) {
	values := map[string]any{
		"client_name": p.ClientName,
		"client_code": p.ClientCode,
		"client_id":   p.ClientID,
	}
	if p.ClientKey != "" {
		values["client_key"] = p.ClientKey
	}
	if p.ClientUID != "" {
		values["client_uid"] = p.ClientUID
	}
	return s.Create(ctx, values)
}

// Get returns the client with id or DataNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Client, error) {
	c, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.New(apperr.DataNotFound)
	}
	return c, nil
}

// FindByCode returns the first client with code, or nil.
func (s *Service) FindByCode(ctx context.Context, code string) (*entity.Client, error) {
	return s.FindOne(ctx, repository.Where{"client_code": code})
}

// FindByClientID returns the first client with the public client id, or nil.
func (s *Service) FindByClientID(ctx context.Context, clientID string) (*entity.Client, error) {
	return s.FindOne(ctx, repository.Where{"client_id": clientID})
}

// RunTestProcedure calls sp_Test for client 1.
func (s *Service) RunTestProcedure(ctx context.Context) ([]map[string]any, error) {
	return s.StoredProcedure(ctx, TestProcedure, map[string]any{"id": 1})
}
