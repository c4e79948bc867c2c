package configuration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janisto/tms-platform/internal/apperr"
	"github.com/janisto/tms-platform/internal/entity"
	"github.com/janisto/tms-platform/internal/service/crud"
)

type fixture struct {
	svc      *Service
	clients  *crud.Service[entity.Client]
	roles    *crud.Service[entity.ClientRole]
	services *crud.Service[entity.Service]
	settings *crud.Service[entity.ServiceConfiguration]
}

func newFixture() *fixture {
	f := &fixture{
		clients:  crud.New[entity.Client](crud.NewMemoryStore[entity.Client]()),
		roles:    crud.New[entity.ClientRole](crud.NewMemoryStore[entity.ClientRole]()),
		services: crud.New[entity.Service](crud.NewMemoryStore[entity.Service]()),
		settings: crud.New[entity.ServiceConfiguration](crud.NewMemoryStore[entity.ServiceConfiguration]()),
	}
	f.svc = New(f.clients, f.roles, f.services, f.settings)
	return f
}

func TestClientRolesByClientCode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	acme, err := f.clients.Create(ctx, map[string]any{"client_code": "ACME", "client_id": "a", "client_name": "Acme"})
	require.NoError(t, err)
	other, err := f.clients.Create(ctx, map[string]any{"client_code": "OTHER", "client_id": "o", "client_name": "Other"})
	require.NoError(t, err)
	for _, r := range []struct{ code, client string }{{"ADMIN", acme.ClientSid}, {"VIEWER", acme.ClientSid}, {"ADMIN", other.ClientSid}} {
		_, err := f.roles.Create(ctx, map[string]any{"client_role_code": r.code, "client_role_name": r.code, "client_sid": r.client})
		require.NoError(t, err)
	}

	roles, err := f.svc.ClientRolesByClientCode(ctx, "ACME")
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "ADMIN", roles[0].ClientRoleCode)
	assert.Equal(t, "VIEWER", roles[1].ClientRoleCode)

	_, err = f.clients.Create(ctx, map[string]any{"client_code": "EMPTY", "client_id": "e", "client_name": "Empty"})
	require.NoError(t, err)
	roles, err = f.svc.ClientRolesByClientCode(ctx, "EMPTY")
	require.NoError(t, err)
	assert.Empty(t, roles)

	_, err = f.svc.ClientRolesByClientCode(ctx, "NOPE")
	assert.Equal(t, apperr.DataNotFound, apperr.Classify(err).Kind)
}

func TestServiceConfigurations(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	svc, err := f.services.Create(ctx, map[string]any{"service_code": "TMS", "service_name": "TMS", "service_status": true})
	require.NoError(t, err)
	for _, s := range []struct {
		key    string
		active bool
	}{{"timeout", true}, {"retries", true}, {"legacy", false}} {
		_, err := f.settings.Create(ctx, map[string]any{
			"service_sid":                  svc.ServiceSid,
			"configuration_key":            s.key,
			"configuration_value":          "1",
			"service_configuration_status": s.active,
		})
		require.NoError(t, err)
	}

	settings, err := f.svc.ServiceConfigurations(ctx, "TMS")
	require.NoError(t, err)
	require.Len(t, settings, 2)
	assert.Equal(t, "timeout", settings[0].ConfigurationKey)

	_, err = f.svc.ServiceConfigurations(ctx, "NOPE")
	exc := apperr.Classify(err)
	assert.Equal(t, apperr.DataNotFound, exc.Kind)
	assert.Equal(t, "Service NOPE not found", exc.Message)
}
