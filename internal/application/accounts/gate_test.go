package accounts_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/marketplace-accounts/internal/application/accounts"
	"github.com/jhoicas/marketplace-accounts/internal/application/accounts/accountstest"
	"github.com/jhoicas/marketplace-accounts/internal/domain"
	"github.com/jhoicas/marketplace-accounts/internal/domain/entity"
	"github.com/jhoicas/marketplace-accounts/pkg/logger"
)

func buildGate() (*accounts.AuthorizationGate, *accountstest.FakeIdentity, *accountstest.FakeProfiles) {
	idp := accountstest.NewFakeIdentity()
	profiles := accountstest.NewFakeProfiles()
	idp.AddToken("tok-admin", "u-admin", "admin@x.com")
	idp.AddToken("tok-buyer", "u-buyer", "buyer@x.com")
	profiles.Seed("p-admin", "u-admin", entity.RoleAdmin)
	profiles.Seed("p-buyer", "u-buyer", entity.RoleBuyer)
	gate := accounts.NewAuthorizationGate(idp, accounts.NewAdminPredicate(profiles), logger.Nop())
	return gate, idp, profiles
}

func TestAuthorize_AdminAutorizado(t *testing.T) {
	gate, _, _ := buildGate()

	subject, err := gate.Authorize(context.Background(), "tok-admin")

	require.NoError(t, err)
	assert.Equal(t, "u-admin", subject.ID)
	assert.Equal(t, "admin@x.com", subject.Email)
}

func TestAuthorize_SinToken(t *testing.T) {
	gate, _, _ := buildGate()

	_, err := gate.Authorize(context.Background(), "  ")

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthorize_TokenInvalido(t *testing.T) {
	gate, _, _ := buildGate()

	_, err := gate.Authorize(context.Background(), "tok-falso")

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthorize_ProveedorCaidoEsNoAutenticado(t *testing.T) {
	gate, idp, _ := buildGate()
	idp.VerifyErr = errors.New("connection refused")

	_, err := gate.Authorize(context.Background(), "tok-admin")

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthorize_NoAdminEsUnauthorized(t *testing.T) {
	gate, _, _ := buildGate()

	_, err := gate.Authorize(context.Background(), "tok-buyer")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthorize_SinPerfilEsUnauthorized(t *testing.T) {
	gate, idp, _ := buildGate()
	idp.AddToken("tok-huerfano", "u-huerfano", "h@x.com")

	_, err := gate.Authorize(context.Background(), "tok-huerfano")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthorize_ErrorDeConsultaEsInternal(t *testing.T) {
	gate, _, profiles := buildGate()
	profiles.ExistsErr = errors.New("connection reset")

	_, err := gate.Authorize(context.Background(), "tok-admin")

	assert.ErrorIs(t, err, domain.ErrInternal)
	assert.NotErrorIs(t, err, domain.ErrUnauthorized)
}
