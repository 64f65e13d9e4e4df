package authz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/churchops/backend/internal/domain/shared"
	"github.com/churchops/backend/internal/domain/treasury"
)

func TestCapabilityAuthorizerAuthorize(t *testing.T) {
	auth := NewCapabilityAuthorizer()
	ctx := context.Background()

	t.Run("allows actor with capability", func(t *testing.T) {
		actor := Actor{UserID: uuid.New(), Capabilities: []string{CapMovementCreate}}
		assert.NoError(t, auth.Authorize(ctx, actor, CapMovementCreate))
	})

	t.Run("denies actor without capability", func(t *testing.T) {
		actor := Actor{UserID: uuid.New(), Capabilities: []string{CapTreasuryRead}}
		assert.ErrorIs(t, auth.Authorize(ctx, actor, CapMovementCreate), shared.ErrForbidden)
	})

	t.Run("denies anonymous actor", func(t *testing.T) {
		assert.ErrorIs(t, auth.Authorize(ctx, Actor{}, CapTreasuryRead), shared.ErrUnauthorized)
	})
}

func TestCapabilityAuthorizerAuthorizeBox(t *testing.T) {
	auth := NewCapabilityAuthorizer()
	ctx := context.Background()
	societyID := uuid.New()

	churchBox, err := treasury.NewPettyCashBox("Caja General", "", nil, decimal.NewFromInt(100))
	require.NoError(t, err)
	societyBox, err := treasury.NewPettyCashBox("Caja Sociedad de Damas", "", &societyID, decimal.NewFromInt(100))
	require.NoError(t, err)

	t.Run("church-wide box needs only the capability", func(t *testing.T) {
		actor := Actor{UserID: uuid.New(), Capabilities: []string{CapMovementCreate}}
		assert.NoError(t, auth.AuthorizeBox(ctx, actor, churchBox, CapMovementCreate))
	})

	t.Run("society box requires matching society", func(t *testing.T) {
		owner := Actor{UserID: uuid.New(), SocietyID: &societyID, Capabilities: []string{CapMovementCreate}}
		assert.NoError(t, auth.AuthorizeBox(ctx, owner, societyBox, CapMovementCreate))

		otherSociety := uuid.New()
		outsider := Actor{UserID: uuid.New(), SocietyID: &otherSociety, Capabilities: []string{CapMovementCreate}}
		assert.ErrorIs(t, auth.AuthorizeBox(ctx, outsider, societyBox, CapMovementCreate), shared.ErrForbidden)

		noSociety := Actor{UserID: uuid.New(), Capabilities: []string{CapMovementCreate}}
		assert.ErrorIs(t, auth.AuthorizeBox(ctx, noSociety, societyBox, CapMovementCreate), shared.ErrForbidden)
	})

	t.Run("any-society capability overrides ownership", func(t *testing.T) {
		admin := Actor{UserID: uuid.New(), Capabilities: []string{CapMovementCreate, CapAnySociety}}
		assert.NoError(t, auth.AuthorizeBox(ctx, admin, societyBox, CapMovementCreate))
	})

	t.Run("capability is still required", func(t *testing.T) {
		actor := Actor{UserID: uuid.New(), SocietyID: &societyID, Capabilities: []string{CapTreasuryRead}}
		assert.ErrorIs(t, auth.AuthorizeBox(ctx, actor, societyBox, CapMovementCreate), shared.ErrForbidden)
	})
}
