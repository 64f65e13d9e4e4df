package authz

import (
	"context"

	"github.com/google/uuid"

	"github.com/churchops/backend/internal/domain/shared"
	"github.com/churchops/backend/internal/domain/treasury"
)

// Capabilities recognized by the treasury and tithe services
const (
	CapTreasuryRead    = "treasury:read"
	CapBoxManage       = "treasury:box:manage"
	CapAccountManage   = "treasury:account:manage"
	CapMovementCreate  = "treasury:movement:create"
	CapTransferExecute = "treasury:transfer:execute"
	CapAnySociety      = "treasury:society:any"
	CapTitheRead       = "tithe:read"
	CapTitheRegister   = "tithe:register"
	CapTitheDistribute = "tithe:distribute"
	CapTitheEdit       = "tithe:edit"
)

// Actor is the authenticated caller of an application service. SocietyID is
// set for society treasurers and scopes which boxes they may operate on.
type Actor struct {
	UserID       uuid.UUID
	SocietyID    *uuid.UUID
	Capabilities []string
}

// Has reports whether the actor carries the given capability
func (a Actor) Has(capability string) bool {
	for _, c := range a.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// Authorizer is the policy consulted by application services before any
// write. A denial means no state was touched.
type Authorizer interface {
	Authorize(ctx context.Context, actor Actor, capability string) error
	AuthorizeBox(ctx context.Context, actor Actor, box *treasury.PettyCashBox, capability string) error
}

// CapabilityAuthorizer authorizes on explicit capability lists carried by the
// actor, with society ownership checked by ID comparison.
type CapabilityAuthorizer struct{}

// NewCapabilityAuthorizer creates the default authorizer
func NewCapabilityAuthorizer() *CapabilityAuthorizer {
	return &CapabilityAuthorizer{}
}

// Authorize checks a plain capability
func (a *CapabilityAuthorizer) Authorize(_ context.Context, actor Actor, capability string) error {
	if actor.UserID == uuid.Nil {
		return shared.ErrUnauthorized
	}
	if !actor.Has(capability) {
		return shared.ErrForbidden
	}
	return nil
}

// AuthorizeBox checks a capability against a specific box. Society-owned
// boxes additionally require the actor to belong to that society, unless the
// actor holds the any-society capability.
func (a *CapabilityAuthorizer) AuthorizeBox(ctx context.Context, actor Actor, box *treasury.PettyCashBox, capability string) error {
	if err := a.Authorize(ctx, actor, capability); err != nil {
		return err
	}
	if !box.IsSocietyScoped() {
		return nil
	}
	if actor.Has(CapAnySociety) {
		return nil
	}
	if actor.SocietyID == nil || !box.BelongsToSociety(*actor.SocietyID) {
		return shared.ErrForbidden
	}
	return nil
}
