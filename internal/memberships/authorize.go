package memberships

import (
	"github.com/google/uuid"

	"github.com/labstock/labstock-backend/pkg/db/models"
	"github.com/labstock/labstock-backend/pkg/enums"
	pkgerrors "github.com/labstock/labstock-backend/pkg/errors"
)

// Actor identifies the authenticated user for authorization decisions.
type Actor struct {
	ID        uuid.UUID
	Superuser bool
}

// CanView reports whether the actor may read lab-scoped resources.
// Superusers bypass membership entirely; everyone else needs a membership row.
func CanView(actor Actor, membership *models.LabMembership) bool {
	if actor.Superuser {
		return true
	}
	return membership != nil
}

// CanEdit reports whether the actor may perform a write gated by the given capability.
func CanEdit(actor Actor, membership *models.LabMembership, capability enums.Capability) bool {
	if actor.Superuser {
		return true
	}
	if membership == nil {
		return false
	}
	return membership.Grants(capability)
}

// AuthorizeRead returns a forbidden error when the actor cannot read the lab.
func AuthorizeRead(actor Actor, membership *models.LabMembership) error {
	if CanView(actor, membership) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "not a member of the lab")
}

// AuthorizeWrite returns a forbidden error when the actor cannot perform the
// capability-gated write. Non-members are reported as such before the
// capability is consulted.
func AuthorizeWrite(actor Actor, membership *models.LabMembership, capability enums.Capability) error {
	if actor.Superuser {
		return nil
	}
	if membership == nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not a member of the lab")
	}
	if !membership.Grants(capability) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not enough permissions")
	}
	return nil
}
