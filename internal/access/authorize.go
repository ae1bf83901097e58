package access

import (
	"communityboard/internal/apperr"
)

// Actor is an authenticated (or guest) principal together with the
// community scopes it is assigned to moderate for the current request.
type Actor struct {
	ID        string
	Role      Role
	SessionID string
	scopes    map[string]struct{}
}

// NewActor builds an actor. Moderated scopes are usually attached later
// with WithScope once the enclosing community is known.
func NewActor(id string, role Role, sessionID string) Actor {
	return Actor{ID: id, Role: role, SessionID: sessionID}
}

func Guest() Actor {
	return Actor{Role: RoleGuest}
}

func (a Actor) IsGuest() bool {
	return a.ID == "" || a.Role == RoleGuest
}

func (a Actor) IsAdministrator() bool {
	return a.Role.Can(CapOverride)
}

// WithScope returns a copy of the actor that moderates scopeID.
func (a Actor) WithScope(scopeID string) Actor {
	scopes := make(map[string]struct{}, len(a.scopes)+1)
	for s := range a.scopes {
		scopes[s] = struct{}{}
	}
	scopes[scopeID] = struct{}{}
	a.scopes = scopes
	return a
}

// Moderates reports whether the actor may moderate inside scopeID.
func (a Actor) Moderates(scopeID string) bool {
	if scopeID == "" || !a.Role.Can(CapModerate) {
		return false
	}
	_, ok := a.scopes[scopeID]
	return ok
}

// Resource describes what an action targets: its owner and the scope
// (community) enclosing it. Top-level resources have an empty ScopeID.
type Resource struct {
	Kind    string
	ID      string
	OwnerID string
	ScopeID string
}

type Action string

const (
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionRestore Action = "restore"
	ActionPublish Action = "publish"
	ActionManage  Action = "manage"
	ActionBan     Action = "ban"
	ActionLiftBan Action = "lift_ban"
)

func (a Action) moderation() bool {
	switch a {
	case ActionDelete, ActionRestore, ActionBan, ActionLiftBan:
		return true
	}
	return false
}

func (a Action) ownerAllowed() bool {
	switch a {
	case ActionUpdate, ActionDelete, ActionPublish, ActionManage:
		return true
	}
	return false
}

type Reason string

const (
	ReasonAdminOverride   Reason = "admin_override"
	ReasonScopedModerator Reason = "scoped_moderator"
	ReasonOwner           Reason = "owner"
	ReasonNotPermitted    Reason = "not_permitted"
)

type Decision struct {
	Allowed bool
	Reason  Reason
}

// Err converts a denial into the error clients see. Denials are reported
// as not found so that callers cannot probe for resources they may not touch.
func (d Decision) Err(res Resource) error {
	if d.Allowed {
		return nil
	}
	return apperr.Newf(apperr.ErrNotFound, "%s not found", kindOrDefault(res.Kind))
}

// Privileged reports whether the decision came from an override rather
// than ownership.
func (d Decision) Privileged() bool {
	return d.Reason == ReasonAdminOverride || d.Reason == ReasonScopedModerator
}

// Authorize evaluates the ownership and moderation rules in priority order.
func Authorize(actor Actor, res Resource, action Action) Decision {
	if actor.IsGuest() {
		return Decision{Reason: ReasonNotPermitted}
	}

	// administrators act on anything
	if actor.Role.Can(CapOverride) {
		return Decision{Allowed: true, Reason: ReasonAdminOverride}
	}

	// moderators only inside communities they are assigned to
	if action.moderation() && actor.Moderates(res.ScopeID) {
		return Decision{Allowed: true, Reason: ReasonScopedModerator}
	}

	if action.ownerAllowed() && res.OwnerID != "" && res.OwnerID == actor.ID {
		return Decision{Allowed: true, Reason: ReasonOwner}
	}

	return Decision{Reason: ReasonNotPermitted}
}

// Require checks a role capability. Guests get an unauthorized error so
// the client knows to log in; authenticated roles get forbidden.
func Require(actor Actor, c Capability) error {
	if actor.IsGuest() {
		if RoleGuest.Can(c) {
			return nil
		}
		return apperr.New(apperr.ErrUnauthorized, "authentication required")
	}
	if actor.Role.Can(c) {
		return nil
	}
	return apperr.Newf(apperr.ErrForbidden, "role %s cannot %s", actor.Role, c)
}

func kindOrDefault(kind string) string {
	if kind == "" {
		return "resource"
	}
	return kind
}
