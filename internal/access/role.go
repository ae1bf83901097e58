package access

import (
	"fmt"
	"strings"
)

// Role is the closed set of actor kinds.
type Role string

const (
	RoleGuest         Role = "guest"
	RoleMember        Role = "member"
	RoleModerator     Role = "moderator"
	RoleAdministrator Role = "administrator"
	RoleSeller        Role = "seller"
)

// Capability is a bit set of things a role may do regardless of ownership.
type Capability uint16

const (
	CapRead Capability = 1 << iota
	CapPost
	CapComment
	CapVote
	CapSubscribe
	CapCreateCommunity
	CapModerate
	CapOverride
)

const capMember = CapRead | CapPost | CapComment | CapVote | CapSubscribe | CapCreateCommunity

var capabilities = map[Role]Capability{
	RoleGuest:         CapRead,
	RoleMember:        capMember,
	RoleSeller:        CapRead | CapPost | CapComment | CapSubscribe,
	RoleModerator:     capMember | CapModerate,
	RoleAdministrator: capMember | CapModerate | CapOverride,
}

var capabilityNames = map[Capability]string{
	CapRead:            "read",
	CapPost:            "post",
	CapComment:         "comment",
	CapVote:            "vote",
	CapSubscribe:       "subscribe",
	CapCreateCommunity: "create community",
	CapModerate:        "moderate",
	CapOverride:        "override",
}

func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("capability(%d)", uint16(c))
}

// ParseRole accepts any known role name, case-insensitively.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := capabilities[role]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

// Registrable reports whether accounts of this role can be created.
func (r Role) Registrable() bool {
	_, known := capabilities[r]
	return known && r != RoleGuest
}

func (r Role) Can(c Capability) bool {
	return capabilities[r]&c == c
}

func (r Role) String() string {
	return string(r)
}

// RegistrableRoles lists the roles accepted by registration, in display order.
func RegistrableRoles() []Role {
	return []Role{RoleMember, RoleModerator, RoleAdministrator, RoleSeller}
}
