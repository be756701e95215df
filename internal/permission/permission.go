// Package permission defines the role/clan authorization matrix shared by
// every mutating operation in the roster domain. The predicates are pure so
// the matrix is defined once and tested once.
package permission

// Role identifies the fixed three-tier role set.
type Role string

const (
	// RoleMember is an ordinary clan member.
	RoleMember Role = "MEMBER"
	// RoleClanLeader may act on members of their own clan.
	RoleClanLeader Role = "CLAN_LEADER"
	// RoleAdmin may act on anyone.
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleClanLeader, RoleAdmin:
		return true
	default:
		return false
	}
}

// Actor represents the authenticated user invoking an operation.
type Actor struct {
	UserID string
	Role   Role
	ClanID string
}

// CanActOnSelf reports whether the actor targets their own record.
func CanActOnSelf(actor Actor, targetUserID string) bool {
	return actor.UserID != "" && actor.UserID == targetUserID
}

// CanActOnClanMember reports whether the actor is a clan leader of the
// target's clan.
func CanActOnClanMember(actor Actor, targetClanID string) bool {
	return actor.Role == RoleClanLeader && actor.ClanID != "" && actor.ClanID == targetClanID
}

// CanActOnAny reports whether the actor holds the admin role.
func CanActOnAny(actor Actor) bool {
	return actor.Role == RoleAdmin
}

// CanActOnUser is the assignment-path composite: self-service, clan-leader
// proxy over the target's clan, or admin.
func CanActOnUser(actor Actor, targetUserID, targetClanID string) bool {
	if CanActOnSelf(actor, targetUserID) {
		return true
	}
	if CanActOnClanMember(actor, targetClanID) {
		return true
	}
	return CanActOnAny(actor)
}

// CanProxyForUser is the override-path composite used by admin assignment:
// clan-leader proxy or admin, never plain self-service.
func CanProxyForUser(actor Actor, targetClanID string) bool {
	return CanActOnClanMember(actor, targetClanID) || CanActOnAny(actor)
}

// CanManageRoster gates squad/slot/tree structure edits. The scoping rule is
// deliberately different from assignment: the acting clan leader must lead
// the clan of the event's creator, not the clan of any target user.
func CanManageRoster(actor Actor, creatorClanID string) bool {
	return CanActOnClanMember(actor, creatorClanID) || CanActOnAny(actor)
}

// CanManageEvent gates event-level mutation: the creator themself, a leader
// of the creator's clan, or an admin.
func CanManageEvent(actor Actor, creatorID, creatorClanID string) bool {
	if CanActOnSelf(actor, creatorID) {
		return true
	}
	return CanManageRoster(actor, creatorClanID)
}
