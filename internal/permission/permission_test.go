package permission

import "testing"

var (
	member = Actor{UserID: "u-member", Role: RoleMember, ClanID: "clan-a"}
	leader = Actor{UserID: "u-leader", Role: RoleClanLeader, ClanID: "clan-a"}
	admin  = Actor{UserID: "u-admin", Role: RoleAdmin, ClanID: "clan-b"}
)

func TestCanActOnSelf(t *testing.T) {
	if !CanActOnSelf(member, "u-member") {
		t.Fatal("expected self-service to be allowed")
	}
	if CanActOnSelf(member, "u-other") {
		t.Fatal("expected mismatched target to be denied")
	}
	if CanActOnSelf(Actor{}, "") {
		t.Fatal("empty actor must never match empty target")
	}
}

func TestCanActOnClanMember(t *testing.T) {
	if !CanActOnClanMember(leader, "clan-a") {
		t.Fatal("leader should act on own clan")
	}
	if CanActOnClanMember(leader, "clan-b") {
		t.Fatal("leader must not act on foreign clan")
	}
	if CanActOnClanMember(member, "clan-a") {
		t.Fatal("member role must not pass the clan-leader check")
	}
	clanless := Actor{UserID: "u", Role: RoleClanLeader}
	if CanActOnClanMember(clanless, "") {
		t.Fatal("leader without a clan must not match empty target clan")
	}
}

func TestCanActOnAny(t *testing.T) {
	if !CanActOnAny(admin) {
		t.Fatal("admin should pass")
	}
	if CanActOnAny(leader) || CanActOnAny(member) {
		t.Fatal("non-admin roles must not pass")
	}
}

func TestCanActOnUser(t *testing.T) {
	cases := []struct {
		name         string
		actor        Actor
		targetUser   string
		targetClan   string
		want         bool
	}{
		{"self", member, "u-member", "clan-a", true},
		{"member on other", member, "u-other", "clan-a", false},
		{"leader same clan", leader, "u-other", "clan-a", true},
		{"leader other clan", leader, "u-other", "clan-b", false},
		{"admin anywhere", admin, "u-other", "clan-z", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanActOnUser(tc.actor, tc.targetUser, tc.targetClan); got != tc.want {
				t.Fatalf("CanActOnUser = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanProxyForUserExcludesSelfService(t *testing.T) {
	// A plain member proxying for themself is not an override path.
	if CanProxyForUser(member, "clan-a") {
		t.Fatal("member must not pass the proxy check")
	}
	if !CanProxyForUser(leader, "clan-a") {
		t.Fatal("leader should proxy within own clan")
	}
	if !CanProxyForUser(admin, "clan-z") {
		t.Fatal("admin should proxy anywhere")
	}
}

func TestCanManageRosterUsesCreatorClan(t *testing.T) {
	if !CanManageRoster(leader, "clan-a") {
		t.Fatal("leader of the creating clan should manage the roster")
	}
	if CanManageRoster(leader, "clan-b") {
		t.Fatal("leader of another clan must not manage the roster")
	}
	if !CanManageRoster(admin, "clan-z") {
		t.Fatal("admin should manage any roster")
	}
}

func TestCanManageEvent(t *testing.T) {
	creator := Actor{UserID: "u-creator", Role: RoleMember, ClanID: "clan-a"}
	if !CanManageEvent(creator, "u-creator", "clan-a") {
		t.Fatal("creator should manage own event")
	}
	if CanManageEvent(member, "u-creator", "clan-a") {
		t.Fatal("unrelated member must not manage the event")
	}
	if !CanManageEvent(leader, "u-creator", "clan-a") {
		t.Fatal("leader of creator's clan should manage the event")
	}
}

func TestRoleValid(t *testing.T) {
	for _, role := range []Role{RoleMember, RoleClanLeader, RoleAdmin} {
		if !role.Valid() {
			t.Fatalf("role %s should be valid", role)
		}
	}
	if Role("OWNER").Valid() {
		t.Fatal("unknown role must be invalid")
	}
}
