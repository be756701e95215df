package application

import (
	"context"
	"errors"

	"github.com/example/clan-roster/internal/permission"
	"github.com/example/clan-roster/internal/persistence"
)

// canManageEvent reports whether the actor may mutate the event itself:
// the creator, an admin, or a clan leader of the creator's clan. The
// directory lookup only happens on the clan-leader path.
func canManageEvent(ctx context.Context, users UserDirectory, actor permission.Actor, event persistence.Event) (bool, error) {
	if permission.CanActOnSelf(actor, event.CreatorID) || permission.CanActOnAny(actor) {
		return true, nil
	}
	if actor.Role != permission.RoleClanLeader {
		return false, nil
	}
	creator, err := lookupUser(ctx, users, event.CreatorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return permission.CanActOnClanMember(actor, creator.ClanID), nil
}

// canManageRoster reports whether the actor may edit the event's structure
// (squads, slots, communication nodes). The scoping rule keys off the
// event creator's clan, not any target user's clan.
func canManageRoster(ctx context.Context, users UserDirectory, actor permission.Actor, event persistence.Event) (bool, error) {
	if permission.CanActOnAny(actor) {
		return true, nil
	}
	if actor.Role != permission.RoleClanLeader {
		return false, nil
	}
	creator, err := lookupUser(ctx, users, event.CreatorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return permission.CanManageRoster(actor, creator.ClanID), nil
}

// canActOnUser reports whether the actor may assign or release on behalf of
// targetUserID: self-service, clan-leader proxy, or admin. An unknown target
// on the proxy path surfaces ErrNotFound.
func canActOnUser(ctx context.Context, users UserDirectory, actor permission.Actor, targetUserID string) (bool, error) {
	if permission.CanActOnSelf(actor, targetUserID) || permission.CanActOnAny(actor) {
		return true, nil
	}
	if actor.Role != permission.RoleClanLeader {
		return false, nil
	}
	target, err := lookupUser(ctx, users, targetUserID)
	if err != nil {
		return false, err
	}
	return permission.CanActOnClanMember(actor, target.ClanID), nil
}

// canProxyForUser is the admin-override variant: clan-leader proxy or admin,
// never plain self-service.
func canProxyForUser(ctx context.Context, users UserDirectory, actor permission.Actor, targetUserID string) (bool, error) {
	if permission.CanActOnAny(actor) {
		return true, nil
	}
	if actor.Role != permission.RoleClanLeader {
		return false, nil
	}
	target, err := lookupUser(ctx, users, targetUserID)
	if err != nil {
		return false, err
	}
	return permission.CanProxyForUser(actor, target.ClanID), nil
}

func lookupUser(ctx context.Context, users UserDirectory, id string) (UserRef, error) {
	if users == nil {
		return UserRef{}, ErrNotFound
	}
	ref, err := users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			return UserRef{}, ErrNotFound
		}
		return UserRef{}, err
	}
	return ref, nil
}

// mapRepoError translates persistence sentinels into the application
// taxonomy.
func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrConflict):
		return ErrConflict
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrConflict
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return ErrNotFound
	}
	return err
}
