package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sneknetwork/snek/snek/infraction"
	"github.com/sneknetwork/snek/snek/member"
)

// Pardon runs the command pardoning the active infraction of kind.
func (m *Moderation) Pardon(ctx context.Context, kind infraction.Kind, r Request) (Reply, error) {
	switch kind {
	case infraction.Ban:
		return m.Unban(ctx, r)
	case infraction.Mute:
		return m.Unmute(ctx, r)
	case infraction.Watch:
		return m.Unwatch(ctx, r)
	case infraction.ForceNick:
		return m.Unnick(ctx, r)
	}
	return Reply{Message: fmt.Sprintf("❌ A %s cannot be pardoned.", kind.Label())}, fmt.Errorf("%w: %s", ErrNotPardonable, kind)
}

// Unban pardons the ban of the target. Banned users are usually not resolvable on the
// platform, so the target is looked up in the site API.
func (m *Moderation) Unban(ctx context.Context, r Request) (Reply, error) {
	target, err := m.resolver.ResolveProxy(ctx, r.Target)
	if err != nil {
		return m.failedPardon(infraction.Ban, r.Target), err
	}
	return m.pardon(ctx, infraction.Ban, r, target)
}

// Unmute pardons the mute of the target.
func (m *Moderation) Unmute(ctx context.Context, r Request) (Reply, error) {
	return m.resolveAndPardon(ctx, infraction.Mute, r)
}

// Unwatch pardons the watch of the target.
func (m *Moderation) Unwatch(ctx context.Context, r Request) (Reply, error) {
	return m.resolveAndPardon(ctx, infraction.Watch, r)
}

// Unnick pardons the forced nickname of the target.
func (m *Moderation) Unnick(ctx context.Context, r Request) (Reply, error) {
	return m.resolveAndPardon(ctx, infraction.ForceNick, r)
}

func (m *Moderation) resolveAndPardon(ctx context.Context, kind infraction.Kind, r Request) (Reply, error) {
	target, err := m.resolver.Resolve(ctx, r.Guild, r.Target)
	if err != nil {
		return m.failedPardon(kind, r.Target), err
	}
	return m.pardon(ctx, kind, r, target)
}

// pardon pardons the infraction and cancels its scheduled expiry once the restriction is
// lifted.
func (m *Moderation) pardon(ctx context.Context, kind infraction.Kind, r Request, target member.User) (Reply, error) {
	reply, err := m.lift(ctx, kind, r.Guild, target, pardonReason(r))
	if reply.Record != nil {
		switch reply.Status {
		case infraction.StatusPardoned, infraction.StatusInconsistent:
			m.expiries.Cancel(reply.Record.ID)
		}
	}
	return reply, err
}

// lift runs the engine pardon of kind with the reversal action of kind.
func (m *Moderation) lift(ctx context.Context, kind infraction.Kind, guild snowflake.ID, target member.User, reason string) (Reply, error) {
	reverse, err := m.reversal(kind, guild, target.ID(), reason)
	if err != nil {
		return m.failedPardon(kind, target.ID()), err
	}
	out, err := m.engine.Pardon(ctx, kind, target, m.guild(ctx, guild), reverse)
	return pardonReply(kind, target, out), err
}

// reversal returns the action lifting an infraction of kind. An unknown member counts as
// lifted, since members lose their roles and nickname when they leave.
func (m *Moderation) reversal(kind infraction.Kind, guild, user snowflake.ID, reason string) (infraction.Action, error) {
	switch kind {
	case infraction.Ban:
		return func(ctx context.Context) error {
			return m.enforcer.Unban(ctx, guild, user, reason)
		}, nil
	case infraction.Mute:
		role, ok := m.conf.MuteRoles[guild]
		if !ok {
			return nil, ErrNoMuteRole
		}
		return func(ctx context.Context) error {
			return ignoreNotFound(m.enforcer.RemoveRole(ctx, guild, user, role, reason))
		}, nil
	case infraction.ForceNick:
		return func(ctx context.Context) error {
			return ignoreNotFound(m.enforcer.SetNickname(ctx, guild, user, "", reason))
		}, nil
	case infraction.Watch:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotPardonable, kind)
}

// pardonReason returns the audit log reason of a pardon, naming the moderator who gave it.
func pardonReason(r Request) string {
	if r.Reason == "" {
		return fmt.Sprintf("Pardoned by %s", r.Actor)
	}
	return fmt.Sprintf("%s (pardoned by %s)", r.Reason, r.Actor)
}

func (m *Moderation) failedPardon(kind infraction.Kind, user snowflake.ID) Reply {
	return Reply{Message: fmt.Sprintf("❌ Failed to pardon %s of %s.", kind.Label(), member.Mention(user))}
}

func ignoreNotFound(err error) error {
	if errors.Is(err, member.ErrNotFound) {
		return nil
	}
	return err
}
