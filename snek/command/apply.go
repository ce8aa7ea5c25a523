package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sneknetwork/snek/snek/infraction"
	"github.com/sneknetwork/snek/snek/member"
)

// Apply runs the command applying an infraction of kind.
func (m *Moderation) Apply(ctx context.Context, kind infraction.Kind, r Request) (Reply, error) {
	switch kind {
	case infraction.Ban:
		return m.Ban(ctx, r)
	case infraction.Kick:
		return m.Kick(ctx, r)
	case infraction.Mute:
		return m.Mute(ctx, r)
	case infraction.Watch:
		return m.Watch(ctx, r)
	case infraction.ForceNick:
		return m.ForceNick(ctx, r)
	case infraction.Warning:
		return m.Warn(ctx, r)
	case infraction.Note:
		return m.Note(ctx, r)
	}
	return Reply{Message: failedApply}, fmt.Errorf("%w: unknown type %s", infraction.ErrInvalidPayload, kind)
}

// Ban bans the target, who does not need to be a member of the guild.
func (m *Moderation) Ban(ctx context.Context, r Request) (Reply, error) {
	target, err := m.resolver.Resolve(ctx, r.Guild, r.Target)
	if err != nil {
		return Reply{Message: failedApply}, err
	}
	return m.apply(ctx, r, infraction.Ban, target, infraction.Notify, func(ctx context.Context) error {
		return m.enforcer.Ban(ctx, r.Guild, target.ID(), r.Reason, m.conf.BanDeleteMessageSeconds)
	})
}

// Kick removes the target from the guild.
func (m *Moderation) Kick(ctx context.Context, r Request) (Reply, error) {
	target, err := m.member(ctx, r.Guild, r.Target)
	if err != nil {
		return Reply{Message: failedApply}, err
	}
	return m.apply(ctx, r, infraction.Kick, target, infraction.Notify, func(ctx context.Context) error {
		return m.enforcer.Kick(ctx, r.Guild, target.ID(), r.Reason)
	})
}

// Mute gives the target the mute role of the guild.
func (m *Moderation) Mute(ctx context.Context, r Request) (Reply, error) {
	role, ok := m.conf.MuteRoles[r.Guild]
	if !ok {
		return Reply{Message: failedApply}, ErrNoMuteRole
	}
	target, err := m.member(ctx, r.Guild, r.Target)
	if err != nil {
		return Reply{Message: failedApply}, err
	}
	return m.apply(ctx, r, infraction.Mute, target, infraction.Notify, func(ctx context.Context) error {
		return m.enforcer.AddRole(ctx, r.Guild, target.ID(), role, r.Reason)
	})
}

// Watch records that the target is being watched. Nothing happens on the platform.
func (m *Moderation) Watch(ctx context.Context, r Request) (Reply, error) {
	target, err := m.resolver.Resolve(ctx, r.Guild, r.Target)
	if err != nil {
		return Reply{Message: failedApply}, err
	}
	return m.apply(ctx, r, infraction.Watch, target, infraction.Notify, nil)
}

// ForceNick changes the nickname of the target.
func (m *Moderation) ForceNick(ctx context.Context, r Request) (Reply, error) {
	nick := strings.TrimSpace(r.Nickname)
	if nick == "" {
		return Reply{Message: failedApply}, ErrNoNickname
	}
	target, err := m.member(ctx, r.Guild, r.Target)
	if err != nil {
		return Reply{Message: failedApply}, err
	}
	return m.apply(ctx, r, infraction.ForceNick, target, infraction.Notify, func(ctx context.Context) error {
		return m.enforcer.SetNickname(ctx, r.Guild, target.ID(), nick, r.Reason)
	})
}

// Warn warns the target.
func (m *Moderation) Warn(ctx context.Context, r Request) (Reply, error) {
	target, err := m.member(ctx, r.Guild, r.Target)
	if err != nil {
		return Reply{Message: failedApply}, err
	}
	return m.apply(ctx, r, infraction.Warning, target, infraction.Notify, nil)
}

// Note keeps a note on the target, who is not told about it.
func (m *Moderation) Note(ctx context.Context, r Request) (Reply, error) {
	if strings.TrimSpace(r.Reason) == "" {
		return Reply{Message: failedApply}, ErrNoReason
	}
	target, err := m.resolver.Resolve(ctx, r.Guild, r.Target)
	if err != nil {
		return Reply{Message: failedApply}, err
	}
	return m.apply(ctx, r, infraction.Note, target, infraction.Hidden, nil)
}

// apply applies an infraction of kind to target and schedules its expiry.
func (m *Moderation) apply(ctx context.Context, r Request, kind infraction.Kind, target member.User, vis infraction.Visibility, enforce infraction.Action) (Reply, error) {
	actor, err := m.resolver.Resolve(ctx, r.Guild, r.Actor)
	if err != nil {
		return Reply{Message: failedApply}, fmt.Errorf("resolve actor: %w", err)
	}

	out, err := m.engine.Apply(ctx, infraction.Payload{
		Kind:       kind,
		Target:     target,
		Actor:      actor,
		Guild:      m.guild(ctx, r.Guild),
		Reason:     r.Reason,
		Expiry:     m.expiry(kind, r.Duration),
		Visibility: vis,
	}, enforce)
	reply := applyReply(target, out)
	if err != nil {
		return reply, err
	}

	m.scheduleExpiry(out.Record)
	return reply, nil
}

// expiry returns the expiry of an infraction of kind lasting d. Only pardonable kinds
// expire.
func (m *Moderation) expiry(kind infraction.Kind, d time.Duration) infraction.Expiry {
	if d <= 0 || !kind.Pardonable() {
		return infraction.Permanent()
	}
	return infraction.ExpiresAt(m.now().Add(d))
}
