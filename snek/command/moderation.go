// Package command implements the moderation commands. Each command resolves the users it
// acts upon, builds the enforcement or reversal action for its kind and hands both to the
// infraction engine, then renders the outcome as a reply.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sneknetwork/snek/snek/infraction"
	"github.com/sneknetwork/snek/snek/member"
	"github.com/sneknetwork/snek/snek/scheduler"
)

var (
	// ErrNotMember is returned when a command needs its target to be a member of the guild.
	ErrNotMember = errors.New("user is not a member of this guild")
	// ErrNoMuteRole is returned for mutes in a guild without a configured mute role.
	ErrNoMuteRole = errors.New("no mute role configured for this guild")
	// ErrNoNickname is returned when a nickname is forced without giving one.
	ErrNoNickname = errors.New("no nickname given")
	// ErrNoReason is returned for notes without a reason.
	ErrNoReason = errors.New("no reason given")
	// ErrNotPardonable is returned when pardoning a kind that is never active.
	ErrNotPardonable = errors.New("infraction type cannot be pardoned")
)

// Enforcer performs moderation actions on the platform.
type Enforcer interface {
	Ban(ctx context.Context, guild, user snowflake.ID, reason string, deleteMessageSeconds int) error
	Unban(ctx context.Context, guild, user snowflake.ID, reason string) error
	Kick(ctx context.Context, guild, user snowflake.ID, reason string) error
	AddRole(ctx context.Context, guild, user, role snowflake.ID, reason string) error
	RemoveRole(ctx context.Context, guild, user, role snowflake.ID, reason string) error
	SetNickname(ctx context.Context, guild, user snowflake.ID, nick, reason string) error
}

// GuildSource looks up guilds.
type GuildSource interface {
	Guild(ctx context.Context, id snowflake.ID) (infraction.Guild, error)
}

// Records lists stored infractions.
type Records interface {
	List(ctx context.Context, f infraction.Filter) ([]infraction.Record, error)
}

// Config holds the guild specific settings of the commands.
type Config struct {
	// MuteRoles maps guilds to the role given to muted members.
	MuteRoles map[snowflake.ID]snowflake.ID
	// BanDeleteMessageSeconds is how much message history of a banned user is deleted.
	BanDeleteMessageSeconds int
	// ExpiryWorkers is the number of expired infractions pardoned at the same time.
	ExpiryWorkers int
	// ExpiryLookahead limits loading expirations to those due within it. Zero loads all.
	ExpiryLookahead time.Duration
}

// Request holds the arguments of a moderation command.
type Request struct {
	Guild  snowflake.ID
	Actor  snowflake.ID
	Target snowflake.ID
	Reason string
	// Duration is how long the infraction stays active. Zero is permanent.
	Duration time.Duration
	// Nickname is the nickname forced on the target.
	Nickname string
}

// Moderation runs moderation commands.
type Moderation struct {
	log  *slog.Logger
	conf Config

	engine   *infraction.Engine
	enforcer Enforcer
	guilds   GuildSource
	members  member.MemberSource
	resolver *member.Resolver
	records  Records

	expiries *scheduler.Scheduler[int]
	now      func() time.Time
}

// NewModeration ...
func NewModeration(
	log *slog.Logger,
	conf Config,
	engine *infraction.Engine,
	enforcer Enforcer,
	guilds GuildSource,
	members member.MemberSource,
	resolver *member.Resolver,
	records Records,
	expiries *scheduler.Scheduler[int],
) *Moderation {
	return &Moderation{
		log:      log,
		conf:     conf,
		engine:   engine,
		enforcer: enforcer,
		guilds:   guilds,
		members:  members,
		resolver: resolver,
		records:  records,
		expiries: expiries,
		now:      time.Now,
	}
}

// guild looks up id. A failed lookup is not fatal, notices then carry no guild name.
func (m *Moderation) guild(ctx context.Context, id snowflake.ID) infraction.Guild {
	g, err := m.guilds.Guild(ctx, id)
	if err != nil {
		m.log.Warn("failed to fetch guild", "guild", id, "error", err)
		return infraction.Guild{ID: id}
	}
	return g
}

// member resolves id as a current member of guild.
func (m *Moderation) member(ctx context.Context, guild, id snowflake.ID) (member.User, error) {
	mem, err := m.members.Member(ctx, guild, id)
	if err != nil {
		if errors.Is(err, member.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotMember, member.Mention(id))
		}
		return nil, err
	}
	return mem, nil
}

// History returns every infraction of user in guild.
func (m *Moderation) History(ctx context.Context, guild, user snowflake.ID) ([]infraction.Record, error) {
	return m.records.List(ctx, infraction.Filter{User: &user, Guild: &guild})
}
