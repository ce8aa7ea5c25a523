package member

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"
)

var (
	// ErrNotFound is wrapped by sources when the requested member, user or profile does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnknownUser is returned by the Resolver when the platform reports the user does not exist.
	ErrUnknownUser = errors.New("user does not exist")
)

// MemberSource looks up guild members.
type MemberSource interface {
	Member(ctx context.Context, guild, user snowflake.ID) (ResolvedMember, error)
}

// UserSource fetches platform users by id.
type UserSource interface {
	User(ctx context.Context, user snowflake.ID) (FetchedUser, error)
}

// ProfileSource looks up what the site API knows about a user.
type ProfileSource interface {
	Profile(ctx context.Context, user snowflake.ID) (ProxyReference, error)
}

// Resolver turns a bare user id into a User, trying the guild first, then the platform,
// then the site API.
type Resolver struct {
	log      *slog.Logger
	members  MemberSource
	users    UserSource
	profiles ProfileSource
}

// NewResolver ...
func NewResolver(log *slog.Logger, members MemberSource, users UserSource, profiles ProfileSource) *Resolver {
	return &Resolver{log: log, members: members, users: users, profiles: profiles}
}

// Resolve resolves id within guild. A user who is not a member of the guild is fetched from
// the platform; if the platform fails for any reason other than the user not existing, a
// proxy reference is returned instead.
func (r *Resolver) Resolve(ctx context.Context, guild, id snowflake.ID) (User, error) {
	m, err := r.members.Member(ctx, guild, id)
	if err == nil {
		return m, nil
	}
	r.log.Debug("user is not a guild member, fetching", "user", id, "guild", guild, "error", err)

	u, err := r.users.User(ctx, id)
	switch {
	case err == nil:
		return u, nil
	case errors.Is(err, ErrNotFound):
		r.log.Debug("failed to fetch user, user does not exist", "user", id)
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, id)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	}

	r.log.Debug("failed to fetch user, returning proxy user instead", "user", id, "error", err)
	return r.ResolveProxy(ctx, id)
}

// ResolveProxy creates a proxy reference for id from the site API. A user unknown to the
// site API still produces a reference, with the mention as its display name.
func (r *Resolver) ResolveProxy(ctx context.Context, id snowflake.ID) (User, error) {
	p, err := r.profiles.Profile(ctx, id)
	if err == nil {
		p.UserID = id
		return p, nil
	}
	if errors.Is(err, ErrNotFound) {
		return ProxyReference{UserID: id}, nil
	}
	return nil, fmt.Errorf("resolve proxy user %s: %w", id, err)
}
