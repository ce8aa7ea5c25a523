package member

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sourceFake struct {
	memberErr  error
	userErr    error
	profileErr error

	member  ResolvedMember
	user    FetchedUser
	profile ProxyReference

	profileCalls int
}

func (s *sourceFake) Member(_ context.Context, guild, user snowflake.ID) (ResolvedMember, error) {
	if s.memberErr != nil {
		return ResolvedMember{}, s.memberErr
	}
	m := s.member
	m.UserID, m.GuildID = user, guild
	return m, nil
}

func (s *sourceFake) User(_ context.Context, user snowflake.ID) (FetchedUser, error) {
	if s.userErr != nil {
		return FetchedUser{}, s.userErr
	}
	u := s.user
	u.UserID = user
	return u, nil
}

func (s *sourceFake) Profile(_ context.Context, _ snowflake.ID) (ProxyReference, error) {
	s.profileCalls++
	if s.profileErr != nil {
		return ProxyReference{}, s.profileErr
	}
	return s.profile, nil
}

func newTestResolver(s *sourceFake) *Resolver {
	return NewResolver(slog.New(slog.NewTextHandler(io.Discard, nil)), s, s, s)
}

func TestResolveMember(t *testing.T) {
	s := &sourceFake{member: ResolvedMember{Username: "snek", Nick: "Sneky"}}
	u, err := newTestResolver(s).Resolve(context.Background(), 1, 2)
	require.NoError(t, err)

	m, ok := u.(ResolvedMember)
	require.True(t, ok)
	assert.Equal(t, snowflake.ID(2), m.ID())
	assert.Equal(t, snowflake.ID(1), m.GuildID)
	assert.Equal(t, "Sneky", m.DisplayName())
	assert.Equal(t, "<@2>", m.Mention())
}

func TestResolveFetchedUser(t *testing.T) {
	s := &sourceFake{
		memberErr: fmt.Errorf("unknown member: %w", ErrNotFound),
		user:      FetchedUser{Username: "snek", Discriminator: "0"},
	}
	u, err := newTestResolver(s).Resolve(context.Background(), 1, 2)
	require.NoError(t, err)

	_, ok := u.(FetchedUser)
	require.True(t, ok)
	assert.Equal(t, "snek", u.DisplayName())
	assert.Zero(t, s.profileCalls)
}

func TestResolveUnknownUser(t *testing.T) {
	s := &sourceFake{
		memberErr: ErrNotFound,
		userErr:   fmt.Errorf("unknown user: %w", ErrNotFound),
	}
	_, err := newTestResolver(s).Resolve(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrUnknownUser)
	assert.Zero(t, s.profileCalls)
}

func TestResolveFallsBackToProxy(t *testing.T) {
	s := &sourceFake{
		memberErr: ErrNotFound,
		userErr:   errors.New("bad gateway"),
		profile:   ProxyReference{Name: "stored-name"},
	}
	u, err := newTestResolver(s).Resolve(context.Background(), 1, 2)
	require.NoError(t, err)

	p, ok := u.(ProxyReference)
	require.True(t, ok)
	assert.Equal(t, snowflake.ID(2), p.ID())
	assert.Equal(t, "stored-name", p.DisplayName())
}

func TestResolveProxyUnknownToSite(t *testing.T) {
	s := &sourceFake{profileErr: fmt.Errorf("status 404: %w", ErrNotFound)}
	u, err := newTestResolver(s).ResolveProxy(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "<@42>", u.DisplayName())
}

func TestResolveProxySiteFailure(t *testing.T) {
	s := &sourceFake{profileErr: errors.New("status 500")}
	_, err := newTestResolver(s).ResolveProxy(context.Background(), 42)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
