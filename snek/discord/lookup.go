package discord

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/lo"

	"github.com/sneknetwork/snek/snek/infraction"
	"github.com/sneknetwork/snek/snek/member"
)

// Member returns user as a member of guild. The error wraps member.ErrNotFound if user is not
// in guild.
func (c *Client) Member(ctx context.Context, guild, user snowflake.ID) (member.ResolvedMember, error) {
	if err := c.check(); err != nil {
		return member.ResolvedMember{}, err
	}
	m, err := c.rest.GetMember(guild, user, c.opts(ctx, "")...)
	if err != nil {
		return member.ResolvedMember{}, classify(err)
	}
	return member.ResolvedMember{
		UserID:    m.User.ID,
		GuildID:   guild,
		Username:  m.User.EffectiveName(),
		Nick:      lo.FromPtr(m.Nick),
		AvatarURL: m.EffectiveAvatarURL(),
	}, nil
}

// User fetches user. The error wraps member.ErrNotFound if the user does not exist.
func (c *Client) User(ctx context.Context, user snowflake.ID) (member.FetchedUser, error) {
	if err := c.check(); err != nil {
		return member.FetchedUser{}, err
	}
	u, err := c.rest.GetUser(user, c.opts(ctx, "")...)
	if err != nil {
		return member.FetchedUser{}, classify(err)
	}
	return member.FetchedUser{
		UserID:        u.ID,
		Username:      u.Username,
		Discriminator: u.Discriminator,
		AvatarURL:     u.EffectiveAvatarURL(),
	}, nil
}

// Guild fetches guild.
func (c *Client) Guild(ctx context.Context, guild snowflake.ID) (infraction.Guild, error) {
	if err := c.check(); err != nil {
		return infraction.Guild{}, err
	}
	g, err := c.rest.GetGuild(guild, false, c.opts(ctx, "")...)
	if err != nil {
		return infraction.Guild{}, err
	}
	return infraction.Guild{ID: g.ID, Name: g.Name, IconURL: lo.FromPtr(g.IconURL())}, nil
}
