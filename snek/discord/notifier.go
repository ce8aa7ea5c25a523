package discord

import (
	"context"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/lo"

	"github.com/sneknetwork/snek/snek/infraction"
	"github.com/sneknetwork/snek/snek/member"
)

// noticeEmbed renders n as a Discord embed.
func noticeEmbed(n infraction.Notice) discord.Embed {
	at := n.At.UTC()
	return discord.Embed{
		Title:       n.Title(),
		Description: n.Description(),
		Color:       n.Colour(),
		Timestamp:   &at,
		Author:      &discord.EmbedAuthor{Name: n.Guild.Name, IconURL: n.Guild.IconURL},
		Fields: lo.Map(n.Fields(), func(f infraction.NoticeField, _ int) discord.EmbedField {
			return discord.EmbedField{Name: f.Name, Value: f.Value, Inline: lo.ToPtr(true)}
		}),
	}
}

// Notifier sends infraction notices as direct messages. It implements infraction.Notifier.
type Notifier struct {
	c *Client
}

// Notifier returns a notifier sending direct messages from the bot.
func (c *Client) Notifier() *Notifier {
	return &Notifier{c: c}
}

// Notify sends n to user as a direct message. It returns false without an error when the
// user cannot be messaged, such as when they disabled direct messages, left every shared
// guild or Discord failed to deliver. Any other failure is returned.
func (n *Notifier) Notify(ctx context.Context, user member.User, notice infraction.Notice) (bool, error) {
	if err := n.c.check(); err != nil {
		return false, err
	}
	log := n.c.log.With("user", user.ID())

	channel, err := n.channel(ctx, user.ID())
	if err != nil {
		if undeliverable(err) {
			log.Debug("failed to open dm channel", "error", err)
			return false, nil
		}
		return false, err
	}

	_, err = n.c.rest.CreateMessage(channel, discord.MessageCreate{
		Embeds: []discord.Embed{noticeEmbed(notice)},
	}, n.c.opts(ctx, "")...)
	if err != nil {
		if undeliverable(err) {
			log.Debug("failed to send dm", "error", err)
			n.c.channels.Delete(user.ID())
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// channel returns the DM channel with user, opening it if it is not cached.
func (n *Notifier) channel(ctx context.Context, user snowflake.ID) (snowflake.ID, error) {
	if ch, ok := n.c.channels.Get(user); ok {
		return ch, nil
	}
	ch, err := n.c.rest.CreateDMChannel(user, n.c.opts(ctx, "")...)
	if err != nil {
		return 0, err
	}
	n.c.channels.Set(user, ch.ID())
	return ch.ID(), nil
}
