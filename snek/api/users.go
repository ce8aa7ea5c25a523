package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sneknetwork/snek/snek/member"
)

// userModel is a user as stored by the site API.
type userModel struct {
	ID        wireID `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// Profile returns what the site API knows about user. It implements member.ProfileSource, and
// the returned error wraps member.ErrNotFound if the site API does not know the user.
func (c *Client) Profile(ctx context.Context, user snowflake.ID) (member.ProxyReference, error) {
	var resp userModel
	if err := c.get(ctx, "users/"+user.String(), nil, &resp); err != nil {
		if errors.Is(err, ErrNotFound) {
			return member.ProxyReference{}, fmt.Errorf("%w: %w", member.ErrNotFound, err)
		}
		return member.ProxyReference{}, err
	}
	return member.ProxyReference{UserID: user, Name: resp.Name, AvatarURL: resp.AvatarURL}, nil
}
