package api

import (
	"context"
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/lo"

	"github.com/sneknetwork/snek/snek/infraction"
)

// infractionModel is an infraction as sent to and returned by the site API.
type infractionModel struct {
	ID        int             `json:"id,omitempty"`
	Type      infraction.Kind `json:"type"`
	Reason    *string         `json:"reason"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	User      wireID          `json:"user"`
	Actor     wireID          `json:"actor"`
	Guild     wireID          `json:"guild"`
	Active    bool            `json:"active"`
	Hidden    bool            `json:"hidden"`
}

// patchModel is a partial infraction update.
type patchModel struct {
	Active *bool   `json:"active,omitempty"`
	Reason *string `json:"reason,omitempty"`
}

// filterModel is the query of an infraction listing.
type filterModel struct {
	User   *snowflake.ID    `url:"user,omitempty"`
	Guild  *snowflake.ID    `url:"guild,omitempty"`
	Type   *infraction.Kind `url:"type,omitempty"`
	Active *bool            `url:"active,omitempty"`
	Hidden *bool            `url:"hidden,omitempty"`
}

func newInfractionModel(r infraction.Record) infractionModel {
	m := infractionModel{
		ID:     r.ID,
		Type:   r.Kind,
		User:   wireID(r.User),
		Actor:  wireID(r.Actor),
		Guild:  wireID(r.Guild),
		Active: r.Active,
		Hidden: r.Hidden(),
	}
	if r.Reason != "" {
		m.Reason = lo.ToPtr(r.Reason)
	}
	if at, ok := r.Expiry.Time(); ok {
		m.ExpiresAt = lo.ToPtr(at)
	}
	return m
}

func (m infractionModel) record() infraction.Record {
	r := infraction.Record{
		ID:         m.ID,
		Kind:       m.Type,
		User:       snowflake.ID(m.User),
		Actor:      snowflake.ID(m.Actor),
		Guild:      snowflake.ID(m.Guild),
		Reason:     lo.FromPtr(m.Reason),
		Expiry:     infraction.Permanent(),
		Active:     m.Active,
		Visibility: infraction.Notify,
	}
	if m.ExpiresAt != nil {
		r.Expiry = infraction.ExpiresAt(*m.ExpiresAt)
	}
	if m.Hidden {
		r.Visibility = infraction.Hidden
	}
	return r
}

// Infractions is the infractions resource of the site API. It implements infraction.Store.
type Infractions struct {
	c *Client
}

// Infractions returns the infractions resource.
func (c *Client) Infractions() *Infractions {
	return &Infractions{c: c}
}

// Create posts r and returns the record as stored, including its id.
func (i *Infractions) Create(ctx context.Context, r infraction.Record) (infraction.Record, error) {
	var resp infractionModel
	if err := i.c.post(ctx, "infractions", newInfractionModel(r), &resp); err != nil {
		return infraction.Record{}, err
	}
	return resp.record(), nil
}

// List returns all records matching f.
func (i *Infractions) List(ctx context.Context, f infraction.Filter) ([]infraction.Record, error) {
	var resp []infractionModel
	q := filterModel{User: f.User, Guild: f.Guild, Type: f.Kind, Active: f.Active, Hidden: f.Hidden}
	if err := i.c.get(ctx, "infractions", q, &resp); err != nil {
		return nil, err
	}
	return lo.Map(resp, func(m infractionModel, _ int) infraction.Record {
		return m.record()
	}), nil
}

// Patch updates the fields of record id set in p.
func (i *Infractions) Patch(ctx context.Context, id int, p infraction.Patch) (infraction.Record, error) {
	var resp infractionModel
	if err := i.c.patch(ctx, "infractions/"+strconv.Itoa(id), patchModel(p), &resp); err != nil {
		return infraction.Record{}, err
	}
	return resp.record(), nil
}

// Delete removes record id.
func (i *Infractions) Delete(ctx context.Context, id int) error {
	return i.c.delete(ctx, "infractions/"+strconv.Itoa(id))
}
