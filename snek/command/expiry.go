package command

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/sneknetwork/snek/snek/infraction"
	"github.com/sneknetwork/snek/snek/internal"
	"github.com/sneknetwork/snek/snek/member"
)

// expiryReason is shown in the audit log of automatic pardons.
const expiryReason = "Infraction expired"

// scheduleExpiry schedules the automatic pardon of rec, if it expires.
func (m *Moderation) scheduleExpiry(rec infraction.Record) {
	at, ok := rec.Expiry.Time()
	if !ok || !rec.Active || !rec.Kind.Pardonable() {
		return
	}
	m.expiries.ScheduleAt(at, rec.ID, func(ctx context.Context) error {
		return m.expire(ctx, rec)
	})
}

// expire pardons rec because its expiry passed.
func (m *Moderation) expire(ctx context.Context, rec infraction.Record) error {
	log := m.log.With("infraction", rec.ID, "type", rec.Kind.String(), "user", rec.User, "guild", rec.Guild)

	target, err := m.resolver.Resolve(ctx, rec.Guild, rec.User)
	if err != nil {
		log.Debug("failed to resolve user of expired infraction, using proxy user", "error", err)
		target = member.ProxyReference{UserID: rec.User}
	}

	reply, err := m.lift(ctx, rec.Kind, rec.Guild, target, expiryReason)
	if err != nil {
		return fmt.Errorf("pardon expired infraction #%d: %w", rec.ID, err)
	}
	log.Info("pardoned expired infraction", "status", reply.Status.String())
	return nil
}

// Expired returns every active infraction whose expiry has passed.
func (m *Moderation) Expired(ctx context.Context) ([]infraction.Record, error) {
	records, err := m.records.List(ctx, infraction.Filter{Active: lo.ToPtr(true)})
	if err != nil {
		return nil, fmt.Errorf("list active infractions: %w", err)
	}
	now := m.now()
	return lo.Filter(records, func(r infraction.Record, _ int) bool {
		return r.Expiry.Passed(now)
	}), nil
}

// LoadExpirations schedules the automatic pardon of every active infraction that expires
// within the configured lookahead. Infractions that have already expired are pardoned right
// away. It returns the number of pardons scheduled.
func (m *Moderation) LoadExpirations(ctx context.Context) (int, error) {
	records, err := m.records.List(ctx, infraction.Filter{Active: lo.ToPtr(true)})
	if err != nil {
		return 0, fmt.Errorf("list active infractions: %w", err)
	}

	now := m.now()
	var expired []infraction.Record
	scheduled := 0
	for _, rec := range records {
		at, ok := rec.Expiry.Time()
		switch {
		case !ok, m.expiries.Contains(rec.ID):
			// Permanent, or already scheduled.
		case rec.Expiry.Passed(now):
			expired = append(expired, rec)
		case m.conf.ExpiryLookahead > 0 && at.After(now.Add(m.conf.ExpiryLookahead)):
			// Picked up by a later load.
		default:
			m.scheduleExpiry(rec)
			scheduled++
		}
	}
	m.log.Debug("loaded infraction expirations", "scheduled", scheduled, "expired", len(expired), "pending", m.expiries.Len())

	m.Sweep(ctx, expired, func(rec infraction.Record, err error) {
		if err != nil {
			m.log.Error("failed to pardon expired infraction", "infraction", rec.ID, "error", err)
		}
	})
	return scheduled, nil
}

// RunExpirations loads expirations and, with a lookahead configured, reloads them twice per
// lookahead until ctx is done.
func (m *Moderation) RunExpirations(ctx context.Context) {
	load := func() {
		if _, err := m.LoadExpirations(ctx); err != nil {
			m.log.Error("failed to load infraction expirations", "error", err)
		}
	}
	load()
	if m.conf.ExpiryLookahead <= 0 {
		return
	}

	t := time.NewTicker(m.conf.ExpiryLookahead / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			load()
		}
	}
}

// Sweep pardons records as expired, running at most the configured number of workers at the
// same time. done, if non-nil, is called after each record. Sweep returns once every record
// was handled or ctx is done.
func (m *Moderation) Sweep(ctx context.Context, records []infraction.Record, done func(infraction.Record, error)) {
	if len(records) == 0 {
		return
	}
	workers := m.conf.ExpiryWorkers
	if workers <= 0 {
		workers = internal.DefaultExpiryWorkers
	}

	queue := make(chan infraction.Record, internal.ExpiryQueueSize)
	go func() {
		defer close(queue)
		for _, rec := range records {
			select {
			case queue <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Semaphore limiting the number of concurrent pardons.
	semaphore := make(chan struct{}, workers)
	var wg sync.WaitGroup
	defer wg.Wait()

	for rec := range queue {
		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
			return
		}
		wg.Add(1)
		go func(rec infraction.Record) {
			defer func() {
				<-semaphore
				wg.Done()
			}()
			err := m.expire(ctx, rec)
			if done != nil {
				done(rec, err)
			}
		}(rec)
	}
}
