// Package infraction records, enforces and pardons moderation actions against guild members.
//
// An Engine coordinates three independent operations for every infraction: the record kept by
// the site API, the enforcement action taken on the platform, and a best-effort private
// notice to the affected user. The record never claims an infraction is in effect when its
// enforcement did not happen, and a pardon never marks a record inactive unless the
// restriction was actually lifted.
package infraction

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/samber/lo"

	"github.com/sneknetwork/snek/snek/internal"
	"github.com/sneknetwork/snek/snek/member"
)

// Store persists infraction records. Implementations must return at most one active record
// per kind, user and guild.
type Store interface {
	Create(ctx context.Context, r Record) (Record, error)
	List(ctx context.Context, f Filter) ([]Record, error)
	Patch(ctx context.Context, id int, p Patch) (Record, error)
	Delete(ctx context.Context, id int) error
}

// Notifier delivers notices to users. It returns false without an error for every expected
// reason a notice cannot be delivered, such as the user having private messages disabled.
type Notifier interface {
	Notify(ctx context.Context, user member.User, n Notice) (bool, error)
}

// Action is a deferred, fallible platform operation, such as banning a member. The engine
// runs an action at most once.
type Action func(ctx context.Context) error

// Engine applies and pardons infractions. It holds no state of its own and is safe for
// concurrent use.
type Engine struct {
	log      *slog.Logger
	store    Store
	notifier Notifier

	now func() time.Time
}

// NewEngine ...
func NewEngine(log *slog.Logger, store Store, notifier Notifier) *Engine {
	return &Engine{
		log:      log,
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// Apply records the infraction described by p, notifies its target unless it is hidden and
// runs enforce, if given.
//
// If the record cannot be created nothing else happens and the error is returned. If enforce
// fails, the record is deleted again and an *EnforcementError is returned along with an
// outcome of StatusCompensated, or StatusOrphaned when the delete failed too. A notice sent
// before enforcement failed is not retracted.
func (e *Engine) Apply(ctx context.Context, p Payload, enforce Action) (ApplyOutcome, error) {
	if err := p.validate(); err != nil {
		return ApplyOutcome{}, err
	}
	log := e.log.With("type", p.Kind.String(), "user", p.Target.ID(), "guild", p.Guild.ID)

	log.Debug("posting infraction to the site api")
	rec, err := e.store.Create(ctx, p.record())
	if err != nil {
		appliedCount.WithLabelValues(p.Kind.String(), "persist_failed").Inc()
		return ApplyOutcome{}, fmt.Errorf("persist %s: %w", p.Kind, err)
	}
	if !rec.Persisted() {
		appliedCount.WithLabelValues(p.Kind.String(), "persist_failed").Inc()
		return ApplyOutcome{}, fmt.Errorf("persist %s: site api returned a record without id", p.Kind)
	}
	log = log.With("infraction", rec.ID)
	out := ApplyOutcome{Record: rec}

	switch p.Visibility {
	case Hidden:
		out.Delivery = DeliverySkipped
	case Notify:
		out.Delivery = e.notify(ctx, log, p.Target, InfractionNotice(rec, p.Guild, e.now()))
	}

	if enforce != nil {
		log.Debug("running enforcement action")
		if err = run(ctx, enforce); err != nil {
			return e.compensate(ctx, log, out, err)
		}
	}

	out.Status = StatusApplied
	out.OtherActive = e.countOtherActive(ctx, log, rec)
	appliedCount.WithLabelValues(p.Kind.String(), out.Status.String()).Inc()

	log.Info("applied infraction", "delivery", out.Delivery.Notified())
	return out, nil
}

// compensate removes the record of an infraction whose enforcement failed. It runs even when
// ctx is done, so that a cancelled call does not leave an active record behind.
func (e *Engine) compensate(ctx context.Context, log *slog.Logger, out ApplyOutcome, cause error) (ApplyOutcome, error) {
	log.Error("failed to apply infraction", "error", cause)
	enfErr := &EnforcementError{RecordID: out.Record.ID, Kind: out.Record.Kind, Err: cause}

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), internal.CleanupTimeout)
	defer cancel()

	if err := e.store.Delete(cctx, out.Record.ID); err != nil {
		enfErr.Compensation = err
		out.Status = StatusOrphaned
		log.Error("failed to remove infraction after enforcement failure", "error", err)
		capture(enfErr, out.Record)
	} else {
		out.Status = StatusCompensated
		log.Debug("removed infraction after enforcement failure")
	}

	appliedCount.WithLabelValues(out.Record.Kind.String(), out.Status.String()).Inc()
	return out, enfErr
}

// countOtherActive returns the number of the target's active, visible infractions other than
// rec, or nil if the site API could not be queried.
func (e *Engine) countOtherActive(ctx context.Context, log *slog.Logger, rec Record) *int {
	records, err := e.store.List(ctx, Filter{
		User:   lo.ToPtr(rec.User),
		Active: lo.ToPtr(true),
		Hidden: lo.ToPtr(false),
	})
	if err != nil {
		log.Warn("failed to count active infractions", "error", err)
		return nil
	}
	n := lo.CountBy(records, func(r Record) bool {
		return r.ID != rec.ID
	})
	return &n
}

// Pardon lifts the active infraction of kind against target in guild by running reverse and
// then marking the record inactive. Pardons of bans are not notified, since a banned user
// usually cannot be messaged any more.
//
// If there is no active infraction, the outcome is StatusNothingToPardon and no error is
// returned. If reverse fails, the record is left active and a *ReversalError is returned. If
// the record cannot be marked inactive after reverse succeeded, an *InconsistencyError is
// returned with an outcome of StatusInconsistent.
func (e *Engine) Pardon(ctx context.Context, kind Kind, target member.User, guild Guild, reverse Action) (PardonOutcome, error) {
	if target == nil || guild.ID == 0 {
		return PardonOutcome{}, fmt.Errorf("%w: pardon needs a target and a guild", ErrInvalidPayload)
	}
	log := e.log.With("type", kind.String(), "user", target.ID(), "guild", guild.ID)

	records, err := e.store.List(ctx, Filter{
		User:   lo.ToPtr(target.ID()),
		Guild:  lo.ToPtr(guild.ID),
		Kind:   lo.ToPtr(kind),
		Active: lo.ToPtr(true),
	})
	if err != nil {
		pardonedCount.WithLabelValues(kind.String(), "lookup_failed").Inc()
		return PardonOutcome{}, fmt.Errorf("find active %s: %w", kind, err)
	}

	rec, ok := lo.Find(records, func(r Record) bool {
		return r.Active && r.Kind == kind
	})
	if !ok {
		log.Debug("no active infraction to pardon")
		pardonedCount.WithLabelValues(kind.String(), StatusNothingToPardon.String()).Inc()
		return PardonOutcome{Status: StatusNothingToPardon}, nil
	}
	if len(records) > 1 {
		log.Warn("found more than one active infraction, pardoning the first", "count", len(records))
	}
	log = log.With("infraction", rec.ID)
	out := PardonOutcome{Record: rec}

	if reverse != nil {
		log.Debug("running reversal action")
		if err = run(ctx, reverse); err != nil {
			log.Error("failed to reverse infraction", "error", err)
			out.Status = StatusReversalFailed
			pardonedCount.WithLabelValues(kind.String(), out.Status.String()).Inc()
			return out, &ReversalError{RecordID: rec.ID, Kind: kind, Err: err}
		}
	}

	// The restriction is lifted at this point, so the record is updated even if the caller
	// has gone away in the meantime.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), internal.CleanupTimeout)
	defer cancel()

	patched, err := e.store.Patch(pctx, rec.ID, Patch{Active: lo.ToPtr(false)})
	if err != nil {
		incErr := &InconsistencyError{RecordID: rec.ID, Kind: kind, Err: err}
		log.Error("restriction lifted but infraction could not be marked inactive", "error", err)
		capture(incErr, rec)

		out.Status = StatusInconsistent
		pardonedCount.WithLabelValues(kind.String(), out.Status.String()).Inc()
		return out, incErr
	}
	if patched.Persisted() {
		out.Record = patched
	} else {
		out.Record.Active = false
	}
	out.Status = StatusPardoned

	switch kind {
	case Ban:
		out.Delivery = DeliverySkipped
	default:
		out.Delivery = e.notify(ctx, log, target, PardonNotice(out.Record, guild, e.now()))
	}
	pardonedCount.WithLabelValues(kind.String(), out.Status.String()).Inc()

	log.Info("pardoned infraction", "delivery", out.Delivery.Notified())
	return out, nil
}

// notify sends n to user. Failing to deliver never fails the calling flow.
func (e *Engine) notify(ctx context.Context, log *slog.Logger, user member.User, n Notice) Delivery {
	log.Debug("sending notice", "pardon", n.Pardon)

	ok, err := e.notifier.Notify(ctx, user, n)
	if err != nil {
		log.Warn("failed to send notice", "error", err)
		sentry.CaptureException(err)
		ok = false
	}
	notificationCount.WithLabelValues(n.Record.Kind.String(), strconv.FormatBool(ok)).Inc()

	if ok {
		return DeliverySent
	}
	log.Debug("notice was not delivered, most likely because the user has private messages disabled")
	return DeliveryFailed
}

// run executes a once. A panic raised by a is returned as an error like any other failure.
func run(ctx context.Context, a Action) (err error) {
	if err = ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()
	return a(ctx)
}

// capture reports an error that leaves the site API and the platform out of sync.
func capture(err error, r Record) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("infraction.id", strconv.Itoa(r.ID))
		scope.SetTag("infraction.type", r.Kind.String())
		scope.SetTag("guild", r.Guild.String())
		scope.SetTag("user", r.User.String())
		sentry.CaptureException(err)
	})
}
