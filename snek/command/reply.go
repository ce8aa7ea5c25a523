package command

import (
	"fmt"
	"strings"

	"github.com/sneknetwork/snek/snek/infraction"
	"github.com/sneknetwork/snek/snek/member"
)

// Reply is the answer of a command to the moderator who used it.
type Reply struct {
	Status  infraction.Status
	Message string
	// Record is the infraction the command applied or pardoned, if any.
	Record *infraction.Record
}

const failedApply = "❌ Failed to apply infraction."

// deliveryPrefix shows whether the target was told about the infraction.
func deliveryPrefix(d infraction.Delivery) string {
	switch d {
	case infraction.DeliverySent:
		return "📬 "
	case infraction.DeliveryFailed:
		return "📭 "
	}
	return ""
}

// applyReply renders the outcome of applying an infraction to target.
func applyReply(target member.User, out infraction.ApplyOutcome) Reply {
	r := Reply{Status: out.Status}
	if out.Record.Persisted() {
		r.Record = &out.Record
	}

	var b strings.Builder
	switch out.Status {
	case infraction.StatusApplied:
		b.WriteString(deliveryPrefix(out.Delivery))
		fmt.Fprintf(&b, "👌 Applied %s to %s.", out.Record.Kind.Label(), target.Mention())
		if out.OtherActive != nil && *out.OtherActive > 0 {
			fmt.Fprintf(&b, " (%d total)", *out.OtherActive)
		}
	case infraction.StatusOrphaned:
		b.WriteString(failedApply)
		fmt.Fprintf(&b, " Infraction #%d could not be removed and has to be deleted manually.", out.Record.ID)
	default:
		b.WriteString(failedApply)
	}
	r.Message = b.String()
	return r
}

// pardonReply renders the outcome of pardoning an infraction of kind against target.
func pardonReply(kind infraction.Kind, target member.User, out infraction.PardonOutcome) Reply {
	r := Reply{Status: out.Status}
	if out.Record.Persisted() {
		r.Record = &out.Record
	}

	switch out.Status {
	case infraction.StatusPardoned:
		r.Message = fmt.Sprintf("%s👌 Pardoned %s of %s.", deliveryPrefix(out.Delivery), kind.Label(), target.Mention())
	case infraction.StatusNothingToPardon:
		r.Message = fmt.Sprintf("❌ %s does not have an active %s.", target.Mention(), kind.Label())
	case infraction.StatusInconsistent:
		r.Message = fmt.Sprintf("⚠️ Pardoned %s of %s, but infraction #%d could not be marked inactive.",
			kind.Label(), target.Mention(), out.Record.ID)
	default:
		r.Message = fmt.Sprintf("❌ Failed to pardon %s of %s.", kind.Label(), target.Mention())
	}
	return r
}
