package infraction

// Status is the result of an Apply or Pardon call.
type Status uint8

const (
	StatusUnknown Status = iota
	// StatusApplied means the infraction was recorded and enforced.
	StatusApplied
	// StatusCompensated means enforcement failed and the record was removed again.
	StatusCompensated
	// StatusOrphaned means enforcement failed and the record could not be removed.
	StatusOrphaned
	// StatusPardoned means the restriction was lifted and the record marked inactive.
	StatusPardoned
	// StatusNothingToPardon means there was no active infraction to pardon.
	StatusNothingToPardon
	// StatusReversalFailed means lifting the restriction failed; the record stays active.
	StatusReversalFailed
	// StatusInconsistent means the restriction was lifted but the record is still active.
	StatusInconsistent
)

var statusNames = map[Status]string{
	StatusUnknown:         "unknown",
	StatusApplied:         "applied",
	StatusCompensated:     "compensated",
	StatusOrphaned:        "orphaned",
	StatusPardoned:        "pardoned",
	StatusNothingToPardon: "nothing_to_pardon",
	StatusReversalFailed:  "reversal_failed",
	StatusInconsistent:    "inconsistent",
}

// String ...
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return statusNames[StatusUnknown]
}

// MarshalText ...
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Delivery is the result of trying to notify the subject of an infraction.
type Delivery uint8

const (
	// DeliverySkipped means no notification was attempted.
	DeliverySkipped Delivery = iota
	// DeliverySent means the notice was delivered.
	DeliverySent
	// DeliveryFailed means the notice could not be delivered.
	DeliveryFailed
)

// Notified reports whether the notice was delivered.
func (d Delivery) Notified() bool {
	return d == DeliverySent
}

// ApplyOutcome is the result of applying an infraction.
type ApplyOutcome struct {
	Status Status
	// Record is the persisted record. After compensation it keeps the id it had.
	Record   Record
	Delivery Delivery
	// OtherActive is the number of other active, visible infractions of the target, or nil
	// if it could not be determined.
	OtherActive *int
}

// Success ...
func (o ApplyOutcome) Success() bool {
	return o.Status == StatusApplied
}

// PardonOutcome is the result of pardoning an infraction.
type PardonOutcome struct {
	Status Status
	// Record is the located active record, if there was one.
	Record   Record
	Delivery Delivery
}

// Success ...
func (o PardonOutcome) Success() bool {
	return o.Status == StatusPardoned
}
