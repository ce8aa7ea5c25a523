package infraction

import "fmt"

// EnforcementError is returned by Apply when the enforcement action failed after the record
// was persisted. Compensation holds the error of removing the record again, if that failed
// too; the record then still exists in the site API.
type EnforcementError struct {
	RecordID     int
	Kind         Kind
	Err          error
	Compensation error
}

// Error ...
func (e *EnforcementError) Error() string {
	if e.Compensation != nil {
		return fmt.Sprintf("apply %s: enforcement failed: %v; removing infraction #%d failed: %v",
			e.Kind, e.Err, e.RecordID, e.Compensation)
	}
	return fmt.Sprintf("apply %s: enforcement failed, infraction #%d removed: %v", e.Kind, e.RecordID, e.Err)
}

// Unwrap ...
func (e *EnforcementError) Unwrap() []error {
	if e.Compensation != nil {
		return []error{e.Err, e.Compensation}
	}
	return []error{e.Err}
}

// Compensated reports whether the record was removed.
func (e *EnforcementError) Compensated() bool {
	return e.Compensation == nil
}

// ReversalError is returned by Pardon when lifting the restriction failed. The record is
// left active.
type ReversalError struct {
	RecordID int
	Kind     Kind
	Err      error
}

// Error ...
func (e *ReversalError) Error() string {
	return fmt.Sprintf("pardon %s: reversing infraction #%d failed: %v", e.Kind, e.RecordID, e.Err)
}

// Unwrap ...
func (e *ReversalError) Unwrap() error {
	return e.Err
}

// InconsistencyError is returned by Pardon when the restriction was lifted but the record
// could not be marked inactive. The site API and the platform disagree until an operator
// repairs the record.
type InconsistencyError struct {
	RecordID int
	Kind     Kind
	Err      error
}

// Error ...
func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("pardon %s: restriction lifted but infraction #%d is still active: %v", e.Kind, e.RecordID, e.Err)
}

// Unwrap ...
func (e *InconsistencyError) Unwrap() error {
	return e.Err
}
