package domain

import (
	"database/sql/driver"
	"fmt"
)

// ReturnStatus is the lifecycle state of a return request. The set is closed:
// tables keyed by status are sized with ReturnStatusCount.
type ReturnStatus uint8

const (
	ReturnStatusPending ReturnStatus = iota
	ReturnStatusApproved
	ReturnStatusShipped
	ReturnStatusReceived
	ReturnStatusInspected
	ReturnStatusCompleted
	ReturnStatusCancelled

	ReturnStatusCount
)

// ReturnStatusAll is the filter sentinel meaning "any status".
const ReturnStatusAll = "all"

var returnStatusNames = [ReturnStatusCount]string{
	ReturnStatusPending:   "pending",
	ReturnStatusApproved:  "approved",
	ReturnStatusShipped:   "shipped",
	ReturnStatusReceived:  "received",
	ReturnStatusInspected: "inspected",
	ReturnStatusCompleted: "completed",
	ReturnStatusCancelled: "cancelled",
}

// AllReturnStatuses lists every status in lifecycle order.
func AllReturnStatuses() []ReturnStatus {
	out := make([]ReturnStatus, 0, ReturnStatusCount)
	for s := ReturnStatus(0); s < ReturnStatusCount; s++ {
		out = append(out, s)
	}
	return out
}

// ParseReturnStatus maps a wire value onto a ReturnStatus.
func ParseReturnStatus(v string) (ReturnStatus, error) {
	for i, name := range returnStatusNames {
		if name == v {
			return ReturnStatus(i), nil
		}
	}
	return 0, NewInvalidArgumentError(fmt.Sprintf("unknown return status %q", v))
}

func (s ReturnStatus) String() string {
	if !s.IsValid() {
		return fmt.Sprintf("ReturnStatus(%d)", uint8(s))
	}
	return returnStatusNames[s]
}

func (s ReturnStatus) IsValid() bool {
	return s < ReturnStatusCount
}

// IsTerminal reports whether no further transition may leave s.
func (s ReturnStatus) IsTerminal() bool {
	return s == ReturnStatusCompleted || s == ReturnStatusCancelled
}

// IsOpen reports whether a request in s blocks another request on the same order.
func (s ReturnStatus) IsOpen() bool {
	return s.IsValid() && !s.IsTerminal()
}

// OpenReturnStatuses lists the non-terminal statuses.
func OpenReturnStatuses() []ReturnStatus {
	var out []ReturnStatus
	for _, s := range AllReturnStatuses() {
		if s.IsOpen() {
			out = append(out, s)
		}
	}
	return out
}

func (s ReturnStatus) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid return status %d", uint8(s))
	}
	return []byte(returnStatusNames[s]), nil
}

func (s *ReturnStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseReturnStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value stores the status as its wire name.
func (s ReturnStatus) Value() (driver.Value, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid return status %d", uint8(s))
	}
	return returnStatusNames[s], nil
}

func (s *ReturnStatus) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into ReturnStatus", src)
	}
}
