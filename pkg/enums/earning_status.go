package enums

// EarningStatus tracks the lifecycle of an event-source row. Only completed
// rows carry a commission; the eligibility predicate itself keys off the
// reservation columns, not this field.
type EarningStatus string

const (
	EarningStatusPending   EarningStatus = "pending"
	EarningStatusCompleted EarningStatus = "completed"
	EarningStatusCancelled EarningStatus = "cancelled"
)

// IsValid reports whether the value matches the canonical earning status enum.
func (s EarningStatus) IsValid() bool {
	switch s {
	case EarningStatusPending, EarningStatusCompleted, EarningStatusCancelled:
		return true
	}
	return false
}
