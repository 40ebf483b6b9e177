package enums

import "fmt"

// EarningSource identifies which event-source table produced a commission.
type EarningSource string

const (
	EarningSourceReferral       EarningSource = "referral"
	EarningSourceDataOrder      EarningSource = "data_order"
	EarningSourceWholesaleOrder EarningSource = "wholesale_order"
	EarningSourceVoucherOrder   EarningSource = "voucher_order"
)

var validEarningSources = []EarningSource{
	EarningSourceReferral,
	EarningSourceDataOrder,
	EarningSourceWholesaleOrder,
	EarningSourceVoucherOrder,
}

// AllEarningSources returns every source in fan-out order.
func AllEarningSources() []EarningSource {
	sources := make([]EarningSource, len(validEarningSources))
	copy(sources, validEarningSources)
	return sources
}

// IsValid reports whether the value matches a known event source.
func (s EarningSource) IsValid() bool {
	for _, candidate := range validEarningSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseEarningSource converts raw input into EarningSource.
func ParseEarningSource(value string) (EarningSource, error) {
	for _, candidate := range validEarningSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid earning source %q", value)
}
