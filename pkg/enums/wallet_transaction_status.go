package enums

import "fmt"

// WalletTransactionStatus maps to the wallet_transaction_status_enum enum in Postgres.
// Only approved rows count toward the wallet balance.
type WalletTransactionStatus string

const (
	WalletTransactionStatusPending  WalletTransactionStatus = "pending"
	WalletTransactionStatusApproved WalletTransactionStatus = "approved"
	WalletTransactionStatusDeclined WalletTransactionStatus = "declined"
)

var validWalletTransactionStatuses = []WalletTransactionStatus{
	WalletTransactionStatusPending,
	WalletTransactionStatusApproved,
	WalletTransactionStatusDeclined,
}

// IsValid reports whether the value matches the canonical status enum.
func (s WalletTransactionStatus) IsValid() bool {
	for _, candidate := range validWalletTransactionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseWalletTransactionStatus converts raw input into WalletTransactionStatus.
func ParseWalletTransactionStatus(value string) (WalletTransactionStatus, error) {
	for _, candidate := range validWalletTransactionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet transaction status %q", value)
}
