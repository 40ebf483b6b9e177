package enums

import "fmt"

// WalletTransactionType maps to the wallet_transaction_type_enum enum in Postgres.
// Amounts are stored as positive magnitudes; the type determines the sign that
// the balance recomputation applies.
type WalletTransactionType string

const (
	WalletTransactionTypeTopup               WalletTransactionType = "topup"
	WalletTransactionTypeDeduction           WalletTransactionType = "deduction"
	WalletTransactionTypeRefund              WalletTransactionType = "refund"
	WalletTransactionTypeCommission          WalletTransactionType = "commission"
	WalletTransactionTypeWithdrawalDeduction WalletTransactionType = "withdrawal_deduction"
	WalletTransactionTypeAdminReversal       WalletTransactionType = "admin_reversal"
	WalletTransactionTypeAdminAdjustment     WalletTransactionType = "admin_adjustment"
)

var validWalletTransactionTypes = []WalletTransactionType{
	WalletTransactionTypeTopup,
	WalletTransactionTypeDeduction,
	WalletTransactionTypeRefund,
	WalletTransactionTypeCommission,
	WalletTransactionTypeWithdrawalDeduction,
	WalletTransactionTypeAdminReversal,
	WalletTransactionTypeAdminAdjustment,
}

// IsValid reports whether the value matches the canonical wallet transaction enum.
func (t WalletTransactionType) IsValid() bool {
	for _, candidate := range validWalletTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// Sign returns the multiplier applied to the stored magnitude when deriving
// the spendable wallet balance. Commission payouts are settled externally
// (mobile money), so withdrawal_deduction rows are audit entries against the
// commission balance and contribute zero to the wallet balance.
func (t WalletTransactionType) Sign() int {
	switch t {
	case WalletTransactionTypeTopup, WalletTransactionTypeRefund,
		WalletTransactionTypeCommission, WalletTransactionTypeAdminAdjustment:
		return 1
	case WalletTransactionTypeDeduction, WalletTransactionTypeAdminReversal:
		return -1
	case WalletTransactionTypeWithdrawalDeduction:
		return 0
	default:
		return 0
	}
}

// ParseWalletTransactionType converts raw input into WalletTransactionType.
func ParseWalletTransactionType(value string) (WalletTransactionType, error) {
	for _, candidate := range validWalletTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet transaction type %q", value)
}
