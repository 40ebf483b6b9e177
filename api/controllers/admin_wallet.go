package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/resellerhq/resellerhq-backend/api/responses"
	"github.com/resellerhq/resellerhq-backend/api/validators"
	"github.com/resellerhq/resellerhq-backend/internal/wallet"
	"github.com/resellerhq/resellerhq-backend/pkg/enums"
	pkgerrors "github.com/resellerhq/resellerhq-backend/pkg/errors"
	"github.com/resellerhq/resellerhq-backend/pkg/logger"
)

const sourceTypeAdmin = "admin"

type walletAdjustmentRequest struct {
	AdminID string `json:"admin_id" validate:"required,uuid4"`
	Type    string `json:"type" validate:"required"`
	Amount  string `json:"amount" validate:"required"`
	Reason  string `json:"reason" validate:"required,min=3"`
}

// adjustmentTypes are the transaction types an operator may write directly.
// Engine-owned types (commission, withdrawal_deduction) are excluded so the
// settlement path stays the only writer of those rows.
var adjustmentTypes = map[enums.WalletTransactionType]bool{
	enums.WalletTransactionTypeTopup:           true,
	enums.WalletTransactionTypeDeduction:       true,
	enums.WalletTransactionTypeRefund:          true,
	enums.WalletTransactionTypeAdminAdjustment: true,
	enums.WalletTransactionTypeAdminReversal:   true,
}

// AdminWalletAdjustment appends a manual ledger entry for an agent. Mistakes
// are corrected by a compensating entry, never by editing history.
func AdminWalletAdjustment(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		agentID, err := parseAgentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req walletAdjustmentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txnType, err := enums.ParseWalletTransactionType(req.Type)
		if err != nil || !adjustmentTypes[txnType] {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unsupported adjustment type"))
			return
		}
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount"))
			return
		}
		if amount.Sign() <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive"))
			return
		}
		adminID, err := uuid.Parse(req.AdminID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid admin id"))
			return
		}

		metadata, _ := json.Marshal(map[string]string{
			"admin_id": adminID.String(),
			"reason":   strings.TrimSpace(req.Reason),
		})
		sourceType := sourceTypeAdmin
		txn, err := svc.Append(r.Context(), wallet.AppendInput{
			AgentID:    agentID,
			Type:       txnType,
			Amount:     amount,
			SourceType: &sourceType,
			SourceID:   &adminID,
			Metadata:   metadata,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append wallet adjustment"))
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}
