package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/resellerhq/resellerhq-backend/api/responses"
	"github.com/resellerhq/resellerhq-backend/api/validators"
	"github.com/resellerhq/resellerhq-backend/internal/withdrawals"
	pkgerrors "github.com/resellerhq/resellerhq-backend/pkg/errors"
	"github.com/resellerhq/resellerhq-backend/pkg/logger"
)

func parseWithdrawalID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "withdrawalID"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid withdrawal id")
	}
	return id, nil
}

type payoutRequest struct {
	AdminID         string `json:"admin_id" validate:"required,uuid4"`
	PayoutReference string `json:"payout_reference" validate:"required,min=3"`
}

// PayoutWithdrawal settles a withdrawal. Re-settling a paid withdrawal is a
// no-op that still returns the settled row.
func PayoutWithdrawal(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service unavailable"))
			return
		}

		withdrawalID, err := parseWithdrawalID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req payoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		adminID, err := uuid.Parse(req.AdminID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid admin id"))
			return
		}

		settled, err := svc.ProcessPayout(r.Context(), withdrawals.PayoutInput{
			WithdrawalID:    withdrawalID,
			AdminID:         adminID,
			PayoutReference: strings.TrimSpace(req.PayoutReference),
		})
		if err != nil && !errors.Is(err, withdrawals.ErrAlreadyPaid) {
			responses.WriteError(r.Context(), logg, w, mapWithdrawalError(err))
			return
		}
		responses.WriteSuccess(w, settled)
	}
}

type rejectRequest struct {
	AdminID string `json:"admin_id" validate:"required,uuid4"`
	Notes   string `json:"notes" validate:"required,min=3"`
}

// RejectWithdrawal releases the reservation and records the operator's notes.
func RejectWithdrawal(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service unavailable"))
			return
		}

		withdrawalID, err := parseWithdrawalID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req rejectRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		adminID, err := uuid.Parse(req.AdminID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid admin id"))
			return
		}

		rejected, err := svc.Reject(r.Context(), withdrawals.RejectInput{
			WithdrawalID: withdrawalID,
			AdminID:      adminID,
			Notes:        strings.TrimSpace(req.Notes),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, mapWithdrawalError(err))
			return
		}
		responses.WriteSuccess(w, rejected)
	}
}
