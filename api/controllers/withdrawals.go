package controllers

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/resellerhq/resellerhq-backend/api/responses"
	"github.com/resellerhq/resellerhq-backend/api/validators"
	"github.com/resellerhq/resellerhq-backend/internal/agents"
	"github.com/resellerhq/resellerhq-backend/internal/withdrawals"
	"github.com/resellerhq/resellerhq-backend/pkg/db/models"
	pkgerrors "github.com/resellerhq/resellerhq-backend/pkg/errors"
	"github.com/resellerhq/resellerhq-backend/pkg/logger"
)

type requestWithdrawalRequest struct {
	Amount string `json:"amount" validate:"required"`
}

// RequestWithdrawal opens a withdrawal and reserves the agent's oldest
// eligible earnings against it.
func RequestWithdrawal(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service unavailable"))
			return
		}

		agentID, err := parseAgentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req requestWithdrawalRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount"))
			return
		}

		withdrawal, err := svc.Request(r.Context(), withdrawals.RequestInput{
			AgentID: agentID,
			Amount:  amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, mapWithdrawalError(err))
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, withdrawal)
	}
}

type withdrawalListResponse struct {
	Withdrawals []models.Withdrawal `json:"withdrawals"`
	Total       int64               `json:"total"`
	Page        int                 `json:"page"`
	PerPage     int                 `json:"per_page"`
}

// ListWithdrawals pages through the agent's withdrawal history, newest first.
func ListWithdrawals(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service unavailable"))
			return
		}

		agentID, err := parseAgentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := parsePageRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, total, err := svc.ListByAgent(r.Context(), agentID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list withdrawals"))
			return
		}
		if list == nil {
			list = []models.Withdrawal{}
		}

		responses.WriteSuccess(w, withdrawalListResponse{
			Withdrawals: list,
			Total:       total,
			Page:        page.Page,
			PerPage:     page.Limit(),
		})
	}
}

// mapWithdrawalError translates engine sentinels into the shared error
// taxonomy that the response envelope understands.
func mapWithdrawalError(err error) error {
	switch {
	case errors.Is(err, withdrawals.ErrInsufficientBalance):
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "amount exceeds available commission")
	case errors.Is(err, withdrawals.ErrReservationConflict):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "earnings were reserved concurrently, retry the request")
	case errors.Is(err, withdrawals.ErrAlreadyTerminal):
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "withdrawal is already in a terminal state")
	case errors.Is(err, withdrawals.ErrNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "withdrawal not found")
	case errors.Is(err, agents.ErrNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "agent not found")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "withdrawal operation failed")
	}
}
