package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/resellerhq/resellerhq-backend/api/responses"
	"github.com/resellerhq/resellerhq-backend/api/validators"
	"github.com/resellerhq/resellerhq-backend/internal/agents"
	"github.com/resellerhq/resellerhq-backend/internal/commission"
	"github.com/resellerhq/resellerhq-backend/internal/wallet"
	"github.com/resellerhq/resellerhq-backend/pkg/db/models"
	pkgerrors "github.com/resellerhq/resellerhq-backend/pkg/errors"
	"github.com/resellerhq/resellerhq-backend/pkg/logger"
	"github.com/resellerhq/resellerhq-backend/pkg/pagination"
)

func parseAgentID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "agentID"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "agent id is required")
	}
	agentID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid agent id")
	}
	return agentID, nil
}

func parsePageRequest(r *http.Request) (pagination.Request, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 100000)
	if err != nil {
		return pagination.Request{}, err
	}
	perPage, err := validators.ParseQueryInt(r, "per_page", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Request{}, err
	}
	return pagination.Request{Page: page, PerPage: perPage}, nil
}

type createAgentRequest struct {
	FullName string `json:"full_name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,min=7"`
}

// CreateAgent registers a reseller. Both balance caches start at zero.
func CreateAgent(repo agents.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "agents repository unavailable"))
			return
		}

		var req createAgentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agent := &models.Agent{
			FullName: req.FullName,
			Email:    strings.ToLower(strings.TrimSpace(req.Email)),
			Phone:    strings.TrimSpace(req.Phone),
		}
		if err := repo.Create(r.Context(), agent); err != nil {
			if errors.Is(err, agents.ErrEmailTaken) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already registered"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create agent"))
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, agent)
	}
}

type commissionSummaryResponse struct {
	AgentID   string `json:"agent_id"`
	Available string `json:"available"`
	Total     string `json:"total"`
}

// AgentCommissions returns the live available and lifetime commission sums.
func AgentCommissions(svc commission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "commission service unavailable"))
			return
		}

		agentID, err := parseAgentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		available, err := svc.Available(r.Context(), agentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum available commission"))
			return
		}
		total, err := svc.Total(r.Context(), agentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum total commission"))
			return
		}

		responses.WriteSuccess(w, commissionSummaryResponse{
			AgentID:   agentID.String(),
			Available: available.StringFixed(2),
			Total:     total.StringFixed(2),
		})
	}
}

type walletSummaryResponse struct {
	AgentID       string `json:"agent_id"`
	CachedBalance string `json:"cached_balance"`
	LedgerBalance string `json:"ledger_balance"`
}

// AgentWallet returns both the cached wallet balance and the balance rederived
// from the ledger, so drift is visible to operators.
func AgentWallet(repo agents.Repository, svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		agentID, err := parseAgentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agent, err := repo.FindByID(r.Context(), agentID)
		if err != nil {
			if errors.Is(err, agents.ErrNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "agent not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch agent"))
			return
		}

		derived, err := svc.Balance(r.Context(), agentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "derive wallet balance"))
			return
		}

		responses.WriteSuccess(w, walletSummaryResponse{
			AgentID:       agentID.String(),
			CachedBalance: agent.WalletBalance.StringFixed(2),
			LedgerBalance: derived.StringFixed(2),
		})
	}
}

type walletTransactionsResponse struct {
	Transactions []models.WalletTransaction `json:"transactions"`
	Total        int64                      `json:"total"`
	Page         int                        `json:"page"`
	PerPage      int                        `json:"per_page"`
}

// AgentWalletTransactions pages through the agent's ledger, newest first.
func AgentWalletTransactions(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
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
		page, err := parsePageRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txns, total, err := svc.ListTransactions(r.Context(), agentID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wallet transactions"))
			return
		}
		if txns == nil {
			txns = []models.WalletTransaction{}
		}

		responses.WriteSuccess(w, walletTransactionsResponse{
			Transactions: txns,
			Total:        total,
			Page:         page.Page,
			PerPage:      page.Limit(),
		})
	}
}
