package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/resellerhq/resellerhq-backend/api/responses"
	"github.com/resellerhq/resellerhq-backend/api/validators"
	"github.com/resellerhq/resellerhq-backend/internal/earnings"
	"github.com/resellerhq/resellerhq-backend/pkg/enums"
	pkgerrors "github.com/resellerhq/resellerhq-backend/pkg/errors"
	"github.com/resellerhq/resellerhq-backend/pkg/logger"
)

type recordEarningRequest struct {
	Source          string `json:"source" validate:"required"`
	AgentID         string `json:"agent_id" validate:"required,uuid4"`
	Price           string `json:"price" validate:"required"`
	RatePercent     string `json:"rate_percent" validate:"required"`
	ReferredAgentID string `json:"referred_agent_id,omitempty" validate:"omitempty,uuid4"`
	Network         string `json:"network,omitempty"`
	PlanName        string `json:"plan_name,omitempty"`
	OrderRef        string `json:"order_ref,omitempty"`
}

type recordEarningResponse struct {
	EventID string `json:"event_id"`
	Source  string `json:"source"`
}

// RecordEarning ingests a completed commission-bearing event from one of the
// four sources. The commission amount is always derived server-side.
func RecordEarning(svc earnings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "earnings service unavailable"))
			return
		}

		var req recordEarningRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		source, err := enums.ParseEarningSource(req.Source)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid earning source"))
			return
		}
		agentID, err := uuid.Parse(req.AgentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid agent id"))
			return
		}
		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price"))
			return
		}
		rate, err := decimal.NewFromString(req.RatePercent)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rate percent"))
			return
		}

		input := earnings.RecordEventInput{
			Source:      source,
			AgentID:     agentID,
			Price:       price,
			RatePercent: rate,
			Network:     req.Network,
			PlanName:    req.PlanName,
			OrderRef:    req.OrderRef,
		}
		if req.ReferredAgentID != "" {
			referred, parseErr := uuid.Parse(req.ReferredAgentID)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid referred agent id"))
				return
			}
			input.ReferredAgentID = referred
		}

		eventID, err := svc.RecordEvent(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record earning event"))
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, recordEarningResponse{
			EventID: eventID.String(),
			Source:  string(source),
		})
	}
}
