package earnings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/resellerhq/resellerhq-backend/pkg/commission"
	"github.com/resellerhq/resellerhq-backend/pkg/db/models"
	"github.com/resellerhq/resellerhq-backend/pkg/enums"
)

// Service records commission-bearing events on behalf of the event sources.
type Service interface {
	RecordEvent(ctx context.Context, input RecordEventInput) (uuid.UUID, error)
}

// RecordEventInput captures a completed domain operation that earns commission.
// Commission is always derived through the central calculation; events whose
// commission rounds below the minimum are stored with a zero amount and never
// participate in aggregation or reservation.
type RecordEventInput struct {
	Source          enums.EarningSource
	AgentID         uuid.UUID
	Price           decimal.Decimal
	RatePercent     decimal.Decimal
	ReferredAgentID uuid.UUID // referral only
	Network         string    // data orders only
	PlanName        string    // data orders only
	OrderRef        string    // wholesale / voucher orders
}

type service struct {
	repo Repository
}

// NewService wires an earnings service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("earnings repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) RecordEvent(ctx context.Context, input RecordEventInput) (uuid.UUID, error) {
	if !input.Source.IsValid() {
		return uuid.Nil, fmt.Errorf("invalid earning source %q", input.Source)
	}
	if input.AgentID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("agent id is required")
	}
	if input.Price.Sign() < 0 {
		return uuid.Nil, fmt.Errorf("price must not be negative")
	}

	amount := commission.FinalCommission(input.Price, input.RatePercent)
	fields := models.CommissionFields{CommissionAmount: amount}

	switch input.Source {
	case enums.EarningSourceReferral:
		row := &models.ReferralConversion{
			AgentID:          input.AgentID,
			ReferredAgentID:  input.ReferredAgentID,
			Status:           enums.EarningStatusCompleted,
			CommissionFields: fields,
		}
		if err := s.repo.CreateReferralConversion(ctx, row); err != nil {
			return uuid.Nil, err
		}
		return row.ID, nil
	case enums.EarningSourceDataOrder:
		row := &models.DataOrder{
			AgentID:          input.AgentID,
			Network:          input.Network,
			PlanName:         input.PlanName,
			Price:            input.Price,
			Status:           enums.EarningStatusCompleted,
			CommissionFields: fields,
		}
		if err := s.repo.CreateDataOrder(ctx, row); err != nil {
			return uuid.Nil, err
		}
		return row.ID, nil
	case enums.EarningSourceWholesaleOrder:
		row := &models.WholesaleOrder{
			AgentID:          input.AgentID,
			OrderRef:         input.OrderRef,
			Total:            input.Price,
			Status:           enums.EarningStatusCompleted,
			CommissionFields: fields,
		}
		if err := s.repo.CreateWholesaleOrder(ctx, row); err != nil {
			return uuid.Nil, err
		}
		return row.ID, nil
	case enums.EarningSourceVoucherOrder:
		row := &models.VoucherOrder{
			AgentID:          input.AgentID,
			OrderRef:         input.OrderRef,
			Total:            input.Price,
			Status:           enums.EarningStatusCompleted,
			CommissionFields: fields,
		}
		if err := s.repo.CreateVoucherOrder(ctx, row); err != nil {
			return uuid.Nil, err
		}
		return row.ID, nil
	}
	return uuid.Nil, fmt.Errorf("unhandled earning source %q", input.Source)
}
