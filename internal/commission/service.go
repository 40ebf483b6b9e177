package commission

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/resellerhq/resellerhq-backend/internal/agents"
	"github.com/resellerhq/resellerhq-backend/internal/earnings"
)

// Service derives commission balances from the event-source tables on demand.
// Both reads are side-effect free; the conditional-update reservation keeps
// them from ever observing a half-reserved row.
type Service interface {
	// Available sums the agent's unreserved, unwithdrawn commission.
	Available(ctx context.Context, agentID uuid.UUID) (decimal.Decimal, error)
	// Total sums the agent's lifetime commission, paid out or not.
	Total(ctx context.Context, agentID uuid.UUID) (decimal.Decimal, error)
	// RefreshCache rederives the available commission and writes it to the
	// agent's cache column. Pass the enclosing transaction when the refresh
	// must commit atomically with a reservation or settlement.
	RefreshCache(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) (decimal.Decimal, error)
}

type service struct {
	repo   earnings.Repository
	agents agents.Repository
}

// NewService wires a commission aggregator with the provided repositories.
func NewService(repo earnings.Repository, agentRepo agents.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("earnings repository required")
	}
	if agentRepo == nil {
		return nil, fmt.Errorf("agents repository required")
	}
	return &service{repo: repo, agents: agentRepo}, nil
}

func (s *service) Available(ctx context.Context, agentID uuid.UUID) (decimal.Decimal, error) {
	if agentID == uuid.Nil {
		return decimal.Zero, fmt.Errorf("agent id is required")
	}
	events, err := s.repo.ListEligible(ctx, agentID)
	if err != nil {
		return decimal.Zero, err
	}
	return sumEvents(events), nil
}

func (s *service) Total(ctx context.Context, agentID uuid.UUID) (decimal.Decimal, error) {
	if agentID == uuid.Nil {
		return decimal.Zero, fmt.Errorf("agent id is required")
	}
	events, err := s.repo.ListAll(ctx, agentID)
	if err != nil {
		return decimal.Zero, err
	}
	return sumEvents(events), nil
}

func (s *service) RefreshCache(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) (decimal.Decimal, error) {
	if agentID == uuid.Nil {
		return decimal.Zero, fmt.Errorf("agent id is required")
	}
	eventRepo := s.repo
	agentRepo := s.agents
	if tx != nil {
		eventRepo = eventRepo.WithTx(tx)
		agentRepo = agentRepo.WithTx(tx)
	}

	events, err := eventRepo.ListEligible(ctx, agentID)
	if err != nil {
		return decimal.Zero, err
	}
	available := sumEvents(events)

	if err := agentRepo.UpdateCommissionBalance(ctx, agentID, available); err != nil {
		return decimal.Zero, fmt.Errorf("commission balance cache update failed: %w", err)
	}
	return available, nil
}

func sumEvents(events []earnings.Event) decimal.Decimal {
	total := decimal.Zero
	for _, event := range events {
		total = total.Add(event.CommissionAmount)
	}
	return total
}
