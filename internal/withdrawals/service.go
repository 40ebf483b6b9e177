package withdrawals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/resellerhq/resellerhq-backend/internal/agents"
	"github.com/resellerhq/resellerhq-backend/internal/commission"
	"github.com/resellerhq/resellerhq-backend/internal/earnings"
	"github.com/resellerhq/resellerhq-backend/internal/wallet"
	"github.com/resellerhq/resellerhq-backend/pkg/db/models"
	"github.com/resellerhq/resellerhq-backend/pkg/enums"
	"github.com/resellerhq/resellerhq-backend/pkg/logger"
	"github.com/resellerhq/resellerhq-backend/pkg/metrics"
	"github.com/resellerhq/resellerhq-backend/pkg/pagination"
)

// sourceTypeWithdrawal tags wallet ledger rows written by the settlement engine.
const sourceTypeWithdrawal = "withdrawal"

const reservationRetryBackoff = 25 * time.Millisecond

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the withdrawal settlement engine. Reservation, settlement and
// rejection each run as a single database transaction; mutual exclusion is
// expressed as conditional updates so multiple service instances stay safe.
type Service interface {
	// Request creates a withdrawal and reserves the agent's oldest eligible
	// earning events against it. Losing a reservation race aborts the
	// transaction and retries with a fresh eligibility scan, up to the
	// configured attempt bound.
	Request(ctx context.Context, input RequestInput) (*models.Withdrawal, error)
	// ProcessPayout settles a withdrawal exactly once. Calling it again on a
	// paid withdrawal returns the row together with ErrAlreadyPaid, which
	// callers treat as success.
	ProcessPayout(ctx context.Context, input PayoutInput) (*models.Withdrawal, error)
	// Reject releases the reservation so the earnings become eligible again.
	// No wallet ledger entry is written; nothing was ever paid.
	Reject(ctx context.Context, input RejectInput) (*models.Withdrawal, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	ListByAgent(ctx context.Context, agentID uuid.UUID, page pagination.Request) ([]models.Withdrawal, int64, error)
}

// RequestInput captures an agent-initiated withdrawal request.
type RequestInput struct {
	AgentID uuid.UUID
	Amount  decimal.Decimal
}

// PayoutInput captures an operator-initiated settlement.
type PayoutInput struct {
	WithdrawalID    uuid.UUID
	AdminID         uuid.UUID
	PayoutReference string
}

// RejectInput captures an operator-initiated rejection.
type RejectInput struct {
	WithdrawalID uuid.UUID
	AdminID      uuid.UUID
	Notes        string
}

// ServiceParams packages the dependencies of the settlement engine.
type ServiceParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Repo        Repository
	Events      earnings.Repository
	Agents      agents.Repository
	Commissions commission.Service
	Wallet      wallet.Service
	Metrics     *metrics.SettlementMetrics
	// MaxAttempts bounds reservation retries after concurrent-reservation
	// losses. Values below 1 fall back to a single attempt.
	MaxAttempts int
}

type service struct {
	logg        *logger.Logger
	db          txRunner
	repo        Repository
	events      earnings.Repository
	agents      agents.Repository
	commissions commission.Service
	wallet      wallet.Service
	metrics     *metrics.SettlementMetrics
	maxAttempts int
	now         func() time.Time
}

// NewService wires the settlement engine with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("withdrawals repository required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("earnings repository required")
	}
	if params.Agents == nil {
		return nil, fmt.Errorf("agents repository required")
	}
	if params.Commissions == nil {
		return nil, fmt.Errorf("commission service required")
	}
	if params.Wallet == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	maxAttempts := params.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &service{
		logg:        params.Logger,
		db:          params.DB,
		repo:        params.Repo,
		events:      params.Events,
		agents:      params.Agents,
		commissions: params.Commissions,
		wallet:      params.Wallet,
		metrics:     params.Metrics,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}, nil
}

func (s *service) Request(ctx context.Context, input RequestInput) (*models.Withdrawal, error) {
	if input.AgentID == uuid.Nil {
		return nil, fmt.Errorf("agent id is required")
	}
	if input.Amount.Sign() <= 0 {
		return nil, ErrInsufficientBalance
	}
	if _, err := s.agents.FindByID(ctx, input.AgentID); err != nil {
		return nil, err
	}

	var withdrawal *models.Withdrawal
	backoff := retry.WithMaxRetries(uint64(s.maxAttempts-1), retry.NewConstant(reservationRetryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		created, attemptErr := s.reserveOnce(ctx, input)
		if attemptErr != nil {
			if errors.Is(attemptErr, ErrReservationConflict) {
				s.metrics.IncReservationConflict()
				logCtx := s.logg.WithAgentID(ctx, input.AgentID.String())
				s.logg.Warn(logCtx, "withdrawal reservation lost race, retrying with fresh scan")
				return retry.RetryableError(attemptErr)
			}
			return attemptErr
		}
		withdrawal = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncRequested()
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"agent_id":      input.AgentID.String(),
		"withdrawal_id": withdrawal.ID.String(),
		"amount":        withdrawal.Amount.String(),
	})
	s.logg.Info(logCtx, "withdrawal requested and earnings reserved")
	return withdrawal, nil
}

// reserveOnce runs one reservation attempt as a single all-or-nothing
// transaction. A shortfall in claimed rows means a concurrent reservation won
// the race on some candidates; the transaction aborts with no partial state.
func (s *service) reserveOnce(ctx context.Context, input RequestInput) (*models.Withdrawal, error) {
	var withdrawal *models.Withdrawal
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		eventRepo := s.events.WithTx(tx)

		eligible, err := eventRepo.ListEligible(ctx, input.AgentID)
		if err != nil {
			return err
		}
		selected, reserved := selectForAmount(eligible, input.Amount)
		if reserved.LessThan(input.Amount) {
			return ErrInsufficientBalance
		}

		created := &models.Withdrawal{
			AgentID:     input.AgentID,
			Amount:      reserved,
			Status:      enums.WithdrawalStatusRequested,
			RequestedAt: s.now().UTC(),
		}
		if err := s.repo.WithTx(tx).Create(ctx, created); err != nil {
			return err
		}

		claimed, err := eventRepo.Reserve(ctx, created.ID, selected)
		if err != nil {
			return err
		}
		if claimed < int64(len(selected)) {
			return ErrReservationConflict
		}

		if _, err := s.commissions.RefreshCache(ctx, tx, input.AgentID); err != nil {
			return err
		}
		withdrawal = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return withdrawal, nil
}

func (s *service) ProcessPayout(ctx context.Context, input PayoutInput) (*models.Withdrawal, error) {
	if input.WithdrawalID == uuid.Nil {
		return nil, ErrNotFound
	}

	var settled *models.Withdrawal
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.FindByID(ctx, input.WithdrawalID)
		if err != nil {
			return err
		}
		switch current.Status {
		case enums.WithdrawalStatusPaid:
			settled = current
			return ErrAlreadyPaid
		case enums.WithdrawalStatusRejected:
			return ErrAlreadyTerminal
		}

		now := s.now().UTC()
		updated, err := repo.MarkPaid(ctx, current.ID, input.AdminID, input.PayoutReference, now)
		if err != nil {
			return err
		}
		if updated == 0 {
			// A concurrent settle or reject won between the read and the
			// conditional update. Re-read so a lost payout race still reports
			// the idempotent no-op instead of a terminal-state conflict.
			latest, err := repo.FindByID(ctx, current.ID)
			if err != nil {
				return err
			}
			if latest.Status == enums.WithdrawalStatusPaid {
				settled = latest
				return ErrAlreadyPaid
			}
			return ErrAlreadyTerminal
		}

		if err := s.events.WithTx(tx).FinalizeReservation(ctx, current.ID, now); err != nil {
			return err
		}

		// Commission is paid out externally (mobile money), so this ledger
		// entry is audit-only: its type carries no wallet-balance sign and the
		// agent's spendable wallet cash is left untouched.
		metadata, _ := json.Marshal(map[string]string{
			"payout_reference": input.PayoutReference,
		})
		sourceID := current.ID
		sourceType := sourceTypeWithdrawal
		_, err = s.wallet.AppendInTx(ctx, tx, wallet.AppendInput{
			AgentID:    current.AgentID,
			Type:       enums.WalletTransactionTypeWithdrawalDeduction,
			Amount:     current.Amount,
			SourceType: &sourceType,
			SourceID:   &sourceID,
			Metadata:   metadata,
		})
		if err != nil {
			return err
		}

		if _, err := s.commissions.RefreshCache(ctx, tx, current.AgentID); err != nil {
			return err
		}

		current.Status = enums.WithdrawalStatusPaid
		current.PayoutReference = &input.PayoutReference
		current.ProcessedBy = &input.AdminID
		current.PaidAt = &now
		settled = current
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyPaid) {
			logCtx := s.logg.WithField(ctx, "withdrawal_id", input.WithdrawalID.String())
			s.logg.Info(logCtx, "withdrawal already paid, payout is a no-op")
			return settled, ErrAlreadyPaid
		}
		return nil, err
	}

	s.metrics.IncPaid()
	logCtx := s.logg.WithAdminID(ctx, input.AdminID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"withdrawal_id": settled.ID.String(),
		"agent_id":      settled.AgentID.String(),
		"amount":        settled.Amount.String(),
	})
	s.logg.Info(logCtx, "withdrawal settled")
	return settled, nil
}

func (s *service) Reject(ctx context.Context, input RejectInput) (*models.Withdrawal, error) {
	if input.WithdrawalID == uuid.Nil {
		return nil, ErrNotFound
	}

	var rejected *models.Withdrawal
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.FindByID(ctx, input.WithdrawalID)
		if err != nil {
			return err
		}
		switch current.Status {
		case enums.WithdrawalStatusRejected:
			// Retried rejection; the reservation is already released.
			rejected = current
			return nil
		case enums.WithdrawalStatusPaid:
			return ErrAlreadyTerminal
		}

		updated, err := repo.MarkRejected(ctx, current.ID, input.AdminID, input.Notes)
		if err != nil {
			return err
		}
		if updated == 0 {
			return ErrAlreadyTerminal
		}

		if err := s.events.WithTx(tx).ReleaseReservation(ctx, current.ID); err != nil {
			return err
		}
		if _, err := s.commissions.RefreshCache(ctx, tx, current.AgentID); err != nil {
			return err
		}

		current.Status = enums.WithdrawalStatusRejected
		current.AdminNotes = &input.Notes
		current.ProcessedBy = &input.AdminID
		rejected = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncRejected()
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"withdrawal_id": rejected.ID.String(),
		"agent_id":      rejected.AgentID.String(),
	})
	s.logg.Info(logCtx, "withdrawal rejected and reservation released")
	return rejected, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	if id == uuid.Nil {
		return nil, ErrNotFound
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListByAgent(ctx context.Context, agentID uuid.UUID, page pagination.Request) ([]models.Withdrawal, int64, error) {
	if agentID == uuid.Nil {
		return nil, 0, fmt.Errorf("agent id is required")
	}
	return s.repo.ListByAgent(ctx, agentID, page)
}

// selectForAmount greedily accumulates the oldest eligible events until their
// summed commission covers the requested amount. The withdrawal settles the
// full accumulated sum, which may slightly exceed the amount asked for.
func selectForAmount(eligible []earnings.Event, amount decimal.Decimal) ([]earnings.Event, decimal.Decimal) {
	var selected []earnings.Event
	total := decimal.Zero
	for _, event := range eligible {
		selected = append(selected, event)
		total = total.Add(event.CommissionAmount)
		if total.GreaterThanOrEqual(amount) {
			break
		}
	}
	return selected, total
}
