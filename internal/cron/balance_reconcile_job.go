package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/resellerhq/resellerhq-backend/internal/agents"
	"github.com/resellerhq/resellerhq-backend/internal/commission"
	"github.com/resellerhq/resellerhq-backend/internal/wallet"
	"github.com/resellerhq/resellerhq-backend/pkg/logger"
	"github.com/resellerhq/resellerhq-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// BalanceReconcileJobParams configure the balance cache reconciler.
type BalanceReconcileJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Agents      agents.Repository
	Wallet      wallet.Service
	Commissions commission.Service
	Metrics     *metrics.SettlementMetrics
	BatchSize   int
}

// NewBalanceReconcileJob builds the job that rederives every agent's cached
// balances from source-of-truth rows and rewrites any cache that drifted.
func NewBalanceReconcileJob(params BalanceReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Agents == nil {
		return nil, fmt.Errorf("agents repository required")
	}
	if params.Wallet == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	if params.Commissions == nil {
		return nil, fmt.Errorf("commission service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = 200
	}
	return &balanceReconcileJob{
		logg:        params.Logger,
		db:          params.DB,
		agents:      params.Agents,
		wallet:      params.Wallet,
		commissions: params.Commissions,
		metrics:     params.Metrics,
		batchSize:   batchSize,
	}, nil
}

type balanceReconcileJob struct {
	logg        *logger.Logger
	db          txRunner
	agents      agents.Repository
	wallet      wallet.Service
	commissions commission.Service
	metrics     *metrics.SettlementMetrics
	batchSize   int
}

func (j *balanceReconcileJob) Name() string { return "balance-reconcile" }

func (j *balanceReconcileJob) Run(ctx context.Context) error {
	var errs []error
	checked := 0
	drifted := 0

	afterID := uuid.Nil
	for {
		ids, err := j.agents.ListIDs(ctx, afterID, j.batchSize)
		if err != nil {
			errs = append(errs, fmt.Errorf("list agents after %s: %w", afterID, err))
			break
		}
		if len(ids) == 0 {
			break
		}
		for _, agentID := range ids {
			didDrift, err := j.reconcileAgent(ctx, agentID)
			if err != nil {
				errs = append(errs, fmt.Errorf("reconcile agent %s: %w", agentID, err))
				continue
			}
			checked++
			if didDrift {
				drifted++
			}
		}
		afterID = ids[len(ids)-1]
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"checked": checked,
		"drifted": drifted,
	})
	j.logg.Info(logCtx, "balance reconcile loop complete")
	return multierr.Combine(errs...)
}

// reconcileAgent rederives both balances inside one transaction so the
// comparison and the cache rewrite see the same committed rows.
func (j *balanceReconcileJob) reconcileAgent(ctx context.Context, agentID uuid.UUID) (bool, error) {
	drifted := false
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		agent, err := j.agents.WithTx(tx).FindByID(ctx, agentID)
		if err != nil {
			return err
		}

		walletBalance, err := j.wallet.RecomputeBalance(ctx, tx, agentID)
		if err != nil {
			return err
		}
		if !walletBalance.Equal(agent.WalletBalance) {
			drifted = true
			j.metrics.IncReconcileDrift("wallet")
			j.logDrift(ctx, agentID, "wallet_balance", agent.WalletBalance, walletBalance)
		}

		available, err := j.commissions.RefreshCache(ctx, tx, agentID)
		if err != nil {
			return err
		}
		if !available.Equal(agent.AvailableCommissionBalance) {
			drifted = true
			j.metrics.IncReconcileDrift("commission")
			j.logDrift(ctx, agentID, "available_commission_balance", agent.AvailableCommissionBalance, available)
		}
		return nil
	})
	return drifted, err
}

func (j *balanceReconcileJob) logDrift(ctx context.Context, agentID uuid.UUID, column string, cached, derived decimal.Decimal) {
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"agent_id": agentID.String(),
		"column":   column,
		"cached":   cached.String(),
		"derived":  derived.String(),
	})
	j.logg.Warn(logCtx, "balance cache drift corrected")
}
