package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/resellerhq/resellerhq-backend/internal/agents"
	"github.com/resellerhq/resellerhq-backend/internal/commission"
	"github.com/resellerhq/resellerhq-backend/internal/earnings"
	"github.com/resellerhq/resellerhq-backend/internal/wallet"
	"github.com/resellerhq/resellerhq-backend/pkg/db/models"
	"github.com/resellerhq/resellerhq-backend/pkg/enums"
	"github.com/resellerhq/resellerhq-backend/pkg/logger"
)

const reconcileSchema = `
CREATE TABLE IF NOT EXISTS agents (
  id TEXT PRIMARY KEY,
  full_name TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  wallet_balance NUMERIC NOT NULL DEFAULT 0,
  available_commission_balance NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS referral_conversions (
  id TEXT PRIMARY KEY,
  agent_id TEXT NOT NULL,
  referred_agent_id TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'completed',
  commission_amount NUMERIC NOT NULL DEFAULT 0,
  commission_withdrawn BOOLEAN NOT NULL DEFAULT 0,
  withdrawal_id TEXT,
  withdrawn_at DATETIME,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS data_orders (
  id TEXT PRIMARY KEY,
  agent_id TEXT NOT NULL,
  network TEXT NOT NULL DEFAULT '',
  plan_name TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'completed',
  commission_amount NUMERIC NOT NULL DEFAULT 0,
  commission_withdrawn BOOLEAN NOT NULL DEFAULT 0,
  withdrawal_id TEXT,
  withdrawn_at DATETIME,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS wholesale_orders (
  id TEXT PRIMARY KEY,
  agent_id TEXT NOT NULL,
  order_ref TEXT NOT NULL DEFAULT '',
  total NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'completed',
  commission_amount NUMERIC NOT NULL DEFAULT 0,
  commission_withdrawn BOOLEAN NOT NULL DEFAULT 0,
  withdrawal_id TEXT,
  withdrawn_at DATETIME,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS voucher_orders (
  id TEXT PRIMARY KEY,
  agent_id TEXT NOT NULL,
  order_ref TEXT NOT NULL DEFAULT '',
  total NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'completed',
  commission_amount NUMERIC NOT NULL DEFAULT 0,
  commission_withdrawn BOOLEAN NOT NULL DEFAULT 0,
  withdrawal_id TEXT,
  withdrawn_at DATETIME,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS wallet_transactions (
  id TEXT PRIMARY KEY,
  agent_id TEXT NOT NULL,
  type TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'approved',
  source_type TEXT,
  source_id TEXT,
  reference_code TEXT NOT NULL DEFAULT '',
  metadata TEXT,
  created_at DATETIME
);
`

type reconcileTxRunner struct {
	db *gorm.DB
}

func (r reconcileTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type reconcileFixture struct {
	db     *gorm.DB
	agents agents.Repository
	wallet wallet.Service
	job    Job
}

func setupReconcileTest(t *testing.T) *reconcileFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:reconcile_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(reconcileSchema).Error)

	runner := reconcileTxRunner{db: db}
	agentsRepo := agents.NewRepository(db)
	eventsRepo := earnings.NewRepository(db)
	walletRepo := wallet.NewRepository(db)

	commissionService, err := commission.NewService(eventsRepo, agentsRepo)
	require.NoError(t, err)
	walletService, err := wallet.NewService(walletRepo, agentsRepo, runner)
	require.NoError(t, err)

	job, err := NewBalanceReconcileJob(BalanceReconcileJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		DB:          runner,
		Agents:      agentsRepo,
		Wallet:      walletService,
		Commissions: commissionService,
		BatchSize:   2,
	})
	require.NoError(t, err)

	return &reconcileFixture{db: db, agents: agentsRepo, wallet: walletService, job: job}
}

func (f *reconcileFixture) createAgent(t *testing.T) uuid.UUID {
	t.Helper()
	agent := &models.Agent{FullName: "Recon Agent", Email: uuid.NewString() + "@example.com", Phone: "0800000003"}
	require.NoError(t, f.agents.Create(context.Background(), agent))
	return agent.ID
}

func TestBalanceReconcileJob_CorrectsDriftedCaches(t *testing.T) {
	f := setupReconcileTest(t)
	ctx := context.Background()
	agentID := f.createAgent(t)

	_, err := f.wallet.Append(ctx, wallet.AppendInput{
		AgentID: agentID,
		Type:    enums.WalletTransactionTypeTopup,
		Amount:  decimal.RequireFromString("40.00"),
	})
	require.NoError(t, err)

	order := &models.DataOrder{
		AgentID:          agentID,
		Network:          "mtn",
		PlanName:         "1GB",
		Price:            decimal.RequireFromString("10.00"),
		Status:           enums.EarningStatusCompleted,
		CommissionFields: models.CommissionFields{CommissionAmount: decimal.RequireFromString("0.20")},
		CreatedAt:        time.Now().UTC(),
	}
	runner := reconcileTxRunner{db: f.db}
	require.NoError(t, runner.WithTx(ctx, func(tx *gorm.DB) error {
		return earnings.NewRepository(tx).CreateDataOrder(ctx, order)
	}))

	// Corrupt both caches behind the services' backs.
	require.NoError(t, f.db.Table("agents").Where("id = ?", agentID).Updates(map[string]any{
		"wallet_balance":               "999.99",
		"available_commission_balance": "999.99",
	}).Error)

	require.NoError(t, f.job.Run(ctx))

	agent, err := f.agents.FindByID(ctx, agentID)
	require.NoError(t, err)
	assert.True(t, agent.WalletBalance.Equal(decimal.RequireFromString("40.00")),
		"wallet cache should be rederived, got %s", agent.WalletBalance)
	assert.True(t, agent.AvailableCommissionBalance.Equal(decimal.RequireFromString("0.20")),
		"commission cache should be rederived, got %s", agent.AvailableCommissionBalance)
}

func TestBalanceReconcileJob_NoDriftIsStable(t *testing.T) {
	f := setupReconcileTest(t)
	ctx := context.Background()
	agentID := f.createAgent(t)

	_, err := f.wallet.Append(ctx, wallet.AppendInput{
		AgentID: agentID,
		Type:    enums.WalletTransactionTypeTopup,
		Amount:  decimal.RequireFromString("5.50"),
	})
	require.NoError(t, err)

	require.NoError(t, f.job.Run(ctx))
	require.NoError(t, f.job.Run(ctx))

	agent, err := f.agents.FindByID(ctx, agentID)
	require.NoError(t, err)
	assert.True(t, agent.WalletBalance.Equal(decimal.RequireFromString("5.50")))
	assert.True(t, agent.AvailableCommissionBalance.IsZero())
}

func TestBalanceReconcileJob_WalksAllBatches(t *testing.T) {
	f := setupReconcileTest(t)
	ctx := context.Background()

	// More agents than one batch so the keyset loop has to page.
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		ids = append(ids, f.createAgent(t))
	}
	for _, id := range ids {
		require.NoError(t, f.db.Table("agents").Where("id = ?", id).
			Update("wallet_balance", "123.45").Error)
	}

	require.NoError(t, f.job.Run(ctx))

	for _, id := range ids {
		agent, err := f.agents.FindByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, agent.WalletBalance.IsZero(), "agent %s cache should be rederived", id)
	}
}

func TestBalanceReconcileJob_ValidatesParams(t *testing.T) {
	_, err := NewBalanceReconcileJob(BalanceReconcileJobParams{})
	assert.Error(t, err)
}
