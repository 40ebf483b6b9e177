package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/resellerhq/resellerhq-backend/internal/agents"
	"github.com/resellerhq/resellerhq-backend/pkg/db/models"
	"github.com/resellerhq/resellerhq-backend/pkg/enums"
	pkgerrors "github.com/resellerhq/resellerhq-backend/pkg/errors"
	"github.com/resellerhq/resellerhq-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the append-only wallet ledger and the derived balance cache.
type Service interface {
	Append(ctx context.Context, input AppendInput) (*models.WalletTransaction, error)
	// AppendInTx records a ledger entry inside a caller-owned transaction and
	// refreshes the agent's cached wallet balance from the same transaction.
	AppendInTx(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.WalletTransaction, error)
	Balance(ctx context.Context, agentID uuid.UUID) (decimal.Decimal, error)
	RecomputeBalance(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) (decimal.Decimal, error)
	ListTransactions(ctx context.Context, agentID uuid.UUID, page pagination.Request) ([]models.WalletTransaction, int64, error)
}

type service struct {
	repo   Repository
	agents agents.Repository
	tx     txRunner
}

// AppendInput captures the immutable data a wallet ledger entry requires.
type AppendInput struct {
	AgentID       uuid.UUID
	Type          enums.WalletTransactionType
	Amount        decimal.Decimal
	Status        enums.WalletTransactionStatus
	SourceType    *string
	SourceID      *uuid.UUID
	ReferenceCode string
	Metadata      json.RawMessage
}

// NewService wires a wallet service with the required dependencies.
func NewService(repo Repository, agentRepo agents.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if agentRepo == nil {
		return nil, fmt.Errorf("agents repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, agents: agentRepo, tx: tx}, nil
}

func (s *service) Append(ctx context.Context, input AppendInput) (*models.WalletTransaction, error) {
	var txn *models.WalletTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, appendErr := s.AppendInTx(ctx, tx, input)
		if appendErr != nil {
			return appendErr
		}
		txn = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) AppendInTx(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.WalletTransaction, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if input.AgentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent id is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid wallet transaction type %q", input.Type))
	}
	if input.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}

	status := input.Status
	if status == "" {
		status = enums.WalletTransactionStatusApproved
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid wallet transaction status %q", status))
	}

	reference := input.ReferenceCode
	if reference == "" {
		reference = newReferenceCode()
	}

	txn := &models.WalletTransaction{
		AgentID:       input.AgentID,
		Type:          input.Type,
		Amount:        input.Amount.Round(2),
		Status:        status,
		SourceType:    input.SourceType,
		SourceID:      input.SourceID,
		ReferenceCode: reference,
		Metadata:      input.Metadata,
	}
	if err := s.repo.WithTx(tx).Append(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "wallet ledger append failed")
	}

	if _, err := s.RecomputeBalance(ctx, tx, input.AgentID); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) Balance(ctx context.Context, agentID uuid.UUID) (decimal.Decimal, error) {
	if agentID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "agent id is required")
	}
	txns, err := s.repo.ListApproved(ctx, agentID)
	if err != nil {
		return decimal.Zero, err
	}
	return sumSigned(txns), nil
}

// RecomputeBalance rederives the wallet balance from approved ledger rows and
// writes it to the agent's cache column. It never trusts the cached value.
func (s *service) RecomputeBalance(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) (decimal.Decimal, error) {
	walletRepo := s.repo
	agentRepo := s.agents
	if tx != nil {
		walletRepo = walletRepo.WithTx(tx)
		agentRepo = agentRepo.WithTx(tx)
	}

	txns, err := walletRepo.ListApproved(ctx, agentID)
	if err != nil {
		return decimal.Zero, err
	}
	balance := sumSigned(txns)

	if err := agentRepo.UpdateWalletBalance(ctx, agentID, balance); err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "wallet balance cache update failed")
	}
	return balance, nil
}

func (s *service) ListTransactions(ctx context.Context, agentID uuid.UUID, page pagination.Request) ([]models.WalletTransaction, int64, error) {
	if agentID == uuid.Nil {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "agent id is required")
	}
	return s.repo.ListByAgent(ctx, agentID, page)
}

func sumSigned(txns []models.WalletTransaction) decimal.Decimal {
	balance := decimal.Zero
	for _, txn := range txns {
		switch txn.Type.Sign() {
		case 1:
			balance = balance.Add(txn.Amount)
		case -1:
			balance = balance.Sub(txn.Amount)
		}
	}
	return balance.Round(2)
}

func newReferenceCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "WTX-" + strings.ToUpper(raw[:12])
}
