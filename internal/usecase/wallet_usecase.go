package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

// WalletUseCase handles wallet creation and read paths.
type WalletUseCase struct {
	txManager       TransactionManager
	walletRepo      WalletRepository
	transactionRepo TransactionRepository
	retrier         Retrier
	metrics         Metrics
	logger          *zerolog.Logger
}

// NewWalletUseCase creates a new WalletUseCase.
func NewWalletUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	transactionRepo TransactionRepository,
	retrier Retrier,
	metrics Metrics,
) *WalletUseCase {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	nop := zerolog.Nop()

	return &WalletUseCase{
		txManager:       txManager,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		retrier:         retrier,
		metrics:         metrics,
		logger:          &nop,
	}
}

// WithLogger sets the logger used for cleanup warnings.
func (uc *WalletUseCase) WithLogger(logger *zerolog.Logger) *WalletUseCase {
	if logger != nil {
		uc.logger = logger
	}
	return uc
}

// CreateWallet creates an empty wallet for userID at version 0.
func (uc *WalletUseCase) CreateWallet(ctx context.Context, userID int64) (*domain.Wallet, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return nil, err
	}

	tx, err := beginTx(ctx, uc.txManager, uc.retrier)
	if err != nil {
		return nil, err
	}
	defer rollbackTx(ctx, tx, uc.logger)

	now := time.Now().UTC()
	wallet := &domain.Wallet{
		UserID:    userID,
		Balance:   decimal.Zero,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.walletRepo.Create(ctx, tx, wallet); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.metrics.IncWalletsCreated()

	return wallet, nil
}

// GetWallet retrieves a wallet by ID.
func (uc *WalletUseCase) GetWallet(ctx context.Context, id int64) (*domain.Wallet, error) {
	if err := domain.ValidateWalletID(id); err != nil {
		return nil, err
	}
	return uc.walletRepo.GetByID(ctx, id)
}

// ListTransactionsInput represents input for listing a wallet's transactions.
type ListTransactionsInput struct {
	WalletID int64
	Limit    int
	Offset   int
}

// ListTransactions returns the wallet's transaction log, newest first.
func (uc *WalletUseCase) ListTransactions(ctx context.Context, input ListTransactionsInput) ([]*domain.TransactionRecord, error) {
	if err := domain.ValidateWalletID(input.WalletID); err != nil {
		return nil, err
	}

	// Unknown wallets are an error, not an empty page.
	if _, err := uc.walletRepo.GetByID(ctx, input.WalletID); err != nil {
		return nil, err
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.transactionRepo.ListByWallet(ctx, input.WalletID, limit, offset)
}
