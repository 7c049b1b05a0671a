package services

import (
	"context"
	"net/http"

	"settlement-service/models"
	"settlement-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WalletStatement is a balance plus a page of ledger entries.
type WalletStatement struct {
	Wallet       *models.Wallet             `json:"wallet"`
	Transactions []models.WalletTransaction `json:"transactions"`
	Meta         MetaData                   `json:"meta"`
}

// MetaData carries pagination info on list responses.
type MetaData struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

// WalletService defines the interface for wallet ledger business logic.
type WalletService interface {
	GetBalance(ctx context.Context, walletID uuid.UUID) (float64, *ServiceError)
	GetStatement(ctx context.Context, userID uuid.UUID, page, limit int) (*WalletStatement, *ServiceError)
	Credit(ctx context.Context, walletID uuid.UUID, amount float64, description string, orderID *uuid.UUID) (*models.WalletTransaction, *ServiceError)
	Debit(ctx context.Context, walletID uuid.UUID, amount float64, description string, orderID *uuid.UUID) (*models.WalletTransaction, *ServiceError)
	EnsureWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, *ServiceError)
}

type walletServiceImpl struct {
	walletRepo repository.WalletRepository
	events     *EventPublisher
	logger     *zap.Logger
}

// NewWalletService creates a new WalletService.
func NewWalletService(walletRepo repository.WalletRepository, events *EventPublisher, logger *zap.Logger) WalletService {
	return &walletServiceImpl{walletRepo: walletRepo, events: events, logger: logger}
}

// GetBalance reads the committed balance; never a cached value.
func (s *walletServiceImpl) GetBalance(ctx context.Context, walletID uuid.UUID) (float64, *ServiceError) {
	wallet, err := s.walletRepo.FindByID(ctx, walletID)
	if err != nil {
		return 0, mapRepoError(err, "Failed to fetch wallet")
	}
	return wallet.Balance, nil
}

// GetStatement returns the balance plus a page of ledger entries. A user
// without a wallet yet gets one created with a zero balance and an empty
// statement, never WALLET_NOT_FOUND.
func (s *walletServiceImpl) GetStatement(ctx context.Context, userID uuid.UUID, page, limit int) (*WalletStatement, *ServiceError) {
	wallet, svcErr := s.EnsureWallet(ctx, userID)
	if svcErr != nil {
		return nil, svcErr
	}

	entries, total, err := s.walletRepo.ListTransactions(ctx, wallet.ID, page, limit)
	if err != nil {
		s.logger.Error("Failed to list wallet transactions",
			zap.String("wallet_id", wallet.ID.String()),
			zap.Error(err),
		)
		return nil, internalError("Failed to fetch wallet transactions")
	}

	return &WalletStatement{
		Wallet:       wallet,
		Transactions: entries,
		Meta: MetaData{
			Page:    page,
			Limit:   limit,
			Total:   total,
			HasMore: total > int64(page*limit),
		},
	}, nil
}

// Credit adds funds. Fails with INVALID_AMOUNT for amount <= 0; otherwise
// always succeeds (no upper bound).
func (s *walletServiceImpl) Credit(ctx context.Context, walletID uuid.UUID, amount float64, description string, orderID *uuid.UUID) (*models.WalletTransaction, *ServiceError) {
	if amount <= 0 {
		return nil, newServiceError(http.StatusBadRequest, CodeInvalidAmount, "Amount must be greater than zero")
	}

	entry, err := s.walletRepo.Credit(ctx, walletID, amount, description, orderID)
	if err != nil {
		return nil, mapRepoError(err, "Failed to credit wallet")
	}

	s.logger.Info("Wallet credited",
		zap.String("wallet_id", walletID.String()),
		zap.Float64("amount", amount),
		zap.Float64("balance_after", entry.BalanceAfter),
	)
	s.events.WalletEvent(ctx, models.EventWalletCredited, "", entry)
	return entry, nil
}

// Debit removes funds. INVALID_AMOUNT for amount <= 0, INSUFFICIENT_FUNDS
// when amount exceeds the balance; both are terminal, never retried.
func (s *walletServiceImpl) Debit(ctx context.Context, walletID uuid.UUID, amount float64, description string, orderID *uuid.UUID) (*models.WalletTransaction, *ServiceError) {
	if amount <= 0 {
		return nil, newServiceError(http.StatusBadRequest, CodeInvalidAmount, "Amount must be greater than zero")
	}

	entry, err := s.walletRepo.Debit(ctx, walletID, amount, description, orderID)
	if err != nil {
		return nil, mapRepoError(err, "Failed to debit wallet")
	}

	s.logger.Info("Wallet debited",
		zap.String("wallet_id", walletID.String()),
		zap.Float64("amount", amount),
		zap.Float64("balance_after", entry.BalanceAfter),
	)
	s.events.WalletEvent(ctx, models.EventWalletDebited, "", entry)
	return entry, nil
}

// EnsureWallet returns the user's wallet, creating an empty one on first use.
func (s *walletServiceImpl) EnsureWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, *ServiceError) {
	wallet, err := s.walletRepo.FindByUserID(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if err != repository.ErrWalletNotFound {
		return nil, internalError("Failed to fetch wallet")
	}

	wallet = &models.Wallet{UserID: userID, Balance: 0}
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		s.logger.Error("Failed to create wallet", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, internalError("Failed to create wallet")
	}
	return wallet, nil
}
