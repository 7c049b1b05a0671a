package repository

import (
	"context"
	"errors"

	"settlement-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletRepository defines the interface for wallet and ledger data access.
// Credit and Debit are the only operations that touch a balance; both lock
// the wallet row and insert the ledger entry in the same transaction, so no
// intermediate state is observable to concurrent callers.
type WalletRepository interface {
	FindByID(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	Create(ctx context.Context, wallet *models.Wallet) error
	Credit(ctx context.Context, walletID uuid.UUID, amount float64, description string, orderID *uuid.UUID) (*models.WalletTransaction, error)
	Debit(ctx context.Context, walletID uuid.UUID, amount float64, description string, orderID *uuid.UUID) (*models.WalletTransaction, error)
	FindTransactionByOrder(ctx context.Context, walletID, orderID uuid.UUID, txType models.TransactionType) (*models.WalletTransaction, error)
	ListTransactions(ctx context.Context, walletID uuid.UUID, page, limit int) ([]models.WalletTransaction, int64, error)
	WithTx(tx *gorm.DB) WalletRepository
}

// GormWalletRepository implements WalletRepository using GORM.
type GormWalletRepository struct {
	db *gorm.DB
}

// NewGormWalletRepository creates a new GormWalletRepository.
func NewGormWalletRepository(db *gorm.DB) WalletRepository {
	return &GormWalletRepository{db: db}
}

// WithTx returns a repository bound to an open transaction.
func (r *GormWalletRepository) WithTx(tx *gorm.DB) WalletRepository {
	if tx == nil {
		return r
	}
	return &GormWalletRepository{db: tx}
}

func (r *GormWalletRepository) FindByID(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).First(&wallet, "id = ?", walletID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

func (r *GormWalletRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).First(&wallet, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

func (r *GormWalletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	return r.db.WithContext(ctx).Create(wallet).Error
}

// Credit adds funds to a wallet and appends the matching ledger entry.
func (r *GormWalletRepository) Credit(ctx context.Context, walletID uuid.UUID, amount float64, description string, orderID *uuid.UUID) (*models.WalletTransaction, error) {
	return r.move(ctx, walletID, amount, models.TransactionTypeCredit, description, orderID)
}

// Debit removes funds from a wallet. Fails with ErrInsufficientFunds when the
// locked balance is below amount; the balance is left untouched in that case.
func (r *GormWalletRepository) Debit(ctx context.Context, walletID uuid.UUID, amount float64, description string, orderID *uuid.UUID) (*models.WalletTransaction, error) {
	return r.move(ctx, walletID, amount, models.TransactionTypeDebit, description, orderID)
}

// move locks the wallet row, applies the balance change and inserts the
// ledger entry. Running inside an outer transaction degrades to a savepoint.
func (r *GormWalletRepository) move(ctx context.Context, walletID uuid.UUID, amount float64, txType models.TransactionType, description string, orderID *uuid.UUID) (*models.WalletTransaction, error) {
	var entry *models.WalletTransaction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wallet models.Wallet
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&wallet, "id = ?", walletID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWalletNotFound
			}
			return err
		}

		newBalance := wallet.Balance
		switch txType {
		case models.TransactionTypeCredit:
			newBalance += amount
		case models.TransactionTypeDebit:
			if amount > wallet.Balance {
				return ErrInsufficientFunds
			}
			newBalance -= amount
		}

		if err := tx.Model(&models.Wallet{}).
			Where("id = ?", walletID).
			UpdateColumn("balance", newBalance).Error; err != nil {
			return err
		}

		entry = &models.WalletTransaction{
			WalletID:     walletID,
			Type:         txType,
			Amount:       amount,
			BalanceAfter: newBalance,
			OrderID:      orderID,
			Description:  description,
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// FindTransactionByOrder looks up an existing order-linked movement so callers
// can retry safely without double-moving funds.
func (r *GormWalletRepository) FindTransactionByOrder(ctx context.Context, walletID, orderID uuid.UUID, txType models.TransactionType) (*models.WalletTransaction, error) {
	var entry models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("wallet_id = ? AND order_id = ? AND type = ?", walletID, orderID, txType).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *GormWalletRepository) ListTransactions(ctx context.Context, walletID uuid.UUID, page, limit int) ([]models.WalletTransaction, int64, error) {
	var entries []models.WalletTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).Where("wallet_id = ?", walletID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
