package models

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType marks a wallet transaction as a credit or a debit.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "CREDIT"
	TransactionTypeDebit  TransactionType = "DEBIT"
)

// Wallet holds a user's store-credit balance. One wallet per user; the
// balance is mutated only through paired WalletTransaction inserts inside
// the same database transaction.
type Wallet struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Balance   float64   `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// WalletTransaction is one append-only ledger entry. Rows are never updated
// or deleted; replaying a wallet's entries in order reproduces its balance.
type WalletTransaction struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WalletID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"wallet_id"`
	Type         TransactionType `gorm:"type:varchar(10);not null" json:"type"`
	Amount       float64         `gorm:"not null" json:"amount"`
	BalanceAfter float64         `gorm:"not null" json:"balance_after"`
	OrderID      *uuid.UUID      `gorm:"type:uuid;index" json:"order_id,omitempty"`
	Description  string          `gorm:"type:varchar(255)" json:"description"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// WalletAdjustmentRequest is the admin payload for add/deduct operations.
type WalletAdjustmentRequest struct {
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Description string  `json:"description" binding:"required,min=3,max=255"`
}
