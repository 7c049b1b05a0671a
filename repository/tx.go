package repository

import (
	"context"

	"gorm.io/gorm"
)

// Transactor runs a function inside a single database transaction. The
// checkout and transition paths use it so stock, order, discount and wallet
// writes commit or roll back as one unit.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// GormTransactor implements Transactor on a live gorm connection.
type GormTransactor struct {
	db *gorm.DB
}

func NewGormTransactor(db *gorm.DB) *GormTransactor {
	return &GormTransactor{db: db}
}

func (t *GormTransactor) InTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}
