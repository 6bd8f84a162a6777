package repository

import (
	"context"

	"presale/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) GetByWallet(ctx context.Context, wallet string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("wallet = ?", wallet).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetOrCreate returns the user for wallet, creating it with a zero balance.
// With lock set the row stays locked until the surrounding transaction ends.
func (r *UserRepository) GetOrCreate(ctx context.Context, wallet string, lock bool) (*models.User, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet"}},
		DoNothing: true,
	}).Create(&models.User{Wallet: wallet, Balance: decimal.Zero}).Error
	if err != nil {
		return nil, err
	}
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var u models.User
	if err := q.Where("wallet = ?", wallet).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) UpdateBalance(ctx context.Context, wallet string, balance decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("wallet = ?", wallet).
		Update("balance", balance).Error
}

// Transactions returns the wallet's purchases, newest first.
func (r *UserRepository) Transactions(ctx context.Context, wallet string) ([]models.Transaction, error) {
	list := []models.Transaction{}
	err := r.db.WithContext(ctx).
		Where("user_wallet = ?", wallet).
		Order("date DESC").Order("created_at DESC").
		Find(&list).Error
	return list, err
}
