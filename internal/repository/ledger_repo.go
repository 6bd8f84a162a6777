package repository

import (
	"context"
	"errors"

	"presale/internal/domain"
	"presale/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Purchase outcomes reported by RecordPurchase.
const (
	OutcomeCreated      = "created"
	OutcomeTransitioned = "transitioned"
	OutcomeDuplicate    = "duplicate"
)

// LedgerResult is the state after a purchase was recorded.
type LedgerResult struct {
	Outcome      string
	Transaction  models.Transaction
	Credited     bool
	NewBalance   decimal.Decimal
	NewTotalSold decimal.Decimal
	SlotsSold    int64
	Transactions []models.Transaction
}

// LedgerRepository records purchases and keeps balances and the slots sold
// counter in step with them.
type LedgerRepository struct {
	db       *gorm.DB
	users    *UserRepository
	settings *SettingRepository
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{
		db:       db,
		users:    NewUserRepository(db),
		settings: NewSettingRepository(db),
	}
}

// RecordPurchase runs the whole purchase flow in one database transaction.
// Rows are locked in a fixed order (user, purchase, counter) so concurrent
// calls serialize on the rows they share without deadlocking.
//
// A purchase identifier is recorded at most once. A stored Pending record may
// move to Completed or Failed once; every other repeat is a no-op. The balance
// and the counter are credited exactly once per identifier, guarded by
// BalanceAdded.
func (r *LedgerRepository) RecordPurchase(ctx context.Context, wallet string, in models.Transaction) (*LedgerResult, error) {
	res := &LedgerResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := r.users.WithTx(tx)
		settings := r.settings.WithTx(tx)

		user, err := users.GetOrCreate(ctx, wallet, true)
		if err != nil {
			return err
		}

		rec, outcome, err := r.upsertPurchase(ctx, tx, wallet, in)
		if err != nil {
			return err
		}
		res.Outcome = outcome

		if rec.Status == domain.StatusCompleted && !rec.BalanceAdded && rec.UserWallet == wallet {
			user.Balance = user.Balance.Add(rec.AmountExn)
			if err := users.UpdateBalance(ctx, wallet, user.Balance); err != nil {
				return err
			}
			if res.SlotsSold, err = settings.IncrementCounter(ctx, domain.SettingSlotsSold); err != nil {
				return err
			}
			if err := tx.Model(&models.Transaction{}).Where("id = ?", rec.ID).Update("balance_added", true).Error; err != nil {
				return err
			}
			rec.BalanceAdded = true
			res.Credited = true
		} else {
			if res.SlotsSold, err = GetValue[int64](ctx, settings, domain.SettingSlotsSold, 0); err != nil {
				return err
			}
		}

		res.Transaction = *rec
		res.NewBalance = user.Balance
		if res.Transactions, err = users.Transactions(ctx, wallet); err != nil {
			return err
		}
		res.NewTotalSold, err = sumBalances(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// upsertPurchase inserts the purchase or applies the one allowed transition
// to an existing Pending record of the same wallet.
func (r *LedgerRepository) upsertPurchase(ctx context.Context, tx *gorm.DB, wallet string, in models.Transaction) (*models.Transaction, string, error) {
	in.UserWallet = wallet
	in.BalanceAdded = false
	created := tx.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&in)
	if created.Error != nil {
		return nil, "", created.Error
	}
	if created.RowsAffected == 1 {
		return &in, OutcomeCreated, nil
	}

	var existing models.Transaction
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", in.ID).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", errors.New("purchase vanished after conflicting insert")
		}
		return nil, "", err
	}

	if existing.UserWallet != wallet || existing.Status != domain.StatusPending || !domain.IsTerminal(in.Status) {
		return &existing, OutcomeDuplicate, nil
	}

	updates := map[string]interface{}{
		"status":         in.Status,
		"failure_reason": in.FailureReason,
	}
	existing.Status = in.Status
	existing.FailureReason = in.FailureReason
	if in.BlockHash != nil {
		updates["block_hash"] = in.BlockHash
		existing.BlockHash = in.BlockHash
	}
	if in.LastValidBlockHeight != nil {
		updates["last_valid_block_height"] = in.LastValidBlockHeight
		existing.LastValidBlockHeight = in.LastValidBlockHeight
	}
	if in.AmountExn.IsPositive() {
		updates["amount_exn"] = in.AmountExn
		existing.AmountExn = in.AmountExn
	}
	if in.PaidAmount.IsPositive() {
		updates["paid_amount"] = in.PaidAmount
		existing.PaidAmount = in.PaidAmount
	}
	if in.PaidCurrency != "" {
		updates["paid_currency"] = in.PaidCurrency
		existing.PaidCurrency = in.PaidCurrency
	}
	err = tx.WithContext(ctx).Model(&models.Transaction{}).Where("id = ?", existing.ID).Updates(updates).Error
	if err != nil {
		return nil, "", err
	}
	return &existing, OutcomeTransitioned, nil
}

// sumBalances returns the sum of all user balances as of one read. SQLite
// stores fractional decimals as REAL and SUM adds them as floats, so there
// the balances are added in Go.
func sumBalances(ctx context.Context, db *gorm.DB) (decimal.Decimal, error) {
	if isSQLite(db) {
		var balances []decimal.Decimal
		if err := db.WithContext(ctx).Model(&models.User{}).Pluck("balance", &balances).Error; err != nil {
			return decimal.Zero, err
		}
		return decimal.Sum(decimal.Zero, balances...), nil
	}
	var row struct{ Total decimal.Decimal }
	err := db.WithContext(ctx).Model(&models.User{}).
		Select("COALESCE(SUM(balance), 0) AS total").
		Scan(&row).Error
	return row.Total, err
}

func isSQLite(db *gorm.DB) bool {
	return db.Dialector.Name() == "sqlite"
}
