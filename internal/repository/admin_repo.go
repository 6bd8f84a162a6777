package repository

import (
	"context"
	"sort"
	"strings"

	"presale/internal/domain"
	"presale/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StageTotal is the amount of tokens sold by completed purchases in one stage.
type StageTotal struct {
	Stage     string          `json:"stage"`
	TotalSold decimal.Decimal `json:"total_sold"`
}

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// TotalSold sums all user balances.
func (r *AdminRepository) TotalSold(ctx context.Context) (decimal.Decimal, error) {
	return sumBalances(ctx, r.db)
}

// StageTotals groups completed purchases by stage name. Purchases recorded
// without a stage are reported under the empty name.
func (r *AdminRepository) StageTotals(ctx context.Context) ([]StageTotal, error) {
	if isSQLite(r.db) {
		return r.stageTotalsInGo(ctx)
	}
	var rows []StageTotal
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("COALESCE(stage_name, '') AS stage, COALESCE(SUM(amount_exn), 0) AS total_sold").
		Where("status = ?", domain.StatusCompleted).
		Group("COALESCE(stage_name, '')").
		Order("stage ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *AdminRepository) stageTotalsInGo(ctx context.Context) ([]StageTotal, error) {
	var rows []struct {
		Stage     string
		AmountExn decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("COALESCE(stage_name, '') AS stage, amount_exn").
		Where("status = ?", domain.StatusCompleted).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	sums := make(map[string]decimal.Decimal)
	for _, row := range rows {
		sums[row.Stage] = sums[row.Stage].Add(row.AmountExn)
	}
	out := make([]StageTotal, 0, len(sums))
	for stage, total := range sums {
		out = append(out, StageTotal{Stage: stage, TotalSold: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stage < out[j].Stage })
	return out, nil
}

// ListUsers returns users whose wallet contains search (case-insensitive),
// ordered by balance, highest first.
func (r *AdminRepository) ListUsers(ctx context.Context, search string, page, limit int) ([]models.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	if search != "" {
		q = q.Where("LOWER(wallet) LIKE ? ESCAPE '!'", "%"+escapeLike(strings.ToLower(search))+"%")
	}
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	users := []models.User{}
	err := q.Session(&gorm.Session{}).Order("balance DESC").Order("wallet ASC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&users).Error
	return users, total, err
}

// SetBalance overrides a user's balance. It returns gorm.ErrRecordNotFound
// for an unknown wallet.
func (r *AdminRepository) SetBalance(ctx context.Context, wallet string, balance decimal.Decimal) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("wallet = ?", wallet).First(&u).Error; err != nil {
			return err
		}
		if err := tx.Model(&u).Update("balance", balance).Error; err != nil {
			return err
		}
		u.Balance = balance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// EachUser calls fn for every user, batchSize rows at a time, in wallet order.
func (r *AdminRepository) EachUser(ctx context.Context, batchSize int, fn func([]models.User) error) error {
	var batch []models.User
	return r.db.WithContext(ctx).FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
		return fn(batch)
	}).Error
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
