package models

import (
	"time"

	"presale/internal/domain"

	"github.com/shopspring/decimal"
)

// Transaction is a purchase record. ID is the purchase identifier, usually the
// settlement signature, and doubles as the idempotency key.
type Transaction struct {
	ID                   string          `gorm:"primaryKey;size:128" json:"id"`
	UserWallet           string          `gorm:"size:128;not null;index" json:"user_wallet"`
	AmountExn            decimal.Decimal `gorm:"type:decimal(36,9);not null;default:0" json:"amount_exn"`
	PaidAmount           decimal.Decimal `gorm:"type:decimal(36,9);not null;default:0" json:"paid_amount"`
	PaidCurrency         string          `gorm:"size:16" json:"paid_currency"`
	Date                 time.Time       `gorm:"not null;index" json:"date"`
	Status               string          `gorm:"size:16;not null;index" json:"status"`
	FailureReason        *string         `gorm:"size:255" json:"failure_reason,omitempty"`
	BlockHash            *string         `gorm:"size:128" json:"block_hash,omitempty"`
	LastValidBlockHeight *int64          `json:"last_valid_block_height,omitempty"`
	StageName            *string         `gorm:"size:200;index" json:"stage_name,omitempty"`
	BalanceAdded         bool            `gorm:"not null;default:false" json:"-"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`

	User User `gorm:"foreignKey:UserWallet;references:Wallet" json:"-"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// TimedOut reports whether a Pending purchase has waited longer than timeout
// for its confirmation.
func (t *Transaction) TimedOut(now time.Time, timeout time.Duration) bool {
	return t.Status == domain.StatusPending && now.Sub(t.Date) > timeout
}

// ForDisplay returns a copy where a timed-out Pending purchase is shown as
// Failed. The stored record is untouched.
func (t Transaction) ForDisplay(now time.Time, timeout time.Duration) Transaction {
	if !t.TimedOut(now, timeout) {
		return t
	}
	reason := domain.PendingTimeoutReason
	t.Status = domain.StatusFailed
	t.FailureReason = &reason
	return t
}
