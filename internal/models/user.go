package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a wallet holder. The wallet address is the case-sensitive identity.
type User struct {
	Wallet    string          `gorm:"primaryKey;size:128" json:"wallet"`
	Balance   decimal.Decimal `gorm:"type:decimal(36,9);not null;default:0;index" json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	Transactions []Transaction `gorm:"foreignKey:UserWallet;references:Wallet" json:"transactions,omitempty"`
}

func (User) TableName() string {
	return "users"
}
