package service

import (
	"context"
	"errors"
	"time"

	"presale/internal/domain"
	"presale/internal/models"
	"presale/internal/repository"
	"presale/internal/security"
	apperrors "presale/pkg/errors"
	"presale/pkg/logger"
	"presale/pkg/metrics"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	maxPurchaseIDLength = 128
	maxCurrencyLength   = 16
)

// Publisher receives live feed events.
type Publisher interface {
	Publish(event interface{})
}

// PurchaseEvent is sent on the live feed after a purchase changed state.
type PurchaseEvent struct {
	Type      string          `json:"type"`
	Wallet    string          `json:"wallet"`
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	AmountExn decimal.Decimal `json:"amountExn"`
	TotalSold decimal.Decimal `json:"totalSold"`
	SlotsSold int64           `json:"slotsSold"`
}

// PurchaseInput is a purchase as submitted by a client or a settlement
// callback.
type PurchaseInput struct {
	ID                   string           `json:"id"`
	AmountExn            *decimal.Decimal `json:"amountExn"`
	PaidAmount           *decimal.Decimal `json:"paidAmount"`
	PaidCurrency         string           `json:"paidCurrency"`
	Date                 *time.Time       `json:"date"`
	Status               string           `json:"status"`
	FailureReason        *string          `json:"failureReason"`
	BlockHash            *string          `json:"blockHash"`
	LastValidBlockHeight *int64           `json:"lastValidBlockHeight"`
}

// PurchaseResult is returned to the submitter.
type PurchaseResult struct {
	Balance      decimal.Decimal      `json:"balance"`
	TotalSold    decimal.Decimal      `json:"totalSold"`
	SlotsSold    int64                `json:"slotsSold"`
	Transactions []models.Transaction `json:"transactions"`
}

// UserData is a wallet's balance and history.
type UserData struct {
	Wallet       string               `json:"wallet"`
	Balance      decimal.Decimal      `json:"balance"`
	Transactions []models.Transaction `json:"transactions"`
}

type LedgerService struct {
	ledger         *repository.LedgerRepository
	users          *repository.UserRepository
	presale        *PresaleService
	addresses      *security.AddressValidator
	feed           Publisher
	pendingTimeout time.Duration
	now            func() time.Time
}

func NewLedgerService(
	ledger *repository.LedgerRepository,
	users *repository.UserRepository,
	presale *PresaleService,
	addresses *security.AddressValidator,
	feed Publisher,
	pendingTimeout time.Duration,
) *LedgerService {
	if pendingTimeout <= 0 {
		pendingTimeout = domain.DefaultPendingTimeout
	}
	return &LedgerService{
		ledger:         ledger,
		users:          users,
		presale:        presale,
		addresses:      addresses,
		feed:           feed,
		pendingTimeout: pendingTimeout,
		now:            time.Now,
	}
}

func (s *LedgerService) validate(wallet string, in PurchaseInput) error {
	if err := s.addresses.Validate(wallet); err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	if in.ID == "" {
		return apperrors.InvalidInput("purchase id is required")
	}
	if len(in.ID) > maxPurchaseIDLength {
		return apperrors.InvalidInput("purchase id is too long")
	}
	if !domain.ValidStatus(in.Status) {
		return apperrors.InvalidInput("status must be one of Completed, Pending, Failed")
	}
	if in.AmountExn != nil && in.AmountExn.IsNegative() {
		return apperrors.InvalidInput("amountExn must not be negative")
	}
	if in.PaidAmount != nil && in.PaidAmount.IsNegative() {
		return apperrors.InvalidInput("paidAmount must not be negative")
	}
	if len(in.PaidCurrency) > maxCurrencyLength {
		return apperrors.InvalidInput("paidCurrency is too long")
	}
	if in.BlockHash != nil && len(*in.BlockHash) > maxPurchaseIDLength {
		return apperrors.InvalidInput("blockHash is too long")
	}
	return nil
}

func (s *LedgerService) toRecord(in PurchaseInput, stage string) models.Transaction {
	rec := models.Transaction{
		ID:                   in.ID,
		PaidCurrency:         security.SanitizeText(in.PaidCurrency),
		Status:               in.Status,
		BlockHash:            in.BlockHash,
		LastValidBlockHeight: in.LastValidBlockHeight,
		Date:                 s.now().UTC(),
	}
	if in.AmountExn != nil {
		rec.AmountExn = *in.AmountExn
	}
	if in.PaidAmount != nil {
		rec.PaidAmount = *in.PaidAmount
	}
	if in.Date != nil && !in.Date.IsZero() {
		rec.Date = in.Date.UTC()
	}
	if in.FailureReason != nil && in.Status == domain.StatusFailed {
		reason := security.SanitizeText(*in.FailureReason)
		rec.FailureReason = &reason
	}
	if stage != "" {
		rec.StageName = &stage
	}
	return rec
}

// SubmitPurchase records a purchase for wallet. Submitting the same purchase
// id again never credits twice.
func (s *LedgerService) SubmitPurchase(ctx context.Context, wallet string, in PurchaseInput) (*PurchaseResult, error) {
	if err := s.validate(wallet, in); err != nil {
		return nil, err
	}
	info, err := s.presale.Info(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.ledger.RecordPurchase(ctx, wallet, s.toRecord(in, info.Season))
	if err != nil {
		metrics.LedgerErrors.Inc()
		logger.Error("Recording purchase failed", "wallet", wallet, "id", in.ID, "error", err)
		return nil, apperrors.Persistence(err, "failed to record purchase")
	}
	s.observe(wallet, res)

	return &PurchaseResult{
		Balance:      res.NewBalance,
		TotalSold:    res.NewTotalSold,
		SlotsSold:    res.SlotsSold,
		Transactions: s.forDisplay(res.Transactions),
	}, nil
}

func (s *LedgerService) observe(wallet string, res *repository.LedgerResult) {
	tx := res.Transaction
	switch res.Outcome {
	case repository.OutcomeDuplicate:
		metrics.PurchasesDuplicate.Inc()
		logger.Debug("Duplicate purchase ignored", "wallet", wallet, "id", tx.ID, "status", tx.Status)
		return
	case repository.OutcomeCreated:
		metrics.PurchasesRecorded.Inc()
	}
	if res.Credited {
		metrics.PurchasesCompleted.Inc()
	}
	if tx.Status == domain.StatusFailed {
		metrics.PurchasesFailed.Inc()
	}
	logger.Info("Purchase recorded",
		"wallet", wallet,
		"id", tx.ID,
		"status", tx.Status,
		"outcome", res.Outcome,
		"credited", res.Credited,
		"balance", res.NewBalance.String(),
	)
	if s.feed != nil {
		s.feed.Publish(PurchaseEvent{
			Type:      "purchase",
			Wallet:    wallet,
			ID:        tx.ID,
			Status:    tx.Status,
			AmountExn: tx.AmountExn,
			TotalSold: res.NewTotalSold,
			SlotsSold: res.SlotsSold,
		})
	}
}

// UserData returns the wallet's balance and history. Unknown wallets get a
// zero balance and no transactions; nothing is created.
func (s *LedgerService) UserData(ctx context.Context, wallet string) (*UserData, error) {
	if err := s.addresses.Validate(wallet); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	out := &UserData{Wallet: wallet, Balance: decimal.Zero, Transactions: []models.Transaction{}}
	u, err := s.users.GetByWallet(ctx, wallet)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, apperrors.Persistence(err, "failed to load user")
	}
	txs, err := s.users.Transactions(ctx, wallet)
	if err != nil {
		return nil, apperrors.Persistence(err, "failed to load transactions")
	}
	out.Balance = u.Balance
	out.Transactions = s.forDisplay(txs)
	return out, nil
}

// forDisplay applies the pending timeout to a transaction list.
func (s *LedgerService) forDisplay(txs []models.Transaction) []models.Transaction {
	now := s.now()
	out := make([]models.Transaction, len(txs))
	for i, tx := range txs {
		out[i] = tx.ForDisplay(now, s.pendingTimeout)
	}
	return out
}
