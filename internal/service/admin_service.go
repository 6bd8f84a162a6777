package service

import (
	"context"
	"errors"

	"presale/internal/models"
	"presale/internal/repository"
	"presale/internal/security"
	apperrors "presale/pkg/errors"
	"presale/pkg/logger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserPage is one page of the admin user listing.
type UserPage struct {
	Users      []models.User `json:"users"`
	Total      int64         `json:"total"`
	TotalPages int64         `json:"totalPages"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
}

// AdminService backs the admin panel's user views.
type AdminService struct {
	admin     *repository.AdminRepository
	users     *repository.UserRepository
	ledger    *LedgerService
	addresses *security.AddressValidator
}

func NewAdminService(admin *repository.AdminRepository, users *repository.UserRepository, ledger *LedgerService, addresses *security.AddressValidator) *AdminService {
	return &AdminService{admin: admin, users: users, ledger: ledger, addresses: addresses}
}

// ListUsers pages through users, richest first. page and limit must already
// be positive.
func (s *AdminService) ListUsers(ctx context.Context, search string, page, limit int) (*UserPage, error) {
	users, total, err := s.admin.ListUsers(ctx, security.SanitizeSearch(search), page, limit)
	if err != nil {
		return nil, apperrors.Persistence(err, "failed to list users")
	}
	return &UserPage{
		Users:      users,
		Total:      total,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
		Page:       page,
		Limit:      limit,
	}, nil
}

// GetUser returns the user with its transactions, creating the user with a
// zero balance when it does not exist yet.
func (s *AdminService) GetUser(ctx context.Context, wallet string) (*UserData, error) {
	if err := s.addresses.Validate(wallet); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	if _, err := s.users.GetOrCreate(ctx, wallet, false); err != nil {
		return nil, apperrors.Persistence(err, "failed to load user")
	}
	return s.ledger.UserData(ctx, wallet)
}

// UpdateBalance overrides a user's balance. It is the only way to change a
// balance outside the purchase flow.
func (s *AdminService) UpdateBalance(ctx context.Context, wallet string, balance decimal.Decimal) (*models.User, error) {
	if balance.IsNegative() {
		return nil, apperrors.InvalidInput("balance must not be negative")
	}
	u, err := s.admin.SetBalance(ctx, wallet, balance)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("user not found")
	}
	if err != nil {
		return nil, apperrors.Persistence(err, "failed to update balance")
	}
	logger.Info("Balance overridden by admin", "wallet", wallet, "balance", balance.String())
	return u, nil
}
