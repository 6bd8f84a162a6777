package service

import (
	"context"
	"time"

	"presale/config"
	"presale/internal/auth"
	"presale/internal/domain"
	"presale/internal/repository"
	apperrors "presale/pkg/errors"
	"presale/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

// MinPasscodeLength applies to passcodes set through the admin panel.
const MinPasscodeLength = 8

// AuthService guards the admin panel with a single shared passcode. The
// passcode is kept as a bcrypt hash in the config store.
type AuthService struct {
	cfg      *config.AdminConfig
	settings *repository.SettingRepository
	now      func() time.Time
}

func NewAuthService(cfg *config.AdminConfig, settings *repository.SettingRepository) *AuthService {
	return &AuthService{cfg: cfg, settings: settings, now: time.Now}
}

func (s *AuthService) passcodeHash(ctx context.Context) (string, error) {
	hash, err := repository.GetValue(ctx, s.settings, domain.SettingAdminPasscodeHash, "")
	if err != nil {
		return "", apperrors.Persistence(err, "failed to load admin passcode")
	}
	return hash, nil
}

// SeedPasscode stores the configured initial passcode unless one is already
// stored.
func (s *AuthService) SeedPasscode(ctx context.Context) error {
	hash, err := s.passcodeHash(ctx)
	if err != nil {
		return err
	}
	if hash != "" {
		return nil
	}
	if err := s.setPasscode(ctx, s.cfg.InitialPasscode); err != nil {
		return err
	}
	logger.Info("Admin passcode seeded from configuration")
	return nil
}

func (s *AuthService) setPasscode(ctx context.Context, passcode string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to hash passcode")
	}
	if err := s.settings.Set(ctx, domain.SettingAdminPasscodeHash, string(hash)); err != nil {
		return apperrors.Persistence(err, "failed to save admin passcode")
	}
	return nil
}

func (s *AuthService) checkPasscode(ctx context.Context, passcode string) error {
	hash, err := s.passcodeHash(ctx)
	if err != nil {
		return err
	}
	if hash == "" || passcode == "" {
		return apperrors.Unauthorized("invalid passcode")
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(passcode)) != nil {
		return apperrors.Unauthorized("invalid passcode")
	}
	return nil
}

// Login exchanges the passcode for a signed admin session token.
func (s *AuthService) Login(ctx context.Context, passcode string) (string, time.Time, error) {
	if err := s.checkPasscode(ctx, passcode); err != nil {
		return "", time.Time{}, err
	}
	token, expires, err := auth.GenerateAdminToken(s.cfg, s.now())
	if err != nil {
		return "", time.Time{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to sign token")
	}
	return token, expires, nil
}

// ChangePasscode replaces the passcode after checking the current one.
func (s *AuthService) ChangePasscode(ctx context.Context, current, next string) error {
	if len(next) < MinPasscodeLength {
		return apperrors.InvalidInput("new passcode must be at least 8 characters")
	}
	if err := s.checkPasscode(ctx, current); err != nil {
		return err
	}
	if err := s.setPasscode(ctx, next); err != nil {
		return err
	}
	logger.Info("Admin passcode changed")
	return nil
}
