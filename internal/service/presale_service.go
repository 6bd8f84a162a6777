package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"presale/config"
	"presale/internal/domain"
	"presale/internal/models"
	"presale/internal/repository"
	"presale/internal/security"
	"presale/pkg/cloudinary"
	apperrors "presale/pkg/errors"
	"presale/pkg/logger"

	"github.com/shopspring/decimal"
)

// PresaleInfo is the stored presale_info value.
type PresaleInfo struct {
	Season     string          `json:"season"`
	TokenPrice decimal.Decimal `json:"tokenPrice"`
	Cap        int64           `json:"cap"`
}

func (p PresaleInfo) Validate() error {
	if p.Season == "" {
		return fmt.Errorf("season is required")
	}
	if !p.TokenPrice.IsPositive() {
		return fmt.Errorf("token price must be positive")
	}
	if p.Cap < 0 {
		return fmt.Errorf("cap must not be negative")
	}
	return nil
}

// Overview is what the public presale endpoint shows.
type Overview struct {
	TotalSold decimal.Decimal `json:"totalSold"`
	Info      PresaleInfo     `json:"presaleInfo"`
	Active    bool            `json:"active"`
	EndDate   *time.Time      `json:"endDate"`
	SlotsSold int64           `json:"slotsSold"`
	LogoURL   string          `json:"logoUrl"`
}

// StageSummary rolls completed purchases up per stage. Prices are the
// current configured price, not the price at the time of sale, which
// PriceIsCurrent makes explicit.
type StageSummary struct {
	Stages         []StageLine `json:"stages"`
	PriceIsCurrent bool        `json:"priceIsCurrent"`
}

type StageLine struct {
	Stage      string          `json:"stage"`
	TotalSold  decimal.Decimal `json:"totalSold"`
	TokenPrice decimal.Decimal `json:"tokenPrice"`
}

// PresaleUpdate carries the fields an admin wants to change. Nil means keep.
type PresaleUpdate struct {
	Season     *string          `json:"season"`
	TokenPrice *decimal.Decimal `json:"tokenPrice"`
	Cap        *int64           `json:"cap"`
	Active     *bool            `json:"active"`
	EndDate    *string          `json:"endDate"`
}

// PresaleService reads and writes presale parameters through the config
// store, with one typed accessor per key.
type PresaleService struct {
	settings *repository.SettingRepository
	admin    *repository.AdminRepository
	defaults config.PresaleConfig
	uploader cloudinary.Uploader
	folder   string
}

func NewPresaleService(settings *repository.SettingRepository, admin *repository.AdminRepository, defaults config.PresaleConfig, uploader cloudinary.Uploader, folder string) *PresaleService {
	return &PresaleService{
		settings: settings,
		admin:    admin,
		defaults: defaults,
		uploader: uploader,
		folder:   folder,
	}
}

func (s *PresaleService) defaultInfo() PresaleInfo {
	return PresaleInfo{
		Season:     s.defaults.Season,
		TokenPrice: decimal.NewFromFloat(s.defaults.TokenPrice),
		Cap:        s.defaults.Cap,
	}
}

func (s *PresaleService) defaultEndDate() *time.Time {
	if s.defaults.EndDate == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.defaults.EndDate)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

// Info returns the presale info. A stored value that decodes but fails
// validation is treated like a corrupt one.
func (s *PresaleService) Info(ctx context.Context) (PresaleInfo, error) {
	def := s.defaultInfo()
	info, err := repository.GetValue(ctx, s.settings, domain.SettingPresaleInfo, def)
	if err != nil {
		return def, apperrors.Persistence(err, "failed to load presale info")
	}
	if err := info.Validate(); err != nil {
		logger.Warn("Stored presale info is invalid, using default", "error", err)
		return def, nil
	}
	return info, nil
}

func (s *PresaleService) Active(ctx context.Context) (bool, error) {
	active, err := repository.GetValue(ctx, s.settings, domain.SettingPresaleActive, s.defaults.Active)
	if err != nil {
		return false, apperrors.Persistence(err, "failed to load presale state")
	}
	return active, nil
}

func (s *PresaleService) EndDate(ctx context.Context) (*time.Time, error) {
	end, err := repository.GetValue(ctx, s.settings, domain.SettingPresaleEndDate, s.defaultEndDate())
	if err != nil {
		return nil, apperrors.Persistence(err, "failed to load presale end date")
	}
	return end, nil
}

func (s *PresaleService) LogoURL(ctx context.Context) (string, error) {
	url, err := repository.GetValue(ctx, s.settings, domain.SettingPresaleLogoURL, "")
	if err != nil {
		return "", apperrors.Persistence(err, "failed to load presale logo")
	}
	return url, nil
}

func (s *PresaleService) SlotsSold(ctx context.Context) (int64, error) {
	slots, err := repository.GetValue[int64](ctx, s.settings, domain.SettingSlotsSold, 0)
	if err != nil {
		return 0, apperrors.Persistence(err, "failed to load slots sold")
	}
	return slots, nil
}

// SeedDefaults makes sure every presale key exists.
func (s *PresaleService) SeedDefaults(ctx context.Context) error {
	if _, err := s.Info(ctx); err != nil {
		return err
	}
	if _, err := s.Active(ctx); err != nil {
		return err
	}
	if _, err := s.EndDate(ctx); err != nil {
		return err
	}
	if _, err := s.LogoURL(ctx); err != nil {
		return err
	}
	_, err := s.SlotsSold(ctx)
	return err
}

func (s *PresaleService) Overview(ctx context.Context) (*Overview, error) {
	var (
		out Overview
		err error
	)
	if out.TotalSold, err = s.admin.TotalSold(ctx); err != nil {
		return nil, apperrors.Persistence(err, "failed to load total sold")
	}
	if out.Info, err = s.Info(ctx); err != nil {
		return nil, err
	}
	if out.Active, err = s.Active(ctx); err != nil {
		return nil, err
	}
	if out.EndDate, err = s.EndDate(ctx); err != nil {
		return nil, err
	}
	if out.SlotsSold, err = s.SlotsSold(ctx); err != nil {
		return nil, err
	}
	if out.LogoURL, err = s.LogoURL(ctx); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update validates every supplied field before writing any of them.
func (s *PresaleService) Update(ctx context.Context, in PresaleUpdate) (*Overview, error) {
	if in.Season == nil && in.TokenPrice == nil && in.Cap == nil && in.Active == nil && in.EndDate == nil {
		return nil, apperrors.InvalidInput("no fields to update")
	}

	infoChanged := in.Season != nil || in.TokenPrice != nil || in.Cap != nil
	info, err := s.Info(ctx)
	if err != nil {
		return nil, err
	}
	if in.Season != nil {
		info.Season = security.SanitizeText(*in.Season)
	}
	if in.TokenPrice != nil {
		info.TokenPrice = *in.TokenPrice
	}
	if in.Cap != nil {
		info.Cap = *in.Cap
	}
	if err := info.Validate(); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	var endDate *time.Time
	if in.EndDate != nil && *in.EndDate != "" {
		t, err := time.Parse(time.RFC3339, *in.EndDate)
		if err != nil {
			return nil, apperrors.InvalidInput("end date must be an RFC3339 timestamp")
		}
		t = t.UTC()
		endDate = &t
	}

	if infoChanged {
		if err := s.settings.Set(ctx, domain.SettingPresaleInfo, info); err != nil {
			return nil, apperrors.Persistence(err, "failed to save presale info")
		}
	}
	if in.Active != nil {
		if err := s.settings.Set(ctx, domain.SettingPresaleActive, *in.Active); err != nil {
			return nil, apperrors.Persistence(err, "failed to save presale state")
		}
	}
	if in.EndDate != nil {
		if err := s.settings.Set(ctx, domain.SettingPresaleEndDate, endDate); err != nil {
			return nil, apperrors.Persistence(err, "failed to save presale end date")
		}
	}
	logger.Info("Presale config updated", "season", info.Season, "tokenPrice", info.TokenPrice.String(), "cap", info.Cap)
	return s.Overview(ctx)
}

func (s *PresaleService) StageSummary(ctx context.Context) (*StageSummary, error) {
	totals, err := s.admin.StageTotals(ctx)
	if err != nil {
		return nil, apperrors.Persistence(err, "failed to load stage totals")
	}
	info, err := s.Info(ctx)
	if err != nil {
		return nil, err
	}
	out := &StageSummary{Stages: make([]StageLine, 0, len(totals)), PriceIsCurrent: true}
	for _, t := range totals {
		out.Stages = append(out.Stages, StageLine{
			Stage:      t.Stage,
			TotalSold:  t.TotalSold,
			TokenPrice: info.TokenPrice,
		})
	}
	return out, nil
}

// UploadLogo stores the presale logo and records its URL.
func (s *PresaleService) UploadLogo(ctx context.Context, file io.Reader) (string, error) {
	if s.uploader == nil {
		return "", apperrors.New(apperrors.ErrCodeUnavailable, "logo upload is not configured")
	}
	url, err := s.uploader.UploadImage(ctx, file, s.folder, "presale_logo")
	if err != nil {
		logger.Error("Logo upload failed", "error", err)
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "logo upload failed")
	}
	if err := s.settings.Set(ctx, domain.SettingPresaleLogoURL, url); err != nil {
		return "", apperrors.Persistence(err, "failed to save presale logo")
	}
	return url, nil
}

// Settings lists the raw config store, without the passcode hash.
func (s *PresaleService) Settings(ctx context.Context) ([]models.Setting, error) {
	all, err := s.settings.GetAll(ctx)
	if err != nil {
		return nil, apperrors.Persistence(err, "failed to load settings")
	}
	out := make([]models.Setting, 0, len(all))
	for _, st := range all {
		if st.Key == domain.SettingAdminPasscodeHash {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}
