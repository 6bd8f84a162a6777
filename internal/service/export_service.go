package service

import (
	"context"
	"encoding/csv"
	"io"

	"presale/internal/models"
	"presale/internal/repository"
	apperrors "presale/pkg/errors"

	"github.com/xuri/excelize/v2"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const (
	exportBatchSize = 500
	exportSheet     = "Users"
)

var exportHeader = []string{"wallet", "balance"}

type ExportService struct {
	admin *repository.AdminRepository
}

func NewExportService(admin *repository.AdminRepository) *ExportService {
	return &ExportService{admin: admin}
}

// ContentType returns the MIME type and file extension for format.
func ContentType(format string) (string, string, error) {
	switch format {
	case "", FormatCSV:
		return "text/csv; charset=utf-8", FormatCSV, nil
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", FormatXLSX, nil
	}
	return "", "", apperrors.InvalidInput("format must be csv or xlsx")
}

// Export writes every user in the given format.
func (s *ExportService) Export(ctx context.Context, format string, w io.Writer) error {
	switch format {
	case "", FormatCSV:
		return s.WriteCSV(ctx, w)
	case FormatXLSX:
		return s.WriteXLSX(ctx, w)
	}
	return apperrors.InvalidInput("format must be csv or xlsx")
}

// WriteCSV writes wallet,balance rows with a header line.
func (s *ExportService) WriteCSV(ctx context.Context, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to write export")
	}
	err := s.admin.EachUser(ctx, exportBatchSize, func(users []models.User) error {
		for _, u := range users {
			if err := cw.Write([]string{u.Wallet, u.Balance.String()}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return apperrors.Persistence(err, "failed to export users")
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to write export")
	}
	return nil
}

// WriteXLSX writes the same rows as WriteCSV into a single-sheet workbook.
// Balances are kept as text so no precision is lost.
func (s *ExportService) WriteXLSX(ctx context.Context, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to build workbook")
	}
	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to build workbook")
	}
	if err := sw.SetRow("A1", []interface{}{exportHeader[0], exportHeader[1]}); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to build workbook")
	}

	row := 2
	err = s.admin.EachUser(ctx, exportBatchSize, func(users []models.User) error {
		for _, u := range users {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			if err := sw.SetRow(cell, []interface{}{u.Wallet, u.Balance.String()}); err != nil {
				return err
			}
			row++
		}
		return nil
	})
	if err != nil {
		return apperrors.Persistence(err, "failed to export users")
	}
	if err := sw.Flush(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to build workbook")
	}
	if err := f.Write(w); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to write export")
	}
	return nil
}
