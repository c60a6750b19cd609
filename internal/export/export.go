package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"easydrive/internal/domain"
	"easydrive/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Reservations"

// Service builds xlsx reservation reports for the admin API.
type Service struct {
	store  domain.ReservationStore
	cars   domain.CarStore
	path   string
	logger *zerolog.Logger
}

func NewService(store domain.ReservationStore, cars domain.CarStore, path string, logger *zerolog.Logger) *Service {
	return &Service{store: store, cars: cars, path: path, logger: logger}
}

// BuildReport renders every reservation overlapping the window, one row per
// reservation, with the price computed from the car's current daily rate.
func (s *Service) BuildReport(ctx context.Context, startDate, endDate time.Time) (*excelize.File, error) {
	reservations, err := s.store.GetReservationsByDateRange(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("error getting reservations: %v", err)
	}

	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s",
		startDate.Format(models.DateLayout), endDate.Format(models.DateLayout)))
	_ = f.MergeCell(sheetName, "A1", "J1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headers := []string{"ID", "Car", "Holder", "Type", "Status", "Start", "End", "Days", "Rate/Day", "Total"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, h)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	carNames := make(map[int64]string)
	carRates := make(map[int64]float64)
	row := 3
	for _, res := range reservations {
		if _, ok := carNames[res.CarID]; !ok {
			name := fmt.Sprintf("car %d", res.CarID)
			var rate float64
			if car, err := s.cars.GetCar(ctx, res.CarID); err == nil {
				name = fmt.Sprintf("%d %s %s", car.Year, car.Model, car.Name)
				rate = car.PricePerDay
			}
			carNames[res.CarID] = name
			carRates[res.CarID] = rate
		}

		holder := res.GuestEmail
		if res.AccountID != 0 {
			holder = fmt.Sprintf("account %d", res.AccountID)
		}

		rate := carRates[res.CarID]
		values := []any{
			res.ID,
			carNames[res.CarID],
			holder,
			res.Type,
			res.Status,
			res.StartDate.Format(models.DateLayout),
			res.EndDate.Format(models.DateLayout),
			res.Days(),
			rate,
			res.TotalPrice(rate),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
		row++
	}

	_ = f.SetColWidth(sheetName, "A", "A", 38)
	_ = f.SetColWidth(sheetName, "B", "C", 28)
	_ = f.SetColWidth(sheetName, "D", "J", 12)
	_ = f.DeleteSheet("Sheet1")

	return f, nil
}

// SaveReport writes the report into the configured exports directory and
// returns the file path.
func (s *Service) SaveReport(ctx context.Context, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(s.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f, err := s.BuildReport(ctx, startDate, endDate)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fileName := fmt.Sprintf("reservations_%s_to_%s.xlsx",
		startDate.Format(models.DateLayout), endDate.Format(models.DateLayout))
	filePath := filepath.Join(s.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	s.logger.Info().Str("file_path", filePath).Msg("reservations report created")
	return filePath, nil
}
