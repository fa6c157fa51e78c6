package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"lendit/internal/domain"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Exporter renders a flat booking ledger for a date range as xlsx.
type Exporter struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewExporter(repo domain.Repository, logger *zerolog.Logger) *Exporter {
	return &Exporter{repo: repo, logger: logger}
}

const sheetName = "Bookings"

var headers = []string{"Booking ID", "Item", "Booker", "Start", "End", "Status"}

func (e *Exporter) BuildReport(ctx context.Context, start, end time.Time) ([]byte, error) {
	bookings, err := e.repo.ListRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("error getting bookings: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s",
		start.Format("02.01.2006"), end.Format("02.01.2006")))
	_ = f.MergeCell(sheetName, "A1", "F1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	items := make(map[int64]string)
	users := make(map[int64]string)

	row := 3
	for _, booking := range bookings {
		itemName, ok := items[booking.ItemID]
		if !ok {
			item, err := e.repo.GetItemByID(ctx, booking.ItemID)
			if err != nil {
				return nil, err
			}
			itemName = item.Name
			items[booking.ItemID] = itemName
		}

		bookerName, ok := users[booking.BookerID]
		if !ok {
			booker, err := e.repo.GetUserByID(ctx, booking.BookerID)
			if err != nil {
				return nil, err
			}
			bookerName = booker.Name
			users[booking.BookerID] = bookerName
		}

		values := []any{
			booking.ID,
			itemName,
			bookerName,
			booking.Start.Format("02.01.2006 15:04"),
			booking.End.Format("02.01.2006 15:04"),
			string(booking.Status),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, value)
		}
		row++
	}

	_ = f.SetColWidth(sheetName, "A", "A", 12)
	_ = f.SetColWidth(sheetName, "B", "C", 25)
	_ = f.SetColWidth(sheetName, "D", "F", 18)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}

	e.logger.Info().Int("rows", row-3).Msg("export built")
	return buf.Bytes(), nil
}
