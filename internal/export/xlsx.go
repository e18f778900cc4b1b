// Package export строит XLSX-выгрузку броней для администратора.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/olliwhaller-hue/newborbbq-bot/internal/calendar"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/model"
)

const (
	listSheet = "Бронирования"
	gridSheet = "Загрузка"
)

// Source: срез хранилища, которого достаточно для выгрузки.
type Source interface {
	ListRange(ctx context.Context, from, to time.Time) ([]model.Reservation, error)
}

type XLSXExporter struct {
	src Source
}

func NewXLSXExporter(src Source) *XLSXExporter {
	return &XLSXExporter{src: src}
}

// Export выгружает брони полуинтервала [from, to) и возвращает содержимое файла.
func (e *XLSXExporter) Export(ctx context.Context, from, to time.Time) ([]byte, error) {
	reservations, err := e.src.ListRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(listSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	if err := writeList(f, reservations); err != nil {
		return nil, err
	}
	if err := writeGrid(f, reservations, from, to); err != nil {
		return nil, err
	}

	// Удаляем стандартный лист
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeList(f *excelize.File, reservations []model.Reservation) error {
	headers := []string{"Дата", "Слот", "Пользователь", "Telegram ID", "Дом", "Подъезд", "Квартира", "Создано"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(listSheet, cell, header); err != nil {
			return fmt.Errorf("set header: %w", err)
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetCellStyle(listSheet, "A1", "H1", style); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i, r := range reservations {
		row := i + 2
		values := []any{
			calendar.FormatDay(r.Day()),
			r.Slot,
			r.DisplayName,
			r.UserID,
			r.House,
			r.Entrance,
			r.Flat,
			r.CreatedAt.Format("02.01.2006 15:04"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(listSheet, cell, v); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	_ = f.SetColWidth(listSheet, "A", "B", 12)
	_ = f.SetColWidth(listSheet, "C", "C", 22)
	_ = f.SetColWidth(listSheet, "D", "D", 15)
	_ = f.SetColWidth(listSheet, "E", "E", 18)
	_ = f.SetColWidth(listSheet, "H", "H", 18)
	return nil
}

// writeGrid строит матрицу дата × слот, занятые клетки подписаны именем владельца.
func writeGrid(f *excelize.File, reservations []model.Reservation, from, to time.Time) error {
	if _, err := f.NewSheet(gridSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	for i, slot := range model.Slots {
		cell, _ := excelize.CoordinatesToCellName(i+2, 1)
		if err := f.SetCellValue(gridSheet, cell, slot); err != nil {
			return fmt.Errorf("set slot header: %w", err)
		}
	}

	booked, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F8CBAD"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create booked style: %w", err)
	}

	rows := make(map[string]int)
	row := 2
	for d := calendar.DateOf(from); d.Before(to); d = d.AddDate(0, 0, 1) {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellValue(gridSheet, cell, calendar.FormatDay(d)); err != nil {
			return fmt.Errorf("set date: %w", err)
		}
		rows[calendar.DayKey(d)] = row
		row++
	}

	for _, r := range reservations {
		rowIdx, ok := rows[calendar.DayKey(r.Day())]
		col := model.SlotIndex(r.Slot)
		if !ok || col < 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(col+2, rowIdx)
		if err := f.SetCellValue(gridSheet, cell, r.DisplayName); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(gridSheet, cell, cell, booked); err != nil {
			return fmt.Errorf("style cell %s: %w", cell, err)
		}
	}

	_ = f.SetColWidth(gridSheet, "A", "A", 12)
	_ = f.SetColWidth(gridSheet, "B", "G", 16)
	return nil
}
