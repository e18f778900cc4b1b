package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/olliwhaller-hue/newborbbq-bot/internal/model"
)

// ErrConflict: слот на эту дату уже занят. Штатный исход Book, не сбой.
var ErrConflict = errors.New("slot already booked")

const dayKeyLayout = "2006-01-02"

type ReservationRepository interface {
	// Занятые слоты даты: slot -> отображаемое имя владельца.
	ListForDate(ctx context.Context, day time.Time) (map[string]string, error)
	// Атомарно создать бронь; ErrConflict, если (date, slot) уже занят.
	Book(ctx context.Context, r *model.Reservation) error
	// Удалить бронь владельца. Возвращает true, если строка была удалена.
	Cancel(ctx context.Context, day time.Time, slot string, userID int64) (bool, error)
	// Брони пользователя по возрастанию (date, slot).
	ListForUser(ctx context.Context, userID int64) ([]model.Reservation, error)
	// Количество занятых слотов по дням в полуинтервале [from, to).
	CountByDateRange(ctx context.Context, from, to time.Time) (map[string]int, error)
	// Все брони в полуинтервале [from, to) по возрастанию (date, slot).
	ListRange(ctx context.Context, from, to time.Time) ([]model.Reservation, error)
}

// Реализация на GORM.
type GormReservationRepository struct {
	db *gorm.DB
}

func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// DayKey: ключ дня в картах, которые возвращает репозиторий.
func DayKey(day time.Time) string {
	return day.Format(dayKeyLayout)
}

// ToDate приводит момент к дате брони: полночь UTC того же календарного дня.
func ToDate(day time.Time) datatypes.Date {
	y, m, d := day.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func (r *GormReservationRepository) ListForDate(ctx context.Context, day time.Time) (map[string]string, error) {
	var rows []model.Reservation
	err := r.db.WithContext(ctx).
		Select("slot", "display_name").
		Where("date = ?", ToDate(day)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list reservations for %s: %w", DayKey(day), err)
	}

	taken := make(map[string]string, len(rows))
	for _, row := range rows {
		taken[row.Slot] = row.DisplayName
	}
	return taken, nil
}

func (r *GormReservationRepository) Book(ctx context.Context, res *model.Reservation) error {
	res.Date = ToDate(res.Day())

	// Один INSERT: гонку за (date, slot) разрешает первичный ключ.
	err := r.db.WithContext(ctx).Create(res).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert reservation %s %s: %w", DayKey(res.Day()), res.Slot, err)
	}
	return nil
}

func (r *GormReservationRepository) Cancel(ctx context.Context, day time.Time, slot string, userID int64) (bool, error) {
	tx := r.db.WithContext(ctx).
		Where("date = ? AND slot = ? AND user_id = ?", ToDate(day), slot, userID).
		Delete(&model.Reservation{})
	if tx.Error != nil {
		return false, fmt.Errorf("delete reservation %s %s: %w", DayKey(day), slot, tx.Error)
	}
	return tx.RowsAffected > 0, nil
}

func (r *GormReservationRepository) ListForUser(ctx context.Context, userID int64) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date ASC").
		Order("slot ASC").
		Find(&reservations).Error
	if err != nil {
		return nil, fmt.Errorf("list reservations of user %d: %w", userID, err)
	}
	return reservations, nil
}

func (r *GormReservationRepository) CountByDateRange(ctx context.Context, from, to time.Time) (map[string]int, error) {
	var rows []model.Reservation
	err := r.db.WithContext(ctx).
		Select("date", "slot").
		Where("date >= ? AND date < ?", ToDate(from), ToDate(to)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count reservations %s..%s: %w", DayKey(from), DayKey(to), err)
	}

	counts := make(map[string]int)
	for _, row := range rows {
		counts[DayKey(row.Day())]++
	}
	return counts, nil
}

func (r *GormReservationRepository) ListRange(ctx context.Context, from, to time.Time) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", ToDate(from), ToDate(to)).
		Order("date ASC").
		Order("slot ASC").
		Find(&reservations).Error
	if err != nil {
		return nil, fmt.Errorf("list reservations %s..%s: %w", DayKey(from), DayKey(to), err)
	}
	return reservations, nil
}
