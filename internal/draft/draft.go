// Package draft хранит незавершённый выбор пользователя.
//
// Токены кнопок самодостаточны, поэтому черновик только дублирует
// последний принятый шаг: по нему бот предлагает продолжить прерванную запись.
package draft

import (
	"context"
	"time"

	"github.com/olliwhaller-hue/newborbbq-bot/internal/token"
)

type Draft struct {
	UserID    int64     `json:"user_id"`
	Date      time.Time `json:"date"`
	Slot      string    `json:"slot,omitempty"`
	House     string    `json:"house,omitempty"`
	Entrance  string    `json:"entrance,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Resume возвращает токен, повторное нажатие которого откроет шаг,
// на котором пользователь остановился. false, если черновик пуст.
func (d Draft) Resume() (token.Token, bool) {
	switch {
	case d.Date.IsZero():
		return token.Token{}, false
	case d.Slot == "":
		return token.Date(d.Date), true
	case d.House == "":
		return token.Slot(d.Date, d.Slot), true
	case d.Entrance == "":
		return token.House(d.Date, d.Slot, d.House), true
	default:
		return token.Entrance(d.Date, d.Slot, d.House, d.Entrance), true
	}
}

// Store: последняя запись выигрывает, Put заменяет черновик целиком.
type Store interface {
	Get(ctx context.Context, userID int64) (Draft, bool, error)
	Put(ctx context.Context, d Draft) error
	Clear(ctx context.Context, userID int64) error
}
