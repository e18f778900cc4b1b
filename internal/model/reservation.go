package model

import (
	"time"

	"gorm.io/datatypes"
)

// reservations: единственная долговременная таблица бота.
// Пара (date, slot) является первичным ключом: уникальность брони обеспечивает сама БД.
type Reservation struct {
	Date datatypes.Date `gorm:"type:date;primaryKey"`
	Slot string         `gorm:"type:varchar(16);primaryKey"`

	// Telegram ID владельца брони.
	UserID      int64  `gorm:"not null;index"`
	DisplayName string `gorm:"type:varchar(255);not null"`

	House    string `gorm:"type:varchar(128);not null"`
	Entrance string `gorm:"type:varchar(16);not null"`
	Flat     string `gorm:"type:varchar(16);not null"`

	CreatedAt time.Time `gorm:"not null"`
}

func (Reservation) TableName() string { return "reservations" }

// Day возвращает дату брони как time.Time (полночь UTC).
func (r Reservation) Day() time.Time {
	return time.Time(r.Date)
}
