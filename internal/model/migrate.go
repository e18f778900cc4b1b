package model

import "gorm.io/gorm"

// AutoMigrate создаёт/обновляет схему хранилища броней.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Reservation{})
}
