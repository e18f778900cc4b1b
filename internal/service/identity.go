package service

import (
	"errors"
	"strings"
)

var ErrInvalidUserID = errors.New("invalid telegram user id")

const defaultDisplayName = "Без_ника"

// ValidateIdentity:
//   - проверяет идентификатор пользователя;
//   - нормализует отображаемое имя;
//   - возвращает результат или ошибку.
func ValidateIdentity(id Identity) (Identity, error) {
	if id.UserID <= 0 {
		return Identity{}, ErrInvalidUserID
	}
	id.DisplayName = strings.TrimSpace(id.DisplayName)
	if id.DisplayName == "" {
		id.DisplayName = defaultDisplayName
	}
	return id, nil
}
