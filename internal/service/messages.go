package service

import (
	"fmt"
	"time"

	"github.com/olliwhaller-hue/newborbbq-bot/internal/calendar"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/model"
)

const (
	textWelcome = "👋 Привет! Здесь можно забронировать BBQ-зону.\n" +
		"Выберите действие в меню ниже."
	textPickDate     = "📅 Выберите дату:"
	textPickHouse    = "🏠 С какого Вы дома?"
	textSlotTaken    = "❌ Слот уже занят!"
	textNoBookings   = "❌ У вас нет активных бронирований."
	textCancelPrompt = "Выберите бронь для отмены:"
	textReset        = "Выбор сброшен."
	textFailure      = "⚠️ Что-то пошло не так. Попробуйте позже."
	textAdminOnly    = "⛔ Команда доступна только администратору."

	labelBack   = "↩️ Назад"
	labelPrev   = "⬅️"
	labelNext   = "➡️"
	labelResume = "▶️ Продолжить запись"
	labelBlank  = " "
	markFull    = "◼"
	markPartial = "◻"
)

const (
	buttonsPerRow = 5
	cancelOnPage  = 8
)

func textExportCaption(from, to time.Time) string {
	return fmt.Sprintf("📊 Брони за период %s - %s", calendar.FormatDay(from), calendar.FormatDay(to.AddDate(0, 0, -1)))
}

func textPickSlot(day time.Time) string {
	return fmt.Sprintf("📅 %s\nВыберите время:", calendar.FormatDay(day))
}

func textPickEntrance(house string) string {
	return fmt.Sprintf("🏠 %s\nВыберите подъезд:", house)
}

func textPickFlat(house, entrance string) string {
	return fmt.Sprintf("🏠 %s, подъезд %s\nВыберите квартиру:", house, entrance)
}

func textBooked(r *model.Reservation) string {
	return fmt.Sprintf("✅ Забронировано: %s %s\n🏠 %s, подъезд %s, кв. %s",
		calendar.FormatDay(r.Day()), r.Slot, r.House, r.Entrance, r.Flat)
}

func textBookedBroadcast(r *model.Reservation) string {
	return fmt.Sprintf("🔥 %s забронировал BBQ на %s %s\n🏠 %s",
		r.DisplayName, calendar.FormatDay(r.Day()), r.Slot, r.House)
}

func textCancelled(day time.Time, slot string) string {
	return fmt.Sprintf("✅ Отменено: %s %s", calendar.FormatDay(day), slot)
}

func textFreed(day time.Time, slot string) string {
	return fmt.Sprintf("📅 Освободился слот: %s %s", calendar.FormatDay(day), slot)
}

func textReservationLine(r model.Reservation) string {
	return fmt.Sprintf("%s %s: %s, подъезд %s, кв. %s",
		calendar.FormatDay(r.Day()), r.Slot, r.House, r.Entrance, r.Flat)
}

func labelSlot(slot string, taken bool) string {
	if taken {
		return "❌ " + slot + " (занято)"
	}
	return "✅ " + slot
}

func labelCancel(r model.Reservation) string {
	return fmt.Sprintf("❌ %s %s", r.Day().Format("02.01"), r.Slot)
}
