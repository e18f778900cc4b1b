package calendar

import "time"

// DayLayout: формат дня в ключах карт и в токенах.
const DayLayout = "2006-01-02"

// Короткие названия дней недели, с понедельника.
var WeekdayShort = [7]string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}

// DateOf возвращает календарную дату момента t (в его поясе) как полночь UTC.
// Все даты броней хранятся и сравниваются в этом виде.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today: текущая дата в поясе loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc != nil {
		now = now.In(loc)
	}
	return DateOf(now)
}

func DayKey(day time.Time) string {
	return day.Format(DayLayout)
}

// FormatDay: дата для сообщений пользователю: 03.11.2026.
func FormatDay(day time.Time) string {
	return day.Format("02.01.2006")
}

// MonthRange возвращает полуинтервал [первое число, первое число следующего месяца).
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, 0)
}

// isoWeekday: понедельник = 0 ... воскресенье = 6.
func isoWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
