package calendar

import "time"

// Indicator: заполненность дня.
type Indicator int

const (
	Empty Indicator = iota
	Partial
	Full
)

func (i Indicator) String() string {
	switch i {
	case Partial:
		return "partial"
	case Full:
		return "full"
	default:
		return "empty"
	}
}

// DayIndicator: ни одного занятого слота даёт Empty, все заняты даёт Full, иначе Partial.
func DayIndicator(taken, total int) Indicator {
	switch {
	case taken <= 0:
		return Empty
	case taken >= total:
		return Full
	default:
		return Partial
	}
}

// Cell: клетка сетки месяца. Blank-клетки добивают неделю до 7 дней.
type Cell struct {
	Blank      bool
	Day        int
	Date       time.Time
	Indicator  Indicator
	Selectable bool
}

type Month struct {
	Year  int
	Month time.Month
	Weeks [][]Cell
}

// MonthGrid строит сетку месяца по ISO-неделям (с понедельника).
// counts содержит число занятых слотов по DayKey, total равен размеру набора слотов,
// today задаёт текущую дату (полночь UTC); прошедшие дни не выбираются.
func MonthGrid(year int, month time.Month, counts map[string]int, total int, today time.Time) Month {
	first, next := MonthRange(year, month)
	today = DateOf(today)

	var (
		weeks [][]Cell
		week  = make([]Cell, 0, 7)
	)
	for i := 0; i < isoWeekday(first); i++ {
		week = append(week, Cell{Blank: true})
	}
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		week = append(week, Cell{
			Day:        d.Day(),
			Date:       d,
			Indicator:  DayIndicator(counts[DayKey(d)], total),
			Selectable: !d.Before(today),
		})
		if len(week) == 7 {
			weeks = append(weeks, week)
			week = make([]Cell, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, Cell{Blank: true})
		}
		weeks = append(weeks, week)
	}

	return Month{Year: first.Year(), Month: first.Month(), Weeks: weeks}
}

func PrevMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

func NextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}
