package calendar

import (
	"testing"
	"time"
)

func mustDay(t *testing.T, year int, month time.Month, day int) time.Time {
	t.Helper()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestDayIndicator(t *testing.T) {
	cases := []struct {
		taken int
		want  Indicator
	}{
		{0, Empty},
		{1, Partial},
		{3, Partial},
		{5, Partial},
		{6, Full},
	}
	for _, tc := range cases {
		if got := DayIndicator(tc.taken, 6); got != tc.want {
			t.Fatalf("DayIndicator(%d, 6) = %s, want %s", tc.taken, got, tc.want)
		}
	}
}

func TestPrevNextMonth_Wraparound(t *testing.T) {
	if y, m := PrevMonth(2026, time.January); y != 2025 || m != time.December {
		t.Fatalf("PrevMonth(2026-01) = %d-%02d", y, m)
	}
	if y, m := NextMonth(2026, time.December); y != 2027 || m != time.January {
		t.Fatalf("NextMonth(2026-12) = %d-%02d", y, m)
	}
	if y, m := NextMonth(2026, time.March); y != 2026 || m != time.April {
		t.Fatalf("NextMonth(2026-03) = %d-%02d", y, m)
	}
}

func TestMonthGrid_Shape(t *testing.T) {
	// Ноябрь 2026 начинается в воскресенье: шесть пустых клеток в первой неделе.
	m := MonthGrid(2026, time.November, nil, 6, mustDay(t, 2026, 1, 1))

	if len(m.Weeks) != 6 {
		t.Fatalf("expected 6 weeks, got %d", len(m.Weeks))
	}
	days := 0
	for i, w := range m.Weeks {
		if len(w) != 7 {
			t.Fatalf("week %d has %d cells", i, len(w))
		}
		for _, c := range w {
			if !c.Blank {
				days++
			}
		}
	}
	if days != 30 {
		t.Fatalf("expected 30 days, got %d", days)
	}

	first := m.Weeks[0]
	for i := 0; i < 6; i++ {
		if !first[i].Blank {
			t.Fatalf("cell %d of first week must be blank", i)
		}
	}
	if first[6].Day != 1 {
		t.Fatalf("Nov 1 must be on Sunday, got cell %+v", first[6])
	}
}

func TestMonthGrid_StartsOnMonday(t *testing.T) {
	// Июнь 2026 начинается в понедельник.
	m := MonthGrid(2026, time.June, nil, 6, mustDay(t, 2026, 1, 1))
	if m.Weeks[0][0].Blank || m.Weeks[0][0].Day != 1 {
		t.Fatalf("June 1 2026 must open the grid, got %+v", m.Weeks[0][0])
	}
}

func TestMonthGrid_IndicatorsAndSelectable(t *testing.T) {
	today := mustDay(t, 2026, 11, 10)
	counts := map[string]int{
		"2026-11-05": 6,
		"2026-11-10": 3,
		"2026-11-20": 6,
	}

	m := MonthGrid(2026, time.November, counts, 6, today)
	cells := map[int]Cell{}
	for _, w := range m.Weeks {
		for _, c := range w {
			if !c.Blank {
				cells[c.Day] = c
			}
		}
	}

	if cells[5].Selectable {
		t.Fatalf("past day must not be selectable")
	}
	if cells[5].Indicator != Full {
		t.Fatalf("Nov 5 indicator = %s, want full", cells[5].Indicator)
	}
	if !cells[10].Selectable || cells[10].Indicator != Partial {
		t.Fatalf("today = %+v, want selectable partial", cells[10])
	}
	if !cells[20].Selectable || cells[20].Indicator != Full {
		t.Fatalf("Nov 20 = %+v, want selectable full", cells[20])
	}
	if cells[21].Indicator != Empty {
		t.Fatalf("Nov 21 = %s, want empty", cells[21].Indicator)
	}
	if !cells[21].Date.Equal(mustDay(t, 2026, 11, 21)) {
		t.Fatalf("cell date = %v", cells[21].Date)
	}
}

func TestToday_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2026, 11, 9, 22, 30, 0, 0, time.UTC)
	if got := Today(now, loc); !got.Equal(mustDay(t, 2026, 11, 10)) {
		t.Fatalf("Today = %v, want 2026-11-10", got)
	}
}
