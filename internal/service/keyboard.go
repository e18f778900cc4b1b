package service

import (
	"fmt"
	"time"

	"github.com/olliwhaller-hue/newborbbq-bot/internal/calendar"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/model"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/token"
)

// Построители клавиатур: чистые функции от данных к Render.
// Никаких обращений к хранилищу и транспорту.

func button(label string, t token.Token) Button {
	return Button{Label: label, Token: t.String()}
}

func noop(label string) Button {
	return button(label, token.Noop())
}

// chunk раскладывает кнопки по строкам заданной ширины.
func chunk(buttons []Button, width int) [][]Button {
	var rows [][]Button
	for len(buttons) > width {
		rows = append(rows, buttons[:width:width])
		buttons = buttons[width:]
	}
	if len(buttons) > 0 {
		rows = append(rows, buttons)
	}
	return rows
}

func monthView(m calendar.Month, resume *token.Token) *Render {
	rows := [][]Button{{
		button(labelPrev, token.Nav(m.Year, m.Month, token.Prev)),
		noop(fmt.Sprintf("%02d/%d", int(m.Month), m.Year)),
		button(labelNext, token.Nav(m.Year, m.Month, token.Next)),
	}}

	weekdays := make([]Button, 0, 7)
	for _, name := range calendar.WeekdayShort {
		weekdays = append(weekdays, noop(name))
	}
	rows = append(rows, weekdays)

	for _, week := range m.Weeks {
		row := make([]Button, 0, 7)
		for _, c := range week {
			row = append(row, dayButton(c))
		}
		rows = append(rows, row)
	}

	if resume != nil {
		rows = append(rows, []Button{button(labelResume, *resume)})
	}
	return &Render{Text: textPickDate, Rows: rows}
}

func dayButton(c calendar.Cell) Button {
	if c.Blank || !c.Selectable {
		return noop(labelBlank)
	}
	label := fmt.Sprint(c.Day)
	switch c.Indicator {
	case calendar.Full:
		label += markFull
	case calendar.Partial:
		label += markPartial
	case calendar.Empty:
	}
	return button(label, token.Date(c.Date))
}

// slotView: занятые слоты видны, но не нажимаются.
func slotView(day time.Time, taken map[string]string) *Render {
	rows := make([][]Button, 0, len(model.Slots)+1)
	for _, slot := range model.Slots {
		if _, busy := taken[slot]; busy {
			rows = append(rows, []Button{noop(labelSlot(slot, true))})
			continue
		}
		rows = append(rows, []Button{button(labelSlot(slot, false), token.Slot(day, slot))})
	}
	rows = append(rows, []Button{button(labelBack, token.Back())})
	return &Render{Text: textPickSlot(day), Rows: rows}
}

func houseView(day time.Time, slot string, houses []string) *Render {
	rows := make([][]Button, 0, len(houses)+1)
	for _, h := range houses {
		rows = append(rows, []Button{button(h, token.House(day, slot, h))})
	}
	rows = append(rows, []Button{button(labelBack, token.Date(day))})
	return &Render{Text: textPickHouse, Rows: rows}
}

func entranceView(day time.Time, slot, house string, entrances []string) *Render {
	buttons := make([]Button, 0, len(entrances))
	for _, e := range entrances {
		buttons = append(buttons, button("Подъезд "+e, token.Entrance(day, slot, house, e)))
	}
	rows := chunk(buttons, buttonsPerRow)
	rows = append(rows, []Button{button(labelBack, token.Slot(day, slot))})
	return &Render{Text: textPickEntrance(house), Rows: rows}
}

func flatView(day time.Time, slot, house, entrance string, flats []string) *Render {
	buttons := make([]Button, 0, len(flats))
	for _, f := range flats {
		buttons = append(buttons, button("Кв."+f, token.Flat(day, slot, house, entrance, f)))
	}
	rows := chunk(buttons, buttonsPerRow)
	rows = append(rows, []Button{button(labelBack, token.House(day, slot, house))})
	return &Render{Text: textPickFlat(house, entrance), Rows: rows}
}

func cancelView(page calendar.Page[model.Reservation]) *Render {
	if page.Total == 0 {
		return &Render{Text: textNoBookings}
	}

	rows := make([][]Button, 0, len(page.Items)+1)
	for _, r := range page.Items {
		rows = append(rows, []Button{button(labelCancel(r), token.Cancel(r.Day(), r.Slot))})
	}
	if page.Pages > 1 {
		nav := make([]Button, 0, 3)
		if page.HasPrev {
			nav = append(nav, button(labelPrev, token.CancelPage(page.Page-1)))
		}
		nav = append(nav, noop(fmt.Sprintf("%d/%d", page.Page, page.Pages)))
		if page.HasNext {
			nav = append(nav, button(labelNext, token.CancelPage(page.Page+1)))
		}
		rows = append(rows, nav)
	}
	return &Render{Text: textCancelPrompt, Rows: rows}
}
