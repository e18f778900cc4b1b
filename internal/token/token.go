// Package token кодирует callback-данные кнопок выбора.
//
// Каждый токен самодостаточен: он несёт все поля, выбранные на предыдущих
// шагах, поэтому обработчик не зависит от серверного состояния диалога.
// Формат: поля через "_", первое поле задаёт вид токена.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/olliwhaller-hue/newborbbq-bot/internal/model"
)

// MaxLen: лимит Telegram на callback_data, байт.
const MaxLen = 64

const (
	sep        = "_"
	dateLayout = "2006-01-02"
)

var (
	ErrMalformed = errors.New("malformed selection token")
	ErrTooLong   = errors.New("selection token exceeds callback data limit")
	ErrBadLabel  = errors.New("label cannot be encoded in a selection token")
)

type Kind int

const (
	KindNoop Kind = iota
	KindBack
	KindNav
	KindDate
	KindSlot
	KindHouse
	KindEntrance
	KindFlat
	KindCancel
	KindCancelPage
)

var kindNames = map[Kind]string{
	KindNoop:       "noop",
	KindBack:       "back",
	KindNav:        "nav",
	KindDate:       "date",
	KindSlot:       "slot",
	KindHouse:      "house",
	KindEntrance:   "entrance",
	KindFlat:       "flat",
	KindCancel:     "cancel",
	KindCancelPage: "cpage",
}

// Старые префиксы, которые ещё могут прийти с кнопок разосланных сообщений.
var aliases = map[string]Kind{
	"ignore": KindNoop,
	"del":    KindCancel,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

type Direction int

const (
	Prev Direction = iota
	Next
)

func (d Direction) String() string {
	if d == Next {
		return "next"
	}
	return "prev"
}

// Token: разобранное содержимое кнопки. Заполнены только поля,
// относящиеся к Kind.
type Token struct {
	Kind Kind

	// nav: месяц, от которого идёт переход, и направление.
	Year  int
	Month time.Month
	Dir   Direction

	// date, slot, house, entrance, flat, cancel.
	Date     time.Time
	Slot     string
	House    string
	Entrance string
	Flat     string

	// cpage
	Page int
}

func Noop() Token { return Token{Kind: KindNoop} }

func Back() Token { return Token{Kind: KindBack} }

func Nav(year int, month time.Month, dir Direction) Token {
	return Token{Kind: KindNav, Year: year, Month: month, Dir: dir}
}

func Date(day time.Time) Token {
	return Token{Kind: KindDate, Date: day}
}

func Slot(day time.Time, slot string) Token {
	return Token{Kind: KindSlot, Date: day, Slot: slot}
}

func House(day time.Time, slot, house string) Token {
	return Token{Kind: KindHouse, Date: day, Slot: slot, House: house}
}

func Entrance(day time.Time, slot, house, entrance string) Token {
	return Token{Kind: KindEntrance, Date: day, Slot: slot, House: house, Entrance: entrance}
}

func Flat(day time.Time, slot, house, entrance, flat string) Token {
	return Token{Kind: KindFlat, Date: day, Slot: slot, House: house, Entrance: entrance, Flat: flat}
}

func Cancel(day time.Time, slot string) Token {
	return Token{Kind: KindCancel, Date: day, Slot: slot}
}

func CancelPage(page int) Token {
	return Token{Kind: KindCancelPage, Page: page}
}

// String кодирует токен. Длину проверяет Encode.
func (t Token) String() string {
	var parts []string
	switch t.Kind {
	case KindNoop, KindBack:
		parts = []string{t.Kind.String()}
	case KindNav:
		parts = []string{t.Kind.String(), strconv.Itoa(t.Year), fmt.Sprintf("%02d", int(t.Month)), t.Dir.String()}
	case KindDate:
		parts = []string{t.Kind.String(), formatDay(t.Date)}
	case KindSlot, KindCancel:
		parts = []string{t.Kind.String(), formatDay(t.Date), t.Slot}
	case KindHouse:
		parts = []string{t.Kind.String(), formatDay(t.Date), t.Slot, t.House}
	case KindEntrance:
		parts = []string{t.Kind.String(), formatDay(t.Date), t.Slot, t.House, t.Entrance}
	case KindFlat:
		parts = []string{t.Kind.String(), formatDay(t.Date), t.Slot, t.House, t.Entrance, t.Flat}
	case KindCancelPage:
		parts = []string{t.Kind.String(), strconv.Itoa(t.Page)}
	default:
		parts = []string{KindNoop.String()}
	}
	return strings.Join(parts, sep)
}

// Encode возвращает callback-данные или ошибку, если токен не помещается
// в лимит Telegram.
func (t Token) Encode() (string, error) {
	s := t.String()
	if len(s) > MaxLen {
		return "", fmt.Errorf("%w: %q is %d bytes", ErrTooLong, s, len(s))
	}
	return s, nil
}

// Parse разбирает callback-данные. Любое отклонение от формата даёт ErrMalformed.
func Parse(data string) (Token, error) {
	if data == "" || len(data) > MaxLen {
		return Token{}, fmt.Errorf("%w: length %d", ErrMalformed, len(data))
	}

	parts := strings.Split(data, sep)
	kind, ok := kindByName(parts[0])
	if !ok {
		return Token{}, fmt.Errorf("%w: unknown kind %q", ErrMalformed, parts[0])
	}
	// "ignore" со старых кнопок приходил с произвольным хвостом.
	if kind == KindNoop {
		return Noop(), nil
	}
	args := parts[1:]

	want := map[Kind]int{
		KindNoop:       0,
		KindBack:       0,
		KindNav:        3,
		KindDate:       1,
		KindSlot:       2,
		KindHouse:      3,
		KindEntrance:   4,
		KindFlat:       5,
		KindCancel:     2,
		KindCancelPage: 1,
	}[kind]
	if len(args) != want {
		return Token{}, fmt.Errorf("%w: %s expects %d fields, got %d", ErrMalformed, kind, want, len(args))
	}
	for _, a := range args {
		if a == "" {
			return Token{}, fmt.Errorf("%w: empty field in %q", ErrMalformed, data)
		}
	}

	t := Token{Kind: kind}
	switch kind {
	case KindBack:
	case KindNav:
		year, err := strconv.Atoi(args[0])
		if err != nil || year < 1 {
			return Token{}, fmt.Errorf("%w: year %q", ErrMalformed, args[0])
		}
		month, err := strconv.Atoi(args[1])
		if err != nil || month < 1 || month > 12 {
			return Token{}, fmt.Errorf("%w: month %q", ErrMalformed, args[1])
		}
		switch args[2] {
		case "prev":
			t.Dir = Prev
		case "next":
			t.Dir = Next
		default:
			return Token{}, fmt.Errorf("%w: direction %q", ErrMalformed, args[2])
		}
		t.Year, t.Month = year, time.Month(month)
	case KindCancelPage:
		page, err := strconv.Atoi(args[0])
		if err != nil || page < 1 {
			return Token{}, fmt.Errorf("%w: page %q", ErrMalformed, args[0])
		}
		t.Page = page
	case KindDate, KindSlot, KindHouse, KindEntrance, KindFlat, KindCancel:
		day, err := parseDay(args[0])
		if err != nil {
			return Token{}, err
		}
		t.Date = day
		if len(args) > 1 {
			if !model.IsSlot(args[1]) {
				return Token{}, fmt.Errorf("%w: slot %q", ErrMalformed, args[1])
			}
			t.Slot = args[1]
		}
		if len(args) > 2 {
			t.House = args[2]
		}
		if len(args) > 3 {
			t.Entrance = args[3]
		}
		if len(args) > 4 {
			t.Flat = args[4]
		}
	}
	return t, nil
}

func kindByName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	k, ok := aliases[name]
	return k, ok
}

func formatDay(day time.Time) string {
	return day.Format(dateLayout)
}

func parseDay(s string) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrMalformed, s)
	}
	return day, nil
}

// CheckLabels проверяет, что тройку дом/подъезд/квартира можно закодировать
// в самый длинный токен (flat) при любом слоте. Используется при загрузке
// справочника.
func CheckLabels(house, entrance, flat string) error {
	for _, label := range []string{house, entrance, flat} {
		if label == "" || strings.Contains(label, sep) {
			return fmt.Errorf("%w: %q", ErrBadLabel, label)
		}
	}

	longest := ""
	for _, s := range model.Slots {
		if len(s) > len(longest) {
			longest = s
		}
	}
	probe := Flat(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), longest, house, entrance, flat)
	if _, err := probe.Encode(); err != nil {
		return err
	}
	return nil
}
