package service

import (
	"context"
	"time"
)

// Identity: кто действует и где. Private означает личный чат с ботом.
type Identity struct {
	UserID      int64
	DisplayName string
	ChatID      int64
	Private     bool
}

type Command int

const (
	CommandStart Command = iota + 1
	CommandCalendar
	CommandMyBookings
	CommandCancelList
	CommandReset
	CommandExport
)

// Event: вход протокола: либо команда, либо токен нажатой кнопки.
type Event struct {
	Identity Identity
	Command  Command
	Token    string
}

type Button struct {
	Label string
	Token string
}

// Render: абстрактное сообщение: текст и inline-клавиатура.
// Menu просит транспорт показать главное меню.
type Render struct {
	Text string
	Rows [][]Button
	Menu bool
}

type Broadcast struct {
	ChatID int64
	Text   string
}

type Document struct {
	Name    string
	Caption string
	Data    []byte
}

// Response: результат обработки события. Ignored означает, что событие
// не изменило состояние (устаревший или пустой токен); Render при этом
// может содержать перерисовку текущего шага.
type Response struct {
	Ignored   bool
	Render    *Render
	Broadcast *Broadcast
	Document  *Document
}

// Recorder принимает доменные события для метрик.
type Recorder interface {
	Booking(outcome string)
	Cancellation(removed bool)
	Ignored(kind string)
	Broadcast()
	Error()
}

// Exporter строит файл выгрузки за полуинтервал [from, to).
type Exporter interface {
	Export(ctx context.Context, from, to time.Time) ([]byte, error)
}

type nopRecorder struct{}

func (nopRecorder) Booking(string)    {}
func (nopRecorder) Cancellation(bool) {}
func (nopRecorder) Ignored(string)    {}
func (nopRecorder) Broadcast()        {}
func (nopRecorder) Error()            {}
