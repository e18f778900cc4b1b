package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/olliwhaller-hue/newborbbq-bot/internal/calendar"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/catalog"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/draft"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/metrics"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/model"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/repository"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/token"
)

type Options struct {
	Logger   *zap.Logger
	Recorder Recorder
	Exporter Exporter
	// Пояс, в котором считается «сегодня».
	Location *time.Location
	Now      func() time.Time
	IsAdmin  func(userID int64) bool

	ExportDaysBack    int
	ExportDaysForward int
}

// SelectionService ведёт пользователя по шагам выбора
// дата -> слот -> дом -> подъезд -> квартира и бронирует слот.
// Состояние шага целиком приходит в токене кнопки.
type SelectionService struct {
	repo     repository.ReservationRepository
	catalog  catalog.Catalog
	drafts   draft.Store
	exporter Exporter
	rec      Recorder
	log      *zap.Logger
	loc      *time.Location
	now      func() time.Time
	isAdmin  func(int64) bool

	exportBack    int
	exportForward int
}

func NewSelectionService(
	repo repository.ReservationRepository,
	cat catalog.Catalog,
	drafts draft.Store,
	opts Options,
) *SelectionService {
	s := &SelectionService{
		repo:          repo,
		catalog:       cat,
		drafts:        drafts,
		exporter:      opts.Exporter,
		rec:           opts.Recorder,
		log:           opts.Logger,
		loc:           opts.Location,
		now:           opts.Now,
		isAdmin:       opts.IsAdmin,
		exportBack:    opts.ExportDaysBack,
		exportForward: opts.ExportDaysForward,
	}
	if s.rec == nil {
		s.rec = nopRecorder{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.isAdmin == nil {
		s.isAdmin = func(int64) bool { return false }
	}
	if s.exportForward <= 0 {
		s.exportForward = 90
	}
	return s
}

func (s *SelectionService) today() time.Time {
	return calendar.Today(s.now(), s.loc)
}

// Handle обрабатывает одно событие. Ошибки хранилища не выходят наружу:
// они логируются, а пользователь получает общее сообщение о сбое.
func (s *SelectionService) Handle(ctx context.Context, ev Event) Response {
	id, err := ValidateIdentity(ev.Identity)
	if err != nil {
		s.log.Warn("event without valid identity", zap.Int64("user_id", ev.Identity.UserID))
		return Response{Ignored: true}
	}
	log := s.log.With(
		zap.String("request_id", uuid.NewString()),
		zap.Int64("user_id", id.UserID),
		zap.Int64("chat_id", id.ChatID),
	)

	var resp Response
	if ev.Command != 0 {
		resp, err = s.handleCommand(ctx, log, id, ev.Command)
	} else {
		resp, err = s.handleToken(ctx, log, id, ev.Token)
	}
	if err != nil {
		s.rec.Error()
		if errors.Is(err, catalog.ErrUnknownHouse) || errors.Is(err, catalog.ErrUnknownEntrance) {
			log.Error("catalog inconsistency", zap.Error(err))
		} else {
			log.Error("handle event", zap.Error(err))
		}
		return Response{Render: &Render{Text: textFailure}}
	}
	if resp.Broadcast != nil {
		s.rec.Broadcast()
	}
	return resp
}

func (s *SelectionService) handleCommand(ctx context.Context, log *zap.Logger, id Identity, cmd Command) (Response, error) {
	log.Debug("command", zap.Int("command", int(cmd)))

	switch cmd {
	case CommandStart:
		return Response{Render: &Render{Text: textWelcome, Menu: true}}, nil
	case CommandCalendar:
		today := s.today()
		return s.showMonth(ctx, id, today.Year(), today.Month())
	case CommandMyBookings:
		return s.showMyBookings(ctx, id)
	case CommandCancelList:
		return s.showCancelList(ctx, id, 1)
	case CommandReset:
		if err := s.drafts.Clear(ctx, id.UserID); err != nil {
			return Response{}, fmt.Errorf("clear draft: %w", err)
		}
		return Response{Render: &Render{Text: textReset, Menu: true}}, nil
	case CommandExport:
		return s.export(ctx, log, id)
	default:
		return Response{Ignored: true}, nil
	}
}

func (s *SelectionService) handleToken(ctx context.Context, log *zap.Logger, id Identity, data string) (Response, error) {
	t, err := token.Parse(data)
	if err != nil {
		log.Debug("malformed token", zap.String("data", data), zap.Error(err))
		s.rec.Ignored("malformed")
		return Response{Ignored: true}, nil
	}

	switch t.Kind {
	case token.KindNoop:
		return Response{Ignored: true}, nil
	case token.KindBack:
		today := s.today()
		return s.showMonth(ctx, id, today.Year(), today.Month())
	case token.KindNav:
		return s.navigate(ctx, id, t)
	case token.KindDate:
		return s.pickDate(ctx, id, t)
	case token.KindSlot:
		return s.pickSlot(ctx, id, t)
	case token.KindHouse:
		return s.pickHouse(ctx, id, t)
	case token.KindEntrance:
		return s.pickEntrance(ctx, id, t)
	case token.KindFlat:
		return s.confirm(ctx, log, id, t)
	case token.KindCancel:
		return s.cancel(ctx, log, id, t)
	case token.KindCancelPage:
		return s.showCancelList(ctx, id, t.Page)
	default:
		s.rec.Ignored(t.Kind.String())
		return Response{Ignored: true}, nil
	}
}

func (s *SelectionService) ignored(kind token.Kind, r *Render) Response {
	s.rec.Ignored(kind.String())
	return Response{Ignored: true, Render: r}
}

func (s *SelectionService) showMonth(ctx context.Context, id Identity, year int, month time.Month) (Response, error) {
	from, to := calendar.MonthRange(year, month)
	counts, err := s.repo.CountByDateRange(ctx, from, to)
	if err != nil {
		return Response{}, err
	}
	today := s.today()
	grid := calendar.MonthGrid(year, month, counts, len(model.Slots), today)

	var resume *token.Token
	d, ok, err := s.drafts.Get(ctx, id.UserID)
	if err != nil {
		// черновик вспомогательный: без него календарь всё равно рабочий
		s.log.Warn("load draft", zap.Int64("user_id", id.UserID), zap.Error(err))
	} else if ok && !d.Date.Before(today) {
		if t, ok := d.Resume(); ok {
			resume = &t
		}
	}
	return Response{Render: monthView(grid, resume)}, nil
}

// navigate рисует любой месяц; прошедшие дни в сетке просто не нажимаются.
func (s *SelectionService) navigate(ctx context.Context, id Identity, t token.Token) (Response, error) {
	year, month := calendar.PrevMonth(t.Year, t.Month)
	if t.Dir == token.Next {
		year, month = calendar.NextMonth(t.Year, t.Month)
	}
	return s.showMonth(ctx, id, year, month)
}

func (s *SelectionService) pickDate(ctx context.Context, id Identity, t token.Token) (Response, error) {
	if t.Date.Before(s.today()) {
		return s.ignored(t.Kind, nil), nil
	}
	taken, err := s.repo.ListForDate(ctx, t.Date)
	if err != nil {
		return Response{}, err
	}
	s.putDraft(ctx, id, t)
	return Response{Render: slotView(t.Date, taken)}, nil
}

// checkSlot возвращает перерисовку выбора слотов, если слот уже не свободен.
func (s *SelectionService) checkSlot(ctx context.Context, t token.Token) (*Render, error) {
	taken, err := s.repo.ListForDate(ctx, t.Date)
	if err != nil {
		return nil, err
	}
	if _, busy := taken[t.Slot]; busy {
		return slotView(t.Date, taken), nil
	}
	return nil, nil
}

func (s *SelectionService) pickSlot(ctx context.Context, id Identity, t token.Token) (Response, error) {
	if t.Date.Before(s.today()) {
		return s.ignored(t.Kind, nil), nil
	}
	stale, err := s.checkSlot(ctx, t)
	if err != nil {
		return Response{}, err
	}
	if stale != nil {
		return s.ignored(t.Kind, stale), nil
	}
	s.putDraft(ctx, id, t)
	return Response{Render: houseView(t.Date, t.Slot, s.catalog.Houses())}, nil
}

func (s *SelectionService) pickHouse(ctx context.Context, id Identity, t token.Token) (Response, error) {
	if t.Date.Before(s.today()) {
		return s.ignored(t.Kind, nil), nil
	}
	stale, err := s.checkSlot(ctx, t)
	if err != nil {
		return Response{}, err
	}
	if stale != nil {
		return s.ignored(t.Kind, stale), nil
	}
	houses := s.catalog.Houses()
	if !catalog.Contains(houses, t.House) {
		return s.ignored(t.Kind, houseView(t.Date, t.Slot, houses)), nil
	}
	entrances, err := s.catalog.Entrances(t.House)
	if err != nil {
		return Response{}, err
	}
	s.putDraft(ctx, id, t)
	return Response{Render: entranceView(t.Date, t.Slot, t.House, entrances)}, nil
}

func (s *SelectionService) pickEntrance(ctx context.Context, id Identity, t token.Token) (Response, error) {
	if t.Date.Before(s.today()) {
		return s.ignored(t.Kind, nil), nil
	}
	stale, err := s.checkSlot(ctx, t)
	if err != nil {
		return Response{}, err
	}
	if stale != nil {
		return s.ignored(t.Kind, stale), nil
	}
	houses := s.catalog.Houses()
	if !catalog.Contains(houses, t.House) {
		return s.ignored(t.Kind, houseView(t.Date, t.Slot, houses)), nil
	}
	entrances, err := s.catalog.Entrances(t.House)
	if err != nil {
		return Response{}, err
	}
	if !catalog.Contains(entrances, t.Entrance) {
		return s.ignored(t.Kind, entranceView(t.Date, t.Slot, t.House, entrances)), nil
	}
	flats, err := s.catalog.Flats(t.House, t.Entrance)
	if err != nil {
		return Response{}, err
	}
	s.putDraft(ctx, id, t)
	return Response{Render: flatView(t.Date, t.Slot, t.House, t.Entrance, flats)}, nil
}

// confirm бронирует без предварительной проверки слота: гонку решает Book.
func (s *SelectionService) confirm(ctx context.Context, log *zap.Logger, id Identity, t token.Token) (Response, error) {
	if t.Date.Before(s.today()) {
		return s.ignored(t.Kind, nil), nil
	}
	if !catalog.Contains(s.catalog.Houses(), t.House) {
		return s.ignored(t.Kind, nil), nil
	}
	entrances, err := s.catalog.Entrances(t.House)
	if err != nil {
		return Response{}, err
	}
	if !catalog.Contains(entrances, t.Entrance) {
		return s.ignored(t.Kind, nil), nil
	}
	flats, err := s.catalog.Flats(t.House, t.Entrance)
	if err != nil {
		return Response{}, err
	}
	if !catalog.Contains(flats, t.Flat) {
		return s.ignored(t.Kind, flatView(t.Date, t.Slot, t.House, t.Entrance, flats)), nil
	}

	r := &model.Reservation{
		Date:        repository.ToDate(t.Date),
		Slot:        t.Slot,
		UserID:      id.UserID,
		DisplayName: id.DisplayName,
		House:       t.House,
		Entrance:    t.Entrance,
		Flat:        t.Flat,
	}
	err = s.repo.Book(ctx, r)
	switch {
	case errors.Is(err, repository.ErrConflict):
		s.rec.Booking(metrics.OutcomeConflict)
		log.Info("slot already taken", zap.String("date", calendar.DayKey(t.Date)), zap.String("slot", t.Slot))
		s.clearDraft(ctx, log, id)
		return Response{Render: &Render{Text: textSlotTaken}}, nil
	case err != nil:
		s.rec.Booking(metrics.OutcomeError)
		return Response{}, fmt.Errorf("book: %w", err)
	}

	s.rec.Booking(metrics.OutcomeBooked)
	log.Info("slot booked",
		zap.String("date", calendar.DayKey(t.Date)),
		zap.String("slot", t.Slot),
		zap.String("house", t.House),
	)
	s.clearDraft(ctx, log, id)

	resp := Response{Render: &Render{Text: textBooked(r)}}
	if !id.Private {
		resp.Broadcast = &Broadcast{ChatID: id.ChatID, Text: textBookedBroadcast(r)}
	}
	return resp, nil
}

func (s *SelectionService) cancel(ctx context.Context, log *zap.Logger, id Identity, t token.Token) (Response, error) {
	if t.Date.Before(s.today()) {
		return s.ignored(t.Kind, nil), nil
	}
	removed, err := s.repo.Cancel(ctx, t.Date, t.Slot, id.UserID)
	if err != nil {
		return Response{}, fmt.Errorf("cancel: %w", err)
	}
	s.rec.Cancellation(removed)
	if !removed {
		// уже отменено или чужая бронь: показываем актуальный список
		resp, err := s.showCancelList(ctx, id, 1)
		if err != nil {
			return Response{}, err
		}
		resp.Ignored = true
		return resp, nil
	}

	log.Info("reservation cancelled", zap.String("date", calendar.DayKey(t.Date)), zap.String("slot", t.Slot))
	resp := Response{Render: &Render{Text: textCancelled(t.Date, t.Slot)}}
	if !id.Private {
		resp.Broadcast = &Broadcast{ChatID: id.ChatID, Text: textFreed(t.Date, t.Slot)}
	}
	return resp, nil
}

// upcoming возвращает брони пользователя начиная с сегодняшнего дня.
func (s *SelectionService) upcoming(ctx context.Context, id Identity) ([]model.Reservation, error) {
	all, err := s.repo.ListForUser(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	today := s.today()
	result := make([]model.Reservation, 0, len(all))
	for _, r := range all {
		if !r.Day().Before(today) {
			result = append(result, r)
		}
	}
	return result, nil
}

func (s *SelectionService) showMyBookings(ctx context.Context, id Identity) (Response, error) {
	list, err := s.upcoming(ctx, id)
	if err != nil {
		return Response{}, err
	}
	if len(list) == 0 {
		return Response{Render: &Render{Text: textNoBookings}}, nil
	}
	text := "📋 Ваши брони:"
	for _, r := range list {
		text += "\n" + textReservationLine(r)
	}
	return Response{Render: &Render{Text: text}}, nil
}

func (s *SelectionService) showCancelList(ctx context.Context, id Identity, page int) (Response, error) {
	list, err := s.upcoming(ctx, id)
	if err != nil {
		return Response{}, err
	}
	return Response{Render: cancelView(calendar.Paginate(list, page, cancelOnPage))}, nil
}

func (s *SelectionService) export(ctx context.Context, log *zap.Logger, id Identity) (Response, error) {
	if !s.isAdmin(id.UserID) || s.exporter == nil {
		log.Warn("export denied")
		return Response{Render: &Render{Text: textAdminOnly}}, nil
	}
	today := s.today()
	from := today.AddDate(0, 0, -s.exportBack)
	to := today.AddDate(0, 0, s.exportForward+1)

	data, err := s.exporter.Export(ctx, from, to)
	if err != nil {
		return Response{}, fmt.Errorf("export: %w", err)
	}
	log.Info("export built", zap.Int("bytes", len(data)))
	return Response{Document: &Document{
		Name:    fmt.Sprintf("bbq_%s.xlsx", calendar.DayKey(today)),
		Caption: textExportCaption(from, to),
		Data:    data,
	}}, nil
}

// putDraft вызывается только после успешной проверки шага. Черновик
// вспомогательный, поэтому ошибка хранилища не прерывает выбор.
func (s *SelectionService) putDraft(ctx context.Context, id Identity, t token.Token) {
	d := draft.Draft{
		UserID:   id.UserID,
		Date:     t.Date,
		Slot:     t.Slot,
		House:    t.House,
		Entrance: t.Entrance,
	}
	if err := s.drafts.Put(ctx, d); err != nil {
		s.log.Warn("put draft", zap.Int64("user_id", id.UserID), zap.Error(err))
	}
}

// clearDraft: бронь уже состоялась или отклонена, ошибку черновика только логируем.
func (s *SelectionService) clearDraft(ctx context.Context, log *zap.Logger, id Identity) {
	if err := s.drafts.Clear(ctx, id.UserID); err != nil {
		log.Warn("clear draft", zap.Error(err))
	}
}
