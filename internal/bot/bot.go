package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/olliwhaller-hue/newborbbq-bot/internal/metrics"
	"github.com/olliwhaller-hue/newborbbq-bot/internal/service"
)

// Тексты кнопок главного меню.
const (
	menuCalendar   = "📅 Календарь"
	menuMyBookings = "📋 Мои брони"
	menuCancel     = "❌ Отменить бронь"
)

// API: методы BotAPI, которыми пользуется бот.
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Handler: ядро протокола выбора.
type Handler interface {
	Handle(ctx context.Context, ev service.Event) service.Response
}

type Options struct {
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	Limiter    *UserLimiter
	MaxWorkers int
	// Таймаут long polling, секунд.
	PollTimeout int
}

type Bot struct {
	api     API
	handler Handler
	log     *zap.Logger
	metrics *metrics.Metrics
	limiter *UserLimiter
	sem     chan struct{}
	timeout int
	wg      sync.WaitGroup
}

func New(api API, handler Handler, opts Options) *Bot {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 32
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 60
	}
	return &Bot{
		api:     api,
		handler: handler,
		log:     opts.Logger,
		metrics: opts.Metrics,
		limiter: opts.Limiter,
		sem:     make(chan struct{}, opts.MaxWorkers),
		timeout: opts.PollTimeout,
	}
}

// Run читает обновления long polling'ом и обрабатывает каждое в своей
// горутине, не больше MaxWorkers одновременно. Возвращается после отмены
// ctx и завершения начатых обработчиков.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.timeout
	updates := b.api.GetUpdatesChan(u)

	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			select {
			case b.sem <- struct{}{}:
			case <-ctx.Done():
				b.api.StopReceivingUpdates()
				return
			}
			b.wg.Add(1)
			go func(update tgbotapi.Update) {
				defer b.wg.Done()
				defer func() { <-b.sem }()
				b.HandleUpdate(ctx, update)
			}(update)
		}
	}
}

// HandleUpdate обрабатывает одно обновление. Паника в обработчике
// логируется и не роняет процесс.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic in update handler",
				zap.Int("update_id", update.UpdateID),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			if b.metrics != nil {
				b.metrics.PanicsTotal.Inc()
			}
		}
		if b.metrics != nil {
			b.metrics.UpdateProcessingTime.Observe(time.Since(start).Seconds())
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.count("callback")
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.count("message")
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) count(kind string) {
	if b.metrics != nil {
		b.metrics.UpdatesProcessed.WithLabelValues(kind).Inc()
	}
}

func (b *Bot) allow(userID int64) bool {
	if b.limiter == nil || b.limiter.Allow(userID) {
		return true
	}
	if b.metrics != nil {
		b.metrics.UpdatesRateLimited.Inc()
	}
	b.log.Debug("rate limited", zap.Int64("user_id", userID))
	return false
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	// Отвечаем на callback сразу, чтобы убрать "часики"
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.log.Debug("answer callback", zap.Error(err))
	}
	if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	if !b.allow(cq.From.ID) {
		return
	}

	resp := b.handler.Handle(ctx, service.Event{
		Identity: identity(cq.From, cq.Message.Chat),
		Token:    cq.Data,
	})
	if resp.Render != nil {
		b.edit(cq.Message.Chat.ID, cq.Message.MessageID, resp.Render)
	}
	b.deliver(cq.Message.Chat.ID, resp)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	cmd, ok := commandFor(msg)
	if !ok {
		return
	}
	if !b.allow(msg.From.ID) {
		return
	}

	resp := b.handler.Handle(ctx, service.Event{
		Identity: identity(msg.From, msg.Chat),
		Command:  cmd,
	})
	if resp.Render != nil {
		b.send(msg.Chat.ID, resp.Render)
	}
	b.deliver(msg.Chat.ID, resp)
}

// deliver отправляет рассылку и документ из ответа.
func (b *Bot) deliver(chatID int64, resp service.Response) {
	if resp.Broadcast != nil {
		b.sendText(resp.Broadcast.ChatID, resp.Broadcast.Text)
	}
	if resp.Document != nil {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
			Name:  resp.Document.Name,
			Bytes: resp.Document.Data,
		})
		doc.Caption = resp.Document.Caption
		if _, err := b.api.Send(doc); err != nil {
			b.fail("send document", chatID, err)
		}
	}
}

func (b *Bot) send(chatID int64, r *service.Render) {
	msg := tgbotapi.NewMessage(chatID, r.Text)
	switch {
	case r.Menu:
		msg.ReplyMarkup = mainMenu()
	case len(r.Rows) > 0:
		msg.ReplyMarkup = inlineKeyboard(r.Rows)
	}
	if _, err := b.api.Send(msg); err != nil {
		b.fail("send message", chatID, err)
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.fail("send broadcast", chatID, err)
	}
}

// edit заменяет сообщение с нажатой кнопкой. Меню не редактируется
// в inline-сообщение, поэтому такие ответы уходят новым сообщением.
func (b *Bot) edit(chatID int64, messageID int, r *service.Render) {
	if r.Menu {
		b.send(chatID, r)
		return
	}

	var edit tgbotapi.EditMessageTextConfig
	if len(r.Rows) > 0 {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, r.Text, inlineKeyboard(r.Rows))
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, messageID, r.Text)
	}
	if _, err := b.api.Send(edit); err != nil {
		// Повторное нажатие той же кнопки даёт "message is not modified".
		if strings.Contains(err.Error(), "message is not modified") {
			return
		}
		b.fail("edit message", chatID, err)
	}
}

func (b *Bot) fail(op string, chatID int64, err error) {
	if b.metrics != nil {
		b.metrics.Error()
	}
	b.log.Error(op, zap.Int64("chat_id", chatID), zap.Error(err))
}

func commandFor(msg *tgbotapi.Message) (service.Command, bool) {
	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			return service.CommandStart, true
		case "bbq", "calendar":
			return service.CommandCalendar, true
		case "my_bookings":
			return service.CommandMyBookings, true
		case "cancel":
			return service.CommandCancelList, true
		case "reset":
			return service.CommandReset, true
		case "export":
			return service.CommandExport, true
		}
		return 0, false
	}

	switch strings.TrimSpace(msg.Text) {
	case menuCalendar:
		return service.CommandCalendar, true
	case menuMyBookings:
		return service.CommandMyBookings, true
	case menuCancel:
		return service.CommandCancelList, true
	}
	return 0, false
}

func identity(u *tgbotapi.User, chat *tgbotapi.Chat) service.Identity {
	return service.Identity{
		UserID:      u.ID,
		DisplayName: displayName(u),
		ChatID:      chat.ID,
		Private:     chat.IsPrivate(),
	}
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s", u.FirstName, u.LastName))
}

func inlineKeyboard(rows [][]service.Button) tgbotapi.InlineKeyboardMarkup {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Token))
		}
		keyboard = append(keyboard, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

func mainMenu() tgbotapi.ReplyKeyboardMarkup {
	menu := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuCalendar),
			tgbotapi.NewKeyboardButton(menuMyBookings),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuCancel),
		),
	)
	menu.ResizeKeyboard = true
	return menu
}
