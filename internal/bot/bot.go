package bot

import (
	"context"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"field-agent/internal/app"
	"field-agent/internal/model"
	"field-agent/internal/repository"
	"field-agent/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageEmail
	stagePassword
	stageRemember
	stageConfirmVisit
	stageReportReason
)

const (
	cbTaskPrefix    = "task:"
	cbConfirmPrefix = "confirm:"
	cbReportPrefix  = "report:"
	cbPlanning      = "planning"
	cbSettings      = "settings"
	cbTheme         = "theme"
	cbLogout        = "logout"
)

const (
	btnYes              = "Yes"
	btnNo               = "No"
	btnConfirm          = "✅ Confirm"
	btnCancel           = "↩️ Cancel"
	menuLabelPlanning   = "📋 Planning"
	menuLabelSettings   = "⚙️ Settings"
	menuLabelHelp       = "ℹ️ Help"
	unknownPDV          = "Unknown PDV"
	sessionExpiredText  = "🔒 Your session has expired. Please log in again."
	defaultReturnDelay  = 1500 * time.Millisecond
	delayedShowDeadline = 30 * time.Second
)

// sender is the part of tgbotapi.BotAPI the bot uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type updateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type chatState struct {
	app      *app.Context
	stage    conversationStage
	email    string
	password string

	// payload of the task on screen, as produced by navigation.EncodeTask
	taskPayload string
	listed      map[model.ID]string
	reported    map[model.ID]string
}

// Options tune bot behaviour.
type Options struct {
	ReturnDelay time.Duration
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api         sender
	updates     updateSource
	chats       *repository.ChatRepository
	factory     *app.Factory
	digestSvc   *service.DigestService
	returnDelay time.Duration
	after       func(time.Duration, func())
	now         func() time.Time
	states      map[int64]*chatState
	mu          sync.Mutex
}

func New(token string, chats *repository.ChatRepository, factory *app.Factory, digestSvc *service.DigestService, opts Options) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	b := newBot(api, chats, factory, digestSvc, opts)
	b.updates = api
	return b, nil
}

func newBot(api sender, chats *repository.ChatRepository, factory *app.Factory, digestSvc *service.DigestService, opts Options) *Bot {
	delay := opts.ReturnDelay
	if delay < 0 {
		delay = defaultReturnDelay
	}
	return &Bot{
		api:         api,
		chats:       chats,
		factory:     factory,
		digestSvc:   digestSvc,
		returnDelay: delay,
		after: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		now:    time.Now,
		states: make(map[int64]*chatState),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.updates == nil {
		return fmt.Errorf("bot has no update source")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.updates.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.updates.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}

	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			log.Printf("handle callback: %v", err)
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			log.Printf("handle message: %v", err)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s", msg.From.ID, msg.Command())
		return b.handleCommand(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	switch b.stage(chatID) {
	case stageEmail, stagePassword, stageRemember:
		log.Printf("[info] login step %d from %d", b.stage(chatID), msg.From.ID)
		return b.handleLoginStep(ctx, msg)
	case stageConfirmVisit:
		return b.handleConfirmationResponse(ctx, msg)
	case stageReportReason:
		return b.handleReportReason(ctx, msg)
	}

	return b.sendText(chatID, "I did not get that. Open /planning to see your visits or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(chatID)
	case "login":
		return b.startLogin(ctx, chatID)
	case "planning":
		return b.showPlanning(ctx, chatID)
	case "settings":
		return b.showSettings(ctx, chatID)
	case "theme":
		return b.toggleTheme(ctx, chatID)
	case "logout":
		return b.logout(ctx, chatID)
	case "cancel":
		b.setStage(chatID, stageNone)
		return b.sendText(chatID, "⏪ Cancelled.")
	default:
		return b.sendText(chatID, "Unsupported command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureChat(ctx, msg.From); err != nil {
		return err
	}
	chatID := msg.Chat.ID
	appCtx := b.appFor(ctx, chatID)

	email, autoLogin, err := appCtx.Auth.RememberedLogin(ctx)
	if err != nil {
		log.Printf("read remembered session for %d: %v", chatID, err)
	}
	if autoLogin {
		log.Printf("[info] remembered session for chat %d", chatID)
		if err := b.sendText(chatID, fmt.Sprintf("👋 Welcome back, %s!", escape(email))); err != nil {
			return err
		}
		return b.showPlanning(ctx, chatID)
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("👋 Hello, %s!\n<b>I help field agents run their planned visits.</b>", escape(name))); err != nil {
		return err
	}
	return b.startLogin(ctx, chatID)
}

func (b *Bot) handleHelp(chatID int64) error {
	text := "ℹ️ <b>Commands</b>\n" +
		"• /planning · your visits for the current planning\n" +
		"• /settings · profile, theme and session\n" +
		"• /theme · switch between light and dark\n" +
		"• /login · log in again\n" +
		"• /logout · end the session on this device\n" +
		"• /cancel · abort the current input"
	return b.sendText(chatID, text)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	chatID := msg.Chat.ID
	switch strings.TrimSpace(msg.Text) {
	case menuLabelPlanning:
		b.setStage(chatID, stageNone)
		return true, b.showPlanning(ctx, chatID)
	case menuLabelSettings:
		b.setStage(chatID, stageNone)
		return true, b.showSettings(ctx, chatID)
	case menuLabelHelp:
		return true, b.handleHelp(chatID)
	default:
		return false, nil
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("callback ack: %v", err)
	}

	chatID := cb.Message.Chat.ID
	data := cb.Data
	log.Printf("[info] callback %q from %d", data, cb.From.ID)

	switch {
	case strings.HasPrefix(data, cbTaskPrefix):
		return b.openTask(ctx, chatID, model.ID(strings.TrimPrefix(data, cbTaskPrefix)))
	case strings.HasPrefix(data, cbConfirmPrefix):
		return b.askConfirmVisit(ctx, chatID, model.ID(strings.TrimPrefix(data, cbConfirmPrefix)))
	case strings.HasPrefix(data, cbReportPrefix):
		return b.askReportReason(ctx, chatID, model.ID(strings.TrimPrefix(data, cbReportPrefix)))
	case data == cbPlanning:
		b.setStage(chatID, stageNone)
		return b.showPlanning(ctx, chatID)
	case data == cbSettings:
		return b.showSettings(ctx, chatID)
	case data == cbTheme:
		return b.toggleTheme(ctx, chatID)
	case data == cbLogout:
		return b.logout(ctx, chatID)
	default:
		return nil
	}
}

// SendDigests pushes the planning digest to every chat with an active session.
func (b *Bot) SendDigests(ctx context.Context) error {
	chats, err := b.chats.ListAll(ctx)
	if err != nil {
		return err
	}
	now := b.now()
	for _, chat := range chats {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		appCtx := b.appFor(ctx, chat.TelegramID)
		sess, err := appCtx.Auth.Session(ctx)
		if err != nil {
			log.Printf("read session for %d: %v", chat.TelegramID, err)
			continue
		}
		if !sess.Active() {
			continue
		}
		planning, err := appCtx.Planning.Current(ctx)
		if err != nil {
			log.Printf("build digest for %d: %v", chat.TelegramID, err)
			continue
		}
		if err := b.sendText(chat.TelegramID, b.digestSvc.Summary(planning, now)); err != nil {
			log.Printf("send digest to %d: %v", chat.TelegramID, err)
		}
	}
	return nil
}

func (b *Bot) ensureChat(ctx context.Context, from *tgbotapi.User) (*model.Chat, error) {
	return b.chats.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

// appFor returns the chat's application context, creating and initializing it on first use.
// Init reads storage, so it runs without b.mu; the first context stored wins.
func (b *Bot) appFor(ctx context.Context, chatID int64) *app.Context {
	b.mu.Lock()
	existing := b.stateLocked(chatID).app
	b.mu.Unlock()
	if existing != nil {
		return existing
	}

	appCtx := b.factory.New(strconv.FormatInt(chatID, 10))
	appCtx.Init(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.stateLocked(chatID)
	if st.app == nil {
		st.app = appCtx
	}
	return st.app
}

func (b *Bot) stateLocked(chatID int64) *chatState {
	st, ok := b.states[chatID]
	if !ok {
		st = &chatState{
			listed:   make(map[model.ID]string),
			reported: make(map[model.ID]string),
		}
		b.states[chatID] = st
	}
	return st
}

func (b *Bot) withState(chatID int64, fn func(st *chatState)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b.stateLocked(chatID))
}

func (b *Bot) stage(chatID int64) conversationStage {
	var stage conversationStage
	b.withState(chatID, func(st *chatState) { stage = st.stage })
	return stage
}

func (b *Bot) setStage(chatID int64, stage conversationStage) {
	b.withState(chatID, func(st *chatState) { st.stage = stage })
}

// resetChat drops everything the chat knows about the previous session.
func (b *Bot) resetChat(chatID int64) {
	b.withState(chatID, func(st *chatState) {
		st.stage = stageNone
		st.email = ""
		st.password = ""
		st.taskPayload = ""
		st.listed = make(map[model.ID]string)
		st.reported = make(map[model.ID]string)
	})
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendWithReplyMarkup(chatID, text, mainMenuKeyboard())
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	return b.sendWithReplyMarkup(chatID, text, tgbotapi.NewRemoveKeyboard(true))
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func escape(s string) string {
	return html.EscapeString(s)
}
