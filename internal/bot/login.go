package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"field-agent/internal/apiclient"
	"field-agent/internal/service"
)

func (b *Bot) startLogin(ctx context.Context, chatID int64) error {
	appCtx := b.appFor(ctx, chatID)
	b.withState(chatID, func(st *chatState) {
		st.stage = stageEmail
		st.email = ""
	})

	prompt := "📧 Send your email address."
	if email, _, err := appCtx.Auth.RememberedLogin(ctx); err == nil && email != "" {
		prompt = fmt.Sprintf("📧 Send your email address (last used: <code>%s</code>).", escape(email))
	}
	return b.sendTextWithRemove(chatID, prompt)
}

func (b *Bot) handleLoginStep(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch b.stage(chatID) {
	case stageEmail:
		if text == "" || !strings.Contains(text, "@") {
			return b.sendTextWithRemove(chatID, "That does not look like an email address. Try again.")
		}
		b.withState(chatID, func(st *chatState) {
			st.email = text
			st.stage = stagePassword
		})
		return b.sendTextWithRemove(chatID, "🔑 Now send your password.")

	case stagePassword:
		b.forgetMessage(chatID, msg.MessageID)
		if msg.Text == "" {
			return b.sendTextWithRemove(chatID, "The password cannot be empty. Send it again.")
		}
		b.withState(chatID, func(st *chatState) {
			st.stage = stageRemember
		})
		b.setPendingPassword(chatID, msg.Text)
		return b.sendWithReplyMarkup(chatID, "💾 Remember me on this device?", yesNoKeyboard())

	case stageRemember:
		var remember bool
		switch {
		case strings.EqualFold(text, btnYes):
			remember = true
		case strings.EqualFold(text, btnNo):
			remember = false
		default:
			return b.sendWithReplyMarkup(chatID, "Answer Yes or No.", yesNoKeyboard())
		}
		return b.finishLogin(ctx, chatID, remember)
	}
	return nil
}

func (b *Bot) finishLogin(ctx context.Context, chatID int64, remember bool) error {
	var email string
	b.withState(chatID, func(st *chatState) {
		email = st.email
		st.stage = stageNone
		st.email = ""
	})
	password := b.takePendingPassword(chatID)

	appCtx := b.appFor(ctx, chatID)
	if _, err := appCtx.Auth.Login(ctx, email, password, remember); err != nil {
		log.Printf("login for chat %d: %v", chatID, err)
		if err := b.sendTextWithRemove(chatID, "❌ Login failed: "+escape(loginErrorText(err))); err != nil {
			return err
		}
		return b.startLogin(ctx, chatID)
	}

	b.resetChat(chatID)
	if err := b.sendText(chatID, "✅ Logged in."); err != nil {
		return err
	}
	return b.showPlanning(ctx, chatID)
}

func (b *Bot) logout(ctx context.Context, chatID int64) error {
	appCtx := b.appFor(ctx, chatID)
	if err := appCtx.Teardown(ctx); err != nil {
		log.Printf("logout chat %d: %v", chatID, err)
	}
	b.resetChat(chatID)
	log.Printf("[info] chat %d logged out", chatID)
	if err := b.sendTextWithRemove(chatID, "🚪 You are logged out."); err != nil {
		return err
	}
	return b.startLogin(ctx, chatID)
}

// handleAPIError sends the agent back to login on auth failures and offers a retry otherwise.
// An unreadable session store counts as no session.
func (b *Bot) handleAPIError(ctx context.Context, chatID int64, op string, err error, retryData string) error {
	storeFailed := errors.Is(err, apiclient.ErrSessionStore)
	if storeFailed || apiclient.IsAuthFailure(err) || errors.Is(err, service.ErrNoUserID) {
		if storeFailed {
			log.Printf("%s: session store for chat %d: %v", op, chatID, err)
		} else {
			log.Printf("[info] %s: session lost for chat %d", op, chatID)
		}
		appCtx := b.appFor(ctx, chatID)
		if err := appCtx.Teardown(ctx); err != nil {
			log.Printf("clear session for chat %d: %v", chatID, err)
		}
		b.resetChat(chatID)
		if err := b.sendTextWithRemove(chatID, sessionExpiredText); err != nil {
			return err
		}
		return b.startLogin(ctx, chatID)
	}

	log.Printf("%s: %v", op, err)
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔁 Retry", retryData)),
	)
	return b.sendWithReplyMarkup(chatID, "⚠️ "+escape(err.Error()), markup)
}

func (b *Bot) forgetMessage(chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		log.Printf("delete password message: %v", err)
	}
}

func loginErrorText(err error) string {
	switch {
	case errors.Is(err, service.ErrMissingCredentials):
		return "email and password are required"
	case errors.Is(err, apiclient.ErrNetwork):
		return "the server cannot be reached"
	default:
		return err.Error()
	}
}

func (b *Bot) setPendingPassword(chatID int64, password string) {
	b.withState(chatID, func(st *chatState) { st.password = password })
}

func (b *Bot) takePendingPassword(chatID int64) string {
	var password string
	b.withState(chatID, func(st *chatState) {
		password = st.password
		st.password = ""
	})
	return password
}
