package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) showSettings(ctx context.Context, chatID int64) error {
	appCtx := b.appFor(ctx, chatID)
	profile, err := appCtx.Profile.Profile(ctx)
	if err != nil {
		return b.handleAPIError(ctx, chatID, "load profile", err, cbSettings)
	}

	var builder strings.Builder
	builder.WriteString("⚙️ <b>Settings</b>\n\n")
	name := strings.TrimSpace(profile.FirstName + " " + profile.LastName)
	builder.WriteString(fmt.Sprintf("👤 <b>%s</b>\n", escape(name)))
	if profile.Email != "" {
		builder.WriteString(fmt.Sprintf("📧 %s\n", escape(profile.Email)))
	}
	if role := profile.PrimaryRole(); role != "" {
		builder.WriteString(fmt.Sprintf("🏷 %s\n", escape(role)))
	}
	if profile.Structure != nil && profile.Structure.Name != "" {
		builder.WriteString(fmt.Sprintf("🏢 %s\n", escape(profile.Structure.Name)))
	}

	dark := appCtx.Theme.IsDark()
	builder.WriteString(fmt.Sprintf("\n%s Theme: %s\n", themeIcon(dark), themeName(dark)))
	if expiry, ok := appCtx.Auth.TokenExpiry(ctx); ok {
		builder.WriteString(fmt.Sprintf("🔐 Session valid until %s\n", expiry.In(b.now().Location()).Format("02.01.2006 15:04")))
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🌓 Toggle theme", cbTheme),
			tgbotapi.NewInlineKeyboardButtonData("🚪 Log out", cbLogout),
		),
	)
	return b.sendWithReplyMarkup(chatID, strings.TrimSpace(builder.String()), markup)
}

func (b *Bot) toggleTheme(ctx context.Context, chatID int64) error {
	appCtx := b.appFor(ctx, chatID)
	dark, err := appCtx.Theme.Toggle(ctx)
	if err != nil {
		log.Printf("toggle theme for chat %d: %v", chatID, err)
	}
	return b.sendText(chatID, fmt.Sprintf("%s Theme: %s", themeIcon(dark), themeName(dark)))
}

func themeIcon(dark bool) string {
	if dark {
		return "🌙"
	}
	return "☀️"
}

func themeName(dark bool) string {
	if dark {
		return "dark"
	}
	return "light"
}
