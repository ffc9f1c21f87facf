package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"field-agent/internal/model"
	"field-agent/internal/service"
)

func formatTaskLine(n int, task model.Task, reported bool) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d. <b>%s</b> · %s\n", n, escape(pdvName(task)), service.FormatDate(task.AssignedAt)))
	if task.PDV != nil && strings.TrimSpace(task.PDV.Address) != "" {
		sb.WriteString(fmt.Sprintf("   📍 %s\n", escape(strings.TrimSpace(task.PDV.Address))))
	}
	sb.WriteString(fmt.Sprintf("   %s %s\n", statusIcon(task, reported), statusLabel(task, reported)))
	return sb.String()
}

func formatTaskDetail(task model.Task, reason string, reported bool) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏪 <b>%s</b>\n", escape(pdvName(task))))
	if pdv := task.PDV; pdv != nil {
		if owner := strings.TrimSpace(pdv.FirstName + " " + pdv.LastName); owner != "" {
			sb.WriteString(fmt.Sprintf("👤 %s\n", escape(owner)))
		}
		if pdv.Address != "" {
			sb.WriteString(fmt.Sprintf("📍 %s\n", escape(pdv.Address)))
		}
		if pdv.Contact != "" {
			sb.WriteString(fmt.Sprintf("📞 %s\n", escape(pdv.Contact.String())))
		}
	}
	if task.AssignedAt != "" {
		sb.WriteString(fmt.Sprintf("🗓 Assigned: %s\n", service.FormatDate(task.AssignedAt)))
	}
	sb.WriteString(fmt.Sprintf("\nStatus: %s %s\n", statusIcon(task, reported), statusLabel(task, reported)))

	if task.IsCompleted() && task.Execution != nil {
		if c := task.Execution.Commercial; c != nil {
			if author := strings.TrimSpace(c.User.FirstName + " " + c.User.LastName); author != "" {
				sb.WriteString(fmt.Sprintf("Visited by %s\n", escape(author)))
			}
		}
		if task.Execution.VisitDate != "" {
			sb.WriteString(fmt.Sprintf("Visit date: %s\n", service.FormatDate(task.Execution.VisitDate)))
		}
	}
	if reported {
		sb.WriteString(fmt.Sprintf("Reason: %s\n", escape(reason)))
	}
	return strings.TrimSpace(sb.String())
}

func statusIcon(task model.Task, reported bool) string {
	if reported && !task.IsCompleted() {
		return "🚩"
	}
	switch task.Status() {
	case model.StatusCompleted:
		return "✅"
	case model.StatusInProgress:
		return "🔄"
	case model.StatusCancelled:
		return "❌"
	default:
		return "🕒"
	}
}

func statusLabel(task model.Task, reported bool) string {
	if reported && !task.IsCompleted() {
		return "Reported"
	}
	return task.Status().Label()
}

// mapsURL links to the PDV location, or "" when it has no coordinates.
func mapsURL(pdv *model.PDV) string {
	if pdv == nil || (pdv.Latitude == 0 && pdv.Longitude == 0) {
		return ""
	}
	return fmt.Sprintf("https://www.google.com/maps/place/%s,%s",
		strconv.FormatFloat(pdv.Latitude, 'f', -1, 64),
		strconv.FormatFloat(pdv.Longitude, 'f', -1, 64))
}

func pdvName(task model.Task) string {
	if task.PDV == nil || strings.TrimSpace(task.PDV.Name) == "" {
		return unknownPDV
	}
	return strings.TrimSpace(task.PDV.Name)
}

func shortTitle(title string, maxLen int) string {
	runes := []rune(title)
	if len(runes) <= maxLen {
		return title
	}
	return string(runes[:maxLen-1]) + "…"
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelPlanning),
			tgbotapi.NewKeyboardButton(menuLabelSettings),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func yesNoKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnYes),
			tgbotapi.NewKeyboardButton(btnNo),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}
