package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"field-agent/internal/model"
	"field-agent/internal/navigation"
	"field-agent/internal/service"
)

func (b *Bot) showPlanning(ctx context.Context, chatID int64) error {
	appCtx := b.appFor(ctx, chatID)
	planning, err := appCtx.Planning.Current(ctx)
	if err != nil {
		return b.handleAPIError(ctx, chatID, "load planning", err, cbPlanning)
	}
	if planning == nil {
		b.withState(chatID, func(st *chatState) { st.listed = make(map[model.ID]string) })
		return b.sendText(chatID, "📭 No planning available.")
	}

	reported := b.reportedSnapshot(chatID)
	listed := make(map[model.ID]string, len(planning.Tasks))

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%s <b>Planning</b>", themeIcon(appCtx.Theme.IsDark())))
	if desc := strings.TrimSpace(planning.Description); desc != "" {
		builder.WriteString(" · " + escape(desc))
	}
	builder.WriteString(fmt.Sprintf("\n🗓 %s - %s\n\n", service.FormatDate(planning.StartDate), service.FormatDate(planning.EndDate)))

	if len(planning.Tasks) == 0 {
		builder.WriteString("No tasks available.")
		b.withState(chatID, func(st *chatState) { st.listed = listed })
		return b.sendText(chatID, strings.TrimSpace(builder.String()))
	}

	var buttons [][]tgbotapi.InlineKeyboardButton
	for i, task := range planning.Tasks {
		_, isReported := reported[task.ID]
		builder.WriteString(formatTaskLine(i+1, task, isReported))

		payload, err := navigation.EncodeTask(task)
		if err != nil {
			log.Printf("encode task %s: %v", task.ID, err)
			continue
		}
		listed[task.ID] = payload
		label := fmt.Sprintf("%s %d · %s", statusIcon(task, isReported), i+1, shortTitle(pdvName(task), 28))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbTaskPrefix+task.ID.String()),
		))
	}
	b.withState(chatID, func(st *chatState) { st.listed = listed })

	text := strings.TrimSpace(builder.String())
	if len(buttons) == 0 {
		return b.sendText(chatID, text)
	}
	return b.sendWithReplyMarkup(chatID, text, tgbotapi.NewInlineKeyboardMarkup(buttons...))
}

func (b *Bot) openTask(ctx context.Context, chatID int64, taskID model.ID) error {
	var payload string
	var ok bool
	b.withState(chatID, func(st *chatState) {
		payload, ok = st.listed[taskID]
		if ok {
			st.taskPayload = payload
		}
	})
	if !ok {
		if err := b.sendText(chatID, "This task is no longer on your list."); err != nil {
			return err
		}
		return b.showPlanning(ctx, chatID)
	}
	return b.showTaskDetail(ctx, chatID)
}

// currentTask decodes the task on screen. A bad payload sends the agent back to the list.
func (b *Bot) currentTask(ctx context.Context, chatID int64) (model.Task, bool, error) {
	var payload string
	b.withState(chatID, func(st *chatState) { payload = st.taskPayload })

	task, err := navigation.DecodeTask(payload)
	if err != nil {
		log.Printf("open task for chat %d: %v", chatID, err)
		b.setStage(chatID, stageNone)
		if err := b.sendText(chatID, "⚠️ This task cannot be displayed."); err != nil {
			return model.Task{}, false, err
		}
		return model.Task{}, false, b.showPlanning(ctx, chatID)
	}
	return task, true, nil
}

func (b *Bot) showTaskDetail(ctx context.Context, chatID int64) error {
	task, ok, err := b.currentTask(ctx, chatID)
	if !ok {
		return err
	}
	reason, isReported := b.reportedSnapshot(chatID)[task.ID]

	var rows [][]tgbotapi.InlineKeyboardButton
	if !task.IsCompleted() && !isReported {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Confirm visit", cbConfirmPrefix+task.ID.String()),
			tgbotapi.NewInlineKeyboardButtonData("🚩 Report", cbReportPrefix+task.ID.String()),
		))
	}
	if link := mapsURL(task.PDV); link != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("🗺 Open in Google Maps", link)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Back to planning", cbPlanning)))

	return b.sendWithReplyMarkup(chatID, formatTaskDetail(task, reason, isReported), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// selectTask makes taskID the task on screen, falling back to the last listed payload.
func (b *Bot) selectTask(ctx context.Context, chatID int64, taskID model.ID) (model.Task, bool, error) {
	b.withState(chatID, func(st *chatState) {
		if payload, ok := st.listed[taskID]; ok {
			st.taskPayload = payload
		}
	})
	task, ok, err := b.currentTask(ctx, chatID)
	if !ok {
		return task, false, err
	}
	if task.ID != taskID {
		if err := b.sendText(chatID, "This task is no longer on your list."); err != nil {
			return task, false, err
		}
		return task, false, b.showPlanning(ctx, chatID)
	}
	return task, true, nil
}

func (b *Bot) askConfirmVisit(ctx context.Context, chatID int64, taskID model.ID) error {
	task, ok, err := b.selectTask(ctx, chatID, taskID)
	if !ok {
		return err
	}
	if task.IsCompleted() {
		return b.sendText(chatID, "This visit is already completed.")
	}
	if _, reported := b.reportedSnapshot(chatID)[task.ID]; reported {
		return b.sendText(chatID, "This visit was reported and cannot be confirmed.")
	}

	b.setStage(chatID, stageConfirmVisit)
	text := fmt.Sprintf("Confirm the visit to <b>%s</b>?", escape(pdvName(task)))
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	switch strings.TrimSpace(msg.Text) {
	case btnConfirm:
		b.setStage(chatID, stageNone)
		return b.confirmVisit(ctx, chatID)
	case btnCancel:
		b.setStage(chatID, stageNone)
		return b.showTaskDetail(ctx, chatID)
	default:
		return b.sendWithReplyMarkup(chatID, "Confirm or cancel the visit.", confirmKeyboard())
	}
}

func (b *Bot) confirmVisit(ctx context.Context, chatID int64) error {
	task, ok, err := b.currentTask(ctx, chatID)
	if !ok {
		return err
	}

	appCtx := b.appFor(ctx, chatID)
	if _, err := appCtx.Executions.Confirm(ctx, task); err != nil {
		if errors.Is(err, service.ErrTaskCompleted) {
			return b.sendText(chatID, "This visit is already completed.")
		}
		return b.handleAPIError(ctx, chatID, "confirm visit", err, cbConfirmPrefix+task.ID.String())
	}

	log.Printf("[info] visit confirmed task=%s chat=%d", task.ID, chatID)
	if err := b.sendText(chatID, fmt.Sprintf("✅ Visit to <b>%s</b> confirmed.", escape(pdvName(task)))); err != nil {
		return err
	}
	b.returnToPlanning(chatID)
	return nil
}

func (b *Bot) returnToPlanning(chatID int64) {
	b.after(b.returnDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), delayedShowDeadline)
		defer cancel()
		if err := b.showPlanning(ctx, chatID); err != nil {
			log.Printf("return to planning for chat %d: %v", chatID, err)
		}
	})
}

func (b *Bot) askReportReason(ctx context.Context, chatID int64, taskID model.ID) error {
	task, ok, err := b.selectTask(ctx, chatID, taskID)
	if !ok {
		return err
	}
	if task.IsCompleted() {
		return b.sendText(chatID, "This visit is already completed.")
	}

	b.setStage(chatID, stageReportReason)
	text := fmt.Sprintf("🚩 Why can the visit to <b>%s</b> not be completed? Send the reason.", escape(pdvName(task)))
	return b.sendWithReplyMarkup(chatID, text, cancelKeyboard())
}

func (b *Bot) handleReportReason(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	reason := strings.TrimSpace(msg.Text)
	if reason == btnCancel {
		b.setStage(chatID, stageNone)
		return b.showTaskDetail(ctx, chatID)
	}
	if reason == "" {
		return b.sendWithReplyMarkup(chatID, "A reason is required.", cancelKeyboard())
	}

	task, ok, err := b.currentTask(ctx, chatID)
	if !ok {
		return err
	}
	b.withState(chatID, func(st *chatState) {
		st.reported[task.ID] = reason
		st.stage = stageNone
	})
	log.Printf("[info] task %s reported by chat %d", task.ID, chatID)

	if err := b.sendText(chatID, "🚩 Report saved."); err != nil {
		return err
	}
	return b.showTaskDetail(ctx, chatID)
}

func (b *Bot) reportedSnapshot(chatID int64) map[model.ID]string {
	out := make(map[model.ID]string)
	b.withState(chatID, func(st *chatState) {
		for id, reason := range st.reported {
			out[id] = reason
		}
	})
	return out
}
