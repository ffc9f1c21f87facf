package service

import (
	"fmt"
	"html"
	"strings"
	"time"

	"field-agent/internal/model"
)

// DigestService builds the periodic planning summary pushed to agents.
type DigestService struct{}

func NewDigestService() *DigestService {
	return &DigestService{}
}

// Summary renders the open tasks of a planning as Telegram HTML.
func (s *DigestService) Summary(planning *model.Planning, now time.Time) string {
	var builder strings.Builder
	builder.WriteString("📋 <b>Planning digest</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", FormatDate(now.Format("2006-01-02"))))

	if planning == nil {
		builder.WriteString("— no planning available\n")
		return strings.TrimSpace(builder.String())
	}

	if planning.Description != "" {
		builder.WriteString(fmt.Sprintf("<b>%s</b>\n", html.EscapeString(strings.TrimSpace(planning.Description))))
	}
	builder.WriteString(fmt.Sprintf("Period: %s - %s\n\n", FormatDate(planning.StartDate), FormatDate(planning.EndDate)))

	var open []model.Task
	completed := 0
	for _, task := range model.SortTasksByAssignedAt(planning.Tasks) {
		if task.IsCompleted() {
			completed++
			continue
		}
		open = append(open, task)
	}

	builder.WriteString("🔥 <b>Open visits</b>\n")
	if len(open) == 0 {
		builder.WriteString("— nothing left to visit\n")
	} else {
		for _, task := range open {
			builder.WriteString(formatDigestTask(task, now))
		}
	}
	builder.WriteString(fmt.Sprintf("\n✅ Completed: %d/%d\n", completed, len(planning.Tasks)))

	return strings.TrimSpace(builder.String())
}

func formatDigestTask(task model.Task, now time.Time) string {
	icon := "🟢"
	assigned := task.AssignedTime()
	if !assigned.IsZero() {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		day := time.Date(assigned.Year(), assigned.Month(), assigned.Day(), 0, 0, 0, 0, time.UTC)
		switch {
		case day.Before(today):
			icon = "⚠️"
		case day.Equal(today):
			icon = "⏳"
		}
	}

	name := "Unknown PDV"
	if task.PDV != nil && strings.TrimSpace(task.PDV.Name) != "" {
		name = strings.TrimSpace(task.PDV.Name)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s · %s", icon, html.EscapeString(name), FormatDate(task.AssignedAt)))
	if task.PDV != nil && task.PDV.Address != "" {
		sb.WriteString(fmt.Sprintf("\n   📍 %s", html.EscapeString(strings.TrimSpace(task.PDV.Address))))
	}
	sb.WriteByte('\n')
	return sb.String()
}

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// FormatDate renders a backend date the way agents read it ("2 mars 2024").
// Unparsable input is returned unchanged.
func FormatDate(raw string) string {
	t, err := model.ParseTime(raw)
	if err != nil {
		return raw
	}
	return fmt.Sprintf("%d %s %d", t.Day(), frenchMonths[t.Month()-1], t.Year())
}
