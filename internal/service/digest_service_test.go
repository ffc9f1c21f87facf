package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"field-agent/internal/model"
)

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2 mars 2024", FormatDate("2024-03-02"))
	assert.Equal(t, "15 août 2024", FormatDate("2024-08-15T10:00:00Z"))
	assert.Equal(t, "1 janvier 2025", FormatDate("2025-01-01T00:00:00.000Z"))
	assert.Equal(t, "not a date", FormatDate("not a date"))
	assert.Equal(t, "", FormatDate(""))
}

func TestDigestSummary(t *testing.T) {
	now := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	planning := &model.Planning{
		Description: "Weekly <visits>",
		StartDate:   "2024-03-01",
		EndDate:     "2024-03-07",
		Tasks: []model.Task{
			{ID: "3", AssignedAt: "2024-03-04T09:00:00Z", PDV: &model.PDV{Name: "Later"}},
			{ID: "1", AssignedAt: "2024-03-01T09:00:00Z", PDV: &model.PDV{Name: "Late", Address: "Rue 1"}},
			{ID: "2", AssignedAt: "2024-03-02T09:00:00Z"},
			{ID: "4", AssignedAt: "2024-03-01T11:00:00Z", Execution: &model.TaskExecution{Status: model.StatusCompleted}},
		},
	}

	summary := NewDigestService().Summary(planning, now)

	assert.Contains(t, summary, "<b>Weekly &lt;visits&gt;</b>")
	assert.Contains(t, summary, "Period: 1 mars 2024 - 7 mars 2024")
	assert.Contains(t, summary, "⚠️ Late · 1 mars 2024\n   📍 Rue 1")
	assert.Contains(t, summary, "⏳ Unknown PDV · 2 mars 2024")
	assert.Contains(t, summary, "🟢 Later · 4 mars 2024")
	assert.Contains(t, summary, "✅ Completed: 1/4")
	assert.Less(t, strings.Index(summary, "Late ·"), strings.Index(summary, "Later ·"))
}

func TestDigestSummaryWithoutPlanning(t *testing.T) {
	summary := NewDigestService().Summary(nil, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))
	assert.Contains(t, summary, "no planning available")
}

