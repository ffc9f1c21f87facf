package model

import (
	"sort"
	"strings"
	"time"
)

// ExecutionStatus is the lifecycle state of a task execution.
type ExecutionStatus string

const (
	StatusPending    ExecutionStatus = "pending"
	StatusInProgress ExecutionStatus = "in_progress"
	StatusCompleted  ExecutionStatus = "completed"
	StatusCancelled  ExecutionStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s ExecutionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// Label is the capitalized status shown on badges.
func (s ExecutionStatus) Label() string {
	if s == "" {
		return "Pending"
	}
	raw := strings.ReplaceAll(string(s), "_", " ")
	return strings.ToUpper(raw[:1]) + raw[1:]
}

// Planning is a dated assignment of tasks to a field agent.
type Planning struct {
	ID          ID     `json:"id"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
	Tasks       []Task `json:"tasks"`
}

// PDV is a point of sale.
type PDV struct {
	ID        ID      `json:"id"`
	Name      string  `json:"pdvName"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Address   string  `json:"address"`
	Contact   ID      `json:"contact"`
	Status    string  `json:"status"`
	Type      string  `json:"type"`
	ZoneID    ID      `json:"zoneId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Task is one planned visit to a PDV.
type Task struct {
	ID         ID             `json:"id"`
	PlanningID ID             `json:"planningId"`
	PDVID      ID             `json:"pdvId"`
	AssignedAt string         `json:"assignedAt"`
	PDV        *PDV           `json:"pdv"`
	Execution  *TaskExecution `json:"execution"`
}

// Status returns the execution status, pending when nothing was executed yet.
func (t Task) Status() ExecutionStatus {
	if t.Execution == nil || t.Execution.Status == "" {
		return StatusPending
	}
	return t.Execution.Status
}

// IsCompleted reports whether the task reached its terminal state.
func (t Task) IsCompleted() bool {
	return t.Status() == StatusCompleted
}

// AssignedTime parses AssignedAt. Unparsable values yield the zero time.
func (t Task) AssignedTime() time.Time {
	parsed, _ := ParseTime(t.AssignedAt)
	return parsed
}

// Commercial is the agent who executed a task, as embedded by the backend.
type Commercial struct {
	ID   ID `json:"id"`
	User struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	} `json:"user"`
}

// TaskExecution is the agent's report for a task.
type TaskExecution struct {
	ID         ID              `json:"id,omitempty"`
	StartedAt  string          `json:"startedAt,omitempty"`
	EndedAt    string          `json:"endedAt,omitempty"`
	VisitDate  string          `json:"visitDate,omitempty"`
	Status     ExecutionStatus `json:"status,omitempty"`
	Note       string          `json:"note,omitempty"`
	Photos     []string        `json:"photos,omitempty"`
	CreatedAt  string          `json:"createdAt,omitempty"`
	UpdatedAt  string          `json:"updatedAt,omitempty"`
	Commercial *Commercial     `json:"commercial,omitempty"`
}

// SortTasksByAssignedAt orders tasks by assignment date, oldest first.
func SortTasksByAssignedAt(tasks []Task) []Task {
	sorted := make([]Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AssignedTime().Before(sorted[j].AssignedTime())
	})
	return sorted
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime accepts the date formats the backend emits.
func ParseTime(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, strings.TrimSpace(raw))
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
