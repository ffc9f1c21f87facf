// Package navigation carries a task from the planning list to the detail screen
// as serialized JSON and validates it on the way back in.
package navigation

import (
	"encoding/json"
	"fmt"
	"strings"

	"field-agent/internal/model"
)

// ParseError reports a task payload that cannot be shown.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid task payload: %s: %v", e.Reason, e.Err)
	}
	return "invalid task payload: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// EncodeTask serializes a task for the detail screen.
func EncodeTask(task model.Task) (string, error) {
	raw, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("encode task %s: %w", task.ID, err)
	}
	return string(raw), nil
}

// DecodeTask parses a payload produced by EncodeTask.
func DecodeTask(raw string) (model.Task, error) {
	if strings.TrimSpace(raw) == "" {
		return model.Task{}, &ParseError{Reason: "empty payload"}
	}
	var task model.Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		return model.Task{}, &ParseError{Reason: "malformed json", Err: err}
	}
	if task.ID == "" {
		return model.Task{}, &ParseError{Reason: "missing task id"}
	}
	if task.PDV == nil {
		return model.Task{}, &ParseError{Reason: "missing pdv"}
	}
	if task.Execution != nil && task.Execution.Status != "" && !task.Execution.Status.Valid() {
		return model.Task{}, &ParseError{Reason: fmt.Sprintf("unknown status %q", task.Execution.Status)}
	}
	return task, nil
}
