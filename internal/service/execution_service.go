package service

import (
	"context"
	"errors"
	"log"
	"time"

	"field-agent/internal/apiclient"
	"field-agent/internal/model"
	"field-agent/internal/storage"
)

var ErrTaskCompleted = errors.New("task is already completed")

// ExecutionRequest is the body of POST /plannings/executions.
// Detail carries the whole task as displayed to the agent.
type ExecutionRequest struct {
	DetailID  model.ID              `json:"detailId"`
	VisitDate string                `json:"visitDate"`
	Status    model.ExecutionStatus `json:"status"`
	UserID    model.ID              `json:"userId"`
	Detail    model.Task            `json:"detail"`
}

// ExecutionService submits visit confirmations.
type ExecutionService struct {
	client *apiclient.Client
	store  storage.Store
	now    func() time.Time
}

func NewExecutionService(client *apiclient.Client, store storage.Store) *ExecutionService {
	return &ExecutionService{client: client, store: store, now: time.Now}
}

// Confirm records the task as completed now.
func (s *ExecutionService) Confirm(ctx context.Context, task model.Task) (*model.TaskExecution, error) {
	if task.IsCompleted() {
		return nil, ErrTaskCompleted
	}
	userID, err := storedUserID(ctx, s.store)
	if err != nil {
		return nil, err
	}

	req := ExecutionRequest{
		DetailID:  task.ID,
		VisitDate: s.now().UTC().Format(time.RFC3339Nano),
		Status:    model.StatusCompleted,
		UserID:    model.ID(userID),
		Detail:    task,
	}

	var execution model.TaskExecution
	if err := s.client.Post(ctx, "/plannings/executions", req, &execution); err != nil {
		return nil, err
	}
	if execution.Status == "" {
		execution.Status = model.StatusCompleted
	}
	log.Printf("[info] execution submitted task=%s user=%s", task.ID, userID)
	return &execution, nil
}
