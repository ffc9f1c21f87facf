package service

import (
	"context"

	"field-agent/internal/apiclient"
	"field-agent/internal/model"
)

// PlanningService fetches the agent's active planning.
type PlanningService struct {
	client *apiclient.Client
}

func NewPlanningService(client *apiclient.Client) *PlanningService {
	return &PlanningService{client: client}
}

// The backend names the task list "details".
type planningResponse struct {
	ID          model.ID     `json:"id"`
	StartDate   string       `json:"startDate"`
	EndDate     string       `json:"endDate"`
	Description string       `json:"description"`
	Details     []model.Task `json:"details"`
}

// Current returns the active planning with tasks sorted by assignment date,
// or nil when the backend has none.
func (s *PlanningService) Current(ctx context.Context) (*model.Planning, error) {
	var resp *planningResponse
	if err := s.client.Get(ctx, "/users/planning", &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	tasks := resp.Details
	if tasks == nil {
		tasks = []model.Task{}
	}
	return &model.Planning{
		ID:          resp.ID,
		StartDate:   resp.StartDate,
		EndDate:     resp.EndDate,
		Description: resp.Description,
		Tasks:       model.SortTasksByAssignedAt(tasks),
	}, nil
}
