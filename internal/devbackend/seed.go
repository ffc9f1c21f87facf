package devbackend

import (
	"time"

	"field-agent/internal/model"
)

const (
	DemoEmail    = "agent@example.com"
	DemoPassword = "password123"
)

// Seed loads one demo agent with a planning spanning the current week.
func Seed(store *Store, now time.Time) error {
	agent := model.UserProfile{
		ID:          "1",
		FirstName:   "Awa",
		LastName:    "Diallo",
		Email:       DemoEmail,
		Contact:     "770000001",
		StructureID: "10",
		Structure:   &model.Structure{ID: "10", Name: "Dakar Nord", Type: "agency", ParentID: "1"},
		Roles:       []string{"commercial"},
	}
	if err := store.AddAgent(agent, DemoPassword); err != nil {
		return err
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	at := func(offset int, hour int) string {
		return day.AddDate(0, 0, offset).Add(time.Duration(hour) * time.Hour).Format(time.RFC3339)
	}

	completed := &model.TaskExecution{
		ID:         "1",
		VisitDate:  at(-1, 10),
		Status:     model.StatusCompleted,
		CreatedAt:  at(-1, 10),
		UpdatedAt:  at(-1, 10),
		Commercial: &model.Commercial{ID: agent.ID},
	}
	completed.Commercial.User.FirstName = agent.FirstName
	completed.Commercial.User.LastName = agent.LastName

	store.SetPlanning(agent.ID, model.Planning{
		ID:          "100",
		StartDate:   day.AddDate(0, 0, -1).Format("2006-01-02"),
		EndDate:     day.AddDate(0, 0, 5).Format("2006-01-02"),
		Description: "Weekly visits",
		Tasks: []model.Task{
			{
				ID: "1002", PlanningID: "100", PDVID: "502", AssignedAt: at(1, 9),
				PDV: &model.PDV{ID: "502", Name: "Boutique Fall", FirstName: "Moussa", LastName: "Fall", Address: "Rue 12, Parcelles", Contact: "771112233", Status: "active", Type: "shop", ZoneID: "7", Latitude: 14.7645, Longitude: -17.4108},
			},
			{
				ID: "1001", PlanningID: "100", PDVID: "501", AssignedAt: at(-1, 9),
				PDV:       &model.PDV{ID: "501", Name: "Kiosque Ndiaye", FirstName: "Fatou", LastName: "Ndiaye", Address: "Avenue Cheikh Anta Diop", Contact: "778889900", Status: "active", Type: "kiosk", ZoneID: "7", Latitude: 14.6937, Longitude: -17.4441},
				Execution: completed,
			},
			{
				ID: "1003", PlanningID: "100", PDVID: "503", AssignedAt: at(0, 15),
				PDV: &model.PDV{ID: "503", Name: "Superette Sow", FirstName: "Ibrahima", LastName: "Sow", Address: "Marché HLM", Contact: "775554433", Status: "active", Type: "superette", ZoneID: "8", Latitude: 14.7121, Longitude: -17.4467},
			},
		},
	})
	store.mu.Lock()
	store.nextExecutionID = 2
	store.mu.Unlock()
	return nil
}
