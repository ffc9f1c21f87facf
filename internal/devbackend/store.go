package devbackend

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"field-agent/internal/model"
)

// Agent is a backend user with its credentials.
type Agent struct {
	Profile      model.UserProfile
	PasswordHash string
}

// Store is the in-memory dataset served by the dev backend.
type Store struct {
	mu              sync.Mutex
	agents          map[string]*Agent
	byEmail         map[string]string
	plannings       map[string]*model.Planning
	nextExecutionID int64
}

func NewStore() *Store {
	return &Store{
		agents:          make(map[string]*Agent),
		byEmail:         make(map[string]string),
		plannings:       make(map[string]*model.Planning),
		nextExecutionID: 1,
	}
}

// AddAgent registers an agent and its password.
func (s *Store) AddAgent(profile model.UserProfile, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email := normalizeEmail(profile.Email)
	if _, ok := s.byEmail[email]; ok {
		return fmt.Errorf("agent %s already exists", email)
	}
	s.agents[profile.ID.String()] = &Agent{Profile: profile, PasswordHash: string(hash)}
	s.byEmail[email] = profile.ID.String()
	return nil
}

// SetPlanning assigns the active planning of an agent.
func (s *Store) SetPlanning(userID model.ID, planning model.Planning) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plannings[userID.String()] = &planning
}

// Authenticate returns the agent when email and password match.
func (s *Store) Authenticate(email, password string) (*model.UserProfile, bool) {
	s.mu.Lock()
	id, ok := s.byEmail[normalizeEmail(email)]
	var agent *Agent
	if ok {
		agent = s.agents[id]
	}
	s.mu.Unlock()
	if agent == nil {
		return nil, false
	}
	if bcrypt.CompareHashAndPassword([]byte(agent.PasswordHash), []byte(password)) != nil {
		return nil, false
	}
	profile := agent.Profile
	return &profile, true
}

func (s *Store) Profile(userID string) (*model.UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	agent, ok := s.agents[userID]
	if !ok {
		return nil, false
	}
	profile := agent.Profile
	return &profile, true
}

func (s *Store) Planning(userID string) (*model.Planning, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	planning, ok := s.plannings[userID]
	if !ok {
		return nil, false
	}
	out := *planning
	out.Tasks = append([]model.Task(nil), planning.Tasks...)
	return &out, true
}

// CompleteTask stores a completed execution on the agent's task.
func (s *Store) CompleteTask(userID string, detailID model.ID, visitDate string) (*model.TaskExecution, *APIError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	planning, ok := s.plannings[userID]
	if !ok {
		return nil, errNotFound("planning not found")
	}
	for i := range planning.Tasks {
		task := &planning.Tasks[i]
		if task.ID != detailID {
			continue
		}
		if task.IsCompleted() {
			return nil, errConflict("task already completed")
		}
		now := time.Now().UTC().Format(time.RFC3339)
		execution := &model.TaskExecution{
			ID:        model.ID(strconv.FormatInt(s.nextExecutionID, 10)),
			VisitDate: visitDate,
			Status:    model.StatusCompleted,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.nextExecutionID++
		if agent, ok := s.agents[userID]; ok {
			execution.Commercial = &model.Commercial{ID: agent.Profile.ID}
			execution.Commercial.User.FirstName = agent.Profile.FirstName
			execution.Commercial.User.LastName = agent.Profile.LastName
		}
		task.Execution = execution
		copied := *execution
		return &copied, nil
	}
	return nil, errNotFound("task not found in planning")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
