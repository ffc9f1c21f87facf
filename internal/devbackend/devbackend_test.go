package devbackend

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"field-agent/internal/model"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func setupTestEngine(t *testing.T) (*gin.Engine, *Tokens) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := NewStore()
	require.NoError(t, Seed(store, time.Now()))
	tokens := NewTokens("test-secret", time.Hour)
	return NewRouter(store, tokens), tokens
}

func requestJSON(t *testing.T, engine *gin.Engine, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return rec.Code, env
}

func login(t *testing.T, engine *gin.Engine) model.LoginResult {
	t.Helper()
	status, env := requestJSON(t, engine, http.MethodPost, "/api/auth/login", "", loginRequest{Email: DemoEmail, Password: DemoPassword})
	require.Equal(t, http.StatusOK, status)
	require.True(t, env.Success)

	var result model.LoginResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	return result
}

func TestLogin(t *testing.T) {
	engine, tokens := setupTestEngine(t)

	result := login(t, engine)
	assert.Equal(t, model.ID("1"), result.User.ID)
	subject, apiErr := tokens.Parse(result.Token)
	require.Nil(t, apiErr)
	assert.Equal(t, "1", subject)

	status, env := requestJSON(t, engine, http.MethodPost, "/api/auth/login", "", loginRequest{Email: DemoEmail, Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)
	assert.Equal(t, "Invalid email or password", env.Message)

	status, env = requestJSON(t, engine, http.MethodPost, "/api/auth/login", "", loginRequest{Email: DemoEmail})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
}

func TestLoginEmailIsCaseInsensitive(t *testing.T) {
	engine, _ := setupTestEngine(t)

	status, _ := requestJSON(t, engine, http.MethodPost, "/api/auth/login", "", loginRequest{Email: "  AGENT@example.com ", Password: DemoPassword})
	assert.Equal(t, http.StatusOK, status)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	engine, _ := setupTestEngine(t)

	status, env := requestJSON(t, engine, http.MethodGet, "/api/users/planning", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "missing authorization header", env.Message)

	status, env = requestJSON(t, engine, http.MethodGet, "/api/users/planning", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid token", env.Message)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	engine, tokens := setupTestEngine(t)

	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, apiErr := tokens.Issue("1")
	require.Nil(t, apiErr)
	tokens.now = time.Now

	status, _ := requestJSON(t, engine, http.MethodGet, "/api/users/planning", stale, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestPlanningUsesDetailsField(t *testing.T) {
	engine, _ := setupTestEngine(t)
	token := login(t, engine).Token

	status, env := requestJSON(t, engine, http.MethodGet, "/api/users/planning", token, nil)
	require.Equal(t, http.StatusOK, status)

	var planning planningResponse
	require.NoError(t, json.Unmarshal(env.Data, &planning))
	assert.Equal(t, model.ID("100"), planning.ID)
	assert.Len(t, planning.Details, 3)
	assert.Contains(t, string(env.Data), `"details"`)
	assert.Contains(t, string(env.Data), `"pdvName":"Boutique Fall"`)
}

func TestUserProfileIsOwnOnly(t *testing.T) {
	engine, _ := setupTestEngine(t)
	token := login(t, engine).Token

	status, env := requestJSON(t, engine, http.MethodGet, "/api/users/1", token, nil)
	require.Equal(t, http.StatusOK, status)
	var profile model.UserProfile
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "Awa", profile.FirstName)
	assert.Equal(t, "commercial", profile.PrimaryRole())

	status, _ = requestJSON(t, engine, http.MethodGet, "/api/users/2", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestCreateExecution(t *testing.T) {
	engine, _ := setupTestEngine(t)
	token := login(t, engine).Token

	body := executionRequest{
		DetailID:  "1002",
		VisitDate: time.Now().UTC().Format(time.RFC3339Nano),
		Status:    model.StatusCompleted,
		UserID:    "1",
		Detail:    &model.Task{ID: "1002"},
	}
	status, env := requestJSON(t, engine, http.MethodPost, "/api/plannings/executions", token, body)
	require.Equal(t, http.StatusCreated, status, env.Message)

	var execution model.TaskExecution
	require.NoError(t, json.Unmarshal(env.Data, &execution))
	assert.Equal(t, model.StatusCompleted, execution.Status)
	assert.Equal(t, model.ID("2"), execution.ID)
	require.NotNil(t, execution.Commercial)
	assert.Equal(t, "Diallo", execution.Commercial.User.LastName)

	status, env = requestJSON(t, engine, http.MethodPost, "/api/plannings/executions", token, body)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "task already completed", env.Message)
}

func TestCreateExecutionValidation(t *testing.T) {
	engine, _ := setupTestEngine(t)
	token := login(t, engine).Token
	now := time.Now().UTC().Format(time.RFC3339Nano)

	cases := []struct {
		name   string
		body   executionRequest
		status int
	}{
		{"missing detail id", executionRequest{VisitDate: now, Status: model.StatusCompleted, UserID: "1"}, http.StatusBadRequest},
		{"wrong status", executionRequest{DetailID: "1002", VisitDate: now, Status: model.StatusPending, UserID: "1", Detail: &model.Task{ID: "1002"}}, http.StatusBadRequest},
		{"other user", executionRequest{DetailID: "1002", VisitDate: now, Status: model.StatusCompleted, UserID: "2", Detail: &model.Task{ID: "1002"}}, http.StatusForbidden},
		{"detail mismatch", executionRequest{DetailID: "1002", VisitDate: now, Status: model.StatusCompleted, UserID: "1", Detail: &model.Task{ID: "1003"}}, http.StatusBadRequest},
		{"unknown task", executionRequest{DetailID: "9", VisitDate: now, Status: model.StatusCompleted, UserID: "1", Detail: &model.Task{ID: "9"}}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := requestJSON(t, engine, http.MethodPost, "/api/plannings/executions", token, tc.body)
			assert.Equal(t, tc.status, status)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Message)
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	engine, _ := setupTestEngine(t)

	status, env := requestJSON(t, engine, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Route not found", env.Message)
}
