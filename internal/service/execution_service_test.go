package service

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"field-agent/internal/model"
)

func sampleTask() model.Task {
	return model.Task{
		ID:         "1002",
		PlanningID: "100",
		PDVID:      "502",
		AssignedAt: "2024-03-02T09:00:00Z",
		PDV:        &model.PDV{ID: "502", Name: "Boutique Fall", Latitude: 14.7645, Longitude: -17.4108},
	}
}

func TestConfirmPayload(t *testing.T) {
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/plannings/executions", r.URL.Path)
		assert.Equal(t, "Bearer T1", r.Header.Get("Authorization"))
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":7}}`))
	}))
	defer server.Close()

	f := newFixture(server.URL)
	require.NoError(t, f.store.Set(f.ctx, model.KeyToken, "T1"))
	require.NoError(t, f.store.Set(f.ctx, model.KeyUserID, "42"))

	svc := NewExecutionService(f.client, f.store)
	fixed := time.Date(2024, 3, 2, 10, 30, 0, 123000000, time.FixedZone("WAT", 3600))
	svc.now = func() time.Time { return fixed }

	execution, err := svc.Confirm(f.ctx, sampleTask())
	require.NoError(t, err)
	assert.Equal(t, model.ID("7"), execution.ID)
	assert.Equal(t, model.StatusCompleted, execution.Status)

	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.JSONEq(t, `1002`, string(payload["detailId"]))
	assert.JSONEq(t, `42`, string(payload["userId"]))
	assert.JSONEq(t, `"completed"`, string(payload["status"]))
	assert.JSONEq(t, `"2024-03-02T09:30:00.123Z"`, string(payload["visitDate"]))

	var detail model.Task
	require.NoError(t, json.Unmarshal(payload["detail"], &detail))
	assert.Equal(t, model.ID("1002"), detail.ID)
	require.NotNil(t, detail.PDV)
	assert.Equal(t, "Boutique Fall", detail.PDV.Name)
}

func TestConfirmPayloadKeepsPhoneContacts(t *testing.T) {
	for _, contact := range []model.ID{"+221770000001", "0770000001", "-0"} {
		t.Run(string(contact), func(t *testing.T) {
			var body []byte
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, _ = io.ReadAll(r.Body)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"success":true,"data":{"id":8}}`))
			}))
			defer server.Close()

			f := newFixture(server.URL)
			require.NoError(t, f.store.Set(f.ctx, model.KeyToken, "T1"))
			require.NoError(t, f.store.Set(f.ctx, model.KeyUserID, "42"))

			task := sampleTask()
			task.PDV.Contact = contact
			_, err := NewExecutionService(f.client, f.store).Confirm(f.ctx, task)
			require.NoError(t, err)

			var payload struct {
				Detail model.Task `json:"detail"`
			}
			require.NoError(t, json.Unmarshal(body, &payload))
			require.NotNil(t, payload.Detail.PDV)
			assert.Equal(t, contact, payload.Detail.PDV.Contact)
		})
	}
}

func TestConfirmRejectsCompletedTask(t *testing.T) {
	f := newFixture("http://127.0.0.1:1")
	task := sampleTask()
	task.Execution = &model.TaskExecution{Status: model.StatusCompleted}

	_, err := NewExecutionService(f.client, f.store).Confirm(f.ctx, task)
	assert.ErrorIs(t, err, ErrTaskCompleted)
}

func TestConfirmRequiresUserID(t *testing.T) {
	f := newFixture("http://127.0.0.1:1")
	require.NoError(t, f.store.Set(f.ctx, model.KeyToken, "T1"))

	_, err := NewExecutionService(f.client, f.store).Confirm(f.ctx, sampleTask())
	assert.ErrorIs(t, err, ErrNoUserID)
}

func TestConfirmAgainstDevBackend(t *testing.T) {
	f := setupDevBackend(t)
	f.login(t, true)

	planning, err := NewPlanningService(f.client).Current(f.ctx)
	require.NoError(t, err)
	open := planning.Tasks[1]
	require.False(t, open.IsCompleted())

	execution, err := NewExecutionService(f.client, f.store).Confirm(f.ctx, open)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, execution.Status)
	require.NotNil(t, execution.Commercial)
	assert.Equal(t, "Awa", execution.Commercial.User.FirstName)

	refreshed, err := NewPlanningService(f.client).Current(f.ctx)
	require.NoError(t, err)
	for _, task := range refreshed.Tasks {
		if task.ID == open.ID {
			assert.True(t, task.IsCompleted())
		}
	}
}
