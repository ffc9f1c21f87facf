package navigation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"field-agent/internal/model"
)

func TestEncodeDecodeTask(t *testing.T) {
	task := model.Task{
		ID:         "1002",
		PlanningID: "100",
		AssignedAt: "2024-03-02T09:00:00Z",
		PDV:        &model.PDV{ID: "502", Name: "Boutique Fall", Latitude: 14.7645, Longitude: -17.4108},
		Execution:  &model.TaskExecution{Status: model.StatusInProgress},
	}

	raw, err := EncodeTask(task)
	require.NoError(t, err)
	assert.Contains(t, raw, `"id":1002`)

	decoded, err := DecodeTask(raw)
	require.NoError(t, err)
	assert.Equal(t, task, decoded)
}

func TestPhoneContactsSurviveRoundTrip(t *testing.T) {
	for _, contact := range []model.ID{"+221770000001", "0770000001", "-0", "770000001"} {
		t.Run(string(contact), func(t *testing.T) {
			task := model.Task{ID: "7", PDV: &model.PDV{ID: "502", Name: "Boutique Fall", Contact: contact}}

			raw, err := EncodeTask(task)
			require.NoError(t, err)
			decoded, err := DecodeTask(raw)
			require.NoError(t, err)
			assert.Equal(t, contact, decoded.PDV.Contact)

			again, err := EncodeTask(decoded)
			require.NoError(t, err)
			assert.JSONEq(t, raw, again)
		})
	}
}

func TestDecodeTaskRejectsBadPayloads(t *testing.T) {
	cases := map[string]string{
		"empty":          "  ",
		"malformed":      `{"id":`,
		"not an object":  `[1,2]`,
		"missing id":     `{"pdv":{"pdvName":"A"}}`,
		"missing pdv":    `{"id":1}`,
		"unknown status": `{"id":1,"pdv":{"pdvName":"A"},"execution":{"status":"lost"}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeTask(raw)
			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr), "got %v", err)
			assert.NotEmpty(t, parseErr.Reason)
		})
	}
}
