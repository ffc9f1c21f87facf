package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDMarshalJSON(t *testing.T) {
	cases := []struct {
		id   ID
		want string
	}{
		{"42", `42`},
		{"-7", `-7`},
		{"0", `0`},
		{"", `""`},
		{"abc", `"abc"`},
		{"0770000001", `"0770000001"`},
		{"+221770000001", `"+221770000001"`},
		{"-0", `"-0"`},
		{"99999999999999999999", `"99999999999999999999"`},
	}
	for _, tc := range cases {
		t.Run(string(tc.id), func(t *testing.T) {
			raw, err := json.Marshal(tc.id)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(raw))

			var back ID
			require.NoError(t, json.Unmarshal(raw, &back))
			assert.Equal(t, tc.id, back)
		})
	}
}

func TestIDUnmarshalJSON(t *testing.T) {
	var pdv PDV
	require.NoError(t, json.Unmarshal([]byte(`{"id":502,"contact":"+221770000001","zoneId":null}`), &pdv))
	assert.Equal(t, ID("502"), pdv.ID)
	assert.Equal(t, ID("+221770000001"), pdv.Contact)
	assert.Equal(t, ID(""), pdv.ZoneID)

	raw, err := json.Marshal(pdv)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"id":502`)
	assert.Contains(t, string(raw), `"contact":"+221770000001"`)
}
