package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateTicketRequestAssignee(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		present bool
		value   string
	}{
		{"omitted", `{"subject":"x"}`, false, ""},
		{"null", `{"assignee_id":null}`, true, ""},
		{"empty", `{"assignee_id":""}`, true, ""},
		{"set", `{"assignee_id":"u-alex"}`, true, "u-alex"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var req UpdateTicketRequest
			require.NoError(t, json.Unmarshal([]byte(tc.body), &req))
			assert.Equal(t, tc.present, req.AssigneeID.Present)
			assert.Equal(t, tc.value, req.AssigneeID.Or(""))
		})
	}

	var req UpdateTicketRequest
	assert.Error(t, json.Unmarshal([]byte(`{"assignee_id":42}`), &req))
}
