package taskrepo

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/s3arena/internal/client"
)

type call struct {
	method string
	path   string
	body   any
}

// fakeCaller records calls and answers with a canned JSON document
type fakeCaller struct {
	calls    []call
	response string
	err      error
}

func (f *fakeCaller) Call(_ context.Context, method, path string, body, out any) error {
	f.calls = append(f.calls, call{method: method, path: path, body: body})
	if f.err != nil {
		return f.err
	}
	if out != nil && f.response != "" {
		return json.Unmarshal([]byte(f.response), out)
	}
	return nil
}

const mixedTasks = `[
	{"id":3,"title":"Footwork","assigned_by":{"id":1,"username":"coach_c"},"players":[{"id":10}]},
	{"id":2,"title":"Other coach","assigned_by":{"id":2,"username":"coach_d"},"players":[{"id":11}]},
	{"id":1,"title":"Serve Drill","assigned_by":{"id":1,"username":"coach_c"},"players":[{"id":10},{"id":11}]}
]`

func TestListCreatedBy_FiltersAndKeepsOrder(t *testing.T) {
	api := &fakeCaller{response: mixedTasks}
	tasks, err := New(api).ListCreatedBy(context.Background(), "coach_c")
	require.NoError(t, err)

	require.Len(t, api.calls, 1)
	assert.Equal(t, "/tasks/?assigned_by=coach_c", api.calls[0].path)

	require.Len(t, tasks, 2)
	assert.Equal(t, int64(3), tasks[0].ID)
	assert.Equal(t, int64(1), tasks[1].ID)
}

func TestListCreatedBy_EscapesUsername(t *testing.T) {
	api := &fakeCaller{response: `[]`}
	_, err := New(api).ListCreatedBy(context.Background(), "a b&c")
	require.NoError(t, err)
	assert.Equal(t, "/tasks/?assigned_by=a+b%26c", api.calls[0].path)
}

func TestListAssignedToUser(t *testing.T) {
	api := &fakeCaller{response: mixedTasks}
	tasks, err := New(api).ListAssignedToUser(context.Background(), 11)
	require.NoError(t, err)

	assert.Equal(t, "/tasks/", api.calls[0].path)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Other coach", tasks[0].Title)
	assert.Equal(t, "Serve Drill", tasks[1].Title)
}

func TestCreate_NoPlayersFailsWithoutRequest(t *testing.T) {
	api := &fakeCaller{}
	_, err := New(api).Create(context.Background(), NewTask{Title: "Serve Drill"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "players", verr.Field)
	assert.Empty(t, api.calls)
}

func TestCreate_RejectsBadInputLocally(t *testing.T) {
	zero := 0
	tests := []struct {
		name  string
		in    NewTask
		field string
	}{
		{"blank title", NewTask{Title: "  ", PlayerIDs: []int64{1}}, "title"},
		{"non-positive limit", NewTask{Title: "x", PlayerIDs: []int64{1}, TimeLimitMinutes: &zero}, "time_limit_minutes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeCaller{}
			_, err := New(api).Create(context.Background(), tt.in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Empty(t, api.calls)
		})
	}
}

func TestCreate_SendsNullsForAbsentFields(t *testing.T) {
	api := &fakeCaller{response: `{"id":9,"title":"Serve Drill"}`}
	task, err := New(api).Create(context.Background(), NewTask{Title: "Serve Drill", PlayerIDs: []int64{4, 5}})
	require.NoError(t, err)
	assert.Equal(t, int64(9), task.ID)

	data, err := json.Marshal(api.calls[0].body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Serve Drill","description":"","players":[4,5],"due_date":null,"time_limit_minutes":null}`, string(data))
}

func TestCreate_FormatsDueDate(t *testing.T) {
	api := &fakeCaller{response: `{}`}
	due := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	limit := 20
	_, err := New(api).Create(context.Background(), NewTask{
		Title: "x", PlayerIDs: []int64{1}, DueDate: &due, TimeLimitMinutes: &limit,
	})
	require.NoError(t, err)

	data, _ := json.Marshal(api.calls[0].body)
	assert.Contains(t, string(data), `"due_date":"2024-03-09"`)
	assert.Contains(t, string(data), `"time_limit_minutes":20`)
}

func TestMarkComplete_Paths(t *testing.T) {
	api := &fakeCaller{response: `{"completed":true}`}
	repo := New(api)

	_, err := repo.MarkComplete(context.Background(), 7, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, "/coach/tasks/7/player/10/complete/", api.calls[0].path)
	assert.Nil(t, api.calls[0].body)

	notes := "great"
	_, err = repo.MarkComplete(context.Background(), 7, 10, &notes)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"notes": "great"}, api.calls[1].body)
}

func TestErrorsPassThrough(t *testing.T) {
	apiErr := &client.APIError{Status: 404, Message: "Task not found."}
	api := &fakeCaller{err: apiErr}

	_, err := New(api).Start(context.Background(), 1)
	assert.Same(t, apiErr, err)
}

func TestCompletionFor(t *testing.T) {
	task := Task{Completions: []Completion{{Player: 1}, {Player: 2, Completed: true}}}
	require.NotNil(t, task.CompletionFor(2))
	assert.True(t, task.CompletionFor(2).Completed)
	assert.Nil(t, task.CompletionFor(3))
}
