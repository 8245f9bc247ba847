package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/s3arena/internal/model"
	"github.com/mcoot/s3arena/internal/testutil"
)

func TestFormatSSEMessage(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		data      string
		expected  string
	}{
		{
			name:      "single line data",
			eventName: "task-started",
			data:      `{"task_id":1}`,
			expected:  "event: task-started\ndata: {\"task_id\":1}\n\n",
		},
		{
			name:      "multi-line data",
			eventName: "note",
			data:      "a\nb",
			expected:  "event: note\ndata: a\ndata: b\n\n",
		},
		{
			name:      "empty data",
			eventName: "ping",
			data:      "",
			expected:  "event: ping\ndata: \n\n",
		},
		{
			name:      "data with carriage returns",
			eventName: "test",
			data:      "line1\r\nline2",
			expected:  "event: test\ndata: line1\ndata: line2\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(formatSSEMessage(tt.eventName, tt.data)))
		})
	}
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount() == n }, time.Second, 5*time.Millisecond)
}

func TestHubBroadcastReachesClient(t *testing.T) {
	hub := NewHub(1, testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient(hub, 1)
	require.True(t, hub.Register(client))
	waitForClients(t, hub, 1)

	hub.BroadcastEvent("task-created", "x")

	select {
	case msg := <-client.send:
		assert.Equal(t, "event: task-created\ndata: x\n\n", string(msg))
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}

	hub.Unregister(client)
	waitForClients(t, hub, 0)
}

func TestHubRegisterAfterCloseFails(t *testing.T) {
	hub := NewHub(1, testutil.NopLogger())
	go hub.Run()
	hub.Close()
	hub.Close() // idempotent

	assert.False(t, hub.Register(NewClient(hub, 1)))
}

func TestHubManagerCleanup(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	defer m.Close()

	a := m.GetOrCreateHub(1)
	assert.Same(t, a, m.GetOrCreateHub(1))
	assert.Nil(t, m.GetHub(2))

	m.CleanupEmptyHubs()
	assert.Nil(t, m.GetHub(1))
}

func TestHubManagerConnectReplacesClosedHub(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	defer m.Close()

	// A hub closed by cleanup after another request looked it up
	stale := NewHub(1, testutil.NopLogger())
	go stale.Run()
	stale.Close()
	m.mu.Lock()
	m.hubs[1] = stale
	m.mu.Unlock()

	hub, client, ok := m.Connect(1)
	require.True(t, ok)
	assert.NotSame(t, stale, hub)
	assert.Same(t, hub, m.GetHub(1))
	waitForClients(t, hub, 1)

	hub.BroadcastEvent("task-started", "x")
	select {
	case msg := <-client.send:
		assert.Equal(t, "event: task-started\ndata: x\n\n", string(msg))
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
}

func TestHubManagerConnectAfterCleanup(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	defer m.Close()

	first := m.GetOrCreateHub(1)
	m.CleanupEmptyHubs()
	assert.False(t, first.Register(NewClient(first, 1)))

	hub, _, ok := m.Connect(1)
	require.True(t, ok)
	assert.NotSame(t, first, hub)
	waitForClients(t, hub, 1)
}

func TestPublisherSendsToRecipientsOnce(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	defer m.Close()
	pub := NewPublisher(m, testutil.NopLogger())

	hub := m.GetOrCreateHub(7)
	client := NewClient(hub, 7)
	require.True(t, hub.Register(client))
	waitForClients(t, hub, 1)

	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	pub.Publish(context.Background(), model.TaskEvent{
		Type:       model.EventTaskStarted,
		Timestamp:  ts,
		TaskID:     3,
		PlayerID:   7,
		Recipients: []model.UserID{7, 7, 99},
	})

	select {
	case msg := <-client.send:
		lines := strings.Split(string(msg), "\n")
		require.GreaterOrEqual(t, len(lines), 2)
		assert.Equal(t, "event: task-started", lines[0])
		var p Payload
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[1], "data: ")), &p))
		assert.Equal(t, model.TaskID(3), p.TaskID)
		assert.Equal(t, model.UserID(7), p.PlayerID)
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}

	select {
	case <-client.send:
		t.Fatal("duplicate recipient received event twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestServeSSEStreamsEvents(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	defer m.Close()
	hub := m.GetOrCreateHub(1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeSSE(w, r, m, 1)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	waitForClients(t, hub, 1)
	hub.BroadcastEvent("task-completed", "done")

	buf := make([]byte, 0, 256)
	tmp := make([]byte, 256)
	deadline := time.Now().Add(time.Second)
	for !strings.Contains(string(buf), "task-completed") && time.Now().Before(deadline) {
		n, err := resp.Body.Read(tmp)
		buf = append(buf, tmp[:n]...)
		if err != nil {
			break
		}
	}
	assert.Contains(t, string(buf), "event: connected")
	assert.Contains(t, string(buf), "event: task-completed\ndata: done\n\n")
}
