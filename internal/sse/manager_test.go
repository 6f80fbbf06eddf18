package sse

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfkeep/shelfkeep/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(cancel)
	return m
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case e := <-c.EventChan:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestManager_BroadcastsToAllClients(t *testing.T) {
	m := startManager(t)

	a, err := m.Connect()
	require.NoError(t, err)
	b, err := m.Connect()
	require.NoError(t, err)
	assert.Equal(t, 2, m.ClientCount())
	assert.True(t, strings.HasPrefix(a.ID, "sse-"))

	m.Emit(NewReorderedEvent([]int64{3, 1, 2}))

	for _, c := range []*Client{a, b} {
		e := receive(t, c)
		assert.Equal(t, EventLibraryReordered, e.Type)
		assert.Equal(t, []int64{3, 1, 2}, e.Data.(ReorderedEventData).Order)
	}
}

func TestManager_NotifySendsNotice(t *testing.T) {
	m := startManager(t)
	c, err := m.Connect()
	require.NoError(t, err)

	m.Notify("Cover could not be saved", true)

	e := receive(t, c)
	assert.Equal(t, EventNotice, e.Type)
	assert.Equal(t, NoticeEventData{Message: "Cover could not be saved", IsError: true}, e.Data)
}

func TestManager_Disconnect(t *testing.T) {
	m := startManager(t)
	c, err := m.Connect()
	require.NoError(t, err)

	m.Disconnect(c.ID)
	assert.Equal(t, 0, m.ClientCount())

	_, open := <-c.Done
	assert.False(t, open)

	// Unknown ids are ignored.
	m.Disconnect("sse-missing")
}

func TestManager_ShutdownDrainsAndClosesClients(t *testing.T) {
	m := NewManager(testLogger())
	go m.Start(context.Background())

	c, err := m.Connect()
	require.NoError(t, err)

	m.Emit(NewCelebrateEvent(7))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))

	e, ok := <-c.EventChan
	require.True(t, ok)
	assert.Equal(t, EventCelebrate, e.Type)

	_, ok = <-c.EventChan
	assert.False(t, ok)

	// Emitting after shutdown is a silent no-op.
	assert.NotPanics(t, func() { m.Emit(NewHeartbeatEvent()) })
	assert.NoError(t, m.Shutdown(ctx))
}

func TestHandler_StreamsEvents(t *testing.T) {
	m := startManager(t)
	srv := httptest.NewServer(NewHandler(m, testLogger()))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	// Skip the data line and blank separator.
	_, _ = reader.ReadString('\n')
	_, _ = reader.ReadString('\n')

	require.Eventually(t, func() bool { return m.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	m.Emit(NewGoalsUpdatedEvent(domain.Goals{Yearly: 10, Variety: 2, Lifetime: 50}))

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: goals.updated\n", line)
}

func TestHandler_SendsGreetingAfterConnected(t *testing.T) {
	m := startManager(t)
	m.SetGreeting(func() string { return "Welcome back! You have 3 books" })
	srv := httptest.NewServer(NewHandler(m, testLogger()))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	frame := func() (string, string) {
		t.Helper()
		event, err := reader.ReadString('\n')
		require.NoError(t, err)
		data, err := reader.ReadString('\n')
		require.NoError(t, err)
		_, _ = reader.ReadString('\n')
		return event, data
	}

	event, _ := frame()
	assert.Equal(t, "event: connected\n", event)

	event, data := frame()
	assert.Equal(t, "event: notice\n", event)
	assert.Contains(t, data, `"message":"Welcome back! You have 3 books"`)
	assert.Contains(t, data, `"is_error":false`)
}

func TestManager_EmptyGreeting(t *testing.T) {
	m := NewManager(testLogger())
	assert.Empty(t, m.Greeting())

	m.SetGreeting(func() string { return "" })
	assert.Empty(t, m.Greeting())
}

func TestHandler_RejectsNonGet(t *testing.T) {
	m := NewManager(testLogger())
	rec := httptest.NewRecorder()
	NewHandler(m, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/events", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
