package stream_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/effluent-watch/internal/stream"
	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

var testNow = time.Date(2024, 5, 1, 9, 30, 15, 0, time.UTC)

type rawMessage struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

func startHub(t *testing.T) (*stream.Hub, *httptest.Server) {
	t.Helper()

	hub := stream.NewHub(
		stream.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		stream.WithClock(func() time.Time { return testNow }),
	)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, hub *stream.Hub, srv *httptest.Server, want int) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.Clients() == want }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) rawMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg rawMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_PublishStatus(t *testing.T) {
	t.Parallel()

	hub, srv := startHub(t)
	conn := dial(t, hub, srv, 1)

	hub.PublishStatus(&domain.StatusReport{EvaluatedAt: testNow})

	msg := readMessage(t, conn)
	assert.Equal(t, stream.TypeStatusUpdate, msg.Type)
	assert.True(t, testNow.Equal(msg.Timestamp))
	assert.Contains(t, string(msg.Data), "evaluated_at")
}

func TestHub_PublishAlerts(t *testing.T) {
	t.Parallel()

	hub, srv := startHub(t)
	conn := dial(t, hub, srv, 1)

	raised := []domain.AlertRecord{{ID: "a-1", Category: domain.CategoryEffluent, Message: "TOC 기준 초과"}}
	hub.PublishAlerts(nil, raised)
	hub.PublishAlerts(raised, raised)

	msg := readMessage(t, conn)
	assert.Equal(t, stream.TypeAlert, msg.Type)

	var payload stream.AlertPayload
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	require.Len(t, payload.Raised, 1)
	assert.Equal(t, "a-1", payload.Raised[0].ID)
	assert.Len(t, payload.Feed, 1)
}

func TestHub_ReplaysLastStatusOnConnect(t *testing.T) {
	t.Parallel()

	hub, srv := startHub(t)
	hub.PublishStatus(&domain.StatusReport{EvaluatedAt: testNow})

	// Let Run consume the broadcast before anyone is listening.
	time.Sleep(50 * time.Millisecond)

	conn := dial(t, hub, srv, 1)
	msg := readMessage(t, conn)
	assert.Equal(t, stream.TypeStatusUpdate, msg.Type)
}

func TestHub_ClientDisconnect(t *testing.T) {
	t.Parallel()

	hub, srv := startHub(t)
	conn := dial(t, hub, srv, 1)
	_ = dial(t, hub, srv, 2)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_PublishWithoutClients(t *testing.T) {
	t.Parallel()

	hub := stream.NewHub(stream.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	// Run is not started; publishing must still return.
	for range 100 {
		hub.PublishStatus(&domain.StatusReport{})
	}
	hub.PublishStatus(nil)
	assert.Zero(t, hub.Clients())
}
