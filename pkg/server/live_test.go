package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/verdantlabs/esgtrack/pkg/dashboard"
	"github.com/verdantlabs/esgtrack/pkg/esg"
	"github.com/verdantlabs/esgtrack/pkg/store"
)

func startLiveServer(t *testing.T) (*store.Store, *Hub, *httptest.Server) {
	t.Helper()

	st := store.New()
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	h := NewHandler(st, hub, zap.NewNop(), 10<<20, false)
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)

	return st, hub, srv
}

func dialDashboard(t *testing.T, srv *httptest.Server, hub *Hub) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/dashboard/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	// Registration goes through the hub's channel; wait until it lands so a
	// broadcast fired right after cannot miss the client.
	require.Eventually(t, hub.HasClients, 2*time.Second, 10*time.Millisecond)
	return conn
}

func TestDashboardWS_BroadcastOnCreate(t *testing.T) {
	_, hub, srv := startLiveServer(t)
	conn := dialDashboard(t, srv, hub)

	var body bytes.Buffer
	require.NoError(t, json.NewEncoder(&body).Encode(createPayload()))
	resp, err := http.Post(srv.URL+"/api/metrics", "application/json", &body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var update SummaryUpdate
	require.NoError(t, json.Unmarshal(msg, &update))
	require.Equal(t, 1, update.Summary.Environmental)
	require.Equal(t, 0, update.Summary.Social)
	require.False(t, update.UpdatedAt.IsZero())
}

func TestDashboardWS_BroadcastOnDelete(t *testing.T) {
	st, hub, srv := startLiveServer(t)
	v := 1.0
	m := st.Create(esg.MetricInput{Category: "environmental", Name: "CO2", Value: &v, Unit: "t",
		Period: "2024", Source: "S", ReportedBy: "R", DateReported: "2024-01-01T00:00:00Z"})

	conn := dialDashboard(t, srv, hub)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/metrics/"+m.ID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var update SummaryUpdate
	require.NoError(t, json.Unmarshal(msg, &update))
	require.Equal(t, dashboard.Summary{}, update.Summary)
}

func TestHub_BroadcastSummaryNeverBlocks(t *testing.T) {
	// No Run loop draining the channel: every send past the buffer must be
	// dropped, not block the mutating request.
	hub := NewHub(zap.NewNop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < wsBroadcastBuffer+10; i++ {
			hub.BroadcastSummary(dashboard.Summary{Environmental: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("BroadcastSummary blocked on a full channel")
	}
}

func TestHub_RunClosesClientsOnShutdown(t *testing.T) {
	st := store.New()
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	h := NewHandler(st, hub, zap.NewNop(), 10<<20, false)
	srv := httptest.NewServer(NewRouter(h))
	defer srv.Close()

	conn := dialDashboard(t, srv, hub)

	cancel()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err, "connection is closed when the hub stops")
}
