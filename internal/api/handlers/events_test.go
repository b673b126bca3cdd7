package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/dom/task-tracker/internal/service"
	"github.com/dom/task-tracker/internal/testutil"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventMessage struct {
	Type string `json:"type"`
	Task struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		OwnerID string `json:"ownerId"`
	} `json:"task"`
}

func dialEvents(t *testing.T, ts *testutil.TestServer, token string) *ws.Conn {
	t.Helper()

	conn, resp, err := ws.DefaultDialer.Dial(ts.EventsURL(token), nil)
	require.NoError(t, err)
	resp.Body.Close()

	t.Cleanup(func() {
		conn.Close()
	})

	// Give the hub a moment to register the connection
	time.Sleep(100 * time.Millisecond)
	return conn
}

func TestEventsHandler_DeliversOwnEventsOnly(t *testing.T) {
	ts := testutil.NewTestServer(t)

	_, aliceToken := testutil.NewUserBuilder().WithUsername("alice").BuildAndAuthenticate(t, ts)
	_, bobToken := testutil.NewUserBuilder().WithUsername("bob").BuildAndAuthenticate(t, ts)

	aliceConn := dialEvents(t, ts, aliceToken)
	bobConn := dialEvents(t, ts, bobToken)

	resp := doRequest(t, http.MethodPost, ts.APIURL("/tasks"), aliceToken, map[string]string{
		"title": "Watched task",
	})
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	var created taskResponse
	testutil.AssertJSONResponse(t, resp, &created)
	resp.Body.Close()

	// Alice receives her own event
	aliceConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := aliceConn.ReadMessage()
	require.NoError(t, err)

	var event eventMessage
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, service.EventTaskCreated, event.Type)
	assert.Equal(t, created.ID, event.Task.ID)
	assert.Equal(t, "Watched task", event.Task.Title)

	// Bob's connection stays silent
	bobConn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	_, _, err = bobConn.ReadMessage()
	assert.Error(t, err)
}

func TestEventsHandler_StatusAndDeleteEvents(t *testing.T) {
	ts := testutil.NewTestServer(t)

	_, token := testutil.NewUserBuilder().WithUsername("owner").BuildAndAuthenticate(t, ts)
	conn := dialEvents(t, ts, token)

	resp := doRequest(t, http.MethodPost, ts.APIURL("/tasks"), token, map[string]string{
		"title": "Lifecycle task",
	})
	testutil.AssertStatusCode(t, resp, http.StatusCreated)
	var created taskResponse
	testutil.AssertJSONResponse(t, resp, &created)
	resp.Body.Close()

	resp = doRequest(t, http.MethodPatch, ts.APIURL("/tasks/"+created.ID+"/status"), token, map[string]string{
		"status": "DONE",
	})
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = doRequest(t, http.MethodDelete, ts.APIURL("/tasks/"+created.ID), token, nil)
	testutil.AssertStatusCode(t, resp, http.StatusNoContent)
	resp.Body.Close()

	wantTypes := []string{
		service.EventTaskCreated,
		service.EventTaskStatusUpdated,
		service.EventTaskDeleted,
	}
	for _, want := range wantTypes {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)

		var event eventMessage
		require.NoError(t, json.Unmarshal(payload, &event))
		assert.Equal(t, want, event.Type)
		assert.Equal(t, created.ID, event.Task.ID)
	}
}

func TestEventsHandler_RejectsBadTokens(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "garbage token", token: "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := ws.DefaultDialer.Dial(ts.EventsURL(tt.token), nil)
			require.Error(t, err)
			if resp != nil {
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
				resp.Body.Close()
			}
		})
	}
}
