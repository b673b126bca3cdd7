package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dom/task-tracker/internal/domain"
	"github.com/dom/task-tracker/internal/service"
	"github.com/dom/task-tracker/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taskResponse struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"ownerId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Labels      []string `json:"labels"`
}

func doRequest(t *testing.T, method, url, token string, payload interface{}) *http.Response {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestTaskHandler_Create(t *testing.T) {
	ts := testutil.NewTestServer(t)

	_, token := testutil.NewUserBuilder().WithUsername("creator").BuildAndAuthenticate(t, ts)

	t.Run("creates an OPEN task owned by the caller", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, ts.APIURL("/tasks"), token, map[string]string{
			"title":       "Write handler tests",
			"description": "cover the task endpoints",
		})
		defer resp.Body.Close()

		testutil.AssertStatusCode(t, resp, http.StatusCreated)

		var task taskResponse
		testutil.AssertJSONResponse(t, resp, &task)
		assert.Equal(t, "Write handler tests", task.Title)
		assert.Equal(t, string(domain.TaskStatusOpen), task.Status)
	})

	t.Run("client-supplied status and owner are ignored", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, ts.APIURL("/tasks"), token, map[string]string{
			"title":   "Sneaky task",
			"status":  "DONE",
			"ownerId": uuid.New().String(),
		})
		defer resp.Body.Close()

		testutil.AssertStatusCode(t, resp, http.StatusCreated)

		var task taskResponse
		testutil.AssertJSONResponse(t, resp, &task)
		assert.Equal(t, string(domain.TaskStatusOpen), task.Status)

		var stored domain.Task
		require.NoError(t, ts.DB.DB.First(&stored, "id = ?", task.ID).Error)
		assert.Equal(t, domain.TaskStatusOpen, stored.Status)
	})

	t.Run("labels round-trip", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, ts.APIURL("/tasks"), token, map[string]interface{}{
			"title":  "Pay invoice",
			"labels": []string{"finance", "urgent"},
		})
		defer resp.Body.Close()

		testutil.AssertStatusCode(t, resp, http.StatusCreated)

		var task taskResponse
		testutil.AssertJSONResponse(t, resp, &task)
		assert.Equal(t, []string{"finance", "urgent"}, task.Labels)
	})

	t.Run("omitted labels default to an empty list", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, ts.APIURL("/tasks"), token, map[string]string{
			"title": "No labels",
		})
		defer resp.Body.Close()

		testutil.AssertStatusCode(t, resp, http.StatusCreated)

		var task taskResponse
		testutil.AssertJSONResponse(t, resp, &task)
		assert.Equal(t, []string{}, task.Labels)
	})

	t.Run("rejects missing title", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, ts.APIURL("/tasks"), token, map[string]string{
			"description": "no title",
		})
		defer resp.Body.Close()

		testutil.AssertStatusCode(t, resp, http.StatusBadRequest)
	})

	t.Run("rejects missing token", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, ts.APIURL("/tasks"), "", map[string]string{
			"title": "No auth",
		})
		defer resp.Body.Close()

		testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)
	})
}

func TestTaskHandler_List(t *testing.T) {
	ts := testutil.NewTestServer(t)

	alice, aliceToken := testutil.NewUserBuilder().WithUsername("alice").BuildAndAuthenticate(t, ts)
	bob, _ := testutil.NewUserBuilder().WithUsername("bob").BuildAndAuthenticate(t, ts)

	testutil.NewTaskBuilder().WithOwner(alice).
		WithTitle("Buy groceries").WithDescription("milk and eggs").
		WithStatus(domain.TaskStatusOpen).WithLabels("errand").Build(t, ts.DB.DB)
	testutil.NewTaskBuilder().WithOwner(alice).
		WithTitle("Ship release").WithDescription("cut the tag").
		WithStatus(domain.TaskStatusDone).Build(t, ts.DB.DB)
	testutil.NewTaskBuilder().WithOwner(bob).
		WithTitle("Bob groceries").WithStatus(domain.TaskStatusOpen).Build(t, ts.DB.DB)

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		wantTitles     []string
	}{
		{
			name:           "all own tasks",
			query:          "",
			expectedStatus: http.StatusOK,
			wantTitles:     []string{"Buy groceries", "Ship release"},
		},
		{
			name:           "status filter",
			query:          "?status=OPEN",
			expectedStatus: http.StatusOK,
			wantTitles:     []string{"Buy groceries"},
		},
		{
			name:           "case-insensitive search",
			query:          "?search=MILK",
			expectedStatus: http.StatusOK,
			wantTitles:     []string{"Buy groceries"},
		},
		{
			name:           "no matches is an empty list",
			query:          "?search=nothing-here",
			expectedStatus: http.StatusOK,
			wantTitles:     []string{},
		},
		{
			name:           "invalid status filter",
			query:          "?status=WAITING",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodGet, ts.APIURL("/tasks")+tt.query, aliceToken, nil)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var tasks []taskResponse
			testutil.AssertJSONResponse(t, resp, &tasks)

			titles := make([]string, 0, len(tasks))
			for _, task := range tasks {
				titles = append(titles, task.Title)
			}
			assert.ElementsMatch(t, tt.wantTitles, titles)
		})
	}
}

func TestTaskHandler_Get(t *testing.T) {
	ts := testutil.NewTestServer(t)

	alice, aliceToken := testutil.NewUserBuilder().WithUsername("alice").BuildAndAuthenticate(t, ts)
	_, bobToken := testutil.NewUserBuilder().WithUsername("bob").BuildAndAuthenticate(t, ts)

	task := testutil.NewTaskBuilder().WithOwner(alice).WithTitle("Alice task").Build(t, ts.DB.DB)

	t.Run("owner fetches the task", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, ts.APIURL("/tasks/"+task.ID.String()), aliceToken, nil)
		defer resp.Body.Close()

		testutil.AssertStatusCode(t, resp, http.StatusOK)

		var got taskResponse
		testutil.AssertJSONResponse(t, resp, &got)
		assert.Equal(t, task.ID.String(), got.ID)
		assert.Equal(t, alice.ID.String(), got.OwnerID)
	})

	t.Run("another user's token gets NotFound, not Forbidden", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, ts.APIURL("/tasks/"+task.ID.String()), bobToken, nil)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "Task not found")
	})

	t.Run("nonexistent id", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, ts.APIURL("/tasks/"+uuid.New().String()), aliceToken, nil)
		defer resp.Body.Close()

		testutil.AssertStatusCode(t, resp, http.StatusNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, ts.APIURL("/tasks/not-a-uuid"), aliceToken, nil)
		defer resp.Body.Close()

		testutil.AssertStatusCode(t, resp, http.StatusNotFound)
	})
}

func TestTaskHandler_UpdateStatus(t *testing.T) {
	ts := testutil.NewTestServer(t)

	alice, aliceToken := testutil.NewUserBuilder().WithUsername("alice").BuildAndAuthenticate(t, ts)
	_, bobToken := testutil.NewUserBuilder().WithUsername("bob").BuildAndAuthenticate(t, ts)

	task := testutil.NewTaskBuilder().WithOwner(alice).Build(t, ts.DB.DB)
	statusURL := ts.APIURL(fmt.Sprintf("/tasks/%s/status", task.ID))

	t.Run("owner updates status", func(t *testing.T) {
		resp := doRequest(t, http.MethodPatch, statusURL, aliceToken, map[string]string{
			"status": "IN_PROGRESS",
		})
		defer resp.Body.Close()

		testutil.AssertStatusCode(t, resp, http.StatusOK)

		var got taskResponse
		testutil.AssertJSONResponse(t, resp, &got)
		assert.Equal(t, string(domain.TaskStatusInProgress), got.Status)
	})

	t.Run("invalid status", func(t *testing.T) {
		resp := doRequest(t, http.MethodPatch, statusURL, aliceToken, map[string]string{
			"status": "WAITING",
		})
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "Invalid status")
	})

	t.Run("another user's token gets NotFound", func(t *testing.T) {
		resp := doRequest(t, http.MethodPatch, statusURL, bobToken, map[string]string{
			"status": "DONE",
		})
		defer resp.Body.Close()

		testutil.AssertStatusCode(t, resp, http.StatusNotFound)

		var stored domain.Task
		require.NoError(t, ts.DB.DB.First(&stored, "id = ?", task.ID).Error)
		assert.Equal(t, domain.TaskStatusInProgress, stored.Status)
	})
}

func TestTaskHandler_Delete(t *testing.T) {
	ts := testutil.NewTestServer(t)

	alice, aliceToken := testutil.NewUserBuilder().WithUsername("alice").BuildAndAuthenticate(t, ts)
	_, bobToken := testutil.NewUserBuilder().WithUsername("bob").BuildAndAuthenticate(t, ts)

	task := testutil.NewTaskBuilder().WithOwner(alice).Build(t, ts.DB.DB)
	taskURL := ts.APIURL("/tasks/" + task.ID.String())

	t.Run("another user's delete is NotFound and leaves the task", func(t *testing.T) {
		resp := doRequest(t, http.MethodDelete, taskURL, bobToken, nil)
		defer resp.Body.Close()

		testutil.AssertStatusCode(t, resp, http.StatusNotFound)

		var count int64
		ts.DB.DB.Model(&domain.Task{}).Where("id = ?", task.ID).Count(&count)
		assert.EqualValues(t, 1, count)
	})

	t.Run("owner deletes the task", func(t *testing.T) {
		resp := doRequest(t, http.MethodDelete, taskURL, aliceToken, nil)
		defer resp.Body.Close()

		testutil.AssertStatusCode(t, resp, http.StatusNoContent)

		var count int64
		ts.DB.DB.Model(&domain.Task{}).Where("id = ?", task.ID).Count(&count)
		assert.EqualValues(t, 0, count)
	})

	t.Run("deleting again is NotFound", func(t *testing.T) {
		resp := doRequest(t, http.MethodDelete, taskURL, aliceToken, nil)
		defer resp.Body.Close()

		testutil.AssertStatusCode(t, resp, http.StatusNotFound)
	})
}

func TestTaskHandler_RejectsBadTokens(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, token := testutil.NewUserBuilder().WithUsername("tokenuser").BuildAndAuthenticate(t, ts)
	task := testutil.NewTaskBuilder().WithOwner(user).Build(t, ts.DB.DB)

	expiredManager := service.NewTokenManager(ts.Config.JWTSecret, -time.Minute)
	expiredToken, err := expiredManager.Issue(user)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "garbage token", token: "garbage"},
		{name: "tampered token", token: token[:len(token)-2] + "xx"},
		{name: "expired token", token: expiredToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodGet, ts.APIURL("/tasks/"+task.ID.String()), tt.token, nil)
			defer resp.Body.Close()

			testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)
		})
	}
}
