package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studyline/testflow/internal/model"
)

const testPayload = `{
	"id": "algebra-1",
	"name": "Algebra basics",
	"passing_percentage": 0.5,
	"tasks": [
		{"id": "t1", "order": 0, "text": "What is 6*7?", "answer_kind": "TEXT"},
		{"id": "t2", "order": 1, "text": "Pick a number", "answer_kind": "NUMBER", "weight": 2}
	]
}`

func TestClient_FetchTest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/knowledge/tests/algebra-1/", r.URL.Path)
		assert.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))
		w.Write([]byte(testPayload))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sekrit", time.Second)
	def, err := client.FetchTest(context.Background(), "algebra-1")
	require.NoError(t, err)

	assert.Equal(t, "Algebra basics", def.Name)
	assert.Equal(t, 0.5, def.PassingPercentage)
	require.Len(t, def.Tasks, 2)
	assert.Equal(t, model.AnswerNumber, def.Tasks[1].AnswerKind)
	require.NotNil(t, def.Tasks[1].Weight)
	assert.Equal(t, 2.0, *def.Tasks[1].Weight)
}

func TestClient_FetchTestRejectsBrokenOrdering(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"x","name":"x","tasks":[{"id":"t1","order":3,"answer_kind":"TEXT"}]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", time.Second).FetchTest(context.Background(), "x")
	assert.Error(t, err)
}

func TestClient_FetchStateDecodesBothVariants(t *testing.T) {
	t.Run("active", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/knowledge/tests/algebra-1/state", r.URL.Path)
			w.Write([]byte(`{"status":"IN_PROGRESS","last_task_id":"t1","answers":{"t1":{"value":"42"}}}`))
		}))
		defer srv.Close()

		state, err := NewClient(srv.URL, "", time.Second).FetchState(context.Background(), "algebra-1")
		require.NoError(t, err)

		active, ok := state.(*model.ActiveAttempt)
		require.True(t, ok)
		assert.Equal(t, "t1", active.LastTaskID)
		assert.Equal(t, "42", active.Answers["t1"].Value)
	})

	t.Run("completed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"COMPLETED","percentage":0.5,"passed":true,
				"answers":{"t1":{"submitted_value":"42","correct_value":"42","is_correct":true}}}`))
		}))
		defer srv.Close()

		state, err := NewClient(srv.URL, "", time.Second).FetchState(context.Background(), "algebra-1")
		require.NoError(t, err)

		completed, ok := state.(*model.CompletedAttempt)
		require.True(t, ok)
		assert.True(t, completed.Passed)
		assert.True(t, completed.Answers["t1"].IsCorrect)
	})

	t.Run("unknown status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"PAUSED"}`))
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, "", time.Second).FetchState(context.Background(), "algebra-1")
		assert.Error(t, err)
	})
}

func TestClient_SaveAnswerSendsUpsertBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/knowledge/tests/algebra-1/answer", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "t1", body["task_id"])
		assert.Equal(t, "42", body["user_answer"])

		w.Write([]byte(`{"value":"42"}`))
	}))
	defer srv.Close()

	echo, err := NewClient(srv.URL, "", time.Second).SaveAnswer(context.Background(), "algebra-1", "t1", "42")
	require.NoError(t, err)
	assert.Equal(t, "42", echo.Value)
}

func TestClient_CompleteReturnsTerminalRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/knowledge/tests/algebra-1/complete", r.URL.Path)
		w.Write([]byte(`{"status":"COMPLETED","percentage":1,"passed":true,"answers":{}}`))
	}))
	defer srv.Close()

	completed, err := NewClient(srv.URL, "", time.Second).Complete(context.Background(), "algebra-1")
	require.NoError(t, err)
	assert.True(t, completed.Passed)
	assert.Equal(t, 1.0, completed.Percentage)
}

func TestClient_CompleteRejectsActivePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"IN_PROGRESS"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", time.Second).Complete(context.Background(), "algebra-1")
	assert.Error(t, err)
}

func TestClient_LessonStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/knowledge/tests/status", r.URL.Path)
		assert.Equal(t, "lesson-9", r.URL.Query().Get("lessonId"))
		w.Write([]byte(`[{"test_id":"algebra-1","name":"Algebra basics","status":"COMPLETED","percentage":0.5}]`))
	}))
	defer srv.Close()

	rows, err := NewClient(srv.URL, "", time.Second).LessonStatus(context.Background(), "lesson-9")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.StatusCompleted, rows[0].Status)
	require.NotNil(t, rows[0].Percentage)
	assert.Equal(t, 0.5, *rows[0].Percentage)
}

func TestClient_ErrorTaxonomy(t *testing.T) {
	t.Run("404 is not found, not transient", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, "", time.Second).FetchState(context.Background(), "ghost")
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.False(t, IsTransient(err))
	})

	t.Run("500 is transient", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, "", time.Second).FetchState(context.Background(), "algebra-1")
		require.Error(t, err)
		assert.True(t, IsTransient(err))
		assert.False(t, errors.Is(err, ErrNotFound))

		var reqErr *RequestError
		require.True(t, errors.As(err, &reqErr))
		assert.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
	})

	t.Run("connection failure is transient", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // server gone before the request

		_, err := NewClient(srv.URL, "", time.Second).FetchState(context.Background(), "algebra-1")
		assert.True(t, IsTransient(err))
	})
}
