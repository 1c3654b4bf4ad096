package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/taufiqulumam/task-management/internal/model"
)

func TestClient_CarriesSessionCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "auth_token", Value: "tok123", Path: "/"})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user":{"id":1,"name":"Alice","email":"alice@example.com"}}`))
	})
	mux.HandleFunc("/tasks", func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("auth_token")
		if err != nil || ck.Value != "tok123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tasks":[{"id":7,"title":"First","status":"TODO","priority":"MEDIUM"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	user, err := c.Login(context.Background(), "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Name != "Alice" {
		t.Fatalf("unexpected user: %+v", user)
	}

	tasks, err := c.ListTasks(context.Background(), TaskFilter{})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != 7 {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
}

func TestClient_DecodesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"Forbidden"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = c.GetTask(context.Background(), 1)
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusForbidden || apiErr.Message != "Forbidden" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestClient_ListTasksFilterQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tasks":[]}`))
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	_, err := c.ListTasks(context.Background(), TaskFilter{Status: model.StatusDone, ProjectID: 3})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if gotQuery != "project_id=3&status=DONE" {
		t.Fatalf("unexpected query: %q", gotQuery)
	}
}

func TestTaskUpdate_Payload(t *testing.T) {
	status := model.StatusDone
	update := TaskUpdate{Status: &status, ClearDueDate: true}

	payload := update.payload()
	if payload["status"] != model.StatusDone {
		t.Fatalf("expected status in payload, got %v", payload)
	}
	v, present := payload["due_date"]
	if !present || v != nil {
		t.Fatalf("expected explicit null due_date, got %v (present=%v)", v, present)
	}
	if _, present := payload["title"]; present {
		t.Fatalf("untouched fields must be absent from the payload")
	}

	// The wire form keeps the null.
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if string(decoded["due_date"]) != "null" {
		t.Fatalf("expected due_date encoded as null, got %s", decoded["due_date"])
	}
}
