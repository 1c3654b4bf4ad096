package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/taufiqulumam/task-management/internal/model"
)

func newTaskWithOwner(t *testing.T, env *testEnv, owner model.User) model.Task {
	t.Helper()
	task := model.Task{Title: "Discussion host", Status: model.StatusTodo, Priority: model.PriorityMedium, CreatedByID: owner.ID}
	if err := env.srv.db.Create(&task).Error; err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func TestCreateAndListComments(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "Alice", "alice@test.local")
	bob := env.createUser(t, "Bob", "bob@test.local")
	task := newTaskWithOwner(t, env, alice)

	// Any authenticated user may comment, not just the task editor.
	env.as(bob.ID)
	w := env.do(t, http.MethodPost, fmt.Sprintf("/tasks/%d/comments", task.ID), map[string]interface{}{"content": "Looks good"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	comment := decodeBody(t, w)["comment"].(map[string]interface{})
	if uint(comment["author_id"].(float64)) != bob.ID {
		t.Fatalf("expected author_id %d, got %v", bob.ID, comment["author_id"])
	}

	w = env.do(t, http.MethodGet, fmt.Sprintf("/tasks/%d/comments", task.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	comments := decodeBody(t, w)["comments"].([]interface{})
	if len(comments) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(comments))
	}
}

func TestCreateComment_EmptyContentRejected(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "Alice", "alice@test.local")
	task := newTaskWithOwner(t, env, alice)
	env.as(alice.ID)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/tasks/%d/comments", task.ID), map[string]interface{}{"content": ""})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestComments_UnknownTask(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "Alice", "alice@test.local")
	env.as(alice.ID)

	w := env.do(t, http.MethodGet, "/tasks/9999/comments", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 listing comments on unknown task, got %d", w.Code)
	}
	w = env.do(t, http.MethodPost, "/tasks/9999/comments", map[string]interface{}{"content": "hello"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 commenting on unknown task, got %d", w.Code)
	}
}

func TestDeleteComment_AuthorOnly(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "Alice", "alice@test.local")
	bob := env.createUser(t, "Bob", "bob@test.local")
	task := newTaskWithOwner(t, env, alice)

	comment := model.Comment{Content: "mine", TaskID: task.ID, AuthorID: alice.ID}
	if err := env.srv.db.Create(&comment).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}

	// Non-author is rejected and the comment remains.
	env.as(bob.ID)
	w := env.do(t, http.MethodDelete, fmt.Sprintf("/comments/%d", comment.ID), nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-author, got %d: %s", w.Code, w.Body.String())
	}
	var n int64
	if err := env.srv.db.Model(&model.Comment{}).Where("id = ?", comment.ID).Count(&n).Error; err != nil {
		t.Fatalf("count comments: %v", err)
	}
	if n != 1 {
		t.Fatalf("rejected delete must not remove the comment")
	}

	// The author may delete.
	env.as(alice.ID)
	w = env.do(t, http.MethodDelete, fmt.Sprintf("/comments/%d", comment.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for author, got %d: %s", w.Code, w.Body.String())
	}
	if err := env.srv.db.Model(&model.Comment{}).Where("id = ?", comment.ID).Count(&n).Error; err != nil {
		t.Fatalf("count comments: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected comment removed")
	}
}

func TestListUsers_SortedByName(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "Charlie", "charlie@test.local")
	alice := env.createUser(t, "Alice", "alice@test.local")
	env.createUser(t, "Bob", "bob@test.local")
	env.as(alice.ID)

	w := env.do(t, http.MethodGet, "/users", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	users := decodeBody(t, w)["users"].([]interface{})
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}
	first := users[0].(map[string]interface{})
	if first["name"] != "Alice" {
		t.Fatalf("expected users sorted by name, first=%v", first["name"])
	}
	if _, leaked := first["password"]; leaked {
		t.Fatalf("password hash must never be serialized")
	}
}

func TestGetMe(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "Alice", "alice@test.local")
	env.as(alice.ID)

	w := env.do(t, http.MethodGet, "/users/me", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	user := decodeBody(t, w)["user"].(map[string]interface{})
	if user["email"] != "alice@test.local" {
		t.Fatalf("expected own profile, got %v", user["email"])
	}
}
