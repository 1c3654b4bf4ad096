package api

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/taufiqulumam/task-management/internal/model"
)

func TestSeedDemoData_Idempotent(t *testing.T) {
	srv := &Server{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		db:     newTestDB(t),
	}

	if err := srv.SeedDemoData(context.Background()); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := srv.SeedDemoData(context.Background()); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	var users, projects, tasks int64
	srv.db.Model(&model.User{}).Count(&users)
	srv.db.Model(&model.Project{}).Count(&projects)
	srv.db.Model(&model.Task{}).Count(&tasks)
	if users != 4 {
		t.Fatalf("expected 4 demo users, got %d", users)
	}
	if projects != 6 {
		t.Fatalf("expected 6 demo projects, got %d", projects)
	}
	if tasks != 22 {
		t.Fatalf("expected 22 demo tasks, got %d", tasks)
	}

	// Every DONE task carries a completion time.
	var done []model.Task
	if err := srv.db.Where("status = ?", model.StatusDone).Find(&done).Error; err != nil {
		t.Fatalf("load done tasks: %v", err)
	}
	for _, task := range done {
		if task.CompletedAt == nil {
			t.Fatalf("seeded DONE task %q missing completed_at", task.Title)
		}
	}
}
