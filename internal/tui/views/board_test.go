package views

import (
	"errors"
	"testing"
	"time"

	"github.com/taufiqulumam/task-management/internal/model"
	"github.com/taufiqulumam/task-management/internal/tui/client"
)

func boardFixture() *BoardView {
	v := NewBoardView(nil)
	v.SetTasks([]client.Task{
		{ID: 1, Title: "Design mockup", Status: model.StatusTodo, Priority: model.PriorityHigh},
		{ID: 2, Title: "Write docs", Status: model.StatusTodo, Priority: model.PriorityLow},
		{ID: 3, Title: "Fix login bug", Status: model.StatusInProgress, Priority: model.PriorityUrgent},
		{ID: 4, Title: "Release v2", Status: model.StatusDone, Priority: model.PriorityHigh},
	})
	return v
}

func TestBoard_ColumnsGroupByStatus(t *testing.T) {
	v := boardFixture()

	if got := len(v.columnTasks(model.StatusTodo)); got != 2 {
		t.Fatalf("expected 2 TODO tasks, got %d", got)
	}
	if got := len(v.columnTasks(model.StatusInProgress)); got != 1 {
		t.Fatalf("expected 1 IN_PROGRESS task, got %d", got)
	}
	if got := len(v.columnTasks(model.StatusCancelled)); got != 0 {
		t.Fatalf("expected empty CANCELLED column, got %d", got)
	}
}

func TestBoard_MoveSelectedIsOptimistic(t *testing.T) {
	v := boardFixture()
	v.column = 0 // the TODO column
	v.cursor = 0 // task 1

	v.moveSelected(1)

	// The local copy changes before any server confirmation arrives.
	if got := v.tasks[0].Status; got != model.StatusInProgress {
		t.Fatalf("expected optimistic status IN_PROGRESS, got %s", got)
	}
	// The cursor follows the card into the target column.
	if v.column != 1 {
		t.Fatalf("expected focus on target column, got %d", v.column)
	}
	sel := v.selectedTask()
	if sel == nil || sel.ID != 1 {
		t.Fatalf("expected moved task selected, got %+v", sel)
	}
	if v.pendingSyncs != 1 {
		t.Fatalf("expected one pending sync, got %d", v.pendingSyncs)
	}
}

func TestBoard_MoveAtEdgeIsNoop(t *testing.T) {
	v := boardFixture()
	v.column = 0
	v.cursor = 0

	if cmd := v.moveSelected(-1); cmd != nil {
		t.Fatalf("moving left from the first column must be a no-op")
	}
	if v.tasks[0].Status != model.StatusTodo {
		t.Fatalf("no-op move must not mutate the task")
	}
}

func TestBoard_SyncFailedRefetches(t *testing.T) {
	v := boardFixture()
	v.column = 0
	v.cursor = 0
	v.moveSelected(1)

	_, cmd := v.Update(SyncFailed{Err: errors.New("server returned 403: Forbidden")})
	if cmd == nil {
		t.Fatalf("a failed sync must trigger a refetch")
	}
	if v.pendingSyncs != 0 {
		t.Fatalf("expected pending syncs drained, got %d", v.pendingSyncs)
	}
	if v.errMsg == "" {
		t.Fatalf("expected the failure surfaced to the user")
	}

	// The refetched list wins over the optimistic state.
	v.Update(TasksLoaded{Tasks: []client.Task{
		{ID: 1, Title: "Design mockup", Status: model.StatusTodo, Priority: model.PriorityHigh},
	}})
	if v.tasks[0].Status != model.StatusTodo {
		t.Fatalf("expected server state restored, got %s", v.tasks[0].Status)
	}
}

func TestBoard_TaskSyncedAdoptsServerCopy(t *testing.T) {
	v := boardFixture()
	v.column = 0
	v.cursor = 0
	v.moveSelected(1)

	completed := time.Now()
	v.Update(TaskSynced{Task: client.Task{
		ID: 1, Title: "Design mockup", Status: model.StatusInProgress,
		Priority: model.PriorityHigh, CompletedAt: &completed,
	}})

	if v.pendingSyncs != 0 {
		t.Fatalf("expected pending syncs drained, got %d", v.pendingSyncs)
	}
	if v.tasks[0].CompletedAt == nil {
		t.Fatalf("expected server-derived fields adopted")
	}
}

func TestBoard_PriorityFilterIsLocal(t *testing.T) {
	v := boardFixture()

	v.cyclePriorityFilter() // LOW
	if got := len(v.columnTasks(model.StatusTodo)); got != 1 {
		t.Fatalf("expected 1 LOW task in TODO, got %d", got)
	}

	// Cycling through all priorities returns to unfiltered.
	v.cyclePriorityFilter() // MEDIUM
	v.cyclePriorityFilter() // HIGH
	v.cyclePriorityFilter() // URGENT
	v.cyclePriorityFilter() // all
	if v.priorityFilter != "" {
		t.Fatalf("expected filter reset, got %q", v.priorityFilter)
	}
	if got := len(v.columnTasks(model.StatusTodo)); got != 2 {
		t.Fatalf("expected full column after reset, got %d", got)
	}

	// The underlying list is untouched by filtering.
	if len(v.tasks) != 4 {
		t.Fatalf("filtering must not drop tasks, got %d", len(v.tasks))
	}
}

func TestListView_TitleFilter(t *testing.T) {
	v := NewListView(nil)
	v.SetTasks([]client.Task{
		{ID: 1, Title: "Design mockup", Status: model.StatusTodo, Priority: model.PriorityHigh},
		{ID: 2, Title: "Fix login bug", Status: model.StatusInProgress, Priority: model.PriorityUrgent},
	})

	v.filter.SetValue("login")
	visible := v.visible()
	if len(visible) != 1 || visible[0].ID != 2 {
		t.Fatalf("expected only the matching task, got %+v", visible)
	}

	v.filter.SetValue("")
	if len(v.visible()) != 2 {
		t.Fatalf("expected full list without filter")
	}
}

func TestCalendar_GroupsByDueDate(t *testing.T) {
	v := NewCalendarView(nil)
	day := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	other := day.AddDate(0, 0, 1)
	v.SetTasks([]client.Task{
		{ID: 1, Title: "Due today", DueDate: &day, Status: model.StatusTodo},
		{ID: 2, Title: "Due tomorrow", DueDate: &other, Status: model.StatusTodo},
		{ID: 3, Title: "No due date", Status: model.StatusTodo},
	})

	on := v.tasksOn(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	if len(on) != 1 || on[0].ID != 1 {
		t.Fatalf("expected exactly the task due that day, got %+v", on)
	}
}
