package taskboard

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Iron-Ham/hive/internal/errs"
	"github.com/Iron-Ham/hive/internal/event"
)

func seedBoard(t *testing.T, coord *Coordinator, tasks ...*Task) {
	t.Helper()
	for _, task := range tasks {
		if err := coord.Add(task); err != nil {
			t.Fatalf("Add(%s) error = %v", task.ID, err)
		}
	}
}

func TestClaimPendingTask(t *testing.T) {
	coord := NewCoordinator(NewMemStore())
	seedBoard(t, coord, &Task{ID: "task-1", Title: "build"})

	task, err := coord.Claim("task-1", "agent_1")
	if err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if task.Status != StatusInProgress {
		t.Errorf("Status = %q, want %q", task.Status, StatusInProgress)
	}
	if task.AssignedAgent != "agent_1" {
		t.Errorf("AssignedAgent = %q, want agent_1", task.AssignedAgent)
	}
	if task.ClaimedAt == 0 {
		t.Error("ClaimedAt = 0, want claim timestamp")
	}
}

func TestClaimUnknownTask(t *testing.T) {
	coord := NewCoordinator(NewMemStore())

	_, err := coord.Claim("nope", "agent_1")
	if !errs.IsNotFound(err) {
		t.Errorf("Claim() error = %v, want NotFoundError", err)
	}
}

func TestClaimNonPendingTaskConflicts(t *testing.T) {
	coord := NewCoordinator(NewMemStore())
	seedBoard(t, coord, &Task{ID: "task-1", Title: "build"})

	if _, err := coord.Claim("task-1", "agent_1"); err != nil {
		t.Fatalf("first Claim() error = %v", err)
	}

	_, err := coord.Claim("task-1", "agent_2")
	if !errs.IsConflict(err) {
		t.Fatalf("second Claim() error = %v, want ConflictError", err)
	}
	want := "task 'task-1' is not available for claiming (status: in_progress)"
	if err.Error() != want {
		t.Errorf("error message = %q, want %q", err.Error(), want)
	}

	// The original claim holds.
	task, err := coord.Get("task-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if task.AssignedAgent != "agent_1" {
		t.Errorf("AssignedAgent = %q after losing claim race, want agent_1", task.AssignedAgent)
	}
}

func TestClaimBlockedByDependencies(t *testing.T) {
	coord := NewCoordinator(NewMemStore())
	seedBoard(t, coord,
		&Task{ID: "dep-a", Title: "first"},
		&Task{ID: "dep-b", Title: "second"},
		&Task{ID: "task-1", Title: "last", Dependencies: []string{"dep-a", "dep-b"}},
	)

	_, err := coord.Claim("task-1", "agent_1")
	var depErr *DependencyError
	if !errs.As(err, &depErr) {
		t.Fatalf("Claim() error = %v, want DependencyError", err)
	}
	if !depErr.BlockedByDependencies {
		t.Error("BlockedByDependencies = false, want true")
	}
	if depErr.NextDependency != "dep-a" {
		t.Errorf("NextDependency = %q, want dep-a (declared order)", depErr.NextDependency)
	}
	if len(depErr.Unmet) != 2 {
		t.Errorf("Unmet = %v, want both dependencies", depErr.Unmet)
	}
	if depErr.Instructions() == "" {
		t.Error("Instructions() is empty")
	}

	// Board untouched by the rejected claim.
	task, err := coord.Get("task-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if task.Status != StatusPending || task.AssignedAgent != "" || task.ClaimedAt != 0 {
		t.Errorf("task mutated by rejected claim: %+v", task)
	}
}

func TestClaimAfterDependenciesComplete(t *testing.T) {
	coord := NewCoordinator(NewMemStore())
	seedBoard(t, coord,
		&Task{ID: "dep-a", Title: "first"},
		&Task{ID: "task-1", Title: "last", Dependencies: []string{"dep-a"}},
	)

	if _, err := coord.Claim("dep-a", "agent_1"); err != nil {
		t.Fatalf("Claim(dep-a) error = %v", err)
	}

	// Partial progress is not enough.
	if _, err := coord.Claim("task-1", "agent_2"); err == nil {
		t.Fatal("Claim() succeeded with in-progress dependency, want DependencyError")
	}

	if _, err := coord.Complete("dep-a"); err != nil {
		t.Fatalf("Complete(dep-a) error = %v", err)
	}

	task, err := coord.Claim("task-1", "agent_2")
	if err != nil {
		t.Fatalf("Claim() after dependency completion error = %v", err)
	}
	if task.Status != StatusInProgress {
		t.Errorf("Status = %q, want %q", task.Status, StatusInProgress)
	}
}

func TestClaimMissingDependencyBlocks(t *testing.T) {
	coord := NewCoordinator(NewMemStore())
	seedBoard(t, coord, &Task{ID: "task-1", Dependencies: []string{"ghost"}})

	_, err := coord.Claim("task-1", "agent_1")
	var depErr *DependencyError
	if !errs.As(err, &depErr) {
		t.Fatalf("Claim() error = %v, want DependencyError for unknown dependency", err)
	}
	if depErr.NextDependency != "ghost" {
		t.Errorf("NextDependency = %q, want ghost", depErr.NextDependency)
	}
}

func TestCompleteTransitions(t *testing.T) {
	coord := NewCoordinator(NewMemStore())
	seedBoard(t, coord, &Task{ID: "task-1"})

	// Completing a pending task is a conflict.
	if _, err := coord.Complete("task-1"); !errs.IsConflict(err) {
		t.Errorf("Complete(pending) error = %v, want ConflictError", err)
	}

	if _, err := coord.Claim("task-1", "agent_1"); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}

	task, err := coord.Complete("task-1")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if task.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", task.Status, StatusCompleted)
	}
	if task.CompletedAt == 0 {
		t.Error("CompletedAt = 0, want completion timestamp")
	}
}

func TestReleaseReturnsTaskToPending(t *testing.T) {
	coord := NewCoordinator(NewMemStore())
	seedBoard(t, coord, &Task{ID: "task-1"})

	if _, err := coord.Claim("task-1", "agent_1"); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}

	task, err := coord.Release("task-1")
	if err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if task.Status != StatusPending {
		t.Errorf("Status = %q, want %q", task.Status, StatusPending)
	}
	if task.AssignedAgent != "" || task.ClaimedAt != 0 {
		t.Errorf("assignment not cleared: %+v", task)
	}

	// Released tasks can be claimed again by someone else.
	if _, err := coord.Claim("task-1", "agent_2"); err != nil {
		t.Errorf("Claim() after release error = %v", err)
	}
}

func TestAddDuplicateConflicts(t *testing.T) {
	coord := NewCoordinator(NewMemStore())
	seedBoard(t, coord, &Task{ID: "task-1"})

	if err := coord.Add(&Task{ID: "task-1"}); !errs.IsConflict(err) {
		t.Errorf("Add(duplicate) error = %v, want ConflictError", err)
	}
}

func TestListSortedByID(t *testing.T) {
	coord := NewCoordinator(NewMemStore())
	seedBoard(t, coord,
		&Task{ID: "task-3"},
		&Task{ID: "task-1"},
		&Task{ID: "task-2"},
	)

	tasks, err := coord.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"task-1", "task-2", "task-3"}
	if len(tasks) != len(want) {
		t.Fatalf("len(tasks) = %d, want %d", len(tasks), len(want))
	}
	for i, task := range tasks {
		if task.ID != want[i] {
			t.Errorf("tasks[%d].ID = %q, want %q", i, task.ID, want[i])
		}
	}
}

func TestStatusCounts(t *testing.T) {
	coord := NewCoordinator(NewMemStore())
	seedBoard(t, coord,
		&Task{ID: "a"},
		&Task{ID: "b"},
		&Task{ID: "c"},
	)

	if _, err := coord.Claim("a", "agent_1"); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if _, err := coord.Complete("a"); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if _, err := coord.Claim("b", "agent_1"); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}

	status, err := coord.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.Total != 3 || status.Pending != 1 || status.InProgress != 1 || status.Completed != 1 {
		t.Errorf("Status() = %+v, want total 3, pending 1, in progress 1, completed 1", status)
	}
}

func TestConcurrentClaimSingleWinner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	seed := NewCoordinator(store)
	seedBoard(t, seed, &Task{ID: "task-1"})

	const n = 5
	winners := make(chan string, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			coord := NewCoordinator(store)
			agentID := fmt.Sprintf("agent_%d", i+1)
			if _, err := coord.Claim("task-1", agentID); err == nil {
				winners <- agentID
			} else if !errs.IsConflict(err) {
				t.Errorf("Claim() error = %v, want nil or ConflictError", err)
			}
		}(i)
	}
	wg.Wait()
	close(winners)

	var claimed []string
	for w := range winners {
		claimed = append(claimed, w)
	}
	if len(claimed) != 1 {
		t.Fatalf("winners = %v, want exactly one", claimed)
	}

	task, err := seed.Get("task-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if task.AssignedAgent != claimed[0] {
		t.Errorf("AssignedAgent = %q, want winner %q", task.AssignedAgent, claimed[0])
	}
}

func TestClaimPublishesEvent(t *testing.T) {
	bus := event.NewBus()
	var mu sync.Mutex
	var got []string
	bus.Subscribe("task.claimed", func(e event.Event) {
		ev := e.(event.TaskClaimedEvent)
		mu.Lock()
		got = append(got, ev.TaskID+"/"+ev.AgentID)
		mu.Unlock()
	})

	coord := NewCoordinator(NewMemStore(), WithBus(bus))
	seedBoard(t, coord, &Task{ID: "task-1"})

	if _, err := coord.Claim("task-1", "agent_1"); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "task-1/agent_1" {
		t.Errorf("published = %v, want [task-1/agent_1]", got)
	}
}

func TestStorePropagatesBoardErrors(t *testing.T) {
	store := NewMemStore()
	store.FailLoad = errs.New("disk gone")

	coord := NewCoordinator(store)
	if _, err := coord.Claim("task-1", "agent_1"); !errs.Is(err, errs.ErrBoardRead) {
		t.Errorf("Claim() error = %v, want ErrBoardRead", err)
	}
}
