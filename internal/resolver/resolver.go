package resolver

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aristath/tasktracker/internal/task"
)

// Sentinel errors for dependency validation failures.
var (
	ErrDependencyNotFound = errors.New("dependency not found")
	ErrCircularDependency = errors.New("circular dependency")
)

// Ready reports whether every dependency of t is satisfied: the referenced
// task is completed (flag or execution state). A dependency id with no
// matching task counts as unsatisfied.
func Ready(t *task.Task, all map[string]*task.Task) bool {
	for _, depID := range t.Dependencies {
		dep, exists := all[depID]
		if !exists {
			return false
		}
		if !dep.IsComplete() {
			return false
		}
	}
	return true
}

// ReadyTasks returns every task that is not completed, not currently
// running, and whose dependencies are all satisfied. The result is sorted
// by execution order, then id, so callers observe a stable sequence.
func ReadyTasks(all map[string]*task.Task) []*task.Task {
	ready := []*task.Task{}
	for _, t := range all {
		if t.Completed {
			continue
		}
		if t.State() == task.StateRunning {
			continue
		}
		if Ready(t, all) {
			ready = append(ready, t)
		}
	}

	sort.Slice(ready, func(i, j int) bool {
		if ready[i].ExecutionOrder != ready[j].ExecutionOrder {
			return ready[i].ExecutionOrder < ready[j].ExecutionOrder
		}
		return task.IDLess(ready[i].ID, ready[j].ID)
	})
	return ready
}

// DetectCycles finds every dependency cycle reachable by a depth-first
// traversal from each unvisited task. Revisiting a task already on the
// recursion stack records the stack slice from its first occurrence to the
// repeat as one cycle; a self-dependency yields a two-element cycle.
// Traversal roots are taken in sorted id order so output is deterministic.
func DetectCycles(all map[string]*task.Task) [][]string {
	visited := make(map[string]bool, len(all))
	onStack := make(map[string]int) // id -> index on the recursion stack
	var stack []string
	var cycles [][]string

	var visit func(id string)
	visit = func(id string) {
		visited[id] = true
		onStack[id] = len(stack)
		stack = append(stack, id)

		for _, depID := range all[id].Dependencies {
			if _, exists := all[depID]; !exists {
				// Missing references are a validation concern, not a cycle.
				continue
			}
			if start, ok := onStack[depID]; ok {
				cycle := append([]string(nil), stack[start:]...)
				cycle = append(cycle, depID)
				cycles = append(cycles, cycle)
				continue
			}
			if !visited[depID] {
				visit(depID)
			}
		}

		stack = stack[:len(stack)-1]
		delete(onStack, id)
	}

	for _, id := range sortedIDs(all) {
		if !visited[id] {
			visit(id)
		}
	}
	return cycles
}

// ValidateDependencies checks that depIDs can be assigned to the task with
// the given id without breaking the population. Every entry must reference
// an existing task, and the assignment must not create a cycle through
// taskID. The check runs against a hypothetical population: the existing
// task patched with depIDs, or a synthesized placeholder when taskID has
// not been created yet (the create path validates with the id the task is
// about to receive).
func ValidateDependencies(taskID string, depIDs []string, all map[string]*task.Task) error {
	for _, depID := range depIDs {
		if _, exists := all[depID]; !exists {
			return fmt.Errorf("%w: task %q depends on unknown task %q", ErrDependencyNotFound, taskID, depID)
		}
	}

	hypothetical := make(map[string]*task.Task, len(all)+1)
	for id, t := range all {
		hypothetical[id] = t
	}
	if existing, exists := all[taskID]; exists {
		patched := existing.Clone()
		patched.Dependencies = append([]string(nil), depIDs...)
		hypothetical[taskID] = patched
	} else {
		hypothetical[taskID] = &task.Task{
			ID:           taskID,
			Title:        "(pending creation)",
			Dependencies: append([]string(nil), depIDs...),
		}
	}

	for _, cycle := range DetectCycles(hypothetical) {
		for _, id := range cycle {
			if id == taskID {
				return fmt.Errorf("%w: %s", ErrCircularDependency, strings.Join(cycle, " -> "))
			}
		}
	}
	return nil
}

func sortedIDs(all map[string]*task.Task) []string {
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return task.IDLess(ids[i], ids[j]) })
	return ids
}
