package resolver

import (
	"fmt"

	"github.com/gammazero/toposort"

	"github.com/aristath/tasktracker/internal/task"
)

// ExecutionPlan runs a topological sort over the whole population and
// returns task ids ordered so that every dependency precedes its
// dependents. Tasks referencing missing dependencies and cyclic
// populations return an error.
func ExecutionPlan(all map[string]*task.Task) ([]string, error) {
	for _, id := range sortedIDs(all) {
		for _, depID := range all[id].Dependencies {
			if _, exists := all[depID]; !exists {
				return nil, fmt.Errorf("%w: task %q depends on unknown task %q", ErrDependencyNotFound, id, depID)
			}
		}
	}

	var edges []toposort.Edge
	for _, id := range sortedIDs(all) {
		t := all[id]
		if len(t.Dependencies) == 0 {
			// No dependencies - edge from nil keeps the task in the sort
			edges = append(edges, toposort.Edge{nil, id})
			continue
		}
		for _, depID := range t.Dependencies {
			// Edge (depID, id) means depID must come before id
			edges = append(edges, toposort.Edge{depID, id})
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCircularDependency, err)
	}

	order := make([]string, 0, len(all))
	for _, id := range sorted {
		if id != nil {
			order = append(order, id.(string))
		}
	}
	return order, nil
}
