package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aristath/tasktracker/internal/manager"
	"github.com/aristath/tasktracker/internal/task"
)

// groupDefinition is the on-disk shape of an apply file. It matches the
// POST /api/v1/groups request body: one main task plus ordered subtasks,
// with dependencies given as indices into the same definition (0 is the
// main task, i the i-th subtask).
type groupDefinition struct {
	GroupID  string         `json:"groupId"`
	Main     groupTaskDef   `json:"main"`
	Subtasks []groupTaskDef `json:"subtasks"`
}

type groupTaskDef struct {
	Title              string                `json:"title"`
	Description        string                `json:"description"`
	Tags               []string              `json:"tags"`
	Dependencies       []int                 `json:"dependencies"`
	ExecutionConfig    *task.ExecutionConfig `json:"executionConfig"`
	VerificationMethod string                `json:"verificationMethod"`
}

func (d groupDefinition) request() manager.GroupRequest {
	req := manager.GroupRequest{
		GroupID: d.GroupID,
		Main:    d.Main.spec(),
	}
	for _, sub := range d.Subtasks {
		req.Subtasks = append(req.Subtasks, sub.spec())
	}
	return req
}

func (d groupTaskDef) spec() manager.GroupTaskSpec {
	return manager.GroupTaskSpec{
		Title:              d.Title,
		Description:        d.Description,
		Tags:               d.Tags,
		Dependencies:       d.Dependencies,
		ExecutionConfig:    d.ExecutionConfig,
		VerificationMethod: d.VerificationMethod,
	}
}

// applyCmd creates a task group from a JSON definition file.
var applyCmd = &cobra.Command{
	Use:   "apply <file>",
	Short: "Create a task group from a JSON definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading definition: %w", err)
		}
		var def groupDefinition
		if err := json.Unmarshal(data, &def); err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}

		rt, cleanup, err := bootstrap(cmd.Context(), cfg, os.Stderr)
		if err != nil {
			return err
		}
		defer cleanup()

		res, err := rt.manager.CreateTaskGroup(def.request())
		if err != nil {
			return err
		}

		fmt.Printf("group %s created\n", res.GroupID)
		fmt.Printf("  main:    %s  %s\n", res.Main.ID, res.Main.Title)
		for _, st := range res.Subtasks {
			fmt.Printf("  subtask: %s  %s\n", st.ID, st.Title)
		}
		return nil
	},
}
