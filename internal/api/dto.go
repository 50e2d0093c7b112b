package api

import (
	"github.com/aristath/tasktracker/internal/task"
)

// response is the uniform envelope every endpoint returns. Code 0 means
// success; failures carry the HTTP status as the code.
type response[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

func success[T any](data T) response[T] {
	return response[T]{Code: 0, Message: "success", Data: data}
}

func failure(code int, message string) response[any] {
	return response[any]{Code: code, Message: message}
}

// listData wraps collection payloads.
type listData[T any] struct {
	Total int `json:"total"`
	Items []T `json:"items"`
}

func list[T any](items []T) response[listData[T]] {
	if items == nil {
		items = []T{}
	}
	return success(listData[T]{Total: len(items), Items: items})
}

// createTodoRequest is the body of POST /todos.
type createTodoRequest struct {
	Title              string                `json:"title" binding:"required"`
	Description        string                `json:"description"`
	Tags               []string              `json:"tags"`
	GroupID            string                `json:"groupId"`
	Dependencies       []string              `json:"dependencies"`
	ExecutionOrder     int                   `json:"executionOrder"`
	ExecutionConfig    *task.ExecutionConfig `json:"executionConfig"`
	VerificationMethod string                `json:"verificationMethod"`
}

// updateTodoRequest is the body of PATCH /todos/:id. Pointer fields and
// nil slices distinguish "absent" from "set to zero value".
type updateTodoRequest struct {
	Title           *string               `json:"title"`
	Completed       *bool                 `json:"completed"`
	Description     *string               `json:"description"`
	Tags            []string              `json:"tags"`
	GroupID         *string               `json:"groupId"`
	Dependencies    []string              `json:"dependencies"`
	ExecutionOrder  *int                  `json:"executionOrder"`
	ExecutionConfig *task.ExecutionConfig `json:"executionConfig"`
}

// transitionRequest is the body of POST /todos/:id/transitions.
type transitionRequest struct {
	State string `json:"state" binding:"required,oneof=pending ready running completed failed"`
	Error string `json:"error"`
}

// resetRequest is the body of POST /todos/:id/reset. The body is optional;
// an absent body means resetDependents=false.
type resetRequest struct {
	ResetDependents bool `json:"resetDependents"`
}

// verificationMethodRequest is the body of PUT /todos/:id/verification/method.
type verificationMethodRequest struct {
	Method string `json:"method" binding:"required"`
}

// verificationStatusRequest is the body of PUT /todos/:id/verification/status.
type verificationStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending verified failed"`
	Notes  string `json:"notes"`
}

// groupTaskRequest describes one task inside POST /groups. Dependencies
// are indices into the same request: 0 is the main task, i the i-th
// subtask.
type groupTaskRequest struct {
	Title              string                `json:"title" binding:"required"`
	Description        string                `json:"description"`
	Tags               []string              `json:"tags"`
	Dependencies       []int                 `json:"dependencies"`
	ExecutionConfig    *task.ExecutionConfig `json:"executionConfig"`
	VerificationMethod string                `json:"verificationMethod"`
}

// createGroupRequest is the body of POST /groups.
type createGroupRequest struct {
	GroupID  string             `json:"groupId"`
	Main     groupTaskRequest   `json:"main" binding:"required"`
	Subtasks []groupTaskRequest `json:"subtasks" binding:"omitempty,dive"`
}

// transitionData is the payload of a successful transition.
type transitionData struct {
	Task    *task.Task          `json:"task"`
	From    task.ExecutionState `json:"from"`
	To      task.ExecutionState `json:"to"`
	Summary string              `json:"summary"`
}

// resetData is the payload of a successful failed-task reset.
type resetData struct {
	Task       *task.Task   `json:"task"`
	Dependents []*task.Task `json:"dependents,omitempty"`
}

// completionData is the payload of a main-task completion check.
type completionData struct {
	Completed       bool       `json:"completed"`
	AlreadyComplete bool       `json:"alreadyComplete,omitempty"`
	Reason          string     `json:"reason"`
	Main            *task.Task `json:"main,omitempty"`
}

// deletedData confirms a deletion.
type deletedData struct {
	ID string `json:"id"`
}
