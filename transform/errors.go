package transform

import (
	stderrors "errors"

	"github.com/kbukum/srag/errors"
)

// ExecutionError reports a node whose own logic failed. State is the state
// the logic received, including every change made by earlier nodes.
type ExecutionError struct {
	*errors.AppError
	Node  string
	State *State
}

// Unwrap exposes the AppError so errors.As and errors.HasCode see it.
func (e *ExecutionError) Unwrap() error { return e.AppError }

// wrapLogicError attributes err to n unless it already carries an engine
// error from a deeper node or a listener.
func wrapLogicError(n *Node, err error, s *State) error {
	var execErr *ExecutionError
	if stderrors.As(err, &execErr) ||
		errors.HasCode(err, errors.ErrCodeListener) ||
		errors.HasCode(err, errors.ErrCodeConfiguration) {
		return err
	}
	name := n.Name()
	return &ExecutionError{
		AppError: errors.NodeExecution(name, err),
		Node:     name,
		State:    s,
	}
}
