// Package errors provides the structured error type shared by srag packages.
//
// Every failure that leaves a pipeline is an [AppError] carrying a
// machine-readable [ErrorCode]. The pipeline engine raises three codes of its
// own:
//
//   - [ErrCodeConfiguration]: a node was initialized with no shared resource
//   - [ErrCodeNodeExecution]: a node's own logic failed
//   - [ErrCodeListener]: a lifecycle listener failed during a broadcast
//
// Use [HasCode] or [AsAppError] to inspect a returned error.
package errors
