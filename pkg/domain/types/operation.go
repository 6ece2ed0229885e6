package types

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type OperationID string

func NewOperationID() OperationID {
	return OperationID(uuid.NewString())
}

func (x OperationID) String() string { return string(x) }

func (x OperationID) Validate() error {
	if _, err := uuid.Parse(string(x)); err != nil {
		return goerr.Wrap(ErrValidationFailed, "invalid operation ID", goerr.V("id", x))
	}
	return nil
}

type OperationKind string

const (
	OperationClone  OperationKind = "clone"
	OperationPull   OperationKind = "pull"
	OperationPush   OperationKind = "push"
	OperationCommit OperationKind = "commit"
)

// OperationKinds is the closed set of supported kinds.
var OperationKinds = []OperationKind{
	OperationClone,
	OperationPull,
	OperationPush,
	OperationCommit,
}

func (x OperationKind) Validate() error {
	for _, k := range OperationKinds {
		if x == k {
			return nil
		}
	}
	return goerr.Wrap(ErrValidationFailed, "unsupported operation type", goerr.V("type", x))
}

type OperationStatus string

const (
	OperationPending   OperationStatus = "pending"
	OperationRunning   OperationStatus = "running"
	OperationCompleted OperationStatus = "completed"
	OperationFailed    OperationStatus = "failed"
)

func (x OperationStatus) IsTerminal() bool {
	return x == OperationCompleted || x == OperationFailed
}

// CanTransitionTo reports whether x -> next is an allowed lifecycle step:
// pending -> running -> completed | failed.
//
// pending -> failed is the one deliberate shortcut. It is taken only when the
// operation fails before the worker is called (unknown repository, credential
// error, cancellation while waiting for the repository lock), so no command ever
// ran. completed is reachable only from running. Terminal states never move.
func (x OperationStatus) CanTransitionTo(next OperationStatus) bool {
	switch x {
	case OperationPending:
		return next == OperationRunning || next == OperationFailed
	case OperationRunning:
		return next == OperationCompleted || next == OperationFailed
	default:
		return false
	}
}
