package engine

import (
	"errors"
	"fmt"
)

var (
	ErrEngineUnreachable = errors.New("container engine unreachable")
	ErrBuildFailed       = errors.New("image build failed")
	ErrPortAllocated     = errors.New("port is already allocated")
	ErrContainerNotFound = errors.New("container not found")
)

// EngineError wraps engine failures with the operation and the container or
// image it touched.
type EngineError struct {
	Op  string
	Ref string
	Err error
}

func (e *EngineError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Ref, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}
