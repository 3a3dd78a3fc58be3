package authz

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrDenied is returned when an actor is not authorized for an operation.
var ErrDenied = errors.New("actor is not authorized for this operation")

// Authorizer answers authorization questions for opaque actor references.
// Implementations decide policy; callers only propagate the verdict.
type Authorizer interface {
	// CanExecute reports whether the actor may record results against
	// executions of the given run. A nil error means permitted.
	CanExecute(ctx context.Context, actorID, runID uuid.UUID) error

	// CanEditCase reports whether the actor may revise the given test case.
	CanEditCase(ctx context.Context, actorID, caseID uuid.UUID) error
}

// AllowAll permits every actor. It is the default policy when no
// authorizer is configured.
type AllowAll struct{}

// NewAllowAll creates an authorizer that permits everything.
func NewAllowAll() *AllowAll {
	return &AllowAll{}
}

// CanExecute always permits.
func (a *AllowAll) CanExecute(ctx context.Context, actorID, runID uuid.UUID) error {
	return nil
}

// CanEditCase always permits.
func (a *AllowAll) CanEditCase(ctx context.Context, actorID, caseID uuid.UUID) error {
	return nil
}

// Static permits only actors present on its allow lists. Run and case ids
// are ignored; the lists apply globally.
type Static struct {
	executors map[uuid.UUID]struct{}
	editors   map[uuid.UUID]struct{}
}

// NewStatic creates an authorizer from explicit allow lists.
func NewStatic(executors, editors []uuid.UUID) *Static {
	s := &Static{
		executors: make(map[uuid.UUID]struct{}, len(executors)),
		editors:   make(map[uuid.UUID]struct{}, len(editors)),
	}
	for _, id := range executors {
		s.executors[id] = struct{}{}
	}
	for _, id := range editors {
		s.editors[id] = struct{}{}
	}
	return s
}

// CanExecute permits actors on the executors list.
func (s *Static) CanExecute(ctx context.Context, actorID, runID uuid.UUID) error {
	if _, ok := s.executors[actorID]; !ok {
		return ErrDenied
	}
	return nil
}

// CanEditCase permits actors on the editors list.
func (s *Static) CanEditCase(ctx context.Context, actorID, caseID uuid.UUID) error {
	if _, ok := s.editors[actorID]; !ok {
		return ErrDenied
	}
	return nil
}
