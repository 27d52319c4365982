package service

import (
	"errors"
	"fmt"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/repository"
)

var (
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrTerminalState        = errors.New("terminal state violation")
	ErrDuplicateSynthesis   = errors.New("duplicate shipment synthesis")
	ErrDependencyFailure    = errors.New("dependency failure")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidInput         = errors.New("invalid input")
)

// TransitionError 描述被违反的规则，Unwrap 返回对应的哨兵错误
type TransitionError struct {
	Kind   error
	Entity string
	From   string
	To     string
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	if e.From != "" || e.To != "" {
		return fmt.Sprintf("%s: %s cannot move from %s to %s", e.Kind, e.Entity, e.From, e.To)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Entity)
}

func (e *TransitionError) Unwrap() error {
	return e.Kind
}

func invalidTransition(entity, from, to, format string, args ...interface{}) error {
	return &TransitionError{Kind: ErrInvalidTransition, Entity: entity, From: from, To: to, Reason: fmt.Sprintf(format, args...)}
}

func terminalState(entity, from, to, format string, args ...interface{}) error {
	return &TransitionError{Kind: ErrTerminalState, Entity: entity, From: from, To: to, Reason: fmt.Sprintf(format, args...)}
}

func missingField(entity, field, format string, args ...interface{}) error {
	return &TransitionError{Kind: ErrMissingRequiredField, Entity: entity, Reason: fmt.Sprintf(format, args...) + " (" + field + ")"}
}

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func forbidden(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// dependency 包装主路径上的存储错误，ErrNotFound 原样返回
func dependency(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrDependencyFailure, op, err)
}
