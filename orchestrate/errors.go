package orchestrate

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

var (
	// ErrSaveInFlight is returned when a save starts while another is pending.
	ErrSaveInFlight = errors.New("orchestrate: save already in flight")
	// ErrReadOnlyField is returned when a save touches a field the access
	// rules do not allow editing.
	ErrReadOnlyField = errors.New("orchestrate: field is read-only")
	// ErrNoUser is returned when no signed-in user is available.
	ErrNoUser = errors.New("orchestrate: no authenticated user")
)

const (
	commandValidationCode   = "SETTINGS_COMMAND_VALIDATION_FAILED"
	commandContextCanceled  = "SETTINGS_COMMAND_CANCELED"
	commandContextTimeout   = "SETTINGS_COMMAND_TIMEOUT"
	commandContextErrorCode = "SETTINGS_COMMAND_CONTEXT_ERROR"
	commandExecuteFailed    = "SETTINGS_COMMAND_FAILED"
	readOnlyFieldCode       = "SETTINGS_FIELD_READ_ONLY"
)

func wrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "command validation failed").
		WithTextCode(commandValidationCode)
}

func wrapContextError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	switch err {
	case context.Canceled:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution cancelled").
			WithTextCode(commandContextCanceled)
	case context.DeadlineExceeded:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution deadline exceeded").
			WithTextCode(commandContextTimeout)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command context error").
			WithTextCode(commandContextErrorCode)
	}
}

func wrapExecuteError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution failed").
		WithTextCode(commandExecuteFailed)
}

func readOnlyError(field string) error {
	return goerrors.Wrap(ErrReadOnlyField, goerrors.CategoryValidation, "field "+field+" is read-only").
		WithTextCode(readOnlyFieldCode)
}
