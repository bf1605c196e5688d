// Package service provides business logic implementations.
package service

import (
	"errors"
	"fmt"

	"duel-arena/internal/repository"
)

// Error classes. Every error a service returns for a rejected call unwraps to
// exactly one of them.
var (
	// ErrValidation covers malformed or unauthorized requests.
	ErrValidation = errors.New("validation error")
	// ErrPrecondition covers well-formed requests the current state forbids.
	ErrPrecondition = errors.New("precondition failed")
	// ErrInvariant is an internal consistency violation.
	ErrInvariant = errors.New("invariant violation")
)

// classError is a specific rejection reason belonging to a class.
type classError struct {
	class error
	msg   string
}

func (e *classError) Error() string { return e.msg }

func (e *classError) Unwrap() error { return e.class }

func newError(class error, msg string) error {
	return &classError{class: class, msg: msg}
}

// Validation errors.
var (
	ErrUnauthenticated   = newError(ErrValidation, "caller is not authenticated")
	ErrNotOwner          = newError(ErrValidation, "caller does not control this character")
	ErrSelfDuel          = newError(ErrValidation, "a character cannot duel itself")
	ErrCharacterNotFound = newError(ErrValidation, "character not found")
	ErrEquipmentNotFound = newError(ErrValidation, "equipment not found")
	ErrDuelNotFound      = newError(ErrValidation, "duel not found")
	ErrUnknownDuelKind   = newError(ErrValidation, "unknown duel kind")
	ErrUnknownKind       = newError(ErrValidation, "unknown equipment kind")
	ErrInvalidAmount     = newError(ErrValidation, "invalid amount: must be positive")

	ErrUnauthorizedAuthority   = newError(ErrValidation, "caller is not the duel engine authority")
	ErrAuthorityAlreadyGranted = newError(ErrValidation, "duel engine authority already granted")
)

// Precondition errors.
var (
	ErrKnockedOut          = newError(ErrPrecondition, "character is knocked out")
	ErrNotKnockedOut       = newError(ErrPrecondition, "character is not knocked out")
	ErrInsufficientPayment = newError(ErrPrecondition, "payment below the required price")
	ErrInsufficientFunds   = newError(ErrPrecondition, "wallet balance below the attached payment")
)

// Invariant violations.
var (
	ErrStatOverflow   = newError(ErrInvariant, "stat arithmetic would overflow")
	ErrLedgerOverflow = newError(ErrInvariant, "balance arithmetic would overflow")
	ErrInvalidOutcome = newError(ErrInvariant, "ruleset returned an invalid outcome")
	ErrReplayMismatch = newError(ErrInvariant, "replay does not reproduce the recorded outcome")
)

// translate maps repository sentinels onto service reasons and wraps
// everything else.
func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrCharacterNotFound):
		return ErrCharacterNotFound
	case errors.Is(err, repository.ErrEquipmentNotFound), errors.Is(err, repository.ErrUnknownKind):
		return ErrEquipmentNotFound
	case errors.Is(err, repository.ErrDuelNotFound):
		return ErrDuelNotFound
	case errors.Is(err, repository.ErrBalanceOverflow):
		return ErrLedgerOverflow
	case errors.Is(err, ErrValidation), errors.Is(err, ErrPrecondition), errors.Is(err, ErrInvariant):
		return err
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}
