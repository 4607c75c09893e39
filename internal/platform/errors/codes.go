// Package errors provides structured, coded errors for the story engines.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Record shape errors
	CodeSchemaValidation Code = "SCHEMA_VALIDATION"

	// State machine errors
	CodeInvalidTransition     Code = "INVALID_TRANSITION"
	CodeImmutabilityViolation Code = "IMMUTABILITY_VIOLATION"
	CodeCanonGateRejected     Code = "CANON_GATE_REJECTED"

	// Packaging errors
	CodeValidationFailure Code = "VALIDATION_FAILURE"

	// Storage errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - malformed records
	case CodeSchemaValidation:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeInvalidTransition,
		CodeImmutabilityViolation,
		CodeCanonGateRejected,
		CodeValidationFailure:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	// AlreadyExists - unique resource constraint
	case CodeAlreadyExists:
		return codes.AlreadyExists

	default:
		return codes.Internal
	}
}
