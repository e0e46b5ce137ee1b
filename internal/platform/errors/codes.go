// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Sheet rejections. These share their string values with the rejection
	// codes produced by the character engine.
	CodeBelowFloor           Code = "BELOW_FLOOR"
	CodeInsufficientPoints   Code = "INSUFFICIENT_POINTS"
	CodeConstraintViolation  Code = "CONSTRAINT_VIOLATION"
	CodeInvalidTransition    Code = "INVALID_TRANSITION"
	CodeDuplicatePriority    Code = "DUPLICATE_PRIORITY"
	CodeUnknownTrait         Code = "UNKNOWN_TRAIT"
	CodeAboveMaximum         Code = "ABOVE_MAXIMUM"
	CodeInvalidValue         Code = "INVALID_VALUE"
	CodeRegimeLocked         Code = "REGIME_LOCKED"
	CodeAffinityNotAllowed   Code = "AFFINITY_NOT_ALLOWED"
	CodeSphereForbidden      Code = "SPHERE_FORBIDDEN"
	CodeBackgroundNotAllowed Code = "BACKGROUND_NOT_ALLOWED"
	CodeNotPurchasable       Code = "NOT_PURCHASABLE"

	// Content errors
	CodeRulesetInvalid  Code = "RULESET_INVALID"
	CodeSnapshotInvalid Code = "SNAPSHOT_INVALID"
	CodeExportInvalid   Code = "EXPORT_INVALID"

	// Storage and listing errors
	CodeCharacterNotFound  Code = "CHARACTER_NOT_FOUND"
	CodeCharacterIDInvalid Code = "CHARACTER_ID_INVALID"
	CodeFilterInvalid      Code = "FILTER_INVALID"
	CodePageTokenInvalid   Code = "PAGE_TOKEN_INVALID"
)

// GRPCCode maps a domain code to the gRPC status code a transport should use.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - malformed input regardless of character state
	case CodeUnknownTrait,
		CodeInvalidValue,
		CodeAboveMaximum,
		CodeSnapshotInvalid,
		CodeExportInvalid,
		CodeCharacterIDInvalid,
		CodeFilterInvalid,
		CodePageTokenInvalid:
		return codes.InvalidArgument

	// FailedPrecondition - valid input the current sheet state disallows
	case CodeBelowFloor,
		CodeInsufficientPoints,
		CodeConstraintViolation,
		CodeInvalidTransition,
		CodeDuplicatePriority,
		CodeRegimeLocked,
		CodeAffinityNotAllowed,
		CodeSphereForbidden,
		CodeBackgroundNotAllowed,
		CodeNotPurchasable:
		return codes.FailedPrecondition

	case CodeCharacterNotFound:
		return codes.NotFound

	case CodeRulesetInvalid:
		return codes.Internal

	default:
		return codes.Unknown
	}
}
