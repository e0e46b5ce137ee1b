package character

import (
	"fmt"
	"strconv"

	"github.com/louisbranch/magemaker/internal/services/sheet/domain/trait"
)

// Code identifies why a command was rejected or adjusted.
type Code string

const (
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
)

// Rejection explains a refused command. Metadata carries the values a
// localized message template needs.
type Rejection struct {
	Code     Code
	Message  string
	Metadata map[string]string
}

// Error lets a rejection travel as an error.
func (r *Rejection) Error() string {
	return r.Message
}

// AdjustmentKind distinguishes clamped requests from forced side effects.
type AdjustmentKind string

const (
	// AdjustmentClamped means the requested rating was lowered to a sphere cap.
	AdjustmentClamped AdjustmentKind = "clamped"
	// AdjustmentRecapped means another sphere was lowered to keep the caps.
	AdjustmentRecapped AdjustmentKind = "recapped"
)

// Adjustment reports a rating that ended up different from what the caller
// asked for. For clamps From is the requested rating and To the applied one;
// for recaps From and To are the old and new ratings of the affected trait.
type Adjustment struct {
	Kind  AdjustmentKind
	Trait trait.Ref
	From  int
	To    int
}

// Code returns the code reported for this adjustment.
func (a Adjustment) Code() Code {
	return CodeConstraintViolation
}

// Decision is the outcome of one engine command.
type Decision struct {
	Rejection   *Rejection
	Trait       trait.Ref
	From        int
	To          int
	Cost        int
	Adjustments []Adjustment
	Reasons     []Reason
}

// Accepted reports whether the command was applied (or, for previews, would be).
func (d Decision) Accepted() bool {
	return d.Rejection == nil
}

// Err returns the rejection as an error, or nil.
func (d Decision) Err() error {
	if d.Rejection == nil {
		return nil
	}
	return d.Rejection
}

func reject(code Code, metadata map[string]string, format string, args ...any) Decision {
	return Decision{Rejection: &Rejection{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Metadata: metadata,
	}}
}

func rejectTrait(ref trait.Ref, from int, code Code, metadata map[string]string, format string, args ...any) Decision {
	d := reject(code, metadata, format, args...)
	d.Trait = ref
	d.From = from
	d.To = from
	return d
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
