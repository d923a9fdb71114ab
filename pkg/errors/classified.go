package custom_error

import (
	"errors"
	"fmt"
)

// Kind classifies a crate-level failure so callers can branch on the
// category without parsing messages.
type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindStateConflict  Kind = "state_conflict"
	KindTolerance      Kind = "tolerance_violation"
	KindSessionExpired Kind = "session_expired"
	KindMissingInput   Kind = "missing_input"
)

// ToleranceDirection distinguishes under- from over-tolerance failures.
// Only "under" grants the device the allow-final-crate override.
type ToleranceDirection string

const (
	ToleranceUnder ToleranceDirection = "under"
	ToleranceOver  ToleranceDirection = "over"
)

// CrateFailure is a classified validation failure for a single crate
// event. It never aborts sibling events in the same batch.
type CrateFailure struct {
	Kind      Kind
	Direction ToleranceDirection
	message   string
}

func (e *CrateFailure) Error() string {
	return e.message
}

func NotFound(format string, args ...any) *CrateFailure {
	return &CrateFailure{Kind: KindNotFound, message: fmt.Sprintf(format, args...)}
}

func StateConflict(format string, args ...any) *CrateFailure {
	return &CrateFailure{Kind: KindStateConflict, message: fmt.Sprintf(format, args...)}
}

func MissingInput(format string, args ...any) *CrateFailure {
	return &CrateFailure{Kind: KindMissingInput, message: fmt.Sprintf(format, args...)}
}

func SessionExpired() *CrateFailure {
	return &CrateFailure{Kind: KindSessionExpired, message: "Session Expired"}
}

func ToleranceViolation(direction ToleranceDirection, message string) *CrateFailure {
	return &CrateFailure{Kind: KindTolerance, Direction: direction, message: message}
}

// KindOf extracts the failure kind; unclassified errors report as an
// empty kind so they surface as generic crate failures.
func KindOf(err error) Kind {
	var cf *CrateFailure
	if errors.As(err, &cf) {
		return cf.Kind
	}
	return ""
}

// IsUnderTolerance reports whether err is an under-tolerance failure,
// the only class that permits force-finalizing the crate.
func IsUnderTolerance(err error) bool {
	var cf *CrateFailure
	if errors.As(err, &cf) {
		return cf.Kind == KindTolerance && cf.Direction == ToleranceUnder
	}
	return false
}
