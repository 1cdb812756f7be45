package domain

import (
	"errors"
	"fmt"
)

// Authentication failures. ErrUnknownUser and ErrInvalidCredentials are
// distinguished internally (logging, enumeration counters) but both map to
// the same generic message at the API boundary.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownUser        = errors.New("unknown user")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
)

// Referential lookups.
var (
	ErrClientNotFound  = errors.New("client not found")
	ErrMissionNotFound = errors.New("mission not found")
	ErrEntryNotFound   = errors.New("time entry not found")
)

// Scope qualifiers carried by AccessDenied.
const (
	ScopeOutOfMission = "out_of_mission"
	ScopeOtherUser    = "other_user"
)

// AccessDenied is returned whenever the policy engine rejects an operation.
// The fields feed logs and metrics; the API renders a generic message only.
type AccessDenied struct {
	Role     Role
	Resource ResourceKind
	Action   Action
	Scope    string
}

func (e *AccessDenied) Error() string {
	if e.Scope != "" {
		return fmt.Sprintf("access denied: role=%s resource=%s action=%s scope=%s", e.Role, e.Resource, e.Action, e.Scope)
	}
	return fmt.Sprintf("access denied: role=%s resource=%s action=%s", e.Role, e.Resource, e.Action)
}

// Denied builds an AccessDenied for a plain policy-table rejection.
func Denied(role Role, resource ResourceKind, action Action) *AccessDenied {
	return &AccessDenied{Role: role, Resource: resource, Action: action}
}

// DeniedScope builds an AccessDenied for a scope violation (the grant exists
// but the target row is outside the caller's perimeter).
func DeniedScope(role Role, resource ResourceKind, action Action, scope string) *AccessDenied {
	return &AccessDenied{Role: role, Resource: resource, Action: action, Scope: scope}
}

// ValidationError reports a domain-rule violation on a write (capacity
// exceeded, bad hours bucket, malformed date). The message never contains
// restricted field values.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// StorageError wraps a persistence failure. Transient errors (lock
// contention) are retried once by the data access layer; the rest are fatal
// and propagate unmodified for the caller to log.
type StorageError struct {
	Op        string
	Transient bool
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
