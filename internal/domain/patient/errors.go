package patient

import "errors"

// The closed set of failure kinds an orchestrator operation can report.
// Callers branch with errors.Is; nothing is swallowed or retried here.
var (
	// ErrNotFound means the identifier does not resolve to an existing patient.
	ErrNotFound = errors.New("patient not found")

	// ErrEmailExists means another patient already owns the given email,
	// either detected by the early existence check or by the store's unique
	// constraint at write time.
	ErrEmailExists = errors.New("a patient with this email already exists")

	// ErrInvalidDateOfBirth means the textual date of birth did not parse.
	ErrInvalidDateOfBirth = errors.New("invalid date of birth")

	// ErrValidation means the request body is structurally invalid.
	ErrValidation = errors.New("validation failed")

	// ErrStoreUnavailable means the record store could not complete the
	// operation. Fatal for the current request; never retried internally.
	ErrStoreUnavailable = errors.New("record store unavailable")
)
