package rotator

import "errors"

var (
	// ErrDependencyMissing is returned when a collaborator the feature needs
	// was not provided.
	ErrDependencyMissing = errors.New("dependency missing")

	// ErrDataLoad wraps failed or empty translation loads.
	ErrDataLoad = errors.New("failed to load data")

	// ErrReferenceNotFound is returned when a reference does not resolve to
	// an entry.
	ErrReferenceNotFound = errors.New("reference not found")

	// ErrBusy is returned for navigation while a translation is loading.
	ErrBusy = errors.New("translation load in progress")

	// ErrOutOfRange is returned for a direct jump past the list.
	ErrOutOfRange = errors.New("index out of range")

	// ErrInvalidArgument is returned for an unknown mode or a non-positive
	// interval.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnavailable is returned when an operation does not apply to the
	// current selection.
	ErrUnavailable = errors.New("not available in the current view")
)
