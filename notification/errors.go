package notification

import "errors"

var (
	// ErrNotificationNotFound is returned when a notification id does not
	// resolve to a stored record. Malformed ids are treated as absence, not
	// as a distinct error.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrStorageFailure wraps read/write failures of the notification store.
	ErrStorageFailure = errors.New("notification storage failure")

	// ErrUnknownKind is returned when content construction is requested for
	// a kind with no registered variant.
	ErrUnknownKind = errors.New("unknown notification kind")

	// ErrNoRecipients is returned when a bulk dispatch is left with no valid
	// recipients after blanks and duplicates are filtered out.
	ErrNoRecipients = errors.New("no valid recipients")
)
