package admincore

import "errors"

var (
	// ErrRoleDenied is an exported constant or variable used by the session manager.
	ErrRoleDenied = errors.New("access denied: only administrators can access this panel")
	// ErrUserRecordInvalid is an exported constant or variable used by the session manager.
	ErrUserRecordInvalid = errors.New("stored user record invalid")
	// ErrRestorePending is an exported constant or variable used by the session manager.
	ErrRestorePending = errors.New("session restore still pending")
)
