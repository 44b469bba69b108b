// Package dockhand holds the shared domain records of the dockhand
// utilities: the certificate hand-off pipeline and the overlay disk
// usage reporter.
package dockhand

import "time"

// RunStatus is the single-slot result of one push-agent invocation.
// It is fully overwritten on every run — external monitoring reads the
// latest outcome only, there is no history.
type RunStatus struct {
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
}

// Now returns a RunStatus stamped with the current UTC time.
func Now(success bool, message string) RunStatus {
	return RunStatus{
		Timestamp: time.Now().UTC().Truncate(time.Second),
		Success:   success,
		Message:   message,
	}
}
