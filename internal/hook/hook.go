// Package hook implements the emitter side of the certificate hand-off.
//
// It runs inside the untrusted proxy container as a renewal deploy hook,
// holds no secrets, and its only side effect is publishing the renewed
// lineage path into the flag marker when the renewal covers the target
// domain.
package hook

import (
	"fmt"
	"os"
	"strings"

	"dockhand/internal/marker"
)

// Event is one renewal notification from the certificate tool.
type Event struct {
	// Domains are the identities covered by the renewal.
	Domains []string
	// Lineage is the directory holding the renewed cert, key and chain,
	// as seen from the emitter's own filesystem namespace.
	Lineage string
}

// ParseEvent splits a space-separated identity set into an Event.
func ParseEvent(domains, lineage string) Event {
	return Event{
		Domains: strings.Fields(domains),
		Lineage: strings.TrimSpace(lineage),
	}
}

// Matches reports whether target appears as a whole token in the event's
// identity set. "hostname.com" does not match "my.hostname.com".
func (ev Event) Matches(target string) bool {
	for _, d := range ev.Domains {
		if d == target {
			return true
		}
	}
	return false
}

// LoadTarget reads the companion domain file: one line, the single identity
// this hook cares about. Missing or empty is fatal to the invocation —
// failing silently would mean no certificate is ever pushed.
func LoadTarget(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read domain file: %w", err)
	}
	target := strings.TrimSpace(string(data))
	if target == "" {
		return "", fmt.Errorf("domain file %s is empty", path)
	}
	return target, nil
}

// Run publishes the event's lineage into m when target is among the renewed
// identities. It returns whether the marker was written. At most one file
// write; a write failure is fatal and not retried here.
func Run(ev Event, target string, m marker.Marker) (bool, error) {
	if target == "" {
		return false, fmt.Errorf("empty target domain")
	}
	if ev.Lineage == "" {
		return false, fmt.Errorf("empty lineage path")
	}
	if !ev.Matches(target) {
		return false, nil
	}
	if err := m.Publish(ev.Lineage); err != nil {
		return false, err
	}
	return true, nil
}
