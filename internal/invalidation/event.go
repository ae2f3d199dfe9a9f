// Package invalidation consumes external purge events so that rendered
// images can be dropped from the cache without restarting the service.
package invalidation

import (
	"errors"
	"regexp"
)

const (
	TypePurge    = "purge"
	TypePurgeAll = "purge_all"
)

var fingerprintPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Event is one purge request. TypePurge drops every cached format of one
// fingerprint; TypePurgeAll empties the memory tier.
type Event struct {
	Type        string `json:"type"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

func (e Event) Validate() error {
	switch e.Type {
	case TypePurge:
		if !fingerprintPattern.MatchString(e.Fingerprint) {
			return errors.New("purge event: malformed fingerprint")
		}
		return nil
	case TypePurgeAll:
		return nil
	default:
		return errors.New("unknown event type: " + e.Type)
	}
}
