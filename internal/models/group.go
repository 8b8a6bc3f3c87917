package models

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Group represents a set of participants who share payments.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Hakone trip").
	Name string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// Participant is a member of a group.
type Participant struct {
	// ID is the stable identifier used by payments and settlements (UUID format).
	ID string

	// GroupID is the group this participant belongs to.
	GroupID string

	// Name is the display name. It is not an identity key.
	Name string

	// CreatedAt is the Unix timestamp when the participant was added.
	CreatedAt int64
}

var folder = cases.Fold()

// NormalizeName maps a display name to the key used for uniqueness checks and
// name lookups. Full-width and half-width forms compare equal, as do case variants.
func NormalizeName(name string) string {
	return folder.String(norm.NFKC.String(strings.TrimSpace(name)))
}

// ParticipantIDs returns the IDs of participants in order.
func ParticipantIDs(participants []*Participant) []string {
	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}
	return ids
}
