// Package reconcile computes set-reconciliation plans for child collections
// (schedules, questions, files, group links) against a desired state.
// Planning is a pure computation; applying a plan (soft-deleting removals,
// inserting additions) is the owning repository's job and must be idempotent.
package reconcile

import (
	"time"

	"github.com/google/uuid"
)

// Child is a persisted child record of some parent entity, reduced to the
// parts reconciliation cares about: the identifier the store assigned and the
// normalized comparison key.
type Child struct {
	ID  uuid.UUID
	Key string
}

// Plan partitions a child collection relative to a desired key set.
// ToRemove holds current records to soft-delete, ToAdd holds normalized keys
// to insert, ToKeep holds current records left untouched.
type Plan struct {
	ToRemove []Child
	ToAdd    []string
	ToKeep   []Child
}

// Empty reports whether applying the plan would change nothing.
func (p Plan) Empty() bool {
	return len(p.ToRemove) == 0 && len(p.ToAdd) == 0
}

// KeyFunc normalizes a raw key before comparison.
type KeyFunc func(string) string

// Identity is a KeyFunc that compares keys verbatim.
func Identity(key string) string { return key }

const canonicalLayout = "2006-01-02T15:04:05.000Z07:00"

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// NormalizeDatetime canonicalizes a datetime string to UTC RFC 3339 with
// millisecond precision, so that the same instant in different
// representations compares equal. Unparseable input passes through unchanged
// rather than failing the whole reconciliation.
func NormalizeDatetime(key string) string {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, key); err == nil {
			return t.UTC().Format(canonicalLayout)
		}
	}
	return key
}

// Compute builds the reconciliation plan for the given current records and
// desired keys. Both sides are normalized through the KeyFunc before
// comparison; duplicates within desired collapse to one entry. Comparison is
// by key only, never by record ID. An empty desired set removes everything;
// an empty current set adds everything.
func Compute(current []Child, desired []string, normalize KeyFunc) Plan {
	if normalize == nil {
		normalize = Identity
	}

	desiredSet := make(map[string]struct{}, len(desired))
	desiredOrder := make([]string, 0, len(desired))
	for _, key := range desired {
		normalized := normalize(key)
		if _, seen := desiredSet[normalized]; seen {
			continue
		}
		desiredSet[normalized] = struct{}{}
		desiredOrder = append(desiredOrder, normalized)
	}

	currentSet := make(map[string]struct{}, len(current))
	var plan Plan
	for _, record := range current {
		normalized := normalize(record.Key)
		currentSet[normalized] = struct{}{}
		if _, wanted := desiredSet[normalized]; wanted {
			plan.ToKeep = append(plan.ToKeep, record)
		} else {
			plan.ToRemove = append(plan.ToRemove, record)
		}
	}

	for _, key := range desiredOrder {
		if _, exists := currentSet[key]; !exists {
			plan.ToAdd = append(plan.ToAdd, key)
		}
	}

	return plan
}
