package condition

import (
	"fmt"
	"sort"
)

// Indefinite marks a condition with no round duration; it persists until
// removed explicitly.
const Indefinite = -1

// MaxExhaustionLevel caps exhaustion stacking.
const MaxExhaustionLevel = 6

// Instance is one applied condition on a participant.
type Instance struct {
	Kind      Kind   `json:"kind"`
	Remaining int    `json:"remaining"` // rounds left; Indefinite = no duration
	Source    string `json:"source,omitempty"`
	Level     int    `json:"level,omitempty"` // exhaustion level; 0 for other kinds
}

// Set tracks all conditions currently applied to one participant.
// It is not safe for concurrent use; the caller must serialise access.
type Set struct {
	conditions map[Kind]*Instance
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{conditions: make(map[Kind]*Instance)}
}

// Apply adds or refreshes a condition. Re-applying extends the duration to
// max(existing, duration); re-applying exhaustion additionally raises the
// level by one, capped at MaxExhaustionLevel. duration is rounds remaining;
// use Indefinite for no duration.
//
// Precondition: kind must be valid; duration must be > 0 or Indefinite.
// Postcondition: Has(kind) is true.
func (s *Set) Apply(kind Kind, duration int, source string) error {
	if !kind.Valid() {
		return fmt.Errorf("condition: Apply: invalid kind %d", kind)
	}
	if duration <= 0 && duration != Indefinite {
		return fmt.Errorf("condition: Apply %s: duration must be > 0 or indefinite, got %d", kind, duration)
	}

	if existing, ok := s.conditions[kind]; ok {
		if kind == Exhaustion && existing.Level < MaxExhaustionLevel {
			existing.Level++
		}
		if duration == Indefinite || (existing.Remaining != Indefinite && duration > existing.Remaining) {
			existing.Remaining = duration
		}
		if source != "" {
			existing.Source = source
		}
		return nil
	}

	inst := &Instance{Kind: kind, Remaining: duration, Source: source}
	if kind == Exhaustion {
		inst.Level = 1
	}
	s.conditions[kind] = inst
	return nil
}

// Remove deletes kind from the set. Removing an absent kind is a no-op.
//
// Postcondition: Has(kind) is false.
func (s *Set) Remove(kind Kind) {
	delete(s.conditions, kind)
}

// Has reports whether kind is currently active.
func (s *Set) Has(kind Kind) bool {
	_, ok := s.conditions[kind]
	return ok
}

// Get returns the active instance for kind.
func (s *Set) Get(kind Kind) (Instance, bool) {
	if inst, ok := s.conditions[kind]; ok {
		return *inst, true
	}
	return Instance{}, false
}

// ExhaustionLevel returns the current exhaustion level, or 0.
func (s *Set) ExhaustionLevel() int {
	if inst, ok := s.conditions[Exhaustion]; ok {
		return inst.Level
	}
	return 0
}

// Tick decrements every durationed condition by one round and removes any
// reaching 0, returning the expired kinds sorted for determinism. Called
// once at the owner's turn-end. Indefinite conditions are unaffected.
//
// Postcondition: Has(k) is false for every returned k.
func (s *Set) Tick() []Kind {
	var expired []Kind
	for kind, inst := range s.conditions {
		if inst.Remaining == Indefinite {
			continue
		}
		inst.Remaining--
		if inst.Remaining <= 0 {
			expired = append(expired, kind)
			delete(s.conditions, kind)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i] < expired[j] })
	return expired
}

// All returns a snapshot of the active instances sorted by kind.
func (s *Set) All() []Instance {
	out := make([]Instance, 0, len(s.conditions))
	for _, inst := range s.conditions {
		out = append(out, *inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// Len returns the number of active conditions.
func (s *Set) Len() int { return len(s.conditions) }
