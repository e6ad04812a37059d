// Package condition tracks per-participant combat conditions with optional
// round durations, plus the static definitions describing how each condition
// modifies attack rolls, armor class, and movement.
package condition

import "fmt"

// Kind identifies one combat condition. The zero value (KindUnknown) is
// intentionally invalid.
type Kind int

const (
	KindUnknown Kind = iota
	Blinded
	Charmed
	Deafened
	Frightened
	Grappled
	Incapacitated
	Invisible
	Paralyzed
	Petrified
	Poisoned
	Prone
	Restrained
	Stunned
	Unconscious
	Exhaustion
	// Dodging and Disengaging model the dodge/disengage action flags as
	// one-round conditions consulted by attack resolution.
	Dodging
	Disengaging
)

var kindNames = map[Kind]string{
	Blinded:       "blinded",
	Charmed:       "charmed",
	Deafened:      "deafened",
	Frightened:    "frightened",
	Grappled:      "grappled",
	Incapacitated: "incapacitated",
	Invisible:     "invisible",
	Paralyzed:     "paralyzed",
	Petrified:     "petrified",
	Poisoned:      "poisoned",
	Prone:         "prone",
	Restrained:    "restrained",
	Stunned:       "stunned",
	Unconscious:   "unconscious",
	Exhaustion:    "exhaustion",
	Dodging:       "dodging",
	Disengaging:   "disengaging",
}

// String returns the lowercase condition name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether k names a real condition.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind parses a condition name as produced by String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("condition: unknown kind %q", s)
}

// Kinds returns every valid Kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for k := Blinded; k <= Disengaging; k++ {
		out = append(out, k)
	}
	return out
}
