// Package dice provides the randomness abstraction and dice-expression
// evaluation for the skirmish combat engine.
package dice

import "fmt"

// RollResult holds the full audit trail for a single dice roll evaluation.
//
// Postcondition: Total() == sum(Kept) + Modifier.
type RollResult struct {
	Expression string // original expression string, e.g. "2d6+3"
	Rolled     []int  // every die rolled, in roll order
	Kept       []int  // dice retained after kh/kl selection (== Rolled when no keep)
	Modifier   int    // flat modifier (may be negative)
}

// Total returns the sum of the kept dice plus the modifier.
//
// Postcondition: return value == sum(r.Kept) + r.Modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Kept {
		total += d
	}
	return total
}

// String returns a human-readable audit string in the format:
//
//	"2d20kh1+5 → rolled [14 3] kept [14] +5 = 19"
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	return fmt.Sprintf("%s → rolled %v kept %v %+d = %d",
		r.Expression, r.Rolled, r.Kept, r.Modifier, r.Total())
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
