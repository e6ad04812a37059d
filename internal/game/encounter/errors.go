package encounter

import "errors"

// Sentinel error kinds for the encounter engine. Operations wrap these with
// fmt.Errorf("...: %w", ...) naming the offending field; callers classify
// with errors.Is. Every operation validates fully before mutating, so a
// returned error guarantees unchanged state.
var (
	// ErrNotFound marks an unknown encounter, participant, condition, or aura id.
	ErrNotFound = errors.New("not found")
	// ErrInvalid marks malformed input, such as an unparsable dice expression.
	ErrInvalid = errors.New("invalid input")
	// ErrIllegalState marks a legal request issued at the wrong time: acting
	// out of turn, an exhausted economy slot, or an unreachable destination.
	ErrIllegalState = errors.New("illegal state")
	// ErrEnded marks any operation against an encounter that has ended.
	ErrEnded = errors.New("encounter ended")
)
