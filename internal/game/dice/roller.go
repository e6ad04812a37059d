package dice

import (
	"fmt"
	"sort"
)

// RollMode selects normal, advantage, or disadvantage rolling for a d20 check.
type RollMode int

const (
	Normal RollMode = iota
	Advantage
	Disadvantage
)

// String returns the human-readable roll mode name.
func (m RollMode) String() string {
	switch m {
	case Advantage:
		return "advantage"
	case Disadvantage:
		return "disadvantage"
	default:
		return "normal"
	}
}

// MaxBatchSize is the maximum number of expressions RollBatch accepts.
const MaxBatchSize = 20

// Roll evaluates an Expression using the given Source and returns a RollResult.
//
// Precondition: expr must come from Parse (Count >= 1, Sides >= 1); src must be non-nil.
// Postcondition: len(result.Rolled) == expr.Count;
//
//	len(result.Kept) == KeepHighest or KeepLowest when set, else expr.Count.
//	result.Total() == sum(result.Kept) + result.Modifier.
func Roll(expr Expression, src Source) (RollResult, error) {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = src.Intn(expr.Sides) + 1
	}

	kept := rolled
	if expr.KeepHighest > 0 || expr.KeepLowest > 0 {
		sorted := make([]int, len(rolled))
		copy(sorted, rolled)
		sort.Ints(sorted)
		if expr.KeepHighest > 0 {
			kept = sorted[len(sorted)-expr.KeepHighest:]
		} else {
			kept = sorted[:expr.KeepLowest]
		}
	}

	return RollResult{
		Expression: expr.Raw,
		Rolled:     rolled,
		Kept:       kept,
		Modifier:   expr.Modifier,
	}, nil
}

// RollExpr parses expr and rolls it using src in a single call.
//
// Precondition: expr must be a valid dice expression string; src must be non-nil.
// Postcondition: Returns a RollResult or a parse/roll error.
func RollExpr(expr string, src Source) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return Roll(e, src)
}

// WithMode applies a RollMode to a parsed expression. Advantage on a bare
// "1d20[+K]" desugars to "2d20kh1[+K]"; disadvantage to "2d20kl1[+K]".
//
// Precondition: expr must come from Parse.
// Postcondition: Returns the desugared Expression, or an error when mode is
// not Normal and expr is not a single plain d20 (count 1, sides 20, no keep).
func WithMode(expr Expression, mode RollMode) (Expression, error) {
	if mode == Normal {
		return expr, nil
	}
	if expr.Count != 1 || expr.Sides != 20 || expr.KeepHighest > 0 || expr.KeepLowest > 0 {
		return Expression{}, fmt.Errorf("dice: %s requires a bare 1d20 expression, got %q", mode, expr.Raw)
	}
	out := expr
	out.Count = 2
	if mode == Advantage {
		out.KeepHighest = 1
	} else {
		out.KeepLowest = 1
	}
	out.Raw = fmt.Sprintf("%s (%s)", expr.Raw, mode)
	return out, nil
}

// RollD20 rolls a d20 check with the given flat modifier and RollMode.
//
// Precondition: src must be non-nil.
// Postcondition: result.Rolled holds one die for Normal, two for
// advantage/disadvantage; exactly one die is kept.
func RollD20(modifier int, mode RollMode, src Source) RollResult {
	expr := Expression{Raw: "1d20", Count: 1, Sides: 20, Modifier: modifier}
	if modifier != 0 {
		expr.Raw = fmt.Sprintf("1d20%+d", modifier)
	}
	withMode, err := WithMode(expr, mode)
	if err != nil {
		// Unreachable: the expression above is always a bare 1d20.
		panic("dice: RollD20 desugar failed: " + err.Error())
	}
	result, err := Roll(withMode, src)
	if err != nil {
		panic("dice: RollD20 roll failed: " + err.Error())
	}
	return result
}

// BatchResult holds the results of a RollBatch evaluation.
type BatchResult struct {
	Results []RollResult
	Sum     int
}

// RollBatch parses and rolls up to MaxBatchSize independent expressions and
// sums their totals. All expressions are validated before any die is rolled,
// so a malformed entry never leaves a partial batch.
//
// Precondition: src must be non-nil.
// Postcondition: On success len(Results) == len(exprs) and Sum == Σ totals;
// on error no dice were rolled.
func RollBatch(exprs []string, src Source) (BatchResult, error) {
	if len(exprs) == 0 {
		return BatchResult{}, fmt.Errorf("dice: empty batch")
	}
	if len(exprs) > MaxBatchSize {
		return BatchResult{}, fmt.Errorf("dice: batch size %d exceeds maximum %d", len(exprs), MaxBatchSize)
	}

	parsed := make([]Expression, len(exprs))
	for i, s := range exprs {
		e, err := Parse(s)
		if err != nil {
			return BatchResult{}, fmt.Errorf("dice: batch entry %d: %w", i, err)
		}
		parsed[i] = e
	}

	out := BatchResult{Results: make([]RollResult, len(parsed))}
	for i, e := range parsed {
		r, err := Roll(e, src)
		if err != nil {
			return BatchResult{}, err
		}
		out.Results[i] = r
		out.Sum += r.Total()
	}
	return out, nil
}

// MustParse parses expr and panics on error. Useful for package-level constants.
//
// Precondition: expr must be a valid dice expression.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}
