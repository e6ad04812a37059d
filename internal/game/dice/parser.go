package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Expression represents a parsed dice expression ready to be rolled.
// Invariant after a successful Parse: Count >= 1, Sides >= 1, and at most
// one of KeepHighest/KeepLowest is non-zero.
type Expression struct {
	Raw         string // original input string
	Count       int    // number of dice
	Sides       int    // faces per die
	Modifier    int    // flat modifier (may be negative)
	KeepHighest int    // if > 0, keep only the N highest dice (e.g. 2d20kh1)
	KeepLowest  int    // if > 0, keep only the N lowest dice (e.g. 2d20kl1)
}

// Parse parses a dice expression string into an Expression.
// Supported forms: "d20", "2d6", "2d6+3", "4d8-2", "2d20kh1", "2d20kl1+5"
//
// Precondition: expr must be a non-empty string.
// Postcondition: Returns a valid Expression or a descriptive error.
func Parse(expr string) (Expression, error) {
	if expr == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}

	raw := expr
	s := strings.ToLower(strings.TrimSpace(expr))

	dIdx := strings.Index(s, "d")
	if dIdx < 0 {
		return Expression{}, fmt.Errorf("dice: missing 'd' in expression %q", raw)
	}

	// Parse count (the part before 'd'); defaults to 1 when omitted.
	var count int
	countStr := s[:dIdx]
	if countStr == "" {
		count = 1
	} else {
		var err error
		count, err = strconv.Atoi(countStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: %w", raw, err)
		}
		if count <= 0 {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: must be >= 1", raw)
		}
	}

	// Everything after 'd'.
	rest := s[dIdx+1:]

	// Extract the keep suffix ("kh<N>" or "kl<N>") before any modifier.
	keepHighest, keepLowest := 0, 0
	if kIdx := strings.IndexAny(rest, "k"); kIdx >= 0 {
		keepPart := rest[kIdx:]
		rest = rest[:kIdx]

		if len(keepPart) < 3 || (keepPart[1] != 'h' && keepPart[1] != 'l') {
			return Expression{}, fmt.Errorf("dice: invalid keep suffix in %q: want kh<N> or kl<N>", raw)
		}
		high := keepPart[1] == 'h'
		numPart := keepPart[2:]

		// numPart may carry the modifier; split at the first sign.
		modOffset := strings.IndexAny(numPart, "+-")
		if modOffset == 0 {
			return Expression{}, fmt.Errorf("dice: missing keep value in %q", raw)
		}
		var keepStr string
		if modOffset > 0 {
			keepStr = numPart[:modOffset]
			rest = rest + numPart[modOffset:]
		} else {
			keepStr = numPart
		}

		keep, err := strconv.Atoi(keepStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid keep value in %q: %w", raw, err)
		}
		if keep <= 0 || keep > count {
			return Expression{}, fmt.Errorf("dice: keep value %d must be > 0 and <= count %d in %q", keep, count, raw)
		}
		if high {
			keepHighest = keep
		} else {
			keepLowest = keep
		}
	}

	// Parse sides and optional modifier from rest.
	// The first '+' or '-' not at position 0 starts the modifier.
	modOffset := -1
	for i := 1; i < len(rest); i++ {
		if rest[i] == '+' || rest[i] == '-' {
			modOffset = i
			break
		}
	}

	var sidesStr, modStr string
	if modOffset >= 0 {
		sidesStr = rest[:modOffset]
		modStr = rest[modOffset:]
	} else {
		sidesStr = rest
	}

	sides, err := strconv.Atoi(sidesStr)
	if err != nil {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: %w", raw, err)
	}
	if sides < 1 {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: must be >= 1", raw)
	}

	modifier := 0
	if modStr != "" {
		modifier, err = strconv.Atoi(modStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", raw, err)
		}
	}

	return Expression{
		Raw:         raw,
		Count:       count,
		Sides:       sides,
		Modifier:    modifier,
		KeepHighest: keepHighest,
		KeepLowest:  keepLowest,
	}, nil
}
