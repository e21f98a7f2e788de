// Package engine implements the executor shell: the predicate tree,
// scan/filter/sort evaluation, and dispatch for the operation
// descriptors (CREATE TABLE/INSERT/SELECT/UPDATE/DELETE/CREATE INDEX)
// that an external query parser is expected to produce.
package engine

import (
	"fmt"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/GoldaRizki/sawitdb/internal/storage/pager"
)

// stringCollator orders Unicode text deterministically for <, <=, >, >=
// and ORDER BY on string columns, rather than comparing raw bytes.
var stringCollator = collate.New(language.Und)

// Compare orders two values of the same kind, returning -1, 0, or 1.
// Comparing values of different kinds is an error — callers (relational
// operators, ORDER BY) only ever compare same-kind operands in practice
// because mixed-kind comparisons are not meaningful for a schemaless
// store; predicate evaluation treats such a comparison as "no match"
// rather than propagating the error to the caller.
func Compare(a, b pager.Value) (int, error) {
	if a.Kind != b.Kind {
		return 0, fmt.Errorf("engine: cannot compare %v and %v", a.Kind, b.Kind)
	}
	switch a.Kind {
	case pager.KindNull:
		return 0, nil
	case pager.KindBool:
		if a.B == b.B {
			return 0, nil
		}
		if !a.B && b.B {
			return -1, nil
		}
		return 1, nil
	case pager.KindInt64:
		switch {
		case a.I < b.I:
			return -1, nil
		case a.I > b.I:
			return 1, nil
		default:
			return 0, nil
		}
	case pager.KindFloat64:
		switch {
		case a.F < b.F:
			return -1, nil
		case a.F > b.F:
			return 1, nil
		default:
			return 0, nil
		}
	case pager.KindString, pager.KindTimestamp:
		return stringCollator.CompareString(a.S, b.S), nil
	default:
		return 0, fmt.Errorf("engine: unknown value kind %d", a.Kind)
	}
}

// matchLike is a classic two-pointer SQL LIKE matcher supporting % and
// _ wildcards (no ESCAPE clause).
func matchLike(s, pattern string) bool {
	sIdx, pIdx := 0, 0
	sLen, pLen := len(s), len(pattern)
	star, match := -1, 0

	for sIdx < sLen {
		if pIdx < pLen {
			pc := pattern[pIdx]
			if pc == '%' {
				star = pIdx
				match = sIdx
				pIdx++
				continue
			}
			if pc == '_' || pc == s[sIdx] {
				sIdx++
				pIdx++
				continue
			}
		}
		if star != -1 {
			pIdx = star + 1
			match++
			sIdx = match
			continue
		}
		return false
	}
	for pIdx < pLen && pattern[pIdx] == '%' {
		pIdx++
	}
	return pIdx == pLen
}

// displayString renders a value for LIKE matching against non-string
// operands.
func displayString(v pager.Value) string {
	switch v.Kind {
	case pager.KindString, pager.KindTimestamp:
		return v.S
	case pager.KindBool:
		return fmt.Sprintf("%t", v.B)
	case pager.KindInt64:
		return fmt.Sprintf("%d", v.I)
	case pager.KindFloat64:
		return fmt.Sprintf("%v", v.F)
	case pager.KindNull:
		return ""
	default:
		return ""
	}
}
