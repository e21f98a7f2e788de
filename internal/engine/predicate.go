package engine

import (
	"fmt"

	"github.com/GoldaRizki/sawitdb/internal/storage/pager"
)

// Op enumerates the leaf comparison operators a predicate node can use.
type Op string

const (
	OpEq         Op = "="
	OpNeq        Op = "!="
	OpLt         Op = "<"
	OpLte        Op = "<="
	OpGt         Op = ">"
	OpGte        Op = ">="
	OpIn         Op = "IN"
	OpNotIn      Op = "NOT IN"
	OpLike       Op = "LIKE"
	OpBetween    Op = "BETWEEN"
	OpIsNull     Op = "IS NULL"
	OpIsNotNull  Op = "IS NOT NULL"
)

// Criteria is the predicate tree: either a single leaf comparison, or an
// AND/OR combination of sub-criteria. Precisely one of Leaf, And, Or
// should be non-zero/non-nil.
type Criteria struct {
	// Leaf fields.
	Key    string
	Op     Op
	Val    pager.Value   // operand for =,!=,<,<=,>,>=,LIKE
	Vals   []pager.Value // operands for IN, NOT IN, and the two BETWEEN bounds

	And []Criteria
	Or  []Criteria
}

// Leaf builds a single {key, op, val} criteria node.
func Leaf(key string, op Op, val pager.Value) Criteria {
	return Criteria{Key: key, Op: op, Val: val}
}

// LeafMulti builds an IN / NOT IN / BETWEEN criteria node.
func LeafMulti(key string, op Op, vals []pager.Value) Criteria {
	return Criteria{Key: key, Op: op, Vals: vals}
}

// And combines criteria that must all hold.
func And(cs ...Criteria) Criteria { return Criteria{And: cs} }

// Or combines criteria where any one holding is enough.
func Or(cs ...Criteria) Criteria { return Criteria{Or: cs} }

// isLeaf reports whether c is a leaf node (as opposed to And/Or).
func (c Criteria) isLeaf() bool { return c.And == nil && c.Or == nil }

// Eval evaluates the predicate against rec. AND binds tighter than OR in
// any tree built by a parser that flattens precedence before construction
// — this tree itself makes precedence explicit via nesting, so Eval just
// recurses.
func Eval(c Criteria, rec *pager.Record) (bool, error) {
	if len(c.And) > 0 {
		for _, sub := range c.And {
			ok, err := Eval(sub, rec)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	}
	if len(c.Or) > 0 {
		for _, sub := range c.Or {
			ok, err := Eval(sub, rec)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
	return evalLeaf(c, rec)
}

func evalLeaf(c Criteria, rec *pager.Record) (bool, error) {
	v, present := rec.Get(c.Key)

	switch c.Op {
	case OpIsNull:
		return !present || v.Kind == pager.KindNull, nil
	case OpIsNotNull:
		return present && v.Kind != pager.KindNull, nil
	}

	if !present {
		return false, nil
	}

	switch c.Op {
	case OpEq:
		return v.Kind == c.Val.Kind && v.Equal(c.Val), nil
	case OpNeq:
		return !(v.Kind == c.Val.Kind && v.Equal(c.Val)), nil
	case OpLt, OpLte, OpGt, OpGte:
		if v.Kind != c.Val.Kind {
			return false, nil
		}
		cmp, err := Compare(v, c.Val)
		if err != nil {
			return false, err
		}
		switch c.Op {
		case OpLt:
			return cmp < 0, nil
		case OpLte:
			return cmp <= 0, nil
		case OpGt:
			return cmp > 0, nil
		case OpGte:
			return cmp >= 0, nil
		}
	case OpIn, OpNotIn:
		found := false
		for _, cand := range c.Vals {
			if cand.Kind == v.Kind && cand.Equal(v) {
				found = true
				break
			}
		}
		if c.Op == OpIn {
			return found, nil
		}
		return !found, nil
	case OpLike:
		if c.Val.Kind != pager.KindString {
			return false, fmt.Errorf("engine: LIKE pattern must be a string")
		}
		return matchLike(displayString(v), c.Val.S), nil
	case OpBetween:
		if len(c.Vals) != 2 {
			return false, fmt.Errorf("engine: BETWEEN requires exactly two bounds")
		}
		lo, hi := c.Vals[0], c.Vals[1]
		if v.Kind != lo.Kind || v.Kind != hi.Kind {
			return false, nil
		}
		cl, err := Compare(v, lo)
		if err != nil {
			return false, err
		}
		ch, err := Compare(v, hi)
		if err != nil {
			return false, err
		}
		return cl >= 0 && ch <= 0, nil
	}
	return false, fmt.Errorf("engine: unknown operator %q", c.Op)
}

// indexableEquality reports whether c is a single equality leaf on
// column, letting the executor bypass a full scan via the index map.
func indexableEquality(c Criteria, column string) (pager.Value, bool) {
	if !c.isLeaf() || c.Op != OpEq || c.Key != column {
		return pager.Value{}, false
	}
	return c.Val, true
}
