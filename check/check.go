// Package check provides composable predicates over incoming updates.
//
// A Check is a tagged variant: a leaf function, or an And, Or or Not node
// wrapping other checks. Evaluation recurses over the tree and short-circuits
// the same way Go's && and || do.
//
//	onlyAdmins := check.Author(42, 43)
//	c := check.Private().And(check.Text("/start")).Or(onlyAdmins.Not())
//	if c.Evaluate(ctx, update) { ... }
package check

import (
	"context"
	"fmt"

	"github.com/python-bale-bot/balego/bale"
)

// Func is the leaf test. It must be pure; ctx is passed so a leaf can
// honor cancellation if it ever suspends.
type Func func(ctx context.Context, u *bale.Update) bool

type op uint8

const (
	opLeaf op = iota
	opAnd
	opOr
	opNot
)

// Check is an immutable predicate tree. The zero value matches every update.
type Check struct {
	op   op
	name string
	fn   Func
	lhs  *Check
	rhs  *Check
}

// New wraps fn as a leaf check. A nil fn matches everything.
func New(name string, fn Func) Check {
	return Check{op: opLeaf, name: name, fn: fn}
}

// And returns a check that holds when both a and b hold. b is not
// evaluated when a is false.
func And(a, b Check) Check {
	return Check{op: opAnd, lhs: &a, rhs: &b}
}

// Or returns a check that holds when a or b holds. b is not evaluated
// when a is true.
func Or(a, b Check) Check {
	return Check{op: opOr, lhs: &a, rhs: &b}
}

// Not negates a.
func Not(a Check) Check {
	return Check{op: opNot, lhs: &a}
}

// And is shorthand for And(c, other).
func (c Check) And(other Check) Check { return And(c, other) }

// Or is shorthand for Or(c, other).
func (c Check) Or(other Check) Check { return Or(c, other) }

// Not is shorthand for Not(c).
func (c Check) Not() Check { return Not(c) }

// Evaluate runs the check against u.
func (c Check) Evaluate(ctx context.Context, u *bale.Update) bool {
	switch c.op {
	case opAnd:
		return c.lhs.Evaluate(ctx, u) && c.rhs.Evaluate(ctx, u)
	case opOr:
		return c.lhs.Evaluate(ctx, u) || c.rhs.Evaluate(ctx, u)
	case opNot:
		return !c.lhs.Evaluate(ctx, u)
	default:
		if c.fn == nil {
			return true
		}
		return c.fn(ctx, u)
	}
}

// String renders the tree, e.g. "And(Private, Not(Text))".
func (c Check) String() string {
	switch c.op {
	case opAnd:
		return fmt.Sprintf("And(%s, %s)", c.lhs, c.rhs)
	case opOr:
		return fmt.Sprintf("Or(%s, %s)", c.lhs, c.rhs)
	case opNot:
		return fmt.Sprintf("Not(%s)", c.lhs)
	default:
		if c.name == "" {
			return "Any"
		}
		return c.name
	}
}

// Any matches every update.
func Any() Check {
	return New("Any", nil)
}

// None matches no update.
func None() Check {
	return New("None", func(context.Context, *bale.Update) bool { return false })
}

// Kind matches updates carrying the given payload kind.
func Kind(k bale.Kind) Check {
	return New("Kind("+k.String()+")", func(_ context.Context, u *bale.Update) bool {
		return u.Kind() == k
	})
}
