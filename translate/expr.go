// Package translate converts a query built against the host query surface
// into a logical plan.Node tree.
//
// Go has no runtime reflection over closures, so there is no lambda body
// to parse the way a host expression tree would be walked in a managed
// runtime. The Go-idiomatic equivalent realized here is an explicit,
// immutable Expr value built by a small combinator API (Col("age").Gt(30),
// And(...), Or(...), Not(...)) — the caller constructs the tree directly
// instead of the translator reverse-engineering it from a closure. Translate
// walks this Expr tree, reducing supported shapes to predicate.Predicate
// values and failing explicitly with UnsupportedPattern on anything else.
package translate

import "frozenarrow/predicate"

// exprKind enumerates the shapes an Expr leaf or compound can take.
type exprKind int

const (
	exprCompare exprKind = iota
	exprPattern
	exprIsNull
	exprAnd
	exprOr
	exprNot
)

// Expr is an immutable node in the translator's expression tree. Build one
// via Col(...)'s methods or the And/Or/Not combinators; Expr values are
// never mutated after construction, matching predicate.Predicate's own
// immutability once built.
type Expr struct {
	kind exprKind

	// exprCompare / exprPattern / exprIsNull
	column      string
	op          predicate.CmpOp
	literal     interface{}
	patternKind predicate.StringOpKind
	negated     bool // for exprIsNull: true means IS NOT NULL

	// exprAnd / exprOr / exprNot
	children []*Expr
}

// ColumnRef names a column to build leaf expressions against, the
// combinator-API analogue of a lambda parameter's field access.
type ColumnRef struct {
	name string
}

// Col begins a leaf expression over the named column.
func Col(name string) ColumnRef {
	return ColumnRef{name: name}
}

func (c ColumnRef) cmp(op predicate.CmpOp, value interface{}) *Expr {
	return &Expr{kind: exprCompare, column: c.name, op: op, literal: value}
}

// Eq builds "column = value".
func (c ColumnRef) Eq(value interface{}) *Expr { return c.cmp(predicate.Eq, value) }

// Ne builds "column != value".
func (c ColumnRef) Ne(value interface{}) *Expr { return c.cmp(predicate.Ne, value) }

// Lt builds "column < value".
func (c ColumnRef) Lt(value interface{}) *Expr { return c.cmp(predicate.Lt, value) }

// Le builds "column <= value".
func (c ColumnRef) Le(value interface{}) *Expr { return c.cmp(predicate.Le, value) }

// Gt builds "column > value".
func (c ColumnRef) Gt(value interface{}) *Expr { return c.cmp(predicate.Gt, value) }

// Ge builds "column >= value".
func (c ColumnRef) Ge(value interface{}) *Expr { return c.cmp(predicate.Ge, value) }

// Contains builds "column.Contains(needle)".
func (c ColumnRef) Contains(needle string) *Expr {
	return &Expr{kind: exprPattern, column: c.name, patternKind: predicate.Contains, literal: needle}
}

// StartsWith builds "column.StartsWith(needle)".
func (c ColumnRef) StartsWith(needle string) *Expr {
	return &Expr{kind: exprPattern, column: c.name, patternKind: predicate.StartsWith, literal: needle}
}

// EndsWith builds "column.EndsWith(needle)".
func (c ColumnRef) EndsWith(needle string) *Expr {
	return &Expr{kind: exprPattern, column: c.name, patternKind: predicate.EndsWith, literal: needle}
}

// IsNull builds "column == null".
func (c ColumnRef) IsNull() *Expr {
	return &Expr{kind: exprIsNull, column: c.name}
}

// IsNotNull builds "column != null".
func (c ColumnRef) IsNotNull() *Expr {
	return &Expr{kind: exprIsNull, column: c.name, negated: true}
}

// And builds the conjunction of two or more expressions. A nested And is
// flattened at translation time into a single predicate concatenation
// rather than a tree of binary Ands.
func And(exprs ...*Expr) *Expr {
	return &Expr{kind: exprAnd, children: append([]*Expr(nil), exprs...)}
}

// Or builds the disjunction of exactly two expressions, mirroring
// predicate.Or's binary shape.
func Or(left, right *Expr) *Expr {
	return &Expr{kind: exprOr, children: []*Expr{left, right}}
}

// Not builds the negation of inner.
func Not(inner *Expr) *Expr {
	return &Expr{kind: exprNot, children: []*Expr{inner}}
}
