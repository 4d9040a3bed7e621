/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package predicate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tomoncle/dynquery/types"
	"github.com/uptrace/bun"
)

// Operator is a comparison operator.
type Operator int

const (
	Eq Operator = iota
	Goe
	Loe
)

var _ types.BaseEnum = Eq

func (o Operator) IsValid() bool { return o >= Eq && o <= Loe }

func (o Operator) Number() int {
	if !o.IsValid() {
		return types.IllegalValue
	}
	return int(o)
}

// String returns the SQL symbol.
func (o Operator) String() string {
	switch o {
	case Eq:
		return "="
	case Goe:
		return ">="
	case Loe:
		return "<="
	default:
		return types.IllegalName
	}
}

func (o Operator) Name() string {
	switch o {
	case Eq:
		return "eq"
	case Goe:
		return "goe"
	case Loe:
		return "loe"
	default:
		return types.IllegalName
	}
}

func (o Operator) Desc() string {
	switch o {
	case Eq:
		return "equal to"
	case Goe:
		return "greater than or equal to"
	case Loe:
		return "less than or equal to"
	default:
		return types.IllegalDesc
	}
}

// Predicate is a boolean condition over a row. It is either a Comparison or
// a Conjunction.
type Predicate interface {
	// Apply appends the condition to the WHERE clause of q.
	Apply(q *bun.SelectQuery) *bun.SelectQuery
	String() string
	predicate()
}

// Comparison is "Column Op Value". Column may be alias-qualified ("m.age").
type Comparison struct {
	Column string
	Op     Operator
	Value  any
}

func (c Comparison) predicate() {}

func (c Comparison) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Where("? "+c.Op.String()+" ?", bun.Ident(c.Column), c.Value)
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s %s %v", c.Column, c.Op, c.Value)
}

// Conjunction is the AND of its members. An empty Conjunction matches all rows.
type Conjunction []Predicate

func (c Conjunction) predicate() {}

func (c Conjunction) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	for _, p := range c {
		q = p.Apply(q)
	}
	return q
}

func (c Conjunction) String() string {
	if len(c) == 0 {
		return "TRUE"
	}
	parts := make([]string, len(c))
	for i, p := range c {
		parts[i] = p.String()
	}
	return strings.Join(parts, " AND ")
}

// IsEmpty reports whether c places no constraint.
func (c Conjunction) IsEmpty() bool { return len(c) == 0 }

// Key renders the member set independent of order. Values carry their Go
// type, so 5 and "5" give different keys.
func (c Conjunction) Key() string {
	parts := make([]string, len(c))
	for i, p := range c {
		parts[i] = keyOf(p)
	}
	sort.Strings(parts)
	return strings.Join(parts, " AND ")
}

// Term pairs a predicate with whether its source value is present.
type Term struct {
	Present   bool
	Predicate Predicate
}

// active is false for a term whose predicate constrains nothing, including
// a Conjunction that flattens to no members.
func (t Term) active() bool {
	return t.Present && len(appendFlat(nil, t.Predicate)) > 0
}

// Absent is a term that contributes nothing.
func Absent() Term { return Term{} }

// EqValue is always present.
func EqValue(column string, value any) Term {
	return Term{Present: true, Predicate: Comparison{Column: column, Op: Eq, Value: value}}
}

// EqText is present when s has non-whitespace text.
func EqText(column string, s string) Term {
	if strings.TrimSpace(s) == "" {
		return Absent()
	}
	return EqValue(column, s)
}

// GoeInt is present when v is non-nil.
func GoeInt(column string, v *int) Term {
	if v == nil {
		return Absent()
	}
	return Term{Present: true, Predicate: Comparison{Column: column, Op: Goe, Value: *v}}
}

// LoeInt is present when v is non-nil.
func LoeInt(column string, v *int) Term {
	if v == nil {
		return Absent()
	}
	return Term{Present: true, Predicate: Comparison{Column: column, Op: Loe, Value: *v}}
}

// Compose ANDs the present terms in order and skips the rest.
func Compose(terms ...Term) Conjunction {
	conj := make(Conjunction, 0, len(terms))
	for _, t := range terms {
		if !t.active() {
			continue
		}
		conj = appendFlat(conj, t.Predicate)
	}
	return conj
}

// Both is the raw two-operand AND. Unlike Compose it refuses to drop a side:
// an absent operand is an ErrAbsentOperand error.
func Both(left, right Term) (Predicate, error) {
	if !left.active() {
		return nil, fmt.Errorf("%w: left", ErrAbsentOperand)
	}
	if !right.active() {
		return nil, fmt.Errorf("%w: right", ErrAbsentOperand)
	}
	return appendFlat(appendFlat(nil, left.Predicate), right.Predicate), nil
}

// Equal reports whether a and b hold the same set of comparisons.
func Equal(a, b Predicate) bool {
	return appendFlat(nil, a).Key() == appendFlat(nil, b).Key()
}

func keyOf(p Predicate) string {
	if c, ok := p.(Comparison); ok {
		return fmt.Sprintf("%s %s %T:%v", c.Column, c.Op, c.Value, c.Value)
	}
	return p.String()
}

func appendFlat(dst Conjunction, p Predicate) Conjunction {
	switch v := p.(type) {
	case nil:
		return dst
	case Conjunction:
		for _, m := range v {
			dst = appendFlat(dst, m)
		}
		return dst
	default:
		return append(dst, v)
	}
}
