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
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func intPtr(v int) *int { return &v }

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestComposeSkipsAbsentTerms(t *testing.T) {
	conj := Compose(
		EqText("m.username", ""),
		EqText("t.name", "   "),
		GoeInt("m.age", nil),
		LoeInt("m.age", nil),
	)
	assert.True(t, conj.IsEmpty())
	assert.Equal(t, "TRUE", conj.String())

	conj = Compose(
		EqText("m.username", ""),
		EqText("t.name", "teamA"),
		GoeInt("m.age", intPtr(5)),
		LoeInt("m.age", nil),
	)
	require.Len(t, conj, 2)
	assert.Equal(t, "t.name = teamA AND m.age >= 5", conj.String())
}

func TestComposeFlattensNestedConjunctions(t *testing.T) {
	inner := Compose(EqValue("m.age", 10), EqText("m.username", "member1"))
	conj := Compose(Term{Present: true, Predicate: inner}, LoeInt("m.age", intPtr(20)))
	assert.Len(t, conj, 3)
}

func TestComposeIsOrderIndependent(t *testing.T) {
	a := Compose(EqText("m.username", "member1"), GoeInt("m.age", intPtr(5)))
	b := Compose(GoeInt("m.age", intPtr(5)), EqText("m.username", "member1"))
	assert.NotEqual(t, a.String(), b.String())
	assert.Equal(t, a.Key(), b.Key())
	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, Compose(EqText("m.username", "member1"))))
}

func TestEqualDistinguishesValueTypes(t *testing.T) {
	num := Compose(EqValue("m.age", 5))
	text := Compose(EqValue("m.age", "5"))
	assert.Equal(t, num.String(), text.String())
	assert.NotEqual(t, num.Key(), text.Key())
	assert.False(t, Equal(num, text))
	assert.True(t, Equal(num, Compose(EqValue("m.age", 5))))
}

func TestComposeSkipsEmptyConjunction(t *testing.T) {
	conj := Compose(Term{Present: true, Predicate: Conjunction{}}, EqValue("m.age", 1))
	assert.Equal(t, "m.age = 1", conj.String())
}

func TestBothRejectsAbsentOperand(t *testing.T) {
	tests := []struct {
		name        string
		left, right Term
		wantSide    string
	}{
		{name: "left absent", left: EqText("m.username", ""), right: EqValue("m.age", 10), wantSide: "left"},
		{name: "right absent", left: EqText("m.username", "member1"), right: GoeInt("m.age", nil), wantSide: "right"},
		{name: "both absent", left: Absent(), right: Absent(), wantSide: "left"},
		{name: "present without predicate", left: Term{Present: true}, right: EqValue("m.age", 10), wantSide: "left"},
		{name: "empty conjunction", left: Term{Present: true, Predicate: Conjunction{}}, right: EqValue("m.age", 1), wantSide: "left"},
		{name: "nested empty conjunction", left: EqValue("m.age", 1), right: Term{Present: true, Predicate: Conjunction{Conjunction{}}}, wantSide: "right"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Both(tt.left, tt.right)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, ErrAbsentOperand)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Contains(t, err.Error(), tt.wantSide)
		})
	}

	p, err := Both(EqText("m.username", "member1"), EqValue("m.age", 10))
	require.NoError(t, err)
	assert.Equal(t, "m.username = member1 AND m.age = 10", p.String())
}

func TestApplyRendersWhereClause(t *testing.T) {
	db := newTestDB(t)

	q := Compose(EqText("m.username", "member1"), GoeInt("m.age", intPtr(5))).
		Apply(db.NewSelect().TableExpr("member AS m"))
	query := q.String()
	assert.Contains(t, query, `"m"."username" = 'member1'`)
	assert.Contains(t, query, `"m"."age" >= 5`)
	assert.Contains(t, query, " AND ")

	open := Compose().Apply(db.NewSelect().TableExpr("member AS m")).String()
	assert.NotContains(t, open, "WHERE")
}

func TestOperatorEnum(t *testing.T) {
	assert.Equal(t, "<=", Loe.String())
	assert.Equal(t, "goe", Goe.Name())
	assert.False(t, Operator(9).IsValid())
	assert.Equal(t, -1, Operator(9).Number())
}
