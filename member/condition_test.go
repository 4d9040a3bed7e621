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

package member

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/dynquery/predicate"
	"github.com/tomoncle/dynquery/types"
)

func TestConditionTerms(t *testing.T) {
	assert.True(t, SearchCondition{}.Predicate().IsEmpty())

	cond := SearchCondition{Username: "member1", AgeLoe: IntPtr(0)}
	terms := cond.Terms()
	require.Len(t, terms, 4)
	assert.True(t, terms[0].Present)
	assert.False(t, terms[1].Present)
	assert.False(t, terms[2].Present)
	assert.True(t, terms[3].Present, "zero is a present bound")

	assert.Equal(t, "m.username = member1 AND m.age <= 0", cond.Predicate().String())
}

func TestAllEqShape(t *testing.T) {
	p, err := AllEq("member1", IntPtr(10))
	require.NoError(t, err)
	assert.False(t, predicate.Equal(p, SearchCondition{Username: "member1"}.Predicate()))
	assert.True(t, predicate.Equal(p, predicate.Compose(
		predicate.EqValue(colAge, 10),
		predicate.EqText(colUsername, "member1"),
	)))
	assert.Equal(t, "m.username = member1 AND m.age = 10", p.String())

	p, err = AllEq("", IntPtr(10))
	require.NoError(t, err)
	assert.Equal(t, "m.age = 10", p.String())

	p, err = AllEq("", nil)
	require.NoError(t, err)
	assert.Equal(t, "TRUE", p.String())
}

func TestSortResolve(t *testing.T) {
	terms, err := projectionSort.resolve([]types.Sort{types.SortByDesc("teamName")})
	require.NoError(t, err)
	assert.Equal(t, []orderTerm{
		{column: colTeamName, dir: types.Desc},
		{column: colMemberID, dir: types.Asc},
	}, terms)

	terms, err = projectionSort.resolve([]types.Sort{types.SortByDesc("memberId")})
	require.NoError(t, err)
	assert.Equal(t, []orderTerm{{column: colMemberID, dir: types.Desc}}, terms)

	terms, err = projectionSort.resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, []orderTerm{{column: colMemberID, dir: types.Asc}}, terms)

	_, err = projectionSort.resolve([]types.Sort{{Field: "age", Direction: types.Direction(7)}})
	assert.ErrorIs(t, err, predicate.ErrInvalidArgument)
	assert.NotErrorIs(t, err, ErrUnsortableField)
}

func TestLoadFixture(t *testing.T) {
	f, err := LoadFixture(strings.NewReader(standardFixture))
	require.NoError(t, err)
	assert.Len(t, f.Teams, 2)
	require.Len(t, f.Members, 4)
	assert.Equal(t, MemberFixture{Username: "member3", Age: 30, Team: "teamB"}, f.Members[2])

	empty, err := LoadFixture(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty.Members)

	cases := map[string]string{
		"unknown team":   "members:\n  - {username: x, age: 1, team: ghost}\n",
		"blank username": "members:\n  - {username: '', age: 1}\n",
		"negative age":   "members:\n  - {username: x, age: -1}\n",
		"duplicate team": "teams:\n  - name: a\n  - name: a\n",
		"bad yaml":       "teams: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFixture(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}
