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
	"github.com/uptrace/bun"

	"github.com/tomoncle/dynquery/types"
)

type sortField struct {
	name   string
	column string
}

// sortFields maps public property names to columns. Order is kept for
// error messages.
type sortFields []sortField

var (
	projectionSort = sortFields{
		{"memberId", colMemberID},
		{"username", colUsername},
		{"age", colAge},
		{"teamId", colTeamID},
		{"teamName", colTeamName},
	}
	memberDtoSort = sortFields{
		{"username", colUsername},
		{"age", colAge},
		{"memberId", colMemberID},
	}
)

func (f sortFields) names() []string {
	out := make([]string, len(f))
	for i, s := range f {
		out[i] = s.name
	}
	return out
}

func (f sortFields) column(name string) (string, bool) {
	for _, s := range f {
		if s.name == name {
			return s.column, true
		}
	}
	return "", false
}

type orderTerm struct {
	column string
	dir    types.Direction
}

// resolve maps sorts to columns and appends member_id ascending as the
// tie-breaker unless it is already present.
func (f sortFields) resolve(sorts []types.Sort) ([]orderTerm, error) {
	terms := make([]orderTerm, 0, len(sorts)+1)
	byID := false
	for _, s := range sorts {
		col, ok := f.column(s.Field)
		if !ok {
			return nil, &UnsortableFieldError{Field: s.Field, Allowed: f.names()}
		}
		if err := s.CheckDirection(); err != nil {
			return nil, err
		}
		byID = byID || col == colMemberID
		terms = append(terms, orderTerm{column: col, dir: s.Direction})
	}
	if !byID {
		terms = append(terms, orderTerm{column: colMemberID, dir: types.Asc})
	}
	return terms, nil
}

func applyOrder(q *bun.SelectQuery, terms []orderTerm) *bun.SelectQuery {
	for _, t := range terms {
		q = q.OrderExpr("? "+t.dir.String(), bun.Ident(t.column))
	}
	return q
}
