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

import "github.com/tomoncle/dynquery/predicate"

const (
	colMemberID = "m.member_id"
	colUsername = "m.username"
	colAge      = "m.age"
	colTeamID   = "t.team_id"
	colTeamName = "t.name"
)

// SearchCondition holds optional search criteria. Empty strings and nil
// bounds are absent and do not constrain the result. Age bounds are inclusive.
type SearchCondition struct {
	Username string `json:"username,omitempty"`
	TeamName string `json:"teamName,omitempty"`
	AgeGoe   *int   `json:"ageGoe,omitempty"`
	AgeLoe   *int   `json:"ageLoe,omitempty"`
}

// Terms lists one term per criterion in field order.
func (c SearchCondition) Terms() []predicate.Term {
	return []predicate.Term{
		predicate.EqText(colUsername, c.Username),
		predicate.EqText(colTeamName, c.TeamName),
		predicate.GoeInt(colAge, c.AgeGoe),
		predicate.LoeInt(colAge, c.AgeLoe),
	}
}

// Predicate is the AND of the present criteria.
func (c SearchCondition) Predicate() predicate.Conjunction {
	return predicate.Compose(c.Terms()...)
}

// AllEq matches username and age equality, either of which may be absent.
func AllEq(username string, age *int) (predicate.Predicate, error) {
	u := predicate.EqText(colUsername, username)
	a := predicate.Absent()
	if age != nil {
		a = predicate.EqValue(colAge, *age)
	}
	if u.Present && a.Present {
		return predicate.Both(u, a)
	}
	return predicate.Compose(u, a), nil
}

// IntPtr is a convenience for building age bounds.
func IntPtr(v int) *int { return &v }
