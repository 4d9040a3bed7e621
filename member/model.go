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

	"github.com/tomoncle/dynquery/database"
)

func init() {
	database.RegisteredModel(
		database.NewModelAdapter((*Team)(nil), 0),
		database.NewModelAdapter((*Member)(nil), 1),
	)
}

type Team struct {
	bun.BaseModel `bun:"table:team,alias:t"`

	ID      int64     `bun:"team_id,pk,autoincrement" json:"id"`
	Name    string    `bun:"name,notnull" json:"name"`
	Members []*Member `bun:"rel:has-many,join:team_id=team_id" json:"members,omitempty"`
}

// Member belongs to at most one team.
type Member struct {
	bun.BaseModel `bun:"table:member,alias:m"`

	ID       int64  `bun:"member_id,pk,autoincrement" json:"id"`
	Username string `bun:"username,notnull" json:"username"`
	Age      int    `bun:"age,notnull" json:"age"`
	TeamID   *int64 `bun:"team_id" json:"teamId,omitempty"`
	Team     *Team  `bun:"rel:belongs-to,join:team_id=team_id" json:"team,omitempty"`
}

// ChangeTeam moves m to team. A nil team leaves m without one.
func (m *Member) ChangeTeam(team *Team) {
	m.Team = team
	if team == nil {
		m.TeamID = nil
		return
	}
	id := team.ID
	m.TeamID = &id
}
