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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/uptrace/bun"
	"gopkg.in/yaml.v3"
)

// Fixture is a YAML document of teams and members. Members reference their
// team by name; an empty team means none.
//
//	teams:
//	  - name: teamA
//	members:
//	  - username: member1
//	    age: 10
//	    team: teamA
type Fixture struct {
	Teams   []TeamFixture   `yaml:"teams"`
	Members []MemberFixture `yaml:"members"`
}

type TeamFixture struct {
	Name string `yaml:"name"`
}

type MemberFixture struct {
	Username string `yaml:"username"`
	Age      int    `yaml:"age"`
	Team     string `yaml:"team,omitempty"`
}

// LoadFixture decodes and checks a fixture document.
func LoadFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func LoadFixtureFile(path string) (*Fixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture: %w", err)
	}
	defer file.Close()
	return LoadFixture(file)
}

// Validate rejects blank or duplicate team names, blank usernames, negative
// ages and references to undeclared teams.
func (f *Fixture) Validate() error {
	teams := make(map[string]struct{}, len(f.Teams))
	for i, t := range f.Teams {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return fmt.Errorf("fixture team #%d: name is empty", i+1)
		}
		if _, dup := teams[name]; dup {
			return fmt.Errorf("fixture team %q: declared twice", name)
		}
		teams[name] = struct{}{}
	}
	for i, m := range f.Members {
		if strings.TrimSpace(m.Username) == "" {
			return fmt.Errorf("fixture member #%d: username is empty", i+1)
		}
		if m.Age < 0 {
			return fmt.Errorf("fixture member %q: negative age %d", m.Username, m.Age)
		}
		if m.Team == "" {
			continue
		}
		if _, ok := teams[strings.TrimSpace(m.Team)]; !ok {
			return fmt.Errorf("fixture member %q: unknown team %q", m.Username, m.Team)
		}
	}
	return nil
}

// Seed inserts the fixture's teams and then its members in one transaction.
func (r *Repository) Seed(ctx context.Context, db bun.IDB, f *Fixture) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		byName := make(map[string]*Team, len(f.Teams))
		teams := make([]*Team, 0, len(f.Teams))
		for _, t := range f.Teams {
			team := &Team{Name: strings.TrimSpace(t.Name)}
			byName[team.Name] = team
			teams = append(teams, team)
		}
		if err := r.SaveTeam(ctx, tx, teams...); err != nil {
			return fmt.Errorf("failed to seed teams: %w", err)
		}

		members := make([]*Member, 0, len(f.Members))
		for _, m := range f.Members {
			member := &Member{Username: m.Username, Age: m.Age}
			if m.Team != "" {
				member.ChangeTeam(byName[strings.TrimSpace(m.Team)])
			}
			members = append(members, member)
		}
		if err := r.SaveMember(ctx, tx, members...); err != nil {
			return fmt.Errorf("failed to seed members: %w", err)
		}
		r.logger.Info("Fixture seeded", "teams", len(teams), "members", len(members))
		return nil
	})
}
