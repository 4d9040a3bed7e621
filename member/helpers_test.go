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
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/tomoncle/dynquery/database"
)

const standardFixture = `
teams:
  - name: teamA
  - name: teamB
members:
  - {username: member1, age: 10, team: teamA}
  - {username: member2, age: 20, team: teamA}
  - {username: member3, age: 30, team: teamB}
  - {username: member4, age: 40, team: teamB}
`

// queryRecorder keeps every statement bun executes.
type queryRecorder struct {
	mu      sync.Mutex
	queries []string
}

func (h *queryRecorder) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryRecorder) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queries = append(h.queries, event.Query)
}

func (h *queryRecorder) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queries = nil
}

func (h *queryRecorder) total() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queries)
}

func (h *queryRecorder) counts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, q := range h.queries {
		if strings.Contains(strings.ToLower(q), "count(") {
			n++
		}
	}
	return n
}

type fixtureDB struct {
	db   *bun.DB
	repo *Repository
	rec  *queryRecorder
}

func newFixtureDB(t *testing.T, fixture string) *fixtureDB {
	t.Helper()
	ctx := context.Background()

	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.CreateSchema(ctx, db, database.SchemaConfig{WithForeignKeys: true}, nil))

	repo := NewRepository(nil)
	f, err := LoadFixture(strings.NewReader(fixture))
	require.NoError(t, err)
	require.NoError(t, repo.Seed(ctx, db, f))

	rec := &queryRecorder{}
	db.AddQueryHook(rec)
	return &fixtureDB{db: db, repo: repo, rec: rec}
}

func usernames(rows []MemberTeamDto) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Username
	}
	return out
}
