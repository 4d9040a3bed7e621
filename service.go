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

package dynquery

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/uptrace/bun"

	"github.com/tomoncle/dynquery/database"
	"github.com/tomoncle/dynquery/member"
	"github.com/tomoncle/dynquery/predicate"
	"github.com/tomoncle/dynquery/types"
)

// PageStrategy selects how a paged search obtains its total.
type PageStrategy int

const (
	// PageSimple fuses fetch and count.
	PageSimple PageStrategy = iota
	// PageComplex counts separately and only when needed.
	PageComplex
)

var _ types.BaseEnum = PageSimple

func (s PageStrategy) IsValid() bool { return s == PageSimple || s == PageComplex }

func (s PageStrategy) Number() int {
	if !s.IsValid() {
		return types.IllegalValue
	}
	return int(s)
}

func (s PageStrategy) String() string { return s.Name() }

func (s PageStrategy) Name() string {
	switch s {
	case PageSimple:
		return "simple"
	case PageComplex:
		return "complex"
	default:
		return types.IllegalName
	}
}

func (s PageStrategy) Desc() string {
	switch s {
	case PageSimple:
		return "fetch and count in one call"
	case PageComplex:
		return "separate count, skipped when the page is short"
	default:
		return types.IllegalDesc
	}
}

func ParsePageStrategy(name string) (PageStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "simple":
		return PageSimple, nil
	case "complex":
		return PageComplex, nil
	default:
		return PageStrategy(types.IllegalValue), fmt.Errorf("%w: unknown page strategy %q", predicate.ErrInvalidArgument, name)
	}
}

// MemberService is the entry point for member searches.
type MemberService interface {
	// Search returns every member matching cond.
	Search(ctx context.Context, cond member.SearchCondition) ([]member.MemberTeamDto, error)

	// Page returns one page of matches using strategy.
	Page(ctx context.Context, cond member.SearchCondition, page *types.PageRequest, strategy PageStrategy) (*types.Pagination[member.MemberTeamDto], error)

	// SearchWithSort returns usernames and ages in the requested order.
	SearchWithSort(ctx context.Context, cond member.SearchCondition, page *types.PageRequest) ([]member.MemberDto, error)

	Get(ctx context.Context, id int64) (*member.Member, error)

	All(ctx context.Context) ([]*member.Member, error)

	// Seed loads a fixture.
	Seed(ctx context.Context, fixture *member.Fixture) error

	// WithTx returns a service running on tx.
	WithTx(tx bun.Tx) MemberService
}

type memberServiceImpl struct {
	db   bun.IDB
	repo *member.Repository
	once sync.Once
}

// NewMemberService returns a service running on db. A nil db resolves to the
// global database on first use.
func NewMemberService(db bun.IDB) MemberService {
	return &memberServiceImpl{db: db, repo: member.NewRepository(nil)}
}

func (s *memberServiceImpl) conn() bun.IDB {
	s.once.Do(func() {
		if s.db == nil {
			s.db = database.GetDB()
		}
	})
	return s.db
}

func (s *memberServiceImpl) Search(ctx context.Context, cond member.SearchCondition) ([]member.MemberTeamDto, error) {
	return s.repo.Search(ctx, s.conn(), cond)
}

func (s *memberServiceImpl) Page(ctx context.Context, cond member.SearchCondition, page *types.PageRequest, strategy PageStrategy) (*types.Pagination[member.MemberTeamDto], error) {
	switch strategy {
	case PageSimple:
		return s.repo.SearchPageSimple(ctx, s.conn(), cond, page)
	case PageComplex:
		return s.repo.SearchPageComplex(ctx, s.conn(), cond, page)
	default:
		return nil, fmt.Errorf("%w: unknown page strategy %d", predicate.ErrInvalidArgument, int(strategy))
	}
}

func (s *memberServiceImpl) SearchWithSort(ctx context.Context, cond member.SearchCondition, page *types.PageRequest) ([]member.MemberDto, error) {
	return s.repo.SearchWithSort(ctx, s.conn(), cond, page)
}

func (s *memberServiceImpl) Get(ctx context.Context, id int64) (*member.Member, error) {
	return s.repo.FindByID(ctx, s.conn(), id)
}

func (s *memberServiceImpl) All(ctx context.Context) ([]*member.Member, error) {
	return s.repo.FindAll(ctx, s.conn())
}

func (s *memberServiceImpl) Seed(ctx context.Context, fixture *member.Fixture) error {
	return s.repo.Seed(ctx, s.conn(), fixture)
}

func (s *memberServiceImpl) WithTx(tx bun.Tx) MemberService {
	return &memberServiceImpl{db: tx, repo: s.repo}
}
