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
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/tomoncle/dynquery/database"
	"github.com/tomoncle/dynquery/predicate"
	"github.com/tomoncle/dynquery/repository"
	"github.com/tomoncle/dynquery/types"
)

const teamJoin = "LEFT JOIN team AS t ON t.team_id = m.team_id"

// Repository runs member queries on the bun.IDB passed to each call, so the
// same Repository serves a *bun.DB, a bun.Tx or a bun.Conn. It is safe for
// concurrent use.
type Repository struct {
	logger database.Logger
}

// NewRepository returns a Repository logging to logger, or to the "MEMBER"
// logger when nil.
func NewRepository(logger database.Logger) *Repository {
	if logger == nil {
		logger = database.NewNamedLogger("MEMBER")
	}
	return &Repository{logger: logger}
}

func (r *Repository) SaveTeam(ctx context.Context, db bun.IDB, teams ...*Team) error {
	if len(teams) == 0 {
		return nil
	}
	return repository.NewRepository[Team](db).Create(ctx, teams...)
}

// SaveMember inserts members. A member whose Team is set but TeamID is not
// takes the team's id.
func (r *Repository) SaveMember(ctx context.Context, db bun.IDB, members ...*Member) error {
	if len(members) == 0 {
		return nil
	}
	for _, m := range members {
		if m.TeamID == nil && m.Team != nil && m.Team.ID != 0 {
			m.ChangeTeam(m.Team)
		}
	}
	return repository.NewRepository[Member](db).Create(ctx, members...)
}

// FindByID loads a member with its team.
func (r *Repository) FindByID(ctx context.Context, db bun.IDB, id int64) (*Member, error) {
	m := new(Member)
	err := db.NewSelect().Model(m).Relation("Team").Where("?PKs = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%d", ErrMemberNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Repository) FindAll(ctx context.Context, db bun.IDB) ([]*Member, error) {
	return repository.NewRepository[Member](db).GetAll(ctx)
}

func (r *Repository) FindByUsername(ctx context.Context, db bun.IDB, username string) ([]*Member, error) {
	return repository.NewRepository[Member](db).List(ctx, predicate.Compose(predicate.EqValue(colUsername, username)))
}

// Search returns every member matching cond with its optional team, in
// member id order.
func (r *Repository) Search(ctx context.Context, db bun.IDB, cond SearchCondition) ([]MemberTeamDto, error) {
	return r.search(ctx, db, cond.Predicate())
}

func (r *Repository) search(ctx context.Context, db bun.IDB, where predicate.Conjunction) ([]MemberTeamDto, error) {
	r.logger.Debug("Member search", "where", where.String())

	dtos := make([]MemberTeamDto, 0)
	q := where.Apply(r.projection(db)).OrderExpr("? ASC", bun.Ident(colMemberID))
	if err := q.Scan(ctx, &dtos); err != nil {
		return nil, err
	}
	return dtos, nil
}

// SearchPageSimple fetches one page and its total in a single ScanAndCount.
func (r *Repository) SearchPageSimple(ctx context.Context, db bun.IDB, cond SearchCondition, page *types.PageRequest) (*types.Pagination[MemberTeamDto], error) {
	page = pageOrDefault(page)
	order, err := projectionSort.resolve(page.GetSorts())
	if err != nil {
		return nil, err
	}
	where := cond.Predicate()
	r.logger.Debug("Member page search", "strategy", "simple", "where", where.String(),
		"offset", page.GetOffset(), "limit", page.GetPageSize())

	dtos := make([]MemberTeamDto, 0)
	q := applyOrder(where.Apply(r.projection(db)), order).
		Offset(page.GetOffset()).
		Limit(page.GetPageSize())
	total, err := q.ScanAndCount(ctx, &dtos)
	if err != nil {
		return nil, err
	}
	return types.NewPagination(dtos, page, total), nil
}

// SearchPageComplex fetches one page, then counts separately unless the page
// is short enough to determine the total on its own.
func (r *Repository) SearchPageComplex(ctx context.Context, db bun.IDB, cond SearchCondition, page *types.PageRequest) (*types.Pagination[MemberTeamDto], error) {
	page = pageOrDefault(page)
	order, err := projectionSort.resolve(page.GetSorts())
	if err != nil {
		return nil, err
	}
	where := cond.Predicate()
	r.logger.Debug("Member page search", "strategy", "complex", "where", where.String(),
		"offset", page.GetOffset(), "limit", page.GetPageSize())

	dtos := make([]MemberTeamDto, 0)
	q := applyOrder(where.Apply(r.projection(db)), order).
		Offset(page.GetOffset()).
		Limit(page.GetPageSize())
	if err := q.Scan(ctx, &dtos); err != nil {
		return nil, err
	}

	counted := false
	result, err := repository.PageOf(ctx, dtos, page, func(ctx context.Context) (int, error) {
		counted = true
		return where.Apply(r.joined(db)).Count(ctx)
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Member page total", "total", result.Total, "counted", counted)
	return result, nil
}

// SearchWithSort returns username and age of the matching members in the
// requested order and window.
func (r *Repository) SearchWithSort(ctx context.Context, db bun.IDB, cond SearchCondition, page *types.PageRequest) ([]MemberDto, error) {
	page = pageOrDefault(page)
	order, err := memberDtoSort.resolve(page.GetSorts())
	if err != nil {
		return nil, err
	}
	where := cond.Predicate()
	r.logger.Debug("Member sorted search", "where", where.String(), "order", page.GetSorts())

	dtos := make([]MemberDto, 0)
	q := r.joined(db).
		ColumnExpr("? AS username", bun.Ident(colUsername)).
		ColumnExpr("? AS age", bun.Ident(colAge))
	q = applyOrder(where.Apply(q), order).
		Offset(page.GetOffset()).
		Limit(page.GetPageSize())
	if err := q.Scan(ctx, &dtos); err != nil {
		return nil, err
	}
	return dtos, nil
}

func (r *Repository) joined(db bun.IDB) *bun.SelectQuery {
	return db.NewSelect().Model((*Member)(nil)).Join(teamJoin)
}

func (r *Repository) projection(db bun.IDB) *bun.SelectQuery {
	return r.joined(db).
		ColumnExpr("? AS member_id", bun.Ident(colMemberID)).
		ColumnExpr("? AS username", bun.Ident(colUsername)).
		ColumnExpr("? AS age", bun.Ident(colAge)).
		ColumnExpr("? AS team_id", bun.Ident(colTeamID)).
		ColumnExpr("? AS team_name", bun.Ident(colTeamName))
}

func pageOrDefault(page *types.PageRequest) *types.PageRequest {
	if page == nil {
		return types.NewPageRequest(1, 0)
	}
	return page
}
