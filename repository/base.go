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

package repository

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/dynquery/predicate"
	"github.com/tomoncle/dynquery/types"
)

type baseRepositoryImpl[T any] struct {
	db bun.IDB
}

// NewRepository returns a generic repository bound to db, which may be a
// *bun.DB, a bun.Tx or a bun.Conn.
func NewRepository[T any](db bun.IDB) Repository[T] {
	return &baseRepositoryImpl[T]{db: db}
}

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

func (r *baseRepositoryImpl[T]) NewInsert() *bun.InsertQuery { return r.db.NewInsert() }

func (r *baseRepositoryImpl[T]) NewUpdate() *bun.UpdateQuery { return r.db.NewUpdate() }

func (r *baseRepositoryImpl[T]) NewDelete() *bun.DeleteQuery { return r.db.NewDelete() }

func (r *baseRepositoryImpl[T]) ValsToSlice(entity ...*T) []*T {
	entities := make([]*T, len(entity))
	copy(entities, entity)
	return entities
}

// GetOne loads the entity whose primary key equals id.
func (r *baseRepositoryImpl[T]) GetOne(ctx context.Context, id any) (*T, error) {
	var entity T
	err := r.db.NewSelect().Model(&entity).Where("?PKs = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *baseRepositoryImpl[T]) GetAll(ctx context.Context) ([]*T, error) {
	var entities []*T
	err := r.db.NewSelect().Model(&entities).OrderExpr("?PKs").Scan(ctx)
	return entities, err
}

// List returns the entities matching filter. A nil filter matches all.
func (r *baseRepositoryImpl[T]) List(ctx context.Context, filter predicate.Predicate) ([]*T, error) {
	var entities []*T
	query := r.db.NewSelect().Model(&entities)
	if filter != nil {
		query = filter.Apply(query)
	}
	if err := query.OrderExpr("?PKs").Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) Query(ctx context.Context, query string, args ...interface{}) ([]*T, error) {
	var entities []*T
	err := r.db.NewSelect().Model(&entities).Where(query, args...).Scan(ctx)
	return entities, err
}

// Page fetches one window of the entities matching filter. Sort fields are
// column names of T; without sorts the primary key order is used.
func (r *baseRepositoryImpl[T]) Page(ctx context.Context, filter predicate.Predicate, pageRequest *types.PageRequest) (*types.Pagination[*T], error) {
	base := func() *bun.SelectQuery {
		q := r.db.NewSelect().Model((*T)(nil))
		if filter != nil {
			q = filter.Apply(q)
		}
		return q
	}

	orders, err := r.resolveSorts(pageRequest.GetSorts())
	if err != nil {
		return nil, err
	}

	var entities []*T
	query := base().Model(&entities)
	if len(orders) > 0 {
		for _, o := range orders {
			query = query.OrderExpr(o)
		}
	} else {
		query = query.OrderExpr("?PKs")
	}
	err = query.
		Offset(pageRequest.GetOffset()).
		Limit(pageRequest.GetPageSize()).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return PageOf(ctx, entities, pageRequest, func(ctx context.Context) (int, error) {
		return base().Count(ctx)
	})
}

// resolveSorts checks every sort against the columns of T before any SQL is
// built. Relation and scan-only fields are not sortable.
func (r *baseRepositoryImpl[T]) resolveSorts(sorts []types.Sort) ([]string, error) {
	if len(sorts) == 0 {
		return nil, nil
	}
	table := r.db.Dialect().Tables().Get(reflect.TypeOf((*T)(nil)).Elem())
	orders := make([]string, 0, len(sorts))
	for _, s := range sorts {
		field := columnOf(table, s.Field)
		if field == nil {
			allowed := make([]string, len(table.Fields))
			for i, f := range table.Fields {
				allowed[i] = f.Name
			}
			return nil, &types.UnsortableFieldError{Field: s.Field, Allowed: allowed}
		}
		if err := s.CheckDirection(); err != nil {
			return nil, err
		}
		orders = append(orders, string(table.SQLAlias)+"."+string(field.SQLName)+" "+s.Direction.String())
	}
	return orders, nil
}

func columnOf(table *schema.Table, name string) *schema.Field {
	for _, f := range table.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (r *baseRepositoryImpl[T]) Create(ctx context.Context, entity ...*T) error {
	entities := r.ValsToSlice(entity...)
	_, err := r.db.NewInsert().Model(&entities).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error {
	return r.multipleUpsert(ctx, fields, duplicateKeys, entity...)
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, entity *T) error {
	_, err := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, id any) error {
	_, err := r.db.NewDelete().Model((*T)(nil)).Where("?PKs = ?", id).Exec(ctx)
	return err
}

// WithTx returns a repository for T that runs every statement on tx.
func (r *baseRepositoryImpl[T]) WithTx(tx bun.Tx) Repository[T] {
	return &baseRepositoryImpl[T]{db: tx}
}

func (r *baseRepositoryImpl[T]) multipleUpsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error {
	if len(fields) == 0 {
		return fmt.Errorf("fields cannot be empty")
	}

	insertQuery := r.db.NewInsert()

	entities := r.ValsToSlice(entity...)

	features := r.db.Dialect().Features()
	switch {
	case features.Has(feature.InsertOnConflict):
		return r.upsertWithPostgresqlOrSQLite(ctx, insertQuery, fields, duplicateKeys, entities)
	case features.Has(feature.InsertOnDuplicateKey):
		return r.upsertWithMySQL(ctx, insertQuery, fields, entities)
	default:
		return r.upsertFallback(ctx, entities)
	}
}

func (r *baseRepositoryImpl[T]) upsertWithMySQL(ctx context.Context, insertQuery *bun.InsertQuery, fields []string, entities []*T) error {
	var queryArgs []string
	for _, field := range fields {
		queryArgs = append(queryArgs, fmt.Sprintf("%s = VALUES(%s)", bun.Ident(field), bun.Ident(field)))
	}
	_, err := insertQuery.
		Model(&entities).
		On("DUPLICATE KEY UPDATE " + strings.Join(queryArgs, ", ")).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertWithPostgresqlOrSQLite(ctx context.Context, insertQuery *bun.InsertQuery, fields []string, duplicateKeys []string, entities []*T) error {
	if len(duplicateKeys) == 0 {
		duplicateKeys = []string{"id"}
	}
	keyNames := strings.Join(duplicateKeys, ",")
	var queryArgs []string
	for _, field := range fields {
		queryArgs = append(queryArgs, fmt.Sprintf("%s = EXCLUDED.%s", bun.Ident(field), bun.Ident(field)))
	}
	_, err := insertQuery.
		Model(&entities).
		On("CONFLICT (" + keyNames + ") DO UPDATE").
		Set(strings.Join(queryArgs, ", ")).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertFallback(ctx context.Context, entities []*T) error {
	for _, entity := range entities {
		_, err := r.db.NewInsert().Model(entity).Exec(ctx)
		if err != nil {
			_, updateErr := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx)
			if updateErr != nil {
				return fmt.Errorf("upsert failed for entity: insert error: %v, update error: %v", err, updateErr)
			}
		}
	}
	return nil
}
