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

package database

import (
	"context"
	"fmt"
	"reflect"

	"github.com/uptrace/bun"
)

// CreateSchema creates a table for every registered model in priority order.
// Existing tables are left untouched; columns are never altered.
func CreateSchema(ctx context.Context, db bun.IDB, cfg SchemaConfig, logger Logger) error {
	for _, model := range RegisteredModelInstances() {
		q := db.NewCreateTable().Model(model).IfNotExists()
		if cfg.WithForeignKeys {
			q = q.WithForeignKeys()
		}
		if _, err := q.Exec(ctx); err != nil {
			if is, kind := IsSqlError(err); is && kind == ExistTableErr {
				if logger != nil {
					logger.Debug("Table already exists", "model", modelName(model))
				}
				continue
			}
			return fmt.Errorf("failed to create table for %s: %w", modelName(model), err)
		}
		if logger != nil {
			logger.Debug("Table ensured", "model", modelName(model))
		}
	}
	return nil
}

func modelName(model interface{}) string {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
