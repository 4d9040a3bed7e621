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

	"github.com/tomoncle/dynquery/types"
)

// CountFunc returns the number of rows matched by the query behind a page,
// ignoring its offset, limit and ordering.
type CountFunc func(ctx context.Context) (int, error)

// SkipCount reports whether the total can be derived from a fetched page of n
// rows without a count query, and what that total is.
//
// A first page shorter than the limit is the whole result. A later page that
// is non-empty and short is the tail, so the total is offset+n. An empty later
// page proves nothing, since the offset may point past the end.
func SkipCount(offset, limit, n int) (int, bool) {
	if offset == 0 {
		if limit > n {
			return n, true
		}
		return 0, false
	}
	if n > 0 && limit > n {
		return offset + n, true
	}
	return 0, false
}

// PageOf wraps content in a Pagination, calling count only when SkipCount
// cannot derive the total.
func PageOf[T any](ctx context.Context, content []T, req *types.PageRequest, count CountFunc) (*types.Pagination[T], error) {
	total, ok := SkipCount(req.GetOffset(), req.GetPageSize(), len(content))
	if !ok {
		var err error
		if total, err = count(ctx); err != nil {
			return nil, err
		}
	}
	return types.NewPagination(content, req, total), nil
}
