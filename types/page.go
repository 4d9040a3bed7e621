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

package types

import (
	"fmt"
	"strings"
)

const defaultPageSize = 10

// Sort is a single ordering instruction on a named property.
type Sort struct {
	Field     string
	Direction Direction
}

// SortBy returns an ascending Sort on field.
func SortBy(field string) Sort { return Sort{Field: field, Direction: Asc} }

// SortByDesc returns a descending Sort on field.
func SortByDesc(field string) Sort { return Sort{Field: field, Direction: Desc} }

func (s Sort) String() string { return s.Field + ":" + s.Direction.Name() }

// ParseSort parses "field[:asc|desc],field[:asc|desc]". Blank segments are skipped.
func ParseSort(spec string) ([]Sort, error) {
	var sorts []Sort
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field, dir, _ := strings.Cut(part, ":")
		field = strings.TrimSpace(field)
		if field == "" {
			return nil, fmt.Errorf("invalid sort %q: missing field", part)
		}
		d, ok := ParseDirection(dir)
		if !ok {
			return nil, fmt.Errorf("invalid sort %q: direction must be asc or desc", part)
		}
		sorts = append(sorts, Sort{Field: field, Direction: d})
	}
	return sorts, nil
}

// PageRequest describes an offset/limit window and its ordering.
type PageRequest struct {
	offset   int
	pageSize int
	sorts    []Sort
}

func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		p.pageSize = defaultPageSize
	}
	return p.pageSize
}

// GetPage returns the 1-based page number the offset falls in.
func (p *PageRequest) GetPage() int {
	return p.GetOffset()/p.GetPageSize() + 1
}

func (p *PageRequest) GetOffset() int {
	if p.offset < 0 {
		p.offset = 0
	}
	return p.offset
}

func (p *PageRequest) GetSorts() []Sort {
	return p.sorts
}

// NewPageRequest constructs a PageRequest for a 1-based page number.
func NewPageRequest(page int, pageSize int, sorts ...Sort) *PageRequest {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	return &PageRequest{offset: (page - 1) * pageSize, pageSize: pageSize, sorts: sorts}
}

// NewOffsetPageRequest constructs a PageRequest from a raw offset and limit.
func NewOffsetPageRequest(offset int, limit int, sorts ...Sort) *PageRequest {
	return &PageRequest{offset: offset, pageSize: limit, sorts: sorts}
}

// Pagination holds one page of content along with the window and total count.
type Pagination[T any] struct {
	Content []T `json:"content"`
	Offset  int `json:"offset"`
	Limit   int `json:"limit"`
	Total   int `json:"total"`
}

// NewPagination builds a Pagination for req.
func NewPagination[T any](content []T, req *PageRequest, total int) *Pagination[T] {
	if content == nil {
		content = make([]T, 0)
	}
	return &Pagination[T]{Content: content, Offset: req.GetOffset(), Limit: req.GetPageSize(), Total: total}
}

// Size is the number of items on this page.
func (p *Pagination[T]) Size() int { return len(p.Content) }

// Page is the 1-based page number.
func (p *Pagination[T]) Page() int {
	if p.Limit < 1 {
		return 1
	}
	return p.Offset/p.Limit + 1
}

func (p *Pagination[T]) TotalPages() int {
	if p.Limit < 1 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

func (p *Pagination[T]) HasNext() bool {
	return p.Offset+len(p.Content) < p.Total
}
