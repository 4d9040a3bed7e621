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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSort(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []Sort
		wantErr bool
	}{
		{name: "empty", in: "", want: nil},
		{name: "default asc", in: "username", want: []Sort{{Field: "username", Direction: Asc}}},
		{name: "multiple", in: "age:DESC, username:asc", want: []Sort{SortByDesc("age"), SortBy("username")}},
		{name: "blank segments", in: ",age:desc,,", want: []Sort{SortByDesc("age")}},
		{name: "bad direction", in: "age:down", wantErr: true},
		{name: "missing field", in: ":desc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSort(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDirectionEnum(t *testing.T) {
	assert.True(t, Desc.IsValid())
	assert.Equal(t, "DESC", Desc.String())
	assert.Equal(t, "desc", Desc.Name())
	assert.Equal(t, IllegalValue, Direction(7).Number())
	assert.Equal(t, IllegalName, Direction(7).String())
}

func TestPageRequestDefaults(t *testing.T) {
	req := NewOffsetPageRequest(-5, 0)
	assert.Equal(t, 0, req.GetOffset())
	assert.Equal(t, defaultPageSize, req.GetPageSize())
	assert.Equal(t, 1, req.GetPage())

	req = NewPageRequest(3, 20, SortByDesc("age"))
	assert.Equal(t, 40, req.GetOffset())
	assert.Equal(t, 3, req.GetPage())
	assert.Equal(t, []Sort{SortByDesc("age")}, req.GetSorts())
}

func TestPagination(t *testing.T) {
	p := NewPagination([]string{"a", "b", "c"}, NewOffsetPageRequest(0, 3), 4)
	assert.Equal(t, 3, p.Size())
	assert.Equal(t, 1, p.Page())
	assert.Equal(t, 2, p.TotalPages())
	assert.True(t, p.HasNext())

	last := NewPagination([]string{"d"}, NewOffsetPageRequest(3, 3), 4)
	assert.Equal(t, 2, last.Page())
	assert.False(t, last.HasNext())

	empty := NewPagination[string](nil, NewOffsetPageRequest(0, 3), 0)
	assert.NotNil(t, empty.Content)
	assert.Equal(t, 0, empty.TotalPages())
}

func TestSortErrors(t *testing.T) {
	err := error(&UnsortableFieldError{Field: "password", Allowed: []string{"age", "username"}})
	assert.EqualError(t, err, `unsortable field "password", allowed: age, username`)
	assert.ErrorIs(t, err, ErrUnsortableField)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.NoError(t, SortByDesc("age").CheckDirection())
	err = Sort{Field: "age", Direction: Direction(7)}.CheckDirection()
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.NotErrorIs(t, err, ErrUnsortableField)
}
