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
	"database/sql"
	"fmt"

	"github.com/tomoncle/dynquery/types"
)

var (
	ErrUnsortableField = types.ErrUnsortableField
	ErrMemberNotFound  = fmt.Errorf("member not found: %w", sql.ErrNoRows)
)

// UnsortableFieldError names a sort field outside the projection's sort map.
type UnsortableFieldError = types.UnsortableFieldError
