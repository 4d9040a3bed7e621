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
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument reports a helper called with unusable input.
	ErrInvalidArgument = errors.New("invalid argument")

	ErrUnsortableField = errors.New("unsortable field")
)

// UnsortableFieldError names a sort field outside the allowed set. It
// matches ErrUnsortableField and ErrInvalidArgument.
type UnsortableFieldError struct {
	Field   string
	Allowed []string
}

func (e *UnsortableFieldError) Error() string {
	return fmt.Sprintf("unsortable field %q, allowed: %s", e.Field, strings.Join(e.Allowed, ", "))
}

func (e *UnsortableFieldError) Is(target error) bool { return target == ErrUnsortableField }

func (e *UnsortableFieldError) Unwrap() error { return ErrInvalidArgument }

// CheckDirection rejects a Sort whose direction is neither Asc nor Desc.
func (s Sort) CheckDirection() error {
	if !s.Direction.IsValid() {
		return fmt.Errorf("%w: invalid direction for %q", ErrInvalidArgument, s.Field)
	}
	return nil
}
