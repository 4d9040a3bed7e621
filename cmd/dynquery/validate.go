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

package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// filterFlags are the search criteria flags. Nil ages were not given.
type filterFlags struct {
	Username string `validate:"max=255"`
	Team     string `validate:"max=255"`
	AgeGoe   *int   `validate:"omitnil,gte=0"`
	AgeLoe   *int   `validate:"omitnil,gte=0"`
}

type pageFlags struct {
	Page     int    `validate:"gte=1"`
	Size     int    `validate:"gte=1,lte=1000"`
	Sort     string `validate:"max=512"`
	Strategy string `validate:"oneof=simple complex"`
}

type seedFlags struct {
	File string `validate:"required"`
}

type flagValidator struct {
	validate *validator.Validate
}

func newFlagValidator() *flagValidator {
	return &flagValidator{validate: validator.New()}
}

// Validate checks i and flattens any failures into one error.
func (v *flagValidator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	msgs := formatValidationErrors(err)
	if len(msgs) == 0 {
		return err
	}
	keys := make([]string, 0, len(msgs))
	for k := range msgs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = msgs[k]
	}
	return fmt.Errorf("invalid flags: %s", strings.Join(lines, "; "))
}

func formatValidationErrors(err error) map[string]string {
	out := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			field := flagName(e.Field())
			switch e.Tag() {
			case "required":
				out[field] = field + " is required"
			case "max":
				out[field] = field + " must be at most " + e.Param() + " characters"
			case "gte":
				out[field] = field + " must be greater than or equal to " + e.Param()
			case "lte":
				out[field] = field + " must be less than or equal to " + e.Param()
			case "oneof":
				out[field] = field + " must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
			default:
				out[field] = field + " is invalid"
			}
		}
	}
	return out
}

// flagName turns a struct field such as AgeGoe into its flag, --age-goe.
func flagName(field string) string {
	var b strings.Builder
	b.WriteString("--")
	for i, r := range field {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
