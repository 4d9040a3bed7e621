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

// Package member searches members and their optional team with a WHERE
// clause built only from the criteria the caller supplied.
//
// Every search selects from member with a LEFT JOIN on team, so members
// without a team are returned with nil team fields. Paged searches come in
// two flavors: SearchPageSimple fuses fetch and count in one call, while
// SearchPageComplex runs a separate count query only when the page itself
// cannot tell the total.
package member
